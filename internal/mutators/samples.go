package mutators

import (
	"github.com/google/uuid"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
)

// Pings aggregates ping summaries.
type Pings []models.Ping

// FilterByServer keeps the pings measured on one server.
func (p Pings) FilterByServer(server uuid.UUID) Pings {
	var out Pings
	for _, ping := range p {
		if ping.ServerUUID == server {
			out = append(out, ping)
		}
	}

	return out
}

// Average is the mean of the average pings, or -1 without samples.
func (p Pings) Average() float64 {
	if len(p) == 0 {
		return -1
	}

	values := make([]float64, len(p))
	for i, ping := range p {
		values[i] = ping.Average
	}

	return Average(values)
}

// Min is the lowest measured ping, or -1 without samples.
func (p Pings) Min() int {
	if len(p) == 0 {
		return -1
	}

	low := p[0].Min
	for _, ping := range p[1:] {
		low = min(low, ping.Min)
	}

	return low
}

// Max is the highest measured ping, or -1 without samples.
func (p Pings) Max() int {
	high := -1
	for _, ping := range p {
		high = max(high, ping.Max)
	}

	return high
}

// Median is the median of the average pings, or -1 without samples.
func (p Pings) Median() float64 {
	values := make([]float64, len(p))
	for i, ping := range p {
		values[i] = ping.Average
	}

	return Median(values)
}

// MeanPing is the representative value of a sampling window: the median of
// the samples, truncated to whole milliseconds, or -1 without samples.
func MeanPing(samples []int) int {
	return int(Median(samples))
}

// LowTPSThreshold is the tick rate below which a sample counts as a spike.
const LowTPSThreshold = 18.0

// TPS aggregates performance samples.
type TPS []models.TPS

// Between keeps the samples dated within [after, before].
func (t TPS) Between(after, before int64) TPS {
	return FilterBetween(t, func(s models.TPS) int64 { return s.Date }, after, before)
}

// AverageTPS is the mean tick rate, or -1 without samples.
func (t TPS) AverageTPS() float64 {
	return t.average(func(s models.TPS) float64 { return s.TicksPerSec })
}

// AverageCPU is the mean CPU usage of samples reporting it, or -1.
func (t TPS) AverageCPU() float64 {
	var values []float64
	for _, s := range t {
		if s.CPUUsage >= 0 {
			values = append(values, s.CPUUsage)
		}
	}
	if len(values) == 0 {
		return -1
	}

	return Average(values)
}

// AverageRAM is the mean used memory, or -1 without samples.
func (t TPS) AverageRAM() float64 {
	return t.average(func(s models.TPS) float64 { return float64(s.UsedMemory) })
}

// AverageEntities is the mean entity count, or -1 without samples.
func (t TPS) AverageEntities() float64 {
	return t.average(func(s models.TPS) float64 { return float64(s.Entities) })
}

// AverageChunks is the mean loaded chunk count, or -1 without samples.
func (t TPS) AverageChunks() float64 {
	return t.average(func(s models.TPS) float64 { return float64(s.ChunksLoaded) })
}

func (t TPS) average(value func(models.TPS) float64) float64 {
	if len(t) == 0 {
		return -1
	}

	values := make([]float64, len(t))
	for i, s := range t {
		values[i] = value(s)
	}

	return Average(values)
}

// LowTPSSpikes counts drops below the threshold; consecutive low samples
// are one spike.
func (t TPS) LowTPSSpikes(threshold float64) int {
	spikes := 0
	low := false
	for _, s := range t {
		switch {
		case s.TicksPerSec < threshold && !low:
			spikes++
			low = true
		case s.TicksPerSec >= threshold:
			low = false
		}
	}

	return spikes
}

// PeakPlayers returns the sample with most players online, or nil.
func (t TPS) PeakPlayers() *models.DateValue {
	var peak *models.DateValue
	for _, s := range t {
		if peak == nil || s.Players > peak.Value {
			peak = &models.DateValue{Date: s.Date, Value: s.Players}
		}
	}

	return peak
}
