package mutators

import (
	"math"
	"time"

	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
)

const weekMillis = 7 * dayMillis

// MaxActivityIndex is the exclusive upper bound of the score.
const MaxActivityIndex = 5.0

// Activity groups, highest first.
const (
	VeryActive = "Very Active"
	Active     = "Active"
	Regular    = "Regular"
	Irregular  = "Irregular"
	Inactive   = "Inactive"
)

// Thresholds configure what counts as an active week.
type Thresholds struct {
	// PlayThreshold is the active playtime of a fully active week.
	PlayThreshold time.Duration
	// LoginThreshold is the session count of a fully active week.
	LoginThreshold int
}

// ActivityIndex scores how engaged a player was over the three weeks before
// a date. The score grows with playtime and session count and stays in [0, 5).
type ActivityIndex struct {
	Value float64
	Date  int64
}

// NewActivityIndex scores sessions against the thresholds at the given date.
func NewActivityIndex(sessions []*models.Session, date int64, th Thresholds) ActivityIndex {
	return ActivityIndex{Value: activityScore(sessions, date, th), Date: date}
}

func activityScore(sessions []*models.Session, date int64, th Thresholds) float64 {
	playThreshold := float64(th.PlayThreshold.Milliseconds())
	if playThreshold <= 0 {
		playThreshold = 1
	}
	loginThreshold := float64(th.LoginThreshold)
	if loginThreshold <= 0 {
		loginThreshold = 1
	}

	m := NewSessions(sessions).At(date)

	var (
		playScore  float64
		loginScore float64
		totalPlay  int64
		totalLogin int
	)
	for week := int64(0); week < 3; week++ {
		before := date - week*weekMillis
		inWeek := m.FilterSessionsBetween(before-weekMillis, before)

		played := inWeek.ActivePlaytime()
		logins := inWeek.Count()
		totalPlay += played
		totalLogin += logins

		playScore += math.Min(1, float64(played)/playThreshold)
		loginScore += math.Min(1, float64(logins)/loginThreshold)
	}

	score := playScore + loginScore/3

	if float64(totalPlay) > 3*playThreshold {
		score *= 1.25
	}
	if totalLogin <= 2 {
		score *= 0.75
	}

	switch {
	case score < 0:
		return 0
	case score >= MaxActivityIndex:
		return math.Nextafter(MaxActivityIndex, 0)
	}

	return score
}

// Group returns the label of the score.
func (a ActivityIndex) Group() string {
	return ActivityGroup(a.Value)
}

// ActivityGroup labels a score.
func ActivityGroup(value float64) string {
	switch {
	case value >= 3.75:
		return VeryActive
	case value >= 3:
		return Active
	case value >= 2:
		return Regular
	case value >= 1:
		return Irregular
	default:
		return Inactive
	}
}
