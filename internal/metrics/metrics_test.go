package metrics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDBQuery(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		table     string
		err       error
		wantErr   string
	}{
		{
			name:      "successful select",
			operation: "SELECT",
			table:     "plan_sessions",
		},
		{
			name:      "failed insert",
			operation: "INSERT",
			table:     "plan_ips",
			err:       errors.New("constraint failed"),
			wantErr:   "constraint failed",
		},
		{
			name:      "long error is truncated",
			operation: "UPDATE",
			table:     "plan_users",
			err:       errors.New(strings.Repeat("x", 80)),
			wantErr:   strings.Repeat("x", 50),
		},
		{
			name:      "canceled context",
			operation: "DELETE",
			table:     "plan_tps",
			err:       fmt.Errorf("exec: %w", context.Canceled),
			wantErr:   "canceled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(DBQueryErrors.WithLabelValues(tt.operation, tt.table, tt.wantErr))

			RecordDBQuery(tt.operation, tt.table, 3*time.Millisecond, tt.err)

			if tt.err == nil {
				return
			}
			after := testutil.ToFloat64(DBQueryErrors.WithLabelValues(tt.operation, tt.table, tt.wantErr))
			if after != before+1 {
				t.Errorf("error counter = %v, want %v", after, before+1)
			}
		})
	}
}

func TestRecordTransaction(t *testing.T) {
	before := testutil.ToFloat64(TransactionsTotal.WithLabelValues("TestTransaction", "committed"))
	RecordTransaction("TestTransaction", "committed", time.Millisecond)
	RecordTransaction("TestTransaction", "committed", 0)

	if got := testutil.ToFloat64(TransactionsTotal.WithLabelValues("TestTransaction", "committed")); got != before+2 {
		t.Errorf("transactions counter = %v, want %v", got, before+2)
	}
}

func TestRecordDropped(t *testing.T) {
	before := testutil.ToFloat64(SubmissionsDropped.WithLabelValues("queue_full"))
	RecordDropped("queue_full")
	if got := testutil.ToFloat64(SubmissionsDropped.WithLabelValues("queue_full")); got != before+1 {
		t.Errorf("dropped counter = %v, want %v", got, before+1)
	}
}
