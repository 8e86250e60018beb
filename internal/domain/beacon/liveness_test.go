package beacon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsActive(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		lastSeen *time.Time
		want     bool
	}{
		{name: "never seen", lastSeen: nil, want: false},
		{name: "seen just now", lastSeen: ptrTime(now), want: true},
		{name: "seen inside window", lastSeen: ptrTime(now.Add(-4*time.Minute - 59*time.Second)), want: true},
		{name: "seen exactly at window edge", lastSeen: ptrTime(now.Add(-ActiveWindow)), want: false},
		{name: "seen outside window", lastSeen: ptrTime(now.Add(-10 * time.Minute)), want: false},
		{name: "seen in the future", lastSeen: ptrTime(now.Add(time.Minute)), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsActive(tt.lastSeen, now))
		})
	}
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
