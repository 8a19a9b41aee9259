package models

import (
	"testing"
	"time"

	"indico/internal/domain"

	"github.com/stretchr/testify/assert"
)

func policyWindow(now time.Time, start, end time.Duration, status string) Policy {
	return Policy{
		StartDate: now.Add(start).UnixMilli(),
		EndDate:   now.Add(end).UnixMilli(),
		Status:    status,
	}
}

const day = 24 * time.Hour

func TestPolicyRemainingDays(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		end  time.Duration
		want int
	}{
		{"ten days ahead", 10 * day, 10},
		{"partial day floors", 10*day - time.Minute, 9},
		{"less than a day", 3 * time.Hour, 0},
		{"exactly now", 0, 0},
		{"one day past", -day, 0},
		{"long past", -400 * day, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := policyWindow(now, -365*day, tt.end, domain.PolicyStatusActive)
			assert.Equal(t, tt.want, p.RemainingDays(now))
		})
	}
}

func TestPolicyRemainingDays_NonIncreasingOverTime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := policyWindow(start, 0, 45*day, domain.PolicyStatusActive)

	prev := p.RemainingDays(start)
	for h := 1; h <= 60*24; h += 7 {
		cur := p.RemainingDays(start.Add(time.Duration(h) * time.Hour))
		assert.LessOrEqual(t, cur, prev)
		assert.GreaterOrEqual(t, cur, 0)
		prev = cur
	}
	assert.Equal(t, 0, prev)
}

func TestPolicyEffectivelyActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		start  time.Duration
		end    time.Duration
		status string
		want   bool
	}{
		{"active inside window", -day, 10 * day, domain.PolicyStatusActive, true},
		{"inactive inside window", -day, 10 * day, domain.PolicyStatusInactive, false},
		{"active but expired", -30 * day, -day, domain.PolicyStatusActive, false},
		{"active not started", day, 10 * day, domain.PolicyStatusActive, false},
		{"start boundary inclusive", 0, 10 * day, domain.PolicyStatusActive, true},
		{"end boundary inclusive", -day, 0, domain.PolicyStatusActive, true},
		{"unknown status", -day, day, "suspended", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := policyWindow(now, tt.start, tt.end, tt.status)
			assert.Equal(t, tt.want, p.EffectivelyActive(now))
		})
	}
}
