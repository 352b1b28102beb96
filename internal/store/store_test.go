package store

import (
	"testing"
	"time"
)

func TestStatusCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusApproved, StatusPublished, true},
		{StatusPending, StatusPublished, false},
		{StatusApproved, StatusPending, false},
		{StatusApproved, StatusRejected, false},
		{StatusRejected, StatusApproved, false},
		{StatusPublished, StatusPending, false},
		{StatusPublished, StatusApproved, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s → %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	t.Parallel()

	if StatusPending.Terminal() || StatusApproved.Terminal() {
		t.Error("pending/approved must not be terminal")
	}
	if !StatusRejected.Terminal() || !StatusPublished.Terminal() {
		t.Error("rejected/published must be terminal")
	}
}

func TestTypeValid(t *testing.T) {
	t.Parallel()

	for _, typ := range []Type{TypeCongrat, TypeAnnouncement, TypeNews, TypeCarpool} {
		if !typ.Valid() {
			t.Errorf("%s reported invalid", typ)
		}
	}
	if Type("spam").Valid() {
		t.Error("unknown type reported valid")
	}
}

func TestApplicationDue(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 8, 12, 30, 0, 0, time.UTC)
	day := func(offset int) *time.Time {
		d := time.Date(2026, 3, 8+offset, 0, 0, 0, 0, time.UTC)
		return &d
	}

	tests := []struct {
		name string
		date *time.Time
		want bool
	}{
		{"no date", nil, true},
		{"yesterday", day(-1), true},
		{"today", day(0), true},
		{"tomorrow", day(1), false},
	}

	for _, tt := range tests {
		app := Application{PublishDate: tt.date}
		if got := app.Due(now); got != tt.want {
			t.Errorf("%s: Due() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
