package usage_test

import (
	"strings"
	"testing"

	"github.com/RodimusGPT/wisekeep-sub001/internal/usage"
)

func TestLimitsFor(t *testing.T) {
	t.Parallel()

	if got := usage.LimitsFor(usage.TierPremium); got.MinutesPerMonth != 600 {
		t.Errorf("premium MinutesPerMonth = %f, want 600", got.MinutesPerMonth)
	}

	// Unknown tiers fall back to free limits, never unlimited.
	unknown := usage.LimitsFor(usage.Tier("enterprise"))
	free := usage.LimitsFor(usage.TierFree)
	if unknown != free {
		t.Errorf("unknown tier limits = %+v, want free limits %+v", unknown, free)
	}
}

func TestCanRecord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		info       usage.Info
		want       bool
		wantReason string
	}{
		{
			name: "under quota",
			info: usage.Info{MinutesUsed: 10, MinutesLimit: 60, StorageUsed: 100, StorageLimit: 1000},
			want: true,
		},
		{
			name:       "minutes exhausted",
			info:       usage.Info{MinutesUsed: 60, MinutesLimit: 60},
			want:       false,
			wantReason: "minutes",
		},
		{
			name:       "storage exhausted",
			info:       usage.Info{MinutesUsed: 1, MinutesLimit: 60, StorageUsed: 1000, StorageLimit: 1000},
			want:       false,
			wantReason: "storage",
		},
		{
			name: "zero limits mean unmetered",
			info: usage.Info{MinutesUsed: 9999},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, reason := usage.CanRecord(tt.info)
			if got != tt.want {
				t.Errorf("CanRecord() = %v, want %v", got, tt.want)
			}
			if tt.wantReason != "" && !strings.Contains(reason, tt.wantReason) {
				t.Errorf("reason = %q, want mention of %q", reason, tt.wantReason)
			}
		})
	}
}

func TestSupportCode(t *testing.T) {
	t.Parallel()

	a := usage.SupportCode("user-123")
	b := usage.SupportCode("user-123")
	c := usage.SupportCode("user-124")

	if a != b {
		t.Errorf("SupportCode not deterministic: %q vs %q", a, b)
	}
	if a == c {
		t.Errorf("distinct users share support code %q", a)
	}
	if len(a) != 9 || a[4] != '-' {
		t.Errorf("SupportCode format = %q, want XXXX-XXXX", a)
	}
}
