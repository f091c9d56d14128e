// Package usage models a user's consumption against tier-based quota. The
// snapshot is read-only: the pipeline only consults it as an admission gate
// before a new recording starts, it never mutates it.
package usage

import (
	"crypto/sha256"
	"encoding/base32"
	"fmt"
)

// Tier is a user's subscription level, gating recording length and quota.
type Tier string

// Subscription tiers.
const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
	TierVIP     Tier = "vip"
)

// Per-tier limits.
type Limits struct {
	MaxRecordingSeconds float64
	MinutesPerMonth     float64
	StorageBytes        int64
}

var tierLimits = map[Tier]Limits{
	TierFree:    {MaxRecordingSeconds: 10 * 60, MinutesPerMonth: 60, StorageBytes: 512 * 1024 * 1024},
	TierPremium: {MaxRecordingSeconds: 60 * 60, MinutesPerMonth: 600, StorageBytes: 8 * 1024 * 1024 * 1024},
	TierVIP:     {MaxRecordingSeconds: 3 * 60 * 60, MinutesPerMonth: 3000, StorageBytes: 64 * 1024 * 1024 * 1024},
}

// LimitsFor returns the limits for a tier, defaulting to free for unknown
// tiers so a malformed backend value never unlocks unlimited recording.
func LimitsFor(t Tier) Limits {
	if l, ok := tierLimits[t]; ok {
		return l
	}
	return tierLimits[TierFree]
}

// Info is the backend's snapshot of a user's consumption.
type Info struct {
	Tier         Tier    `json:"tier"`
	MinutesUsed  float64 `json:"minutes_used"`
	MinutesLimit float64 `json:"minutes_limit"`
	StorageUsed  int64   `json:"storage_used"`
	StorageLimit int64   `json:"storage_limit"`
}

// CanRecord reports whether a new recording may start, and a user-facing
// reason when it may not.
func CanRecord(info Info) (bool, string) {
	if info.MinutesLimit > 0 && info.MinutesUsed >= info.MinutesLimit {
		return false, fmt.Sprintf("monthly minutes exhausted (%.0f of %.0f used)",
			info.MinutesUsed, info.MinutesLimit)
	}
	if info.StorageLimit > 0 && info.StorageUsed >= info.StorageLimit {
		return false, "storage quota exhausted"
	}
	return true, ""
}

// SupportCode derives a short deterministic human-shareable code from a
// user's account id, for administrative lookup. Same id, same code.
func SupportCode(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	code := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(sum[:5])
	return code[:4] + "-" + code[4:8]
}
