// Package combat carries the contracts between hit detection, the damage
// pipeline, and knockback application. The knockback core trusts these
// inputs; reach and angle checks happened upstream.
package combat

import "time"

// HitReport is what hit detection hands the combat pipeline for one strike.
type HitReport struct {
	AttackerID string
	VictimID   string
	ItemType   string
	Distance   float64
	Validated  bool
}

// DamageOutcome is what the damage system reports back. Knockback only runs
// when damage was actually applied; ImpactLevel is the enchant-style level
// that adds a flat bonus outside profile resolution.
type DamageOutcome struct {
	Applied     bool
	ImpactLevel int
}

// ShouldKnockback gates knockback on the two trusted collaborator signals.
func ShouldKnockback(report HitReport, outcome DamageOutcome) bool {
	return report.Validated && outcome.Applied
}

// ReadyCooldown mirrors the legacy strike bookkeeping: it lazily allocates
// the registry map, refuses to trigger while the key is still on cooldown,
// and records the trigger timestamp when it is ready.
func ReadyCooldown(cooldowns *map[string]time.Time, key string, cooldown time.Duration, now time.Time) bool {
	if cooldowns == nil {
		return false
	}
	if *cooldowns == nil {
		*cooldowns = make(map[string]time.Time)
	}
	if cooldown > 0 {
		if last, ok := (*cooldowns)[key]; ok {
			if now.Sub(last) < cooldown {
				return false
			}
		}
	}
	(*cooldowns)[key] = now
	return true
}
