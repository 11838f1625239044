// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

package account

import "time"

// IsActivePro reports the effective tier of the profile at the given instant.
//
// A profile is effectively pro when the pro flag is set and either no
// subscription end date is recorded or the end date is still in the future.
// The result is computed, never stored, so an expired subscription downgrades
// the account even if no billing event was ever delivered.
func (p *Profile) IsActivePro(now time.Time) bool {
	if !p.IsPro {
		return false
	}
	return p.SubscriptionEndDate == nil || p.SubscriptionEndDate.After(now)
}
