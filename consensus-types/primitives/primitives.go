// Package primitives defines distinct numeric types for slots, epochs, and
// registry indices so that a caller can't accidentally add a Slot to an
// Epoch. This mirrors the teacher's consensus-types/primitives package.
package primitives

// Slot is a consensus-time slot number.
type Slot uint64

// Epoch is a consensus-time epoch number, SlotsPerEpoch slots wide.
type Epoch uint64

// ValidatorIndex indexes into the validator registry.
type ValidatorIndex uint64

// CommitteeIndex indexes a committee within a slot.
type CommitteeIndex uint64

// Mul returns s * n as a Slot.
func (s Slot) Mul(n uint64) Slot { return Slot(uint64(s) * n) }

// Div returns s / n as a Slot. Division by zero panics, matching uint64 semantics.
func (s Slot) Div(n uint64) Slot { return Slot(uint64(s) / n) }

// ModSlot returns s % n as a Slot.
func (s Slot) ModSlot(n uint64) Slot { return Slot(uint64(s) % n) }

// SubSlot returns s - n, saturating at zero instead of wrapping.
func (s Slot) SubSlot(n Slot) Slot {
	if n > s {
		return 0
	}
	return s - n
}

// Mul returns e * n as an Epoch.
func (e Epoch) Mul(n uint64) Epoch { return Epoch(uint64(e) * n) }

// AddEpoch returns e + n.
func (e Epoch) AddEpoch(n Epoch) Epoch { return e + n }

// SubEpoch returns e - n, saturating at zero instead of wrapping.
func (e Epoch) SubEpoch(n Epoch) Epoch {
	if n > e {
		return 0
	}
	return e - n
}
