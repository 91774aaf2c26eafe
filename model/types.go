package model

import (
	"fmt"
	"strconv"
)

// ID is the globally unique, immutable identifier of a record.
// It is the sole identity of a Record and its merge key.
type ID uint64

// String returns the base-10 representation of the ID.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Weight is a mass expressed in micrograms.
type Weight uint64

const (
	// ZeroWeight is the additive identity.
	ZeroWeight Weight = 0
	// MinWeight is the lower bound of freshly created records (80kg).
	MinWeight Weight = 80_000_000_000
	// MaxWeight is the upper bound of freshly created records (160kg).
	MaxWeight Weight = 160_000_000_000
)

const (
	ugPerMilligram = 1_000
	ugPerGram      = 1_000_000
	ugPerKilogram  = 1_000_000_000
)

// FromKilograms converts kilograms to a Weight, truncating below one microgram.
func FromKilograms(kg float64) Weight { return Weight(kg * ugPerKilogram) }

// FromGrams converts grams to a Weight, truncating below one microgram.
func FromGrams(g float64) Weight { return Weight(g * ugPerGram) }

// FromMilligrams converts milligrams to a Weight, truncating below one microgram.
func FromMilligrams(mg float64) Weight { return Weight(mg * ugPerMilligram) }

// FromMicrograms converts micrograms to a Weight.
func FromMicrograms(ug uint64) Weight { return Weight(ug) }

func (w Weight) Kilograms() float64  { return float64(w) / ugPerKilogram }
func (w Weight) Grams() float64      { return float64(w) / ugPerGram }
func (w Weight) Milligrams() float64 { return float64(w) / ugPerMilligram }
func (w Weight) Micrograms() uint64  { return uint64(w) }

// String prints the weight in the largest unit it exceeds.
func (w Weight) String() string {
	switch {
	case w > ugPerKilogram:
		return fmt.Sprintf("%.3fkg", w.Kilograms())
	case w > ugPerGram:
		return fmt.Sprintf("%.3fg", w.Grams())
	case w > ugPerMilligram:
		return fmt.Sprintf("%.3fmg", w.Milligrams())
	default:
		return fmt.Sprintf("%dug", uint64(w))
	}
}

// Record is the stored entity.
//
// Two records are the same record when their IDs are equal, whatever their
// weights. Use Equal (or key maps by ID) rather than comparing structs with ==.
type Record struct {
	ID     ID     `json:"id"`
	Weight Weight `json:"weight"`
}

// Equal reports whether r and other denote the same record.
func (r Record) Equal(other Record) bool {
	return r.ID == other.ID
}

// Key returns the value records must be hashed by.
func (r Record) Key() ID {
	return r.ID
}

// String returns a human readable representation of the Record.
func (r Record) String() string {
	return fmt.Sprintf("Record(%d) weighting %s", r.ID, r.Weight)
}
