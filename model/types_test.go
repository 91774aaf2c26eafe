package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeight_String(t *testing.T) {
	assert.Equal(t, "1.431kg", FromKilograms(1.430983).String())
	assert.Equal(t, "3.489kg", FromGrams(3489.43982).String())
	assert.Equal(t, "489.440g", FromGrams(489.43982).String())
	assert.Equal(t, "432.500mg", FromMilligrams(432.5).String())
	assert.Equal(t, "976ug", FromMicrograms(976).String())
	assert.Equal(t, "500ug", FromMilligrams(0.5).String())
}

func TestWeight_Units(t *testing.T) {
	w := FromKilograms(100)
	assert.Equal(t, uint64(100_000_000_000), w.Micrograms())
	assert.InDelta(t, 100.0, w.Kilograms(), 1e-9)
	assert.InDelta(t, 100_000.0, w.Grams(), 1e-6)
	assert.InDelta(t, 100_000_000.0, w.Milligrams(), 1e-3)
	assert.Less(t, MinWeight, MaxWeight)
}

func TestRecord_EqualityUsesIDOnly(t *testing.T) {
	r1 := Record{ID: 1, Weight: FromKilograms(100)}
	r2 := Record{ID: 2, Weight: FromKilograms(100)}
	r3 := Record{ID: 1, Weight: FromKilograms(150)}
	r4 := Record{ID: 2, Weight: FromKilograms(150)}

	assert.True(t, r1.Equal(r3))
	assert.True(t, r2.Equal(r4))
	assert.False(t, r1.Equal(r2))
	assert.False(t, r3.Equal(r4))

	set := map[ID]Record{}
	for _, r := range []Record{r1, r2, r3, r4} {
		set[r.Key()] = r
	}
	assert.Len(t, set, 2)
}

func TestRecord_String(t *testing.T) {
	r := Record{ID: 42, Weight: FromKilograms(120)}
	assert.Equal(t, "Record(42) weighting 120.000kg", r.String())
}
