package shed

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hupe1980/shed/model"
	"github.com/hupe1980/shed/orchestrator"
	"github.com/hupe1980/shed/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	id, err := ParseID(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, model.ID(42), id)

	id, err = ParseID("18446744073709551615")
	require.NoError(t, err)
	assert.Equal(t, model.ID(18446744073709551615), id)

	for _, s := range []string{"", "-1", "abc", "1.5", "18446744073709551616"} {
		_, err := ParseID(s)
		require.ErrorIs(t, err, ErrInvalidInput, s)
		assert.Equal(t, ClassInvalidInput, Classify(err))
	}
}

func TestParseWeight(t *testing.T) {
	tests := []struct {
		in   string
		want model.Weight
	}{
		{"120kg", model.FromKilograms(120)},
		{"120.5 kg", model.FromKilograms(120.5)},
		{"500g", model.FromGrams(500)},
		{"12mg", model.FromMilligrams(12)},
		{"976ug", 976},
		{"80000000000", model.MinWeight},
	}
	for _, tt := range tests {
		got, err := ParseWeight(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, s := range []string{"", "kg", "-3kg", "heavy", "1.5", "NaNkg", "Infg", "-Inf mg", "1e30kg", "18446744073709551615ug"} {
		_, err := ParseWeight(s)
		require.ErrorIs(t, err, ErrInvalidInput, s)
	}
}

func TestClassify(t *testing.T) {
	storageErr := store.NewStorageError("Scan", "InternalServerError", "boom", errors.New("boom"))

	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"nil", nil, ClassNone},
		{"invalid input", &InvalidInputError{Field: "id", Value: "x"}, ClassInvalidInput},
		{"duplicate", &store.DuplicateKeyError{ID: 1}, ClassInvalidInput},
		{"not found", &store.NotFoundError{ID: 1}, ClassNotFound},
		{"wrapped not found", fmt.Errorf("remove: %w", &store.NotFoundError{ID: 1}), ClassNotFound},
		{"consistency", &orchestrator.ConsistencyError{ID: 1}, ClassServer},
		{"storage", storageErr, ClassServer},
		{"unknown", errors.New("???"), ClassServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestClass_String(t *testing.T) {
	assert.Equal(t, "none", ClassNone.String())
	assert.Equal(t, "invalid_input", ClassInvalidInput.String())
	assert.Equal(t, "not_found", ClassNotFound.String())
	assert.Equal(t, "server", ClassServer.String())
	assert.Equal(t, "Class(7)", Class(7).String())
}
