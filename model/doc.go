// Package model defines core types used throughout shed.
//
// # Identity
//
//   - ID: globally unique, immutable record identifier (uint64)
//   - Record: an ID plus a Weight; equality and hashing use the ID only
//
// # Weights
//
// Weight is stored in micrograms. Constructors exist for larger units:
//
//	w := model.FromKilograms(120.5)
//	fmt.Println(w) // 120.500kg
//
// Records are created within [MinWeight, MaxWeight], but stores do not
// enforce the bound.
package model
