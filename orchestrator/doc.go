// Package orchestrator removes the heaviest record whose weight is prime.
//
// One run concurrently computes the primes up to the square root of the
// weight upper bound (offloaded to a bounded CPU slot) and fetches every
// record with a segmented scan. Once both are done, the records are filtered
// by trial division against those primes, folded to the heaviest survivor
// and that record is removed with a conditional delete.
//
// Ties on weight go to the record encountered last. Runs never retry: any
// failure ends the run.
package orchestrator
