// Package resource bounds the process-local resources shed consumes.
//
// Two budgets are managed:
//
//   - CPU worker slots (semaphore) for CPU-bound jobs such as building the
//     prime sieve. Use Offload to run a job inside a slot.
//   - A request pacing limiter (token bucket) consulted before every round-trip
//     to the backing table, so a wide parallel scan cannot exhaust provisioned
//     throughput.
//
// A nil *Controller is valid everywhere and means "no limits".
package resource
