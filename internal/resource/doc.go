// Package resource enforces memory, background-work and IO budgets.
//
//   - Memory: vector and graph storage reserve their footprint up front and
//     fail fast with ErrMemoryLimitExceeded when the budget is exhausted.
//   - Background: consolidation passes take a worker slot so that several
//     indexes sharing a controller do not repair concurrently.
//   - IO: snapshot writes go through Writer, a token-bucket throttle.
//
// All methods are safe on a nil *Controller, which means "unlimited".
package resource
