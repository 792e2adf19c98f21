// Package role defines the closed set of clinic roles, the normalizer that
// maps raw role strings from the account service onto that set, and the
// static permission matrix consulted for every access decision.
//
// Normalize is pure and total: it performs no I/O, never fails, and coerces
// anything it does not recognize to the default [User] role so that a
// principal can never reach a guard with an undefined role.
package role
