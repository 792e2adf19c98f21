// Package clinicauth owns the authenticated session lifecycle for the
// clinic shell: login, registration, logout, profile refresh and update,
// email verification, and restart recovery from the Redis-backed session
// store.
//
// The package is the public surface. It exposes [Manager], [Builder],
// [Config], and value types (Session, Principal, AuthPayload, etc.).
// Role canonicalization and the permission matrix live in the role
// subpackage, persistence in store, page-level access decisions in guard,
// and the account-service transport in accountapi. Audit dispatch and
// metric counters live under internal/ and surface here only as aliases.
//
// # Architecture boundaries
//
//   - Credentials are an opaque token pair. The Manager stores and replays
//     them verbatim; nothing in this module parses or verifies a token.
//   - The raw role string reported by the account service never leaves the
//     Manager uncanonicalized. Every principal change re-runs
//     [role.Normalize] and [role.PermissionsFor] before a new [Session]
//     snapshot is published.
//   - One Manager owns one logical session. Snapshot reads are safe from
//     any goroutine; serializing overlapping mutating calls (for example a
//     double-submitted login form) is the caller's responsibility.
package clinicauth
