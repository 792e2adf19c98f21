// Package store persists the authenticated session — the principal record
// plus the opaque access/refresh token pair — across process restarts.
//
// The three parts are kept under independent Redis keys but are only ever
// written or deleted as one unit. A load that finds some keys present and
// others missing treats the session as corrupt, clears the remainder, and
// reports the session as absent; callers never observe a partial session.
package store
