// Package guard decides, for every navigation, whether the current
// session may reach a requested path and where to redirect otherwise.
//
// A [Policy] maps route prefixes to one of three access modes: public,
// explicit role allow-list, or role-subtree (a role may enter only its
// own landing subtree). [Policy.Decide] evaluates the modes in a fixed
// order; [Middleware] adapts the decisions to net/http redirects.
//
// # Architecture boundaries
//
// This package translates navigation semantics into Session inspections.
// It never touches the session store or the account service, and it
// never normalizes role strings itself — the Session snapshot already
// carries the canonical role.
package guard
