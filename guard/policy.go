package guard

import (
	"fmt"
	"sort"
	"strings"

	clinicauth "github.com/ovumlab/clinicauth"
	"github.com/ovumlab/clinicauth/role"
)

// Decision is the outcome of an access check.
type Decision uint8

const (
	// Pending means the session is still initializing. The caller renders
	// a loading state; no access decision has been made.
	Pending Decision = iota
	// Allow grants access to the requested path.
	Allow
	// RedirectToLogin sends the visitor to the login page, carrying the
	// requested path as return-to.
	RedirectToLogin
	// RedirectToDefault sends an authenticated principal to its role's
	// landing route.
	RedirectToDefault
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectToDefault:
		return "redirect_to_default"
	default:
		return "unknown"
	}
}

// Result is a decision plus its redirect targets. Target is set for both
// redirect decisions; ReturnTo only for [RedirectToLogin].
type Result struct {
	Decision Decision
	Target   string
	ReturnTo string
}

// DefaultRoute returns the landing route for a canonical role. The
// switch is exhaustive over the role enum; [NewPolicy] refuses to build
// a policy if any role resolves to an empty route, so a missing case
// here is caught at construction, never as a redirect loop.
func DefaultRoute(r role.Role) string {
	switch r {
	case role.Admin:
		return "/admin"
	case role.Doctor:
		return "/doctor"
	case role.LabTechnician:
		return "/lab"
	case role.Receptionist:
		return "/reception"
	case role.Patient:
		return "/patient"
	case role.User:
		return "/home"
	default:
		return ""
	}
}

// Config declares the route access table.
type Config struct {
	// LoginPath is the target of [RedirectToLogin]. Defaults to "/login".
	LoginPath string
	// PublicPrefixes are reachable by anyone, authenticated or not.
	PublicPrefixes []string
	// Restricted maps a route prefix to an explicit role allow-list.
	Restricted map[string][]role.Role
}

// Policy is an immutable route access table. Build one with [NewPolicy]
// at composition time and share it; Decide is safe for concurrent use.
// All prefix rules are held in slices ordered longest prefix first, so
// identical inputs always take the same rule.
type Policy struct {
	loginPath  string
	public     []string
	restricted []restrictedRule
	subtrees   []subtreeRule
}

type restrictedRule struct {
	prefix string
	roles  []role.Role
}

type subtreeRule struct {
	prefix string
	owner  role.Role
}

// NewPolicy validates the configuration and builds a [Policy]. It fails
// when any canonical role lacks a default landing route or when a
// restricted prefix names an invalid role; both are configuration
// errors that must surface at startup, not as runtime redirects.
func NewPolicy(cfg Config) (*Policy, error) {
	subtrees := make([]subtreeRule, 0, len(role.All()))
	for _, r := range role.All() {
		route := DefaultRoute(r)
		if route == "" {
			return nil, fmt.Errorf("role %s has no default route", r)
		}
		subtrees = append(subtrees, subtreeRule{prefix: route, owner: r})
	}
	sort.Slice(subtrees, func(i, j int) bool {
		return longerPrefix(subtrees[i].prefix, subtrees[j].prefix)
	})

	restricted := make([]restrictedRule, 0, len(cfg.Restricted))
	for prefix, roles := range cfg.Restricted {
		if prefix == "" || !strings.HasPrefix(prefix, "/") {
			return nil, fmt.Errorf("restricted prefix %q must start with /", prefix)
		}
		if len(roles) == 0 {
			return nil, fmt.Errorf("restricted prefix %q has an empty allow-list", prefix)
		}
		for _, r := range roles {
			if !r.Valid() {
				return nil, fmt.Errorf("restricted prefix %q names invalid role %d", prefix, r)
			}
		}
		restricted = append(restricted, restrictedRule{
			prefix: prefix,
			roles:  append([]role.Role(nil), roles...),
		})
	}
	// Longest prefix first: when restricted prefixes nest, the more
	// specific rule decides, every time.
	sort.Slice(restricted, func(i, j int) bool {
		return longerPrefix(restricted[i].prefix, restricted[j].prefix)
	})

	public := append([]string(nil), cfg.PublicPrefixes...)
	// Longest prefix first, so "/admin/help" as public beats the "/admin"
	// subtree rule.
	sort.Slice(public, func(i, j int) bool {
		return longerPrefix(public[i], public[j])
	})

	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = "/login"
	}

	return &Policy{
		loginPath:  loginPath,
		public:     public,
		restricted: restricted,
		subtrees:   subtrees,
	}, nil
}

// Decide evaluates access for a requested path. Ordered, first match
// wins:
//
//  1. an initializing session is Pending, not a decision
//  2. an unauthenticated session redirects to login with path as
//     return-to
//  3. an explicit allow-list argument that excludes the session's role
//     redirects to the role's landing route
//  4. public prefixes allow anyone
//  5. restricted prefixes allow listed roles and redirect the rest
//  6. a role subtree allows only its own role
//  7. anything unmatched is allowed
func (p *Policy) Decide(sess clinicauth.Session, path string, allowed ...role.Role) Result {
	if sess.Phase == clinicauth.PhaseInitializing {
		return Result{Decision: Pending}
	}
	if !sess.Authenticated() {
		return Result{
			Decision: RedirectToLogin,
			Target:   p.loginPath,
			ReturnTo: path,
		}
	}

	r := sess.Role

	if len(allowed) > 0 && !containsRole(allowed, r) {
		return p.redirectToDefault(r)
	}

	for _, prefix := range p.public {
		if matchesPrefix(path, prefix) {
			return Result{Decision: Allow}
		}
	}

	for _, rule := range p.restricted {
		if matchesPrefix(path, rule.prefix) {
			if containsRole(rule.roles, r) {
				return Result{Decision: Allow}
			}
			return p.redirectToDefault(r)
		}
	}

	for _, rule := range p.subtrees {
		if matchesPrefix(path, rule.prefix) {
			if rule.owner == r {
				return Result{Decision: Allow}
			}
			return p.redirectToDefault(r)
		}
	}

	return Result{Decision: Allow}
}

func (p *Policy) redirectToDefault(r role.Role) Result {
	return Result{
		Decision: RedirectToDefault,
		Target:   DefaultRoute(r),
	}
}

// longerPrefix orders prefixes longest first, lexicographic on ties, so
// rule order never depends on map iteration or configuration order.
func longerPrefix(a, b string) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a < b
}

func containsRole(roles []role.Role, r role.Role) bool {
	for _, candidate := range roles {
		if candidate == r {
			return true
		}
	}
	return false
}

// matchesPrefix is segment-aware: "/lab" matches "/lab" and
// "/lab/samples" but not "/laboratory".
func matchesPrefix(path, prefix string) bool {
	if prefix == "/" {
		return path == "/"
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
