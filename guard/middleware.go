package guard

import (
	"net/http"
	"net/url"

	clinicauth "github.com/ovumlab/clinicauth"
	"github.com/ovumlab/clinicauth/role"
)

// Middleware adapts [Policy.Decide] to net/http. The session is read per
// request from the manager; Pending answers 503 with Retry-After so a
// booting shell is distinguishable from a denial.
func Middleware(p *Policy, m *clinicauth.Manager, allowed ...role.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil || m == nil {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}

			result := p.Decide(m.Current(), r.URL.Path, allowed...)
			switch result.Decision {
			case Allow:
				next.ServeHTTP(w, r)
			case Pending:
				w.Header().Set("Retry-After", "1")
				http.Error(w, "session initializing", http.StatusServiceUnavailable)
			case RedirectToLogin:
				target := result.Target
				if result.ReturnTo != "" {
					target += "?return_to=" + url.QueryEscape(result.ReturnTo)
				}
				http.Redirect(w, r, target, http.StatusFound)
			case RedirectToDefault:
				http.Redirect(w, r, result.Target, http.StatusFound)
			default:
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}
