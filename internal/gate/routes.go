package gate

import "strings"

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

// Redirect maps the gate state and a requested path to a forced redirect.
// ok is false when the path may be served as requested. Dashboard paths
// demand Ready; the login surface bounces a Ready session back to the
// dashboard; everything else falls through to one of the two entry points.
func Redirect(st State, path string) (target string, ok bool) {
	switch {
	case path == DashboardPath || strings.HasPrefix(path, DashboardPath+"/"):
		if st != StateReady {
			return LoginPath, true
		}
		return "", false
	case path == LoginPath:
		if st == StateReady {
			return DashboardPath, true
		}
		return "", false
	default:
		if st == StateReady {
			return DashboardPath, true
		}
		return LoginPath, true
	}
}
