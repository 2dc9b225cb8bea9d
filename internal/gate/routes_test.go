package gate

import "testing"

func TestRedirect(t *testing.T) {
	cases := []struct {
		name   string
		state  State
		path   string
		target string
		ok     bool
	}{
		{"dashboard needs ready", StateLoginRequired, "/dashboard", "/login", true},
		{"dashboard subpath needs ready", StateConfigLoading, "/dashboard/reports", "/login", true},
		{"dashboard served when ready", StateReady, "/dashboard", "", false},
		{"login bounces ready", StateReady, "/login", "/dashboard", true},
		{"login served otherwise", StateLoginRequired, "/login", "", false},
		{"login served during splash", StateSplash, "/login", "", false},
		{"login served when incomplete", StateRegistrationIncomplete, "/login", "", false},
		{"unknown path ready", StateReady, "/somewhere", "/dashboard", true},
		{"unknown path signed out", StateLoginRequired, "/somewhere", "/login", true},
		{"root signed out", StateConfigError, "/", "/login", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			target, ok := Redirect(tc.state, tc.path)
			if ok != tc.ok || target != tc.target {
				t.Fatalf("Redirect(%v, %q) = (%q, %v), want (%q, %v)", tc.state, tc.path, target, ok, tc.target, tc.ok)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateSplash:                 "splash",
		StateLoginRequired:          "login_required",
		StateRegistrationIncomplete: "registration_incomplete",
		StateConfigLoading:          "config_loading",
		StateReady:                  "ready",
		StateConfigError:            "config_error",
	}
	for st, want := range cases {
		if got := st.String(); got != want {
			t.Fatalf("State(%d).String() = %q, want %q", st, got, want)
		}
	}
}
