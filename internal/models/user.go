package models

type Role string

const (
	RoleEmployee Role = "Employee"
	RoleHR       Role = "HR"
	RoleAdmin    Role = "Admin"
)

// UserProfile is the per-user provisioning record in the document store,
// keyed by session identifier. Created by the registering client or lazily
// on first social sign-in; never deleted by this service.
type UserProfile struct {
	Email  string `json:"email,omitempty"`
	Role   Role   `json:"role"`
	Tenant string `json:"tenant"`
}

// Complete reports whether the profile gates dashboard access: both role
// and tenant must be populated.
func (p UserProfile) Complete() bool {
	return p.Role != "" && p.Tenant != ""
}
