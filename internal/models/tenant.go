package models

const (
	LayoutSide = "side"
	LayoutTop  = "top"
)

// TenantConfig is the per-tenant branding, layout and feature-set record
// served by the tenant configuration service. The client never holds an
// authoritative copy; cached projections are replaced wholesale after any
// write.
type TenantConfig struct {
	PrimaryColor   string          `json:"primaryColor"`
	SecondaryColor string          `json:"secondaryColor"`
	Logo           string          `json:"logo,omitempty"`
	BrandName      string          `json:"brandName"`
	Layout         string          `json:"layout"`
	Features       map[string]bool `json:"features"`
}
