package dashboard

import (
	"fmt"
	"sort"

	"github.com/minttenant/tenantcore/internal/models"
)

const (
	VariantSide        = "side"
	VariantTop         = "top"
	VariantUnsupported = "unsupported"
)

// Per-variant branding fallbacks, applied field by field when the tenant
// configuration leaves one blank.
const (
	sideFallbackPrimary   = "#3d93a3"
	sideFallbackSecondary = "#f4f7f8"
	sideFallbackBrand     = "MintTenant"

	topFallbackPrimary   = "#2f4858"
	topFallbackSecondary = "#e8eef1"
	topFallbackBrand     = "MintTenant"
)

// RoleSet is the configurable set of roles allowed to edit feature flags.
type RoleSet map[models.Role]struct{}

func NewRoleSet(roles ...string) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[models.Role(r)] = struct{}{}
	}
	return s
}

func (s RoleSet) Contains(r models.Role) bool {
	_, ok := s[r]
	return ok
}

type Branding struct {
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	Logo           string `json:"logo,omitempty"`
	BrandName      string `json:"brandName"`
}

type FeatureCard struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// ViewModel is the resolved presentation state handed to the rendering
// layer: which variant, what branding, which feature cards, and whether
// the privileged HR-Tools section shows.
type ViewModel struct {
	Variant     string        `json:"variant"`
	Branding    Branding      `json:"branding"`
	Features    []FeatureCard `json:"features"`
	ShowHRTools bool          `json:"showHRTools"`
	CanEdit     bool          `json:"canEdit"`
	Message     string        `json:"message,omitempty"`
}

// Select maps the tenant layout to a registered variant. An unrecognized
// layout degrades to an explicit unsupported surface rather than a blank
// page.
func Select(cfg models.TenantConfig, p models.UserProfile, privileged RoleSet) ViewModel {
	switch cfg.Layout {
	case models.LayoutSide:
		return sideVariant(cfg, p, privileged)
	case models.LayoutTop:
		return topVariant(cfg, p, privileged)
	default:
		return ViewModel{
			Variant: VariantUnsupported,
			Message: fmt.Sprintf("Unknown layout: %s. Please contact support.", cfg.Layout),
		}
	}
}

func sideVariant(cfg models.TenantConfig, p models.UserProfile, privileged RoleSet) ViewModel {
	return ViewModel{
		Variant:     VariantSide,
		Branding:    brandingFor(cfg, sideFallbackPrimary, sideFallbackSecondary, sideFallbackBrand),
		Features:    enabledFeatures(cfg.Features),
		ShowHRTools: privileged.Contains(p.Role),
		CanEdit:     privileged.Contains(p.Role),
	}
}

func topVariant(cfg models.TenantConfig, p models.UserProfile, privileged RoleSet) ViewModel {
	return ViewModel{
		Variant:     VariantTop,
		Branding:    brandingFor(cfg, topFallbackPrimary, topFallbackSecondary, topFallbackBrand),
		Features:    enabledFeatures(cfg.Features),
		ShowHRTools: privileged.Contains(p.Role),
		CanEdit:     privileged.Contains(p.Role),
	}
}

// brandingFor re-derives defaults per variant; both variants receive the
// same TenantConfig and apply their own fallbacks independently.
func brandingFor(cfg models.TenantConfig, primary, secondary, brand string) Branding {
	b := Branding{
		PrimaryColor:   cfg.PrimaryColor,
		SecondaryColor: cfg.SecondaryColor,
		Logo:           cfg.Logo,
		BrandName:      cfg.BrandName,
	}
	if b.PrimaryColor == "" {
		b.PrimaryColor = primary
	}
	if b.SecondaryColor == "" {
		b.SecondaryColor = secondary
	}
	if b.BrandName == "" {
		b.BrandName = brand
	}
	return b
}

func enabledFeatures(features map[string]bool) []FeatureCard {
	var cards []FeatureCard
	for name, enabled := range features {
		if enabled {
			cards = append(cards, FeatureCard{Name: name, Enabled: true})
		}
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].Name < cards[j].Name })
	return cards
}
