package gateway

import "strings"

// ScopedPath builds the tenant-scoped route for a suffix. Tenant and suffix
// are joined with exactly one separator whether or not the suffix carries a
// leading slash, so ScopedPath("tenant1", "/config") == "tenant1/config"
// and ScopedPath("tenant1", "config") is the same.
func ScopedPath(tenantID, suffix string) string {
	suffix = strings.TrimPrefix(suffix, "/")
	if suffix == "" {
		return tenantID
	}
	return tenantID + "/" + suffix
}
