package tenancy

import "strings"

const (
	// NamespaceRoot is the shared prefix under which every tenant namespace lives.
	NamespaceRoot = "users/"

	// Separator delimits key segments.
	Separator = "/"
)

// DeriveNamespace maps a tenant identifier to its storage-key prefix,
// "users/{tenantID}/". The tenant identifier is embedded verbatim.
func DeriveNamespace(tenantID string) string {
	return NamespaceRoot + tenantID + Separator
}

// TenantFromKey returns the tenant segment of a key under NamespaceRoot.
// It reports false for keys outside NamespaceRoot or without a tenant segment.
func TenantFromKey(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, NamespaceRoot)
	if !ok {
		return "", false
	}
	tenantID, _, found := strings.Cut(rest, Separator)
	if !found || tenantID == "" {
		return "", false
	}
	return tenantID, true
}
