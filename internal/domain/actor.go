package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Actor is the authenticated identity performing an operation. Role carries
// the raw value from the credential; it is normalized before any
// authorization decision.
type Actor struct {
	ID       string
	Role     string
	TenantID string
}

type CoreRole string

const (
	RoleProducer  CoreRole = "PRODUCER"
	RoleBuyer     CoreRole = "BUYER"
	RoleSupplier  CoreRole = "SUPPLIER"
	RoleIndustry  CoreRole = "INDUSTRY"
	RoleLogistics CoreRole = "LOGISTICS"
	RolePlatform  CoreRole = "PLATFORM"
	RoleSupport   CoreRole = "SUPPORT"
	RoleAdmin     CoreRole = "ADMIN"

	// RoleUnmapped is returned for any raw role that does not resolve to a
	// core role. It is never a member of an operation's allowed set.
	RoleUnmapped CoreRole = ""
)

var roleAliases = map[string]CoreRole{
	"PRODUCER":      RoleProducer,
	"PRODUTOR":      RoleProducer,
	"BUYER":         RoleBuyer,
	"COMPRADOR":     RoleBuyer,
	"SUPPLIER":      RoleSupplier,
	"FORNECEDOR":    RoleSupplier,
	"INDUSTRY":      RoleIndustry,
	"INDUSTRIA":     RoleIndustry,
	"LOGISTICS":     RoleLogistics,
	"LOGISTICA":     RoleLogistics,
	"PLATFORM":      RolePlatform,
	"PLATAFORMA":    RolePlatform,
	"SUPPORT":       RoleSupport,
	"SUPORTE":       RoleSupport,
	"ADMIN":         RoleAdmin,
	"ADMINISTRADOR": RoleAdmin,
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeRole maps a raw role string to a core role. Localized and English
// names resolve to the same canonical role; unknown input yields RoleUnmapped
// rather than an error so callers produce a uniform permission-denied outcome.
func NormalizeRole(raw string) CoreRole {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return RoleUnmapped
	}
	stripped, _, err := transform.String(stripMarks, trimmed)
	if err != nil {
		stripped = trimmed
	}
	key := strings.ToUpper(strings.Join(strings.Fields(stripped), "_"))
	role, ok := roleAliases[key]
	if !ok {
		return RoleUnmapped
	}
	return role
}
