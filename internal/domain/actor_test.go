package domain

import "testing"

func TestNormalizeRole_Aliases(t *testing.T) {
	cases := map[string]CoreRole{
		"PRODUCER":      RoleProducer,
		"produtor":      RoleProducer,
		"Comprador":     RoleBuyer,
		"fornecedor":    RoleSupplier,
		"INDUSTRIA":     RoleIndustry,
		"logistica":     RoleLogistics,
		"plataforma":    RolePlatform,
		"suporte":       RoleSupport,
		"administrador": RoleAdmin,
		"admin":         RoleAdmin,
	}
	for raw, want := range cases {
		if got := NormalizeRole(raw); got != want {
			t.Fatalf("NormalizeRole(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestNormalizeRole_Diacritics(t *testing.T) {
	cases := map[string]CoreRole{
		"indústria": RoleIndustry,
		"logística": RoleLogistics,
		"LOGÍSTICA": RoleLogistics,
	}
	for raw, want := range cases {
		if got := NormalizeRole(raw); got != want {
			t.Fatalf("NormalizeRole(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestNormalizeRole_Whitespace(t *testing.T) {
	if got := NormalizeRole("  produtor  "); got != RoleProducer {
		t.Fatalf("NormalizeRole with padding = %q, want PRODUCER", got)
	}
	// Interior whitespace collapses to a single separator before lookup.
	if got := NormalizeRole("ADMIN  ISTRADOR"); got != RoleUnmapped {
		t.Fatalf("NormalizeRole split word = %q, want unmapped", got)
	}
}

func TestNormalizeRole_Unknown(t *testing.T) {
	for _, raw := range []string{"", "   ", "wizard", "PRODUCERS", "admin;"} {
		if got := NormalizeRole(raw); got != RoleUnmapped {
			t.Fatalf("NormalizeRole(%q) = %q, want unmapped", raw, got)
		}
	}
}
