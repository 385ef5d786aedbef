package i18n

import "testing"

func TestGetCatalogFallback(t *testing.T) {
	base := GetCatalog("en-US")
	if base == nil {
		t.Fatal("expected base catalog")
	}
	fallback := GetCatalog("missing-locale")
	if fallback != base {
		t.Fatal("expected fallback to en-US catalog")
	}
	if empty := GetCatalog("  "); empty != base {
		t.Fatal("expected blank locale to resolve to en-US catalog")
	}
}

func TestGetCatalogPortuguese(t *testing.T) {
	cat := GetCatalog("pt-BR")
	if cat.Locale() != "pt-BR" {
		t.Fatalf("Locale() = %q, want %q", cat.Locale(), "pt-BR")
	}
	if got := cat.Format(CodeLoanAlreadyPaid, nil); got != "O empréstimo já foi quitado" {
		t.Fatalf("Format(%q) = %q", CodeLoanAlreadyPaid, got)
	}
}

func TestFormatMetadata(t *testing.T) {
	cat := GetCatalog("en-US")
	got := cat.Format(CodeInsufficientFunds, map[string]string{
		"Required": "550",
		"Balance":  "200",
	})
	want := "Insufficient funds: need 550, have 200"
	if got != want {
		t.Fatalf("Format(%q) = %q, want %q", CodeInsufficientFunds, got, want)
	}
}

func TestFormatFallbacks(t *testing.T) {
	cat := NewCatalog("test", map[Code]string{
		"code": "hello {{.Name}}",
	})

	if cat.Format("unknown", nil) != "unknown" {
		t.Fatal("expected code fallback when template missing")
	}
	if cat.Format("code", nil) != "hello " {
		t.Fatal("expected missing metadata to render empty")
	}
}

func TestFormatTemplateErrorFallback(t *testing.T) {
	cat := NewCatalog("test", map[Code]string{
		"code": "{{ if .Name }}",
	})
	if cat.Format("code", map[string]string{"Name": "X"}) != "{{ if .Name }}" {
		t.Fatal("expected template fallback on parse error")
	}
}

func TestRegisterCatalog(t *testing.T) {
	custom := NewCatalog("custom", map[Code]string{"code": "ok"})
	RegisterCatalog("custom", custom)
	if got := GetCatalog("custom"); got != custom {
		t.Fatal("expected registered catalog")
	}
}
