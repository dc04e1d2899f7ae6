package authz

import (
	"strings"
	"testing"
)

func TestParseCode(t *testing.T) {
	code, err := ParseCode("accounting.segments.view_page")
	if err != nil {
		t.Fatalf("ParseCode: %v", err)
	}
	if code.Module != "accounting" || code.Menu != "segments" || code.Action != "view_page" {
		t.Fatalf("unexpected code %+v", code)
	}
	if code.String() != "accounting.segments.view_page" {
		t.Fatalf("round trip failed: %s", code)
	}
}

func TestParseCodeRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"*",
		"accounting",
		"accounting.segments",
		"accounting.segments.view_page.extra",
		"Accounting.segments.view_page",
		"accounting..view_page",
		"accounting.segments.1view",
		"accounting.segments.view-page",
	}
	for _, s := range bad {
		if _, err := ParseCode(s); err == nil {
			t.Fatalf("ParseCode(%q) should fail", s)
		}
	}
}

func TestMustCodePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustCode("not a code")
}

func TestCatalogCodesRoundTrip(t *testing.T) {
	for _, code := range DefaultCatalog().Codes() {
		s := code.String()
		parts := strings.Split(s, ".")
		if len(parts) != 3 {
			t.Fatalf("code %q does not have 3 segments", s)
		}
		if strings.Join(parts, ".") != s {
			t.Fatalf("code %q does not survive split/join", s)
		}
		parsed, err := ParseCode(s)
		if err != nil {
			t.Fatalf("catalog code %q does not parse: %v", s, err)
		}
		if parsed != code {
			t.Fatalf("parse of %q yields %+v", s, parsed)
		}
	}
}
