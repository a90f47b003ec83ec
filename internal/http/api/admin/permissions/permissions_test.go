package permissions

import (
	"reflect"
	"testing"
)

func TestKey(t *testing.T) {
	if got := Key("post", "/v0/admin/claims/:id/approve"); got != "POST /v0/admin/claims/:id/approve" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestNormalizePermissions(t *testing.T) {
	got := NormalizePermissions([]string{
		" GET /v0/admin/users ",
		"GET /v0/admin/claims",
		"GET /v0/admin/users",
		"",
	})
	want := []string{"GET /v0/admin/claims", "GET /v0/admin/users"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestValidatePermissions(t *testing.T) {
	if err := ValidatePermissions([]string{"GET /v0/admin/users", "POST /v0/admin/claims/:id/approve"}); err != nil {
		t.Fatalf("expected valid permissions, got %v", err)
	}
	if err := ValidatePermissions([]string{"DELETE /v0/admin/users"}); err == nil {
		t.Fatalf("expected error for unknown permission")
	}
	if err := ValidatePermissions(nil); err != nil {
		t.Fatalf("expected nil permissions to validate, got %v", err)
	}
}

func TestMarshalAndParsePermissions(t *testing.T) {
	raw, err := MarshalPermissions([]string{"GET /v0/admin/users", "GET /v0/admin/claims"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := ParsePermissions(raw)
	want := []string{"GET /v0/admin/claims", "GET /v0/admin/users"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if parsed := ParsePermissions([]byte("not json")); len(parsed) != 0 {
		t.Fatalf("expected empty slice for bad json, got %v", parsed)
	}
}

func TestHasPermission(t *testing.T) {
	perms := []string{"GET /v0/admin/users"}
	if !HasPermission(perms, "GET /v0/admin/users") {
		t.Fatalf("expected permission to be granted")
	}
	if HasPermission(perms, "GET /v0/admin/claims") {
		t.Fatalf("expected missing permission to be denied")
	}
	if HasPermission(perms, "") {
		t.Fatalf("expected empty key to be denied")
	}
}

func TestDefinitionsCoverEveryKey(t *testing.T) {
	defs := Definitions()
	if len(defs) == 0 {
		t.Fatalf("expected permission definitions")
	}
	seen := map[string]bool{}
	for _, def := range defs {
		if def.Key != Key(def.Method, def.Path) {
			t.Fatalf("definition key %q does not match method and path", def.Key)
		}
		if seen[def.Key] {
			t.Fatalf("duplicate definition key %q", def.Key)
		}
		seen[def.Key] = true
	}
}
