package auth

import "testing"

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken("user-1", []string{"admin"}, "test-secret")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	claims, err := ParseAccessToken(token, "test-secret")
	if err != nil {
		t.Fatalf("ParseAccessToken failed: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("subject = %q, want user-1", claims.Subject)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "admin" {
		t.Fatalf("roles = %v, want [admin]", claims.Roles)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken("user-1", nil, "test-secret")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}
	if _, err := ParseAccessToken(token, "other-secret"); err == nil {
		t.Fatalf("expected error for wrong secret")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := ParseAccessToken("not.a.token", "test-secret"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !CheckPassword("hunter2", hash) {
		t.Fatalf("correct password did not verify")
	}
	if CheckPassword("wrong", hash) {
		t.Fatalf("wrong password verified")
	}
}

func TestUserContextIsAdmin(t *testing.T) {
	admin := &UserContext{ID: "1", Roles: []string{"viewer", "admin"}}
	if !admin.IsAdmin() {
		t.Fatalf("admin role not detected")
	}
	viewer := &UserContext{ID: "2", Roles: []string{"viewer"}}
	if viewer.IsAdmin() {
		t.Fatalf("viewer should not be admin")
	}
}
