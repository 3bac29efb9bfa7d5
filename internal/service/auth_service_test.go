package service

import (
	"errors"
	"testing"

	"github.com/gmatprep/internal/db"
)

func TestAuthServiceAuthenticate(t *testing.T) {
	gdb := setupServiceTestDB(t)
	if err := db.SetPassword(gdb, "admin", "s3cret"); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	svc := NewAuthService(gdb)

	user, err := svc.Authenticate(" admin ", "s3cret")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.Username != "admin" {
		t.Fatalf("unexpected user %q", user.Username)
	}

	for _, tc := range []struct{ username, password string }{
		{"admin", "wrong"},
		{"nobody", "s3cret"},
		{"", ""},
	} {
		if _, err := svc.Authenticate(tc.username, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials for %q, got %v", tc.username, err)
		}
	}
}
