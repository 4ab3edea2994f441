package auth

import (
	"strings"
	"testing"
	"time"
)

// newTestTokenService creates a TokenService with a fixed secret.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := NewTokenService("short")
	if err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestGenerate_LooksLikeJWT(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate(KindDevice, "cv37rs3pp9olc6atsptg")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("Generate() token doesn't look like a JWT: %q", token)
	}
}

func TestValidate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	for _, kind := range []Kind{KindDevice, KindServer} {
		token, err := ts.Generate(kind, "subject-1")
		if err != nil {
			t.Fatalf("Generate(%s) error = %v", kind, err)
		}
		got, err := ts.Validate(kind, token)
		if err != nil {
			t.Fatalf("Validate(%s) error = %v", kind, err)
		}
		if got != "subject-1" {
			t.Errorf("Validate(%s) = %q, want %q", kind, got, "subject-1")
		}
	}
}

func TestValidate_KindsDoNotMix(t *testing.T) {
	ts := newTestTokenService(t)

	device, _ := ts.Generate(KindDevice, "dev-1")
	if _, err := ts.Validate(KindServer, device); err == nil {
		t.Fatal("a device token must not validate as a server token")
	}

	server, _ := ts.Generate(KindServer, "user-1")
	if _, err := ts.Validate(KindDevice, server); err == nil {
		t.Fatal("a server token must not validate as a device token")
	}
}

func TestValidate_ExpiredToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateWithDuration(KindServer, "user-123", -time.Second)
	if err != nil {
		t.Fatalf("GenerateWithDuration() error = %v", err)
	}

	_, err = ts.Validate(KindServer, token)
	if err == nil || !strings.Contains(err.Error(), "expired") {
		t.Fatalf("Validate() error = %v, want token expired", err)
	}
}

func TestValidate_TamperedToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, _ := ts.Generate(KindDevice, "dev-1")
	tampered := token[:len(token)-3] + "xxx"

	if _, err := ts.Validate(KindDevice, tampered); err == nil {
		t.Fatal("Validate() should return an error for a tampered token")
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	ts1, _ := NewTokenService("correct-secret-32-chars-long!!!!")
	ts2, _ := NewTokenService("wrong-secret-32-chars-long!!!!!!")

	token, _ := ts1.Generate(KindDevice, "dev-1")

	if _, err := ts2.Validate(KindDevice, token); err == nil {
		t.Fatal("Validate() should fail when using a different secret")
	}
}

func TestValidate_Garbage(t *testing.T) {
	ts := newTestTokenService(t)

	for _, in := range []string{"", "not.a.jwt.token"} {
		if _, err := ts.Validate(KindDevice, in); err == nil {
			t.Errorf("Validate(%q) should fail", in)
		}
	}
}
