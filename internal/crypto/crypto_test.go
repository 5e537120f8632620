package crypto

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	s, err := NewSigner("test-secret")
	if err != nil {
		t.Fatal(err)
	}
	id := NewUUIDv7()

	token := s.Sign(id, time.Now().Add(time.Hour))
	got, err := s.Verify(token)
	if err != nil {
		t.Fatal(err)
	}
	if got != id {
		t.Fatalf("session id = %s, want %s", got, id)
	}
}

func TestVerifyRejectsOtherSecret(t *testing.T) {
	a, _ := NewSigner("secret-a")
	b, _ := NewSigner("secret-b")

	token := a.Sign(NewUUIDv7(), time.Now().Add(time.Hour))
	if _, err := b.Verify(token); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyRejectsTamperedExpiry(t *testing.T) {
	s, _ := NewSigner("secret")
	token := s.Sign(NewUUIDv7(), time.Now().Add(time.Minute))

	parts := strings.Split(token, ".")
	parts[1] = "99999999999"
	if _, err := s.Verify(strings.Join(parts, ".")); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	s, _ := NewSigner("secret")
	token := s.Sign(NewUUIDv7(), time.Now().Add(time.Minute))

	s.now = func() time.Time { return time.Now().Add(time.Hour) }
	if _, err := s.Verify(token); !errors.Is(err, ErrSignatureExpired) {
		t.Fatalf("expected ErrSignatureExpired, got %v", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	s, _ := NewSigner("secret")
	for _, token := range []string{"", "abc", "a.b.c", "not-a-uuid.1.sig"} {
		if _, err := s.Verify(token); err == nil {
			t.Errorf("Verify(%q) accepted", token)
		}
	}
}

func TestUnverifiedSessionID(t *testing.T) {
	s, _ := NewSigner("secret")
	id := NewUUIDv7()
	token := s.Sign(id, time.Now().Add(time.Hour))

	got, ok := UnverifiedSessionID(token)
	if !ok || got != id {
		t.Fatalf("UnverifiedSessionID = %v, %v", got, ok)
	}
	for _, bad := range []string{"", "abc", "abc.1.sig", "00000000-0000-0000-0000-000000000000.1.sig"} {
		if _, ok := UnverifiedSessionID(bad); ok {
			t.Errorf("UnverifiedSessionID(%q) accepted", bad)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}

	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Fatal("password should match")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Fatal("wrong password matched")
	}
}
