package vellum

import (
	"strings"
	"testing"
)

func TestPasteIDRoundTrip(t *testing.T) {
	id := NewPasteID()
	s := id.String()

	if len(s) != 32 {
		t.Fatalf("rendered ID %q is not 32 characters", s)
	}
	if strings.ContainsAny(s, "-/\\") {
		t.Fatalf("rendered ID %q contains separator characters", s)
	}

	parsed, err := PasteIDFromString(s)
	if err != nil {
		t.Fatal(err)
	}
	if parsed != id {
		t.Fatalf("round trip mismatch: %v != %v", parsed, id)
	}
}

func TestPasteIDCanonicalizesDashedForm(t *testing.T) {
	dashed := "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	id, err := PasteIDFromString(dashed)
	if err != nil {
		t.Fatal(err)
	}
	if id.String() != strings.ReplaceAll(dashed, "-", "") {
		t.Fatalf("expected canonical form, got %q", id.String())
	}
}

func TestPasteIDFromInvalidString(t *testing.T) {
	for _, s := range []string{"", "xyz", "../../etc/passwd", "6ba7b8109dad11d180b400c04fd430"} {
		if _, err := PasteIDFromString(s); err != ErrInvalidID {
			t.Fatalf("parsing %q: expected ErrInvalidID, got %v", s, err)
		}
	}
}

func TestIDScan(t *testing.T) {
	id := NewFileID()

	var scanned FileID
	if err := scanned.Scan(id.String()); err != nil {
		t.Fatal(err)
	}
	if scanned != id {
		t.Fatalf("scan mismatch: %v != %v", scanned, id)
	}

	if err := scanned.Scan(42); err == nil {
		t.Fatal("expected an error scanning an int")
	}
}

func TestEveryIdentifierKindRoundTrips(t *testing.T) {
	if id := NewUserID(); mustParseUser(t, id.String()) != id {
		t.Fatal("user ID round trip mismatch")
	}
	if id := NewDeletionKeyID(); mustParseDeletionKey(t, id.String()) != id {
		t.Fatal("deletion key ID round trip mismatch")
	}
	if id := NewAPIKeyID(); mustParseAPIKey(t, id.String()) != id {
		t.Fatal("API key ID round trip mismatch")
	}
}

func mustParseUser(t *testing.T, s string) UserID {
	t.Helper()
	id, err := UserIDFromString(s)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func mustParseDeletionKey(t *testing.T, s string) DeletionKeyID {
	t.Helper()
	id, err := DeletionKeyIDFromString(s)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func mustParseAPIKey(t *testing.T, s string) APIKeyID {
	t.Helper()
	id, err := APIKeyIDFromString(s)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestIDValue(t *testing.T) {
	id := NewUserID()
	v, err := id.Value()
	if err != nil {
		t.Fatal(err)
	}
	if v.(string) != id.String() {
		t.Fatalf("value mismatch: %v != %v", v, id.String())
	}
}
