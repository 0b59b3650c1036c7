package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/oauth2"

	"github.com/telebrief/telebrief/pkg/interfaces"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "token.json"))
}

var testCreds = Credentials{
	AccessToken:  "ya29.test-access",
	RefreshToken: "1//test-refresh",
	ExpiryDate:   1735689600000,
	TokenType:    "Bearer",
	Scope:        "https://www.googleapis.com/auth/gmail.readonly",
}

func TestInitializeMissingFile(t *testing.T) {
	s := testStore(t)

	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize() with no file: %v", err)
	}
	if _, ok := s.Current(); ok {
		t.Error("Current() = true before any Save")
	}
}

func TestInitializeCorruptFile(t *testing.T) {
	s := testStore(t)
	if err := os.WriteFile(s.path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := s.Initialize(); err == nil {
		t.Fatal("Initialize() succeeded on a corrupt file")
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := testStore(t)

	_, err := s.Load()
	if !errors.Is(err, interfaces.ErrNoCredentials) {
		t.Fatalf("Load() error = %v, want ErrNoCredentials", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := testStore(t)

	if err := s.Save(testCreds); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	// Fresh store over the same file simulates a process restart.
	restarted := NewStore(s.path)
	got, err := restarted.Load()
	if err != nil {
		t.Fatalf("Load() after restart: %v", err)
	}
	if diff := cmp.Diff(testCreds, got); diff != "" {
		t.Errorf("round-tripped credentials mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveReplacesFully(t *testing.T) {
	s := testStore(t)
	if err := s.Save(testCreds); err != nil {
		t.Fatal(err)
	}

	// A record without optional fields must not inherit them from the old one.
	replacement := Credentials{AccessToken: "ya29.other"}
	if err := s.Save(replacement); err != nil {
		t.Fatal(err)
	}

	got, err := NewStore(s.path).Load()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(replacement, got); diff != "" {
		t.Errorf("replaced credentials mismatch (-want +got):\n%s", diff)
	}
}

func TestCurrentAfterSave(t *testing.T) {
	s := testStore(t)
	if err := s.Save(testCreds); err != nil {
		t.Fatal(err)
	}

	got, ok := s.Current()
	if !ok {
		t.Fatal("Current() = false after Save")
	}
	if got != testCreds {
		t.Errorf("Current() = %+v, want %+v", got, testCreds)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	s := testStore(t)
	if err := s.Save(testCreds); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(filepath.Dir(s.path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "token.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory contents = %v, want only token.json", names)
	}
}

func TestTokenConversion(t *testing.T) {
	expiry := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tok := &oauth2.Token{
		AccessToken:  "ya29.test-access",
		RefreshToken: "1//test-refresh",
		TokenType:    "Bearer",
		Expiry:       expiry,
	}

	c := FromToken(tok)
	if c.ExpiryDate != expiry.UnixMilli() {
		t.Errorf("ExpiryDate = %d, want %d", c.ExpiryDate, expiry.UnixMilli())
	}

	back := c.Token()
	if back.AccessToken != tok.AccessToken || back.RefreshToken != tok.RefreshToken {
		t.Errorf("Token() = %+v, want fields of %+v", back, tok)
	}
	if !back.Expiry.Equal(expiry) {
		t.Errorf("Token().Expiry = %v, want %v", back.Expiry, expiry)
	}
}
