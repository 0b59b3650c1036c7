// Package credentials persists the single OAuth credential record.
package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/telebrief/telebrief/pkg/interfaces"
)

// Credentials is the durable record written to the token file. ExpiryDate is
// milliseconds since epoch, matching what the provider's token response
// carries through the exchange.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiryDate   int64  `json:"expiry_date,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// FromToken converts an exchanged OAuth2 token into the stored record shape.
func FromToken(tok *oauth2.Token) Credentials {
	c := Credentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	if !tok.Expiry.IsZero() {
		c.ExpiryDate = tok.Expiry.UnixMilli()
	}
	return c
}

// Token converts the stored record back into an OAuth2 token.
func (c Credentials) Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
	}
	if c.ExpiryDate > 0 {
		tok.Expiry = time.UnixMilli(c.ExpiryDate)
	}
	return tok
}

// Store keeps the current credentials in memory and mirrors every write to a
// single JSON file. At most one record exists; Save fully replaces it.
type Store struct {
	path string

	mu      sync.RWMutex
	current *Credentials
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Initialize loads the record once at startup. A missing file is the normal
// first-run state and returns nil with an empty store; a present but
// unreadable file is an error.
func (s *Store) Initialize() error {
	c, err := s.read()
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("unable to load saved credentials: %v", err)
	}

	s.mu.Lock()
	s.current = &c
	s.mu.Unlock()
	return nil
}

// Load re-reads the durable record. ErrNoCredentials means no record exists.
func (s *Store) Load() (Credentials, error) {
	c, err := s.read()
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, interfaces.ErrNoCredentials
		}
		return Credentials{}, fmt.Errorf("unable to read credentials file: %v", err)
	}

	s.mu.Lock()
	s.current = &c
	s.mu.Unlock()
	return c, nil
}

// Save replaces the record in memory and on disk. The file is written to a
// temp name in the same directory and renamed so a concurrent Load never
// observes a partial write.
func (s *Store) Save(c Credentials) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("unable to encode credentials: %v", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".token-*.json")
	if err != nil {
		return fmt.Errorf("unable to create temp credentials file: %v", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("unable to write credentials: %v", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("unable to close temp credentials file: %v", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("unable to set credentials file mode: %v", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("unable to replace credentials file: %v", err)
	}

	s.mu.Lock()
	s.current = &c
	s.mu.Unlock()
	return nil
}

// Current returns the in-memory record without touching disk. The second
// return is false when no record is held.
func (s *Store) Current() (Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Credentials{}, false
	}
	return *s.current, true
}

func (s *Store) read() (Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Credentials{}, err
	}
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return Credentials{}, err
	}
	return c, nil
}
