package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// OAuth flow variants. The variant is fixed per deployment; handlers never
// guess from which parameters happen to be present.
const (
	FlowCode     = "code"
	FlowFragment = "fragment"
)

// Config holds everything read from the environment at startup.
type Config struct {
	TelegramToken      string
	AuthorizedUsername string
	OperatorUsername   string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleAuthURL      string
	GoogleTokenURL     string
	GoogleRedirectURL  string
	GmailScope         string

	TokenFile string

	GeminiAPIKey string
	GeminiModel  string

	ListenAddr  string
	OAuthFlow   string
	PostAuthURL string

	LogFile string
}

// Load reads configuration from the environment. A .env file is loaded first
// if one exists; its absence is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:      os.Getenv("BOT_API_TOKEN"),
		AuthorizedUsername: os.Getenv("AUTHORIZED_USERNAME"),
		OperatorUsername:   getenv("OPERATOR_USERNAME", os.Getenv("AUTHORIZED_USERNAME")),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleAuthURL:      getenv("GOOGLE_AUTH_URL", "https://accounts.google.com/o/oauth2/v2/auth"),
		GoogleTokenURL:     getenv("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		GmailScope:         getenv("GOOGLE_GMAIL_SCOPE", "https://www.googleapis.com/auth/gmail.readonly"),
		TokenFile:          getenv("GOOGLE_TOKEN_FILE", "token.json"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        getenv("GEMINI_MODEL", "gemini-2.5-flash"),
		ListenAddr:         getenv("LISTEN_ADDR", ":3001"),
		OAuthFlow:          getenv("OAUTH_FLOW", FlowCode),
		PostAuthURL:        getenv("POST_AUTH_URL", "https://mail.google.com/"),
		LogFile:            os.Getenv("LOG_FILE"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	required := map[string]string{
		"BOT_API_TOKEN":       c.TelegramToken,
		"AUTHORIZED_USERNAME": c.AuthorizedUsername,
		"GOOGLE_CLIENT_ID":    c.GoogleClientID,
		"GOOGLE_REDIRECT_URL": c.GoogleRedirectURL,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s environment variable not set", name)
		}
	}
	if c.OAuthFlow != FlowCode && c.OAuthFlow != FlowFragment {
		return fmt.Errorf("OAUTH_FLOW must be %q or %q, got %q", FlowCode, FlowFragment, c.OAuthFlow)
	}
	return nil
}

func getenv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
