// Package authflow coordinates the OAuth authorization handshake between
// the chat side (Begin) and the HTTP callback side (Complete).
package authflow

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/telebrief/telebrief/pkg/authstate"
	"github.com/telebrief/telebrief/pkg/credentials"
	"github.com/telebrief/telebrief/pkg/interfaces"
)

// Config names the provider endpoints and client identity for the flow.
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURL  string
	Scope        string
}

// Orchestrator owns the state machine and the credential store for the
// single authorization flow.
type Orchestrator struct {
	cfg      Config
	machine  *authstate.Machine
	store    *credentials.Store
	notifier interfaces.Notifier
	logger   interfaces.Logger
}

func New(cfg Config, machine *authstate.Machine, store *credentials.Store, notifier interfaces.Notifier, logger interfaces.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		machine:  machine,
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Begin starts a new authorization for the given requester identity and
// returns the provider URL the user must visit. When credentials already
// exist it returns ErrAlreadyAuthorized instead of re-authorizing.
func (o *Orchestrator) Begin(identity string) (string, error) {
	if cur, ok := o.store.Current(); ok && cur.AccessToken != "" {
		o.logger.Info("Authorized user requested authorization, already done")
		return "", interfaces.ErrAlreadyAuthorized
	}

	state := o.machine.Begin(identity)
	o.logger.Info(fmt.Sprintf("Authorization started for %s", identity))

	params := url.Values{}
	params.Set("scope", o.cfg.Scope)
	params.Set("include_granted_scopes", "true")
	params.Set("response_type", "code")
	params.Set("state", state)
	params.Set("redirect_uri", o.cfg.RedirectURL)
	params.Set("client_id", o.cfg.ClientID)

	return o.cfg.AuthURL + "?" + params.Encode(), nil
}

// Complete finishes the handshake with the code and state delivered by the
// provider callback. A state mismatch is treated as a security event and
// reported to the operator, not just logged.
func (o *Orchestrator) Complete(ctx context.Context, code, state string) error {
	if !o.machine.Validate(state) {
		o.logger.Error("Authorization callback with mismatched state")
		o.notifier.Notify("Authorization failed: state mismatch. If you did not just attempt to authorize, someone may be replaying a callback.")
		return interfaces.ErrStateMismatch
	}
	if code == "" {
		o.logger.Error("Authorization callback without a code")
		return interfaces.ErrMissingCode
	}

	token, err := o.oauthConfig().Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("unable to exchange authorization code: %v", err)
	}
	if err := o.store.Save(credentials.FromToken(token)); err != nil {
		return fmt.Errorf("unable to persist credentials: %v", err)
	}

	o.machine.Clear()
	o.logger.Info("Authorization completed, credentials saved")
	o.notifier.Notify("Gmail authorization completed successfully.")
	return nil
}

func (o *Orchestrator) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     o.cfg.ClientID,
		ClientSecret: o.cfg.ClientSecret,
		RedirectURL:  o.cfg.RedirectURL,
		Scopes:       []string{o.cfg.Scope},
		Endpoint: oauth2.Endpoint{
			AuthURL:  o.cfg.AuthURL,
			TokenURL: o.cfg.TokenURL,
		},
	}
}
