package gmail

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/telebrief/telebrief/pkg/credentials"
	"github.com/telebrief/telebrief/pkg/interfaces"
)

// Factory produces Gmail services bound to whatever credentials the store
// currently holds. It never refreshes an expired token itself; an expired
// token surfaces as a provider error on the next API call.
type Factory struct {
	store *credentials.Store
	opts  []option.ClientOption
}

// NewFactory creates a factory over the credential store. Extra client
// options are appended after the authenticated HTTP client, which lets tests
// point the service at a fake endpoint.
func NewFactory(store *credentials.Store, opts ...option.ClientOption) *Factory {
	return &Factory{store: store, opts: opts}
}

// Service returns a Gmail service for the current credentials, or
// ErrUnauthenticated when none are stored.
func (f *Factory) Service(ctx context.Context) (*gmail.Service, error) {
	cur, ok := f.store.Current()
	if !ok || cur.AccessToken == "" {
		return nil, interfaces.ErrUnauthenticated
	}

	httpClient := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	authed := oauth2.NewClient(ctx, oauth2.StaticTokenSource(cur.Token()))

	opts := append([]option.ClientOption{option.WithHTTPClient(authed)}, f.opts...)
	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to build Gmail client: %v", err)
	}
	return srv, nil
}
