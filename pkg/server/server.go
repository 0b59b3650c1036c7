// Package server hosts the OAuth callback endpoint the provider redirects to.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/telebrief/telebrief/pkg/authflow"
	"github.com/telebrief/telebrief/pkg/config"
	"github.com/telebrief/telebrief/pkg/interfaces"
)

const callbackPath = "/oauth2"

// fragmentRelayPage re-submits parameters delivered in the URL fragment as
// query parameters. In the fragment flow the provider puts code and state
// after '#', which never reaches the server; this page runs in the user's
// browser and folds them back into the query string.
const fragmentRelayPage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Completing authorization</title></head>
<body>
<p>Completing authorization&hellip;</p>
<script>
  var fragment = window.location.hash.replace(/^#/, "");
  if (fragment) {
    window.location.replace(window.location.pathname + "?" + fragment);
  } else {
    document.body.textContent = "No authorization parameters received.";
  }
</script>
</body>
</html>`

// Server is the HTTP side of the authorization handshake.
type Server struct {
	orch        *authflow.Orchestrator
	logger      interfaces.Logger
	flow        string
	postAuthURL string

	httpServer *http.Server
}

func New(addr string, orch *authflow.Orchestrator, flow, postAuthURL string, logger interfaces.Logger) *Server {
	s := &Server{
		orch:        orch,
		logger:      logger,
		flow:        flow,
		postAuthURL: postAuthURL,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Get(callbackPath, s.handleCallback)
	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.logger.Info(fmt.Sprintf("Callback server listening on %s", s.httpServer.Addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// First hit of the fragment flow carries nothing in the query; serve
	// the relay page so the browser can surface the fragment parameters.
	if s.flow == config.FlowFragment && len(query) == 0 {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, fragmentRelayPage)
		return
	}

	err := s.orch.Complete(r.Context(), query.Get("code"), query.Get("state"))
	switch {
	case errors.Is(err, interfaces.ErrStateMismatch):
		http.Error(w, "state mismatch", http.StatusForbidden)
	case errors.Is(err, interfaces.ErrMissingCode):
		http.Error(w, "no code provided", http.StatusBadRequest)
	case err != nil:
		s.logger.Error(fmt.Sprintf("Token exchange failed: %v", err))
		http.Error(w, "token exchange failed", http.StatusInternalServerError)
	default:
		http.Redirect(w, r, s.postAuthURL, http.StatusFound)
	}
}
