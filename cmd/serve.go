package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/telebrief/telebrief/pkg/authflow"
	"github.com/telebrief/telebrief/pkg/authstate"
	"github.com/telebrief/telebrief/pkg/bot"
	"github.com/telebrief/telebrief/pkg/config"
	"github.com/telebrief/telebrief/pkg/credentials"
	"github.com/telebrief/telebrief/pkg/gate"
	"github.com/telebrief/telebrief/pkg/gmail"
	"github.com/telebrief/telebrief/pkg/logger"
	"github.com/telebrief/telebrief/pkg/server"
	"github.com/telebrief/telebrief/pkg/summary"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot and the OAuth callback server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.NewLogger(cfg.LogFile)
	log.Info("Project start")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := credentials.NewStore(cfg.TokenFile)
	if err := store.Initialize(); err != nil {
		return err
	}
	if _, ok := store.Current(); ok {
		log.Info("Loaded saved credentials")
	} else {
		log.Info("No saved credentials, authorization required")
	}

	machine := authstate.NewMachine()
	factory := gmail.NewFactory(store)
	pipeline := gmail.NewPipeline(factory, log)

	summarizer, err := summary.NewGeminiSummarizer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, log)
	if err != nil {
		return err
	}

	// The bot implements the operator notification channel, and the
	// orchestrator needs it; wire the orchestrator first with a late-bound
	// notifier to break the cycle.
	notifier := &lateNotifier{}
	orch := authflow.New(authflow.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		AuthURL:      cfg.GoogleAuthURL,
		TokenURL:     cfg.GoogleTokenURL,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scope:        cfg.GmailScope,
	}, machine, store, notifier, log)

	chatBot, err := bot.New(cfg.TelegramToken, cfg.OperatorUsername, gate.New(cfg.AuthorizedUsername), orch, pipeline, summarizer, log)
	if err != nil {
		return err
	}
	notifier.delegate = chatBot

	callbackServer := server.New(cfg.ListenAddr, orch, cfg.OAuthFlow, cfg.PostAuthURL, log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return callbackServer.Run(ctx) })
	g.Go(func() error { return chatBot.Run(ctx) })

	if err := g.Wait(); err != nil {
		return fmt.Errorf("service stopped: %v", err)
	}
	log.Info("Shutdown complete")
	return nil
}

// lateNotifier forwards notices once its delegate is set; earlier notices
// are dropped, which only affects the window before startup finishes.
type lateNotifier struct {
	delegate interface{ Notify(string) }
}

func (n *lateNotifier) Notify(text string) {
	if n.delegate != nil {
		n.delegate.Notify(text)
	}
}
