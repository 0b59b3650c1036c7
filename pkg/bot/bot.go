// Package bot is the Telegram front-end: it dispatches chat commands into
// the authorization flow and the mail pipeline and carries operator notices.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/telebrief/telebrief/pkg/authflow"
	"github.com/telebrief/telebrief/pkg/gate"
	"github.com/telebrief/telebrief/pkg/gmail"
	"github.com/telebrief/telebrief/pkg/interfaces"
	"github.com/telebrief/telebrief/pkg/summary"
)

// Chat actions offered by the keyboard menu.
const (
	cmdAuthorize     = "AUTHORIZE"
	cmdActiveAccount = "GET_ALL_ACTIVE_GMAIL"
	cmdLastMail      = "GET_LAST_MAIL"
	cmdTodaysSummary = "GET_ALL_MAIL_SUMMARY"
)

// sender is the slice of the Telegram API the bot needs; *tgbotapi.BotAPI
// satisfies it and tests substitute a recorder.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api  *tgbotapi.BotAPI
	send sender

	gate       gate.Gate
	orch       *authflow.Orchestrator
	mail       interfaces.MailService
	summarizer interfaces.Summarizer
	logger     interfaces.Logger
	operator   string

	mu             sync.Mutex
	operatorChatID int64
}

func New(token, operator string, g gate.Gate, orch *authflow.Orchestrator, mail interfaces.MailService, summarizer interfaces.Summarizer, logger interfaces.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to Telegram: %v", err)
	}
	return &Bot{
		api:        api,
		send:       api,
		gate:       g,
		orch:       orch,
		mail:       mail,
		summarizer: summarizer,
		logger:     logger,
		operator:   operator,
	}, nil
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("Bot launched")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// Notify delivers an out-of-band notice to the operator. It is a no-op with
// a warning until the operator has messaged the bot at least once, since
// Telegram only exposes chat ids through incoming messages.
func (b *Bot) Notify(text string) {
	b.mu.Lock()
	chatID := b.operatorChatID
	b.mu.Unlock()

	if chatID == 0 {
		b.logger.Warn(fmt.Sprintf("No operator chat known, dropping notice: %s", text))
		return
	}
	b.reply(chatID, text)
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		return
	}
	b.rememberOperator(msg)

	if msg.Sticker != nil {
		b.reply(msg.Chat.ID, "👍")
		return
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			b.sendMenu(msg.Chat.ID)
		}
		return
	}

	switch msg.Text {
	case cmdAuthorize:
		b.handleAuthorize(msg)
	case cmdActiveAccount:
		b.handleActiveAccount(ctx, msg)
	case cmdLastMail:
		b.handleLastMail(ctx, msg)
	case cmdTodaysSummary:
		b.handleTodaysSummary(ctx, msg)
	}
}

func (b *Bot) sendMenu(chatID int64) {
	menu := tgbotapi.NewMessage(chatID, "Choose an action:")
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(cmdAuthorize)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(cmdActiveAccount)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(cmdLastMail)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(cmdTodaysSummary)),
	)
	keyboard.OneTimeKeyboard = true
	menu.ReplyMarkup = keyboard
	if _, err := b.send.Send(menu); err != nil {
		b.logger.Error(fmt.Sprintf("Failed to send menu: %v", err))
	}
}

// allowed runs the identity gate and reports the refusal to the requester.
// Denied requests go no further; no provider call is made.
func (b *Bot) allowed(msg *tgbotapi.Message) bool {
	username := ""
	if msg.From != nil {
		username = msg.From.UserName
	}
	if !b.gate.Allow(username) {
		b.logger.Error(fmt.Sprintf("Telegram user requesting: %s, is not allowed", username))
		b.reply(msg.Chat.ID, fmt.Sprintf("Telegram requesting user: %s is not allowed", username))
		return false
	}
	return true
}

func (b *Bot) handleAuthorize(msg *tgbotapi.Message) {
	if !b.allowed(msg) {
		return
	}

	authURL, err := b.orch.Begin(msg.From.UserName)
	switch {
	case errors.Is(err, interfaces.ErrAlreadyAuthorized):
		b.reply(msg.Chat.ID, "Already authorized.")
	case err != nil:
		b.logger.Error(fmt.Sprintf("Authorization error: %v", err))
		b.reply(msg.Chat.ID, "Failed to start authorization. Please try again later.")
	default:
		b.reply(msg.Chat.ID, "Authorization process started. Please follow the link and approve access.")
		b.reply(msg.Chat.ID, authURL)
	}
}

func (b *Bot) handleActiveAccount(ctx context.Context, msg *tgbotapi.Message) {
	if !b.allowed(msg) {
		return
	}

	address, err := b.mail.ActiveAccount(ctx)
	if err != nil {
		b.logger.Error(fmt.Sprintf("Failed to fetch Gmail username: %v", err))
		b.reply(msg.Chat.ID, fmt.Sprintf("Failed to fetch Gmail username. %v", err))
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("Authenticated Gmail user: %s", address))
}

func (b *Bot) handleLastMail(ctx context.Context, msg *tgbotapi.Message) {
	if !b.allowed(msg) {
		return
	}

	email, err := b.mail.LastMessage(ctx)
	if err != nil {
		b.logger.Error(fmt.Sprintf("Failed to fetch last Gmail: %v", err))
		b.reply(msg.Chat.ID, fmt.Sprintf("Failed to fetch last Gmail. %v", err))
		return
	}
	if email == nil {
		b.reply(msg.Chat.ID, "No emails found in your inbox.")
		return
	}
	b.reply(msg.Chat.ID, gmail.RenderMessage(email))
}

func (b *Bot) handleTodaysSummary(ctx context.Context, msg *tgbotapi.Message) {
	if !b.allowed(msg) {
		return
	}

	emails, err := b.mail.TodaysMessages(ctx)
	if err != nil {
		b.logger.Error(fmt.Sprintf("Failed to fetch today's emails: %v", err))
		b.reply(msg.Chat.ID, fmt.Sprintf("Failed to fetch today's emails. %v", err))
		return
	}
	if len(emails) == 0 {
		b.reply(msg.Chat.ID, "No emails found today.")
		return
	}

	b.reply(msg.Chat.ID, fmt.Sprintf("📬 Feed of today's emails generated. Total emails: %d", len(emails)))

	digest := gmail.RenderDigest(emails)
	text, err := b.summarizer.Summarize(ctx, gmail.SummaryPrompt(digest))
	if err != nil {
		if errors.Is(err, interfaces.ErrEmptySummary) {
			b.reply(msg.Chat.ID, "Summarizer returned an empty response.")
			return
		}
		b.logger.Error(fmt.Sprintf("Summarization failed: %v", err))
		b.reply(msg.Chat.ID, fmt.Sprintf("Failed to summarize today's emails. %v", err))
		return
	}

	for _, chunk := range summary.SplitForDelivery(text, summary.MaxChunkLength) {
		b.reply(msg.Chat.ID, chunk)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.send.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Error(fmt.Sprintf("Failed to send reply: %v", err))
	}
}

func (b *Bot) rememberOperator(msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.UserName != b.operator || msg.Chat == nil {
		return
	}
	b.mu.Lock()
	b.operatorChatID = msg.Chat.ID
	b.mu.Unlock()
}
