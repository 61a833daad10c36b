// Package telegram is the chat front-end of the bot. It answers /odds with an inline keyboard,
// routes button presses back into the selection flow and delivers the resulting text with
// retry logic for reliability.
//
// Messages are sent as plain text so the rendered odds reach the user unchanged.
package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/oddsbot/internal/flow"
	"github.com/rewired-gh/oddsbot/internal/logger"
)

// MaxMessageLength is Telegram's limit for a single text message, in UTF-16 code units.
const MaxMessageLength = 4096

const helpText = "Use /odds to pick a league, a game and a market.\n" +
	"Prices are shown as American odds, best price first for every outcome."

const unknownCommandText = "❓ Unknown command. Use /help"

// botAPI is the subset of *tgbotapi.BotAPI the client uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Selector drives one selection session per /odds command.
type Selector interface {
	Begin() (string, flow.Prompt)
	Choose(ctx context.Context, sessionID, token string) flow.Prompt
}

// Options tunes polling and delivery.
type Options struct {
	UpdateTimeout  int
	MaxRetries     int
	RetryDelayBase time.Duration
	HandlerTimeout time.Duration
}

// Client handles Telegram updates
type Client struct {
	bot      botAPI
	selector Selector
	opts     Options
}

// NewClient creates a new Telegram client
func NewClient(botToken string, selector Selector, opts Options) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	logger.Info("Authorized on Telegram account @%s", bot.Self.UserName)

	return newClient(bot, selector, opts), nil
}

func newClient(bot botAPI, selector Selector, opts Options) *Client {
	if opts.UpdateTimeout <= 0 {
		opts.UpdateTimeout = 60
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryDelayBase <= 0 {
		opts.RetryDelayBase = time.Second
	}
	if opts.HandlerTimeout <= 0 {
		opts.HandlerTimeout = 30 * time.Second
	}

	return &Client{
		bot:      bot,
		selector: selector,
		opts:     opts,
	}
}

// RegisterCommands publishes the command list shown in Telegram's command menu.
func (c *Client) RegisterCommands() error {
	cfg := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "odds", Description: "Get odds for a game"},
		tgbotapi.BotCommand{Command: "help", Description: "How to use the bot"},
	)
	if _, err := c.bot.Request(cfg); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	return nil
}

// ListenForCommands polls for updates until ctx is cancelled. Each update is handled on its
// own goroutine; in-flight handlers are awaited before returning.
func (c *Client) ListenForCommands(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = c.opts.UpdateTimeout
	updates := c.bot.GetUpdatesChan(u)

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			c.bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.handleUpdate(ctx, update)
			}()
		}
	}
}

func (c *Client) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.HandlerTimeout)
	defer cancel()

	switch {
	case update.CallbackQuery != nil:
		c.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		c.handleMessage(ctx, update.Message)
	}
}

func (c *Client) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	var err error
	switch msg.Command() {
	case "odds":
		sessionID, prompt := c.selector.Begin()
		err = c.sendPrompt(ctx, chatID, sessionID, prompt)
	case "start", "help":
		err = c.sendText(ctx, chatID, helpText)
	default:
		err = c.sendText(ctx, chatID, unknownCommandText)
	}
	if err != nil {
		logger.Error("Failed to answer /%s in chat %d: %v", msg.Command(), chatID, err)
	}
}

func (c *Client) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := c.bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		logger.Warn("Failed to acknowledge callback %s: %v", cb.ID, err)
	}
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	var prompt flow.Prompt
	sessionID, token, ok := parseCallbackData(cb.Data)
	if ok {
		if _, err := c.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
			logger.Debug("Failed to send typing action to chat %d: %v", chatID, err)
		}
		prompt = c.selector.Choose(ctx, sessionID, token)
	} else {
		prompt = flow.Prompt{Text: flow.ExpiredMessage}
	}

	if err := c.sendPrompt(ctx, chatID, sessionID, prompt); err != nil {
		logger.Error("Failed to answer selection in chat %d: %v", chatID, err)
	}
}

// callbackData packs a session ID and an option token into a button payload.
func callbackData(sessionID, token string) string {
	return sessionID + ":" + token
}

func parseCallbackData(data string) (sessionID, token string, ok bool) {
	sessionID, token, ok = strings.Cut(data, ":")
	if !ok || sessionID == "" || token == "" {
		return "", "", false
	}
	return sessionID, token, true
}

// sendPrompt sends a prompt with one button per option. Final prompts are split to fit.
func (c *Client) sendPrompt(ctx context.Context, chatID int64, sessionID string, prompt flow.Prompt) error {
	if prompt.Final() {
		return c.sendText(ctx, chatID, prompt.Text)
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(prompt.Options))
	for _, opt := range prompt.Options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(opt.Label, callbackData(sessionID, opt.Token)),
		))
	}

	msg := tgbotapi.NewMessage(chatID, prompt.Text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	return c.send(ctx, msg)
}

func (c *Client) sendText(ctx context.Context, chatID int64, text string) error {
	for _, chunk := range splitMessage(text, MaxMessageLength) {
		if err := c.send(ctx, tgbotapi.NewMessage(chatID, chunk)); err != nil {
			return err
		}
	}
	return nil
}

// send delivers one message, retrying with linear backoff.
func (c *Client) send(ctx context.Context, msg tgbotapi.Chattable) error {
	var lastErr error

	for i := 0; i < c.opts.MaxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		logger.Warn("Telegram send attempt %d/%d failed: %v", i+1, c.opts.MaxRetries, err)

		if i == c.opts.MaxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("send aborted: %w", ctx.Err())
		case <-time.After(c.opts.RetryDelayBase * time.Duration(i+1)):
		}
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.opts.MaxRetries, lastErr)
}

// splitMessage cuts text into chunks of at most limit UTF-16 code units. Cuts fall between
// sections (blank lines) where possible, then between lines, and only split a line that is
// longer than limit on its own.
func splitMessage(text string, limit int) []string {
	if textLen(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var b strings.Builder
	size := 0
	flush := func() {
		if b.Len() > 0 {
			chunks = append(chunks, b.String())
			b.Reset()
			size = 0
		}
	}

	for _, section := range strings.Split(text, "\n\n") {
		n := textLen(section)
		if n > limit {
			flush()
			chunks = append(chunks, splitLines(section, limit)...)
			continue
		}
		if size > 0 && size+2+n > limit {
			flush()
		}
		if size > 0 {
			b.WriteString("\n\n")
			size += 2
		}
		b.WriteString(section)
		size += n
	}
	flush()

	return chunks
}

func splitLines(section string, limit int) []string {
	var chunks []string
	var b strings.Builder
	size := 0
	flush := func() {
		if b.Len() > 0 {
			chunks = append(chunks, b.String())
			b.Reset()
			size = 0
		}
	}

	for _, line := range strings.Split(section, "\n") {
		for textLen(line) > limit {
			flush()
			head, rest := cutAt(line, limit)
			chunks = append(chunks, head)
			line = rest
		}
		n := textLen(line)
		if size > 0 && size+1+n > limit {
			flush()
		}
		if size > 0 {
			b.WriteByte('\n')
			size++
		}
		b.WriteString(line)
		size += n
	}
	flush()

	return chunks
}

// textLen measures text the way Telegram does, in UTF-16 code units.
func textLen(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// cutAt splits s after the longest prefix that fits in limit code units.
func cutAt(s string, limit int) (string, string) {
	n := 0
	for i, r := range s {
		l := utf16.RuneLen(r)
		if n+l > limit && i > 0 {
			return s[:i], s[i:]
		}
		n += l
	}
	return s, ""
}
