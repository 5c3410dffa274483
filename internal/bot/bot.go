// Package bot exposes the slot machine over Telegram: commands and an inline
// button pull the lever, and settled rounds are announced back to the chats.
package bot

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"slot-machine/internal/config"
)

// CallbackActivate is the inline button payload that pulls the lever.
const CallbackActivate = "activate"

// ErrNoToken is returned when the bot is enabled without a token.
var ErrNoToken = errors.New("bot token is required")

// Activator receives one gesture per command or button press.
type Activator interface {
	Activate()
}

// Bot wraps the telebot instance.
type Bot struct {
	bot       *tele.Bot
	cfg       *config.Config
	activator Activator
	markup    *tele.ReplyMarkup

	mu    sync.RWMutex
	chats map[int64]struct{}
}

// New creates a bot that forwards gestures to activator.
func New(cfg *config.Config, activator Activator) (*Bot, error) {
	if cfg.Bot.Token == "" {
		return nil, ErrNoToken
	}

	pref := tele.Settings{
		Token:  cfg.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := newBot(teleBot, cfg, activator)
	b.registerMiddleware()
	b.registerHandlers()
	return b, nil
}

func newBot(teleBot *tele.Bot, cfg *config.Config, activator Activator) *Bot {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data("🎰 SPIN / STOP", CallbackActivate)))

	b := &Bot{
		bot:       teleBot,
		cfg:       cfg,
		activator: activator,
		markup:    markup,
		chats:     make(map[int64]struct{}),
	}
	for _, id := range cfg.Bot.Chats {
		b.chats[id] = struct{}{}
	}
	return b
}

func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(WhitelistMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
}

func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.handleStart)
	b.bot.Handle("/spin", b.handleSpin)
	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

func (b *Bot) handleStart(c tele.Context) error {
	b.subscribe(c.Chat())
	b.activator.Activate()
	return c.Send("🎰 Slot machine ready. Each press spins or stops the next reel.", b.markup)
}

func (b *Bot) handleSpin(c tele.Context) error {
	b.subscribe(c.Chat())
	b.activator.Activate()
	return nil
}

func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	// Telebot v3 may add a \f prefix to callback data
	data := strings.TrimPrefix(callback.Data, "\f")
	if data != CallbackActivate {
		log.Debug().Str("data", data).Msg("Unknown callback")
		return c.Respond()
	}

	b.subscribe(c.Chat())
	b.activator.Activate()
	return c.Respond()
}

func (b *Bot) subscribe(chat *tele.Chat) {
	if chat == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chats[chat.ID] = struct{}{}
}

// Chats returns every chat that should receive round announcements.
func (b *Bot) Chats() []int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]int64, 0, len(b.chats))
	for id := range b.chats {
		out = append(out, id)
	}
	return out
}

// Markup returns the inline keyboard attached to announcements.
func (b *Bot) Markup() *tele.ReplyMarkup { return b.markup }

// Sender returns the underlying telebot instance for the notifier.
func (b *Bot) Sender() Sender { return b.bot }

// Start starts long polling. It blocks until Stop.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops polling.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
