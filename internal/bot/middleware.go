package bot

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"slot-machine/internal/config"
)

// WhitelistMiddleware drops updates from chats outside bot.chats.
// An empty list lets every chat through.
func WhitelistMiddleware(cfg *config.Config) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			if chat == nil {
				return nil
			}

			if !cfg.IsChatAllowed(chat.ID) {
				log.Debug().
					Int64("chat_id", chat.ID).
					Msg("Ignoring update from non-whitelisted chat")
				return nil
			}

			return next(c)
		}
	}
}

// LoggingMiddleware logs each update with the gesture it carries and how
// long the handler took.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			start := time.Now()
			err := next(c)

			ev := log.Debug()
			if err != nil {
				ev = log.Warn().Err(err)
			}
			if chat := c.Chat(); chat != nil {
				ev = ev.Int64("chat_id", chat.ID)
			}
			if sender := c.Sender(); sender != nil {
				ev = ev.Str("username", sender.Username)
			}
			ev.Str("gesture", gesture(c)).
				Dur("took", time.Since(start)).
				Msg("Handled update")
			return err
		}
	}
}

// gesture names what the user did: a button press or a command.
func gesture(c tele.Context) string {
	if cb := c.Callback(); cb != nil {
		return "button:" + strings.TrimPrefix(cb.Data, "\f")
	}
	return c.Text()
}

// RecoveryMiddleware turns a handler panic into a logged error. A pending
// button press is still answered so the client stops waiting.
func RecoveryMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				log.Error().
					Interface("panic", r).
					Str("gesture", gesture(c)).
					Msg("Recovered from panic in handler")
				if c.Callback() != nil {
					_ = c.Respond()
				}
				err = nil
			}()
			return next(c)
		}
	}
}
