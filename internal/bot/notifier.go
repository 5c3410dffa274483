package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"slot-machine/internal/driver"
	"slot-machine/internal/game/slot"
)

const notifyBuffer = 16

// Sender posts messages. *tele.Bot satisfies it.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Notifier announces settled rounds to every subscribed chat. It is a frame
// renderer: Render only queues text, Run does the sending.
type Notifier struct {
	sender Sender
	chats  func() []int64
	markup *tele.ReplyMarkup
	queue  chan string
	last   slot.State
}

// NewNotifier creates a notifier. chats is consulted on every send.
func NewNotifier(sender Sender, chats func() []int64, markup *tele.ReplyMarkup) *Notifier {
	return &Notifier{
		sender: sender,
		chats:  chats,
		markup: markup,
		queue:  make(chan string, notifyBuffer),
	}
}

// Render queues an announcement when the machine enters RESULT, GAMEOVER or
// CLEAR.
func (n *Notifier) Render(f *driver.Frame) {
	if f.State == n.last {
		return
	}
	n.last = f.State

	switch f.State {
	case slot.StateResult, slot.StateGameOver, slot.StateClear:
	default:
		return
	}

	select {
	case n.queue <- FormatAnnouncement(f.Snapshot):
	default:
		log.Debug().Str("state", f.State.String()).Msg("Announcement dropped, queue full")
	}
}

// Run sends queued announcements until ctx is done.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-n.queue:
			n.broadcast(text)
		}
	}
}

func (n *Notifier) broadcast(text string) {
	for _, id := range n.chats() {
		opts := []interface{}{}
		if n.markup != nil {
			opts = append(opts, n.markup)
		}
		if _, err := n.sender.Send(tele.ChatID(id), text, opts...); err != nil {
			log.Warn().Err(err).Int64("chat_id", id).Msg("Failed to send announcement")
		}
	}
}

// FormatAnnouncement renders a settled round as a chat message.
func FormatAnnouncement(s *slot.Snapshot) string {
	var sb strings.Builder

	names := make([]string, len(s.Reels))
	for i, r := range s.Reels {
		names[i] = r.Landed.Name()
	}
	fmt.Fprintf(&sb, "[ %s ]\n", strings.Join(names, " | "))
	sb.WriteString(s.Message)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "💰 %d  🏆 %d", s.Coins, s.HighScore)
	if s.FeverMode {
		fmt.Fprintf(&sb, "  🔥 FEVER x%d", s.FeverTurnsRemaining)
	}
	return sb.String()
}
