package bot

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
	"pgregory.net/rapid"

	"slot-machine/internal/config"
	"slot-machine/internal/driver"
	"slot-machine/internal/game/slot"
)

// fakeContext overrides the few tele.Context methods the handlers use.
type fakeContext struct {
	tele.Context
	chat      *tele.Chat
	sender    *tele.User
	text      string
	callback  *tele.Callback
	sent      []interface{}
	responded bool
}

func (c *fakeContext) Chat() *tele.Chat         { return c.chat }
func (c *fakeContext) Sender() *tele.User       { return c.sender }
func (c *fakeContext) Text() string             { return c.text }
func (c *fakeContext) Callback() *tele.Callback { return c.callback }
func (c *fakeContext) Respond(...*tele.CallbackResponse) error {
	c.responded = true
	return nil
}

func (c *fakeContext) Send(what interface{}, _ ...interface{}) error {
	c.sent = append(c.sent, what)
	return nil
}

type countingActivator struct{ n atomic.Int32 }

func (a *countingActivator) Activate() { a.n.Add(1) }

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(&config.Config{}, &countingActivator{})
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestWhitelistMiddleware(t *testing.T) {
	cfg := &config.Config{Bot: config.BotConfig{Chats: []int64{-100}}}
	calls := 0
	h := WhitelistMiddleware(cfg)(func(tele.Context) error {
		calls++
		return nil
	})

	require.NoError(t, h(&fakeContext{chat: &tele.Chat{ID: -100}}))
	require.NoError(t, h(&fakeContext{chat: &tele.Chat{ID: -200}}))
	require.NoError(t, h(&fakeContext{}))
	assert.Equal(t, 1, calls)
}

// TestWhitelistMiddlewareProperty checks the middleware passes an update
// exactly when the config allows its chat.
func TestWhitelistMiddlewareProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chats := rapid.SliceOfN(rapid.Int64Range(-1000, 1000), 0, 10).Draw(t, "chats")
		chatID := rapid.Int64Range(-1000, 1000).Draw(t, "chatID")
		cfg := &config.Config{Bot: config.BotConfig{Chats: chats}}

		passed := false
		h := WhitelistMiddleware(cfg)(func(tele.Context) error {
			passed = true
			return nil
		})
		_ = h(&fakeContext{chat: &tele.Chat{ID: chatID}})

		if passed != cfg.IsChatAllowed(chatID) {
			t.Fatalf("chat %d passed=%v with whitelist %v", chatID, passed, chats)
		}
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware()(func(tele.Context) error {
		panic("boom")
	})
	assert.NotPanics(t, func() {
		assert.NoError(t, h(&fakeContext{}))
	})

	cb := &fakeContext{callback: &tele.Callback{Data: "\f" + CallbackActivate}}
	assert.NoError(t, h(cb))
	assert.True(t, cb.responded)

	want := errors.New("handler failed")
	h = RecoveryMiddleware()(func(tele.Context) error { return want })
	assert.ErrorIs(t, h(&fakeContext{}), want)
}

func TestLoggingMiddleware(t *testing.T) {
	called := false
	h := LoggingMiddleware()(func(tele.Context) error {
		called = true
		return nil
	})
	require.NoError(t, h(&fakeContext{
		chat:   &tele.Chat{ID: 1, Type: tele.ChatPrivate},
		sender: &tele.User{ID: 2, Username: "player"},
		text:   "/spin",
	}))
	assert.True(t, called)

	want := errors.New("send failed")
	h = LoggingMiddleware()(func(tele.Context) error { return want })
	assert.ErrorIs(t, h(&fakeContext{callback: &tele.Callback{Data: CallbackActivate}}), want)
}

func TestGesture(t *testing.T) {
	assert.Equal(t, "/spin", gesture(&fakeContext{text: "/spin"}))
	assert.Equal(t, "button:activate", gesture(&fakeContext{callback: &tele.Callback{Data: "\factivate"}}))
}

func TestHandlers(t *testing.T) {
	act := &countingActivator{}
	b := newBot(nil, &config.Config{Bot: config.BotConfig{Chats: []int64{7}}}, act)

	start := &fakeContext{chat: &tele.Chat{ID: 42}}
	require.NoError(t, b.handleStart(start))
	require.Len(t, start.sent, 1)

	require.NoError(t, b.handleSpin(&fakeContext{chat: &tele.Chat{ID: 42}}))

	cb := &fakeContext{chat: &tele.Chat{ID: 43}, callback: &tele.Callback{Data: "\f" + CallbackActivate}}
	require.NoError(t, b.handleCallback(cb))
	assert.True(t, cb.responded)

	other := &fakeContext{chat: &tele.Chat{ID: 44}, callback: &tele.Callback{Data: "other"}}
	require.NoError(t, b.handleCallback(other))
	assert.True(t, other.responded)

	assert.Equal(t, int32(3), act.n.Load())
	assert.ElementsMatch(t, []int64{7, 42, 43}, b.Chats())
}

type recordingSender struct {
	mu   sync.Mutex
	sent map[int64][]string
	err  error
}

func (s *recordingSender) Send(to tele.Recipient, what interface{}, _ ...interface{}) (*tele.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.sent == nil {
		s.sent = make(map[int64][]string)
	}
	id := int64(to.(tele.ChatID))
	s.sent[id] = append(s.sent[id], what.(string))
	return &tele.Message{}, nil
}

func (s *recordingSender) count(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent[id])
}

func frame(state slot.State, msg string) *driver.Frame {
	s := &slot.Snapshot{State: state, Message: msg, Coins: 190, HighScore: 190}
	for i := range s.Reels {
		s.Reels[i].Landed = slot.SymbolSeven
	}
	return &driver.Frame{Snapshot: s}
}

func TestNotifier(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifier(sender, func() []int64 { return []int64{1, 2} }, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	n.Render(frame(slot.StateSpinning, slot.MsgSpinning))
	n.Render(frame(slot.StateResult, slot.MsgJackpot))
	n.Render(frame(slot.StateResult, slot.MsgJackpot)) // unchanged state
	n.Render(frame(slot.StateIdle, slot.MsgReady))
	n.Render(frame(slot.StateGameOver, slot.MsgGameOver))

	require.Eventually(t, func() bool {
		return sender.count(1) == 2 && sender.count(2) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestNotifier_SendErrorIsSwallowed(t *testing.T) {
	sender := &recordingSender{err: errors.New("telegram down")}
	n := NewNotifier(sender, func() []int64 { return []int64{1} }, nil)
	assert.NotPanics(t, func() { n.broadcast("hello") })
}

func TestFormatAnnouncement(t *testing.T) {
	f := frame(slot.StateResult, slot.MsgJackpot)
	f.FeverMode = true
	f.FeverTurnsRemaining = 5

	text := FormatAnnouncement(f.Snapshot)
	assert.Contains(t, text, "[ 7 | 7 | 7 ]")
	assert.Contains(t, text, slot.MsgJackpot)
	assert.Contains(t, text, "💰 190")
	assert.Contains(t, text, "FEVER x5")
}
