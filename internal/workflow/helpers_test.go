package workflow

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stockroom/internal/audit"
	"github.com/mesh-intelligence/stockroom/internal/inventory"
	"github.com/mesh-intelligence/stockroom/internal/session"
	"github.com/mesh-intelligence/stockroom/internal/sqlite"
	"github.com/mesh-intelligence/stockroom/pkg/types"
)

const noAnswer = ""

// fakeChat is a Messenger that answers prompts on behalf of users. Each
// user has a queue of choice labels; a select prompt pops one and picks the
// choice with that label. noAnswer leaves the prompt unanswered.
type fakeChat struct {
	router *session.Router

	mu      sync.Mutex
	nextID  int
	sent    map[string]*session.Message
	edits   map[string][]*session.Message
	clears  map[string]int
	owner   map[string]session.User
	picks   map[string][]string
	answers map[string]string // form answers by user id
}

func newFakeChat(router *session.Router) *fakeChat {
	return &fakeChat{
		router:  router,
		sent:    map[string]*session.Message{},
		edits:   map[string][]*session.Message{},
		clears:  map[string]int{},
		owner:   map[string]session.User{},
		picks:   map[string][]string{},
		answers: map[string]string{},
	}
}

func (f *fakeChat) script(user session.User, formAnswer string, picks ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.picks[user.ID] = picks
	f.answers[user.ID] = formAnswer
}

func (f *fakeChat) Send(_ context.Context, channelID string, msg *session.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("%s/m%d", channelID, f.nextID)
	f.sent[id] = msg
	return id, nil
}

func (f *fakeChat) Edit(_ context.Context, messageID string, msg *session.Message) error {
	f.mu.Lock()
	f.edits[messageID] = append(f.edits[messageID], msg)
	var deliver session.Event
	if len(msg.Components) > 0 {
		deliver = f.answerSelect(messageID, msg.Components[0])
	}
	f.mu.Unlock()

	if deliver != nil {
		f.router.Deliver(deliver)
	}
	return nil
}

// answerSelect pops the next pick of the user who owns the channel. Called
// with f.mu held.
func (f *fakeChat) answerSelect(messageID string, sel session.Select) session.Event {
	user := userFromMessageID(messageID)
	queue := f.picks[user.ID]
	if len(queue) == 0 {
		return nil
	}
	label := queue[0]
	f.picks[user.ID] = queue[1:]
	if label == noAnswer {
		return nil
	}
	value := label
	for _, ch := range sel.Options {
		if ch.Label == label {
			value = ch.Value
		}
	}
	return &session.SelectEvent{User: user, MessageID: messageID, CustomID: sel.CustomID, Values: []string{value}}
}

func (f *fakeChat) ClearComponents(_ context.Context, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears[messageID]++
	return nil
}

func (f *fakeChat) OpenForm(_ context.Context, user session.User, _ string, form *session.Form) error {
	f.mu.Lock()
	answer, ok := f.answers[user.ID]
	f.mu.Unlock()
	if !ok || answer == noAnswer {
		return nil
	}
	f.router.Deliver(&session.FormEvent{
		User:     user,
		CustomID: form.CustomID,
		Fields:   map[string]string{session.QuantityField: answer},
	})
	return nil
}

func (f *fakeChat) editsOf(messageID string) []*session.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*session.Message(nil), f.edits[messageID]...)
}

func (f *fakeChat) lastEdit(t *testing.T, messageID string) *session.Message {
	t.Helper()
	edits := f.editsOf(messageID)
	require.NotEmpty(t, edits)
	return edits[len(edits)-1]
}

func (f *fakeChat) clearsOf(messageID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clears[messageID]
}

// Channel ids are the user id so a message id names its user.
func userFromMessageID(messageID string) session.User {
	for i := range messageID {
		if messageID[i] == '/' {
			return session.User{ID: messageID[:i]}
		}
	}
	return session.User{ID: messageID}
}

// memorySink collects audit records.
type memorySink struct {
	mu     sync.Mutex
	events []*audit.Event
}

func (s *memorySink) Record(_ context.Context, e *audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *memorySink) all() []*audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*audit.Event(nil), s.events...)
}

type harness struct {
	backend *sqlite.Backend
	router  *session.Router
	chat    *fakeChat
	sink    *memorySink
	engine  *Engine
}

func newHarness(t *testing.T, timeout time.Duration) *harness {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { _ = b.Detach() })

	router := session.NewRouter()
	chat := newFakeChat(router)
	sink := &memorySink{}
	engine := New(inventory.New(b), router, chat,
		WithAudit(sink),
		WithSession(types.SessionConfig{SelectionTimeout: timeout, FormTimeout: timeout}),
		WithClock(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }),
	)
	return &harness{backend: b, router: router, chat: chat, sink: sink, engine: engine}
}

func (h *harness) category(t *testing.T, name string, items map[string]int64) *types.Category {
	t.Helper()
	ctx := context.Background()
	cat, err := h.backend.CreateCategory(ctx, name)
	require.NoError(t, err)
	for n, q := range items {
		_, err := h.backend.AddItem(ctx, cat.ID, types.ItemInput{Name: n, Quantity: q})
		require.NoError(t, err)
	}
	return cat
}

func (h *harness) quantity(t *testing.T, categoryID, name string) int64 {
	t.Helper()
	items, err := h.backend.ListItems(context.Background(), categoryID)
	require.NoError(t, err)
	for _, it := range items {
		if it.Name == name {
			return it.Quantity
		}
	}
	t.Fatalf("item %s not found", name)
	return 0
}

func command(user session.User, name string, opts map[string]string) *session.CommandEvent {
	return &session.CommandEvent{User: user, ChannelID: user.ID, Command: name, Options: opts}
}
