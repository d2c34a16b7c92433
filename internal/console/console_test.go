package console

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stockroom/internal/inventory"
	"github.com/mesh-intelligence/stockroom/internal/session"
	"github.com/mesh-intelligence/stockroom/internal/sqlite"
	"github.com/mesh-intelligence/stockroom/internal/workflow"
	"github.com/mesh-intelligence/stockroom/pkg/types"
)

type setup struct {
	backend *sqlite.Backend
	engine  *workflow.Engine
	console *Console
	disp    *session.Dispatcher
	out     *bytes.Buffer
}

func newSetup(t *testing.T) *setup {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { _ = b.Detach() })

	out := &bytes.Buffer{}
	router := session.NewRouter()
	con := New(out, workflow.DefaultCommands())
	engine := workflow.New(inventory.New(b), router, con,
		workflow.WithSession(types.SessionConfig{SelectionTimeout: 2 * time.Second, FormTimeout: 2 * time.Second}),
	)
	return &setup{
		backend: b,
		engine:  engine,
		console: con,
		disp:    session.NewDispatcher(engine, router, nil),
		out:     out,
	}
}

func (s *setup) run(t *testing.T, script ...string) string {
	t.Helper()
	in := strings.NewReader(strings.Join(script, "\n") + "\n")
	require.NoError(t, s.console.Run(context.Background(), in, s.disp))
	s.engine.Wait()
	return s.out.String()
}

func TestPipedUpdateConversation(t *testing.T) {
	s := newSetup(t)
	ctx := context.Background()
	cat, err := s.backend.CreateCategory(ctx, "Minerals")
	require.NoError(t, err)
	_, err = s.backend.AddItem(ctx, cat.ID, types.ItemInput{Name: "Iron", Quantity: 10})
	require.NoError(t, err)

	out := s.run(t, "/update-item", "minerals", "Iron", "1", "5", "/quit")

	items, err := s.backend.ListItems(ctx, cat.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(15), items[0].Quantity)
	assert.Contains(t, out, "1) Minerals")
	assert.Contains(t, out, "Add stock")
	assert.Contains(t, out, "10 → 15")
}

func TestAddItemPositionalOptions(t *testing.T) {
	s := newSetup(t)
	ctx := context.Background()
	cat, err := s.backend.CreateCategory(ctx, "Minerals")
	require.NoError(t, err)

	out := s.run(t, "/add-item Iron 10 raw ore chunks", "1")

	items, err := s.backend.ListItems(ctx, cat.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Iron", items[0].Name)
	assert.Equal(t, int64(10), items[0].Quantity)
	assert.Equal(t, "raw ore chunks", items[0].Description)
	assert.Contains(t, out, "[+]")
}

func TestCreateCategoryAndUnknownCommand(t *testing.T) {
	s := newSetup(t)

	out := s.run(t, "/create-category Minerals", "/frobnicate")

	cats, err := s.backend.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Minerals", cats[0].Name)
	assert.Contains(t, out, "[x]")
}

func TestHelpListsCommands(t *testing.T) {
	s := newSetup(t)

	out := s.run(t, "/help")

	for _, cmd := range workflow.DefaultCommands() {
		assert.Contains(t, out, "/"+cmd.Name)
	}
	assert.Contains(t, out, "<name>")
	assert.Contains(t, out, "[description]")
}

func TestParseOptions(t *testing.T) {
	specs := []workflow.OptionSpec{{Name: "item"}, {Name: "quantity"}, {Name: "description"}}

	tests := []struct {
		name string
		rest string
		want map[string]string
	}{
		{"empty", "", map[string]string{}},
		{"partial", "Iron", map[string]string{"item": "Iron"}},
		{"remainder", "Iron 3 a b  c", map[string]string{"item": "Iron", "quantity": "3", "description": "a b c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseOptions(specs, tt.rest))
		})
	}
}

func TestAnswerMapsNumbersAndLabels(t *testing.T) {
	c := New(&bytes.Buffer{}, nil, WithUser(session.User{ID: "u1"}))
	p := &prompt{messageID: "m1", sel: &session.Select{
		CustomID: "k",
		Options:  []session.Choice{{Label: "Add stock", Value: "increment"}, {Label: "Remove stock", Value: "decrement"}},
	}}

	tests := []struct {
		line string
		want string
	}{
		{"2", "decrement"},
		{"add stock", "increment"},
		{"9", "9"},
		{"other", "other"},
	}
	for _, tt := range tests {
		ev, ok := c.answer(p, tt.line).(*session.SelectEvent)
		require.True(t, ok)
		assert.Equal(t, []string{tt.want}, ev.Values, tt.line)
		assert.Equal(t, "u1", ev.User.ID)
		assert.Equal(t, "k", ev.CustomID)
	}

	form := &prompt{messageID: "m1", form: &session.Form{CustomID: "f", Fields: []session.FormField{{ID: session.QuantityField}}}}
	fe, ok := c.answer(form, "7").(*session.FormEvent)
	require.True(t, ok)
	assert.Equal(t, "7", fe.Fields[session.QuantityField])
}
