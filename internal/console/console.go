// Package console is a line-oriented chat platform on a reader and writer.
// It stands in for a real chat client: lines starting with "/" invoke
// commands, any other line answers the open prompt.
//
// Answers typed before their prompt appears are queued and used by the next
// prompt, so a whole conversation can be piped in.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/mesh-intelligence/stockroom/internal/session"
	"github.com/mesh-intelligence/stockroom/internal/workflow"
)

var _ session.Messenger = (*Console)(nil)

// Dispatcher receives the events the console produces.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev session.Event)
}

// Console is a single-user chat session.
type Console struct {
	out      io.Writer
	user     session.User
	channel  string
	commands map[string]workflow.Command
	logger   *slog.Logger

	// dispatch is set by Run.
	dispatch Dispatcher

	mu      sync.Mutex
	nextID  int
	pending *prompt
	queued  []string
}

// prompt is the select or form currently waiting for an answer.
type prompt struct {
	messageID string
	sel       *session.Select
	form      *session.Form
}

// Option configures a Console.
type Option func(*Console)

// WithUser sets the identity events are attributed to.
func WithUser(u session.User) Option {
	return func(c *Console) {
		c.user = u
	}
}

// WithLogger sets the console logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Console) {
		c.logger = logger
	}
}

// New creates a Console writing to out. commands supply the option order
// for positional arguments and the help text.
func New(out io.Writer, commands []workflow.Command, opts ...Option) *Console {
	c := &Console{
		out:      out,
		user:     session.User{ID: "console", Name: "console"},
		channel:  "console",
		commands: make(map[string]workflow.Command, len(commands)),
		logger:   slog.Default(),
	}
	for _, cmd := range commands {
		c.commands[cmd.Name] = cmd
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bind sets the dispatcher events are sent to. Run calls it; it is exported
// for wiring the console before the first line is read.
func (c *Console) Bind(d Dispatcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatch = d
}

// Run reads lines from in until EOF, "/quit" or ctx is done.
func (c *Console) Run(ctx context.Context, in io.Reader, d Dispatcher) error {
	c.Bind(d)
	c.printf("stockroom console. Type /help for commands.\n")

	readCtx, stop := context.WithCancel(ctx)
	defer stop()

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-readCtx.Done():
				return
			}
		}
		errc <- sc.Err()
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-errc
			}
			if quit := c.handleLine(ctx, strings.TrimSpace(line)); quit {
				return nil
			}
		}
	}
}

func (c *Console) handleLine(ctx context.Context, line string) bool {
	switch {
	case line == "":
		return false
	case line == "/quit" || line == "/exit":
		return true
	case line == "/help":
		c.printHelp()
		return false
	case strings.HasPrefix(line, "/"):
		c.runCommand(ctx, line[1:])
		return false
	}

	c.mu.Lock()
	p := c.pending
	if p == nil {
		c.queued = append(c.queued, line)
		c.mu.Unlock()
		return false
	}
	c.pending = nil
	c.mu.Unlock()

	if ev := c.answer(p, line); ev != nil {
		c.dispatch.Dispatch(ctx, ev)
	}
	return false
}

func (c *Console) runCommand(ctx context.Context, text string) {
	name, rest, _ := strings.Cut(text, " ")
	cmd, ok := c.commands[name]
	var opts map[string]string
	if ok {
		opts = parseOptions(cmd.Options, rest)
	}
	c.dispatch.Dispatch(ctx, &session.CommandEvent{
		User:      c.user,
		ChannelID: c.channel,
		Command:   name,
		Options:   opts,
	})
}

// parseOptions maps positional words onto specs in order. The last option
// takes the remainder of the line.
func parseOptions(specs []workflow.OptionSpec, rest string) map[string]string {
	opts := make(map[string]string, len(specs))
	words := strings.Fields(rest)
	for i, spec := range specs {
		if i >= len(words) {
			break
		}
		if i == len(specs)-1 {
			opts[spec.Name] = strings.Join(words[i:], " ")
			break
		}
		opts[spec.Name] = words[i]
	}
	return opts
}

// answer turns a line into the event for p. Select prompts accept a choice
// number, label or value.
func (c *Console) answer(p *prompt, line string) session.Event {
	if p.form != nil {
		fields := make(map[string]string, len(p.form.Fields))
		if len(p.form.Fields) > 0 {
			fields[p.form.Fields[0].ID] = line
		}
		return &session.FormEvent{User: c.user, CustomID: p.form.CustomID, Fields: fields}
	}

	value := line
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(p.sel.Options) {
		value = p.sel.Options[n-1].Value
	} else {
		for _, ch := range p.sel.Options {
			if strings.EqualFold(ch.Label, line) {
				value = ch.Value
				break
			}
		}
	}
	return &session.SelectEvent{User: c.user, MessageID: p.messageID, CustomID: p.sel.CustomID, Values: []string{value}}
}

// Send prints msg as a new message.
func (c *Console) Send(_ context.Context, _ string, msg *session.Message) (string, error) {
	c.mu.Lock()
	c.nextID++
	id := fmt.Sprintf("console-%d", c.nextID)
	c.mu.Unlock()
	c.render(msg)
	return id, nil
}

// Edit prints the new content. A message with a select component becomes
// the open prompt; one without closes any prompt on that message.
func (c *Console) Edit(ctx context.Context, messageID string, msg *session.Message) error {
	c.render(msg)
	if len(msg.Components) == 0 {
		c.mu.Lock()
		if c.pending != nil && c.pending.messageID == messageID {
			c.pending = nil
		}
		c.mu.Unlock()
		return nil
	}
	sel := msg.Components[0]
	c.open(ctx, &prompt{messageID: messageID, sel: &sel})
	return nil
}

// ClearComponents closes the prompt on messageID, if any.
func (c *Console) ClearComponents(_ context.Context, messageID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil && c.pending.messageID == messageID && c.pending.sel != nil {
		c.pending = nil
	}
	return nil
}

// OpenForm prints the form's first field and makes it the open prompt.
func (c *Console) OpenForm(ctx context.Context, _ session.User, messageID string, form *session.Form) error {
	label := form.Title
	if len(form.Fields) > 0 {
		label = form.Fields[0].Label
	}
	c.printf("%s\n  %s > ", form.Title, label)
	c.open(ctx, &prompt{messageID: messageID, form: form})
	return nil
}

// open makes p the pending prompt, or answers it at once from the queue.
func (c *Console) open(ctx context.Context, p *prompt) {
	c.mu.Lock()
	if len(c.queued) == 0 || c.dispatch == nil {
		c.pending = p
		c.mu.Unlock()
		return
	}
	line := c.queued[0]
	c.queued = c.queued[1:]
	d := c.dispatch
	c.mu.Unlock()

	if ev := c.answer(p, line); ev != nil {
		d.Dispatch(ctx, ev)
	}
}

func (c *Console) printHelp() {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	c.printf("Commands:\n")
	for _, name := range names {
		cmd := c.commands[name]
		var args []string
		for _, o := range cmd.Options {
			if o.Required {
				args = append(args, "<"+o.Name+">")
			} else {
				args = append(args, "["+o.Name+"]")
			}
		}
		c.printf("  /%s %s\n      %s\n", name, strings.Join(args, " "), cmd.Description)
	}
	c.printf("  /quit\n")
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintf(c.out, format, args...); err != nil {
		c.logger.Debug("console write failed", "error", err)
	}
}
