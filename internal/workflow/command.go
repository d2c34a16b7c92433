package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/mesh-intelligence/stockroom/pkg/types"
)

// OptionType is the type of a command option.
type OptionType string

// Option types.
const (
	OptionString  OptionType = "string"
	OptionInteger OptionType = "integer"
)

// OptionSpec declares one command option.
type OptionSpec struct {
	Name        string
	Description string
	Type        OptionType
	Required    bool
	NonNegative bool // Integer options only.
}

// Command is a registered chat command. Run drives one conversation;
// Title heads every message it renders.
type Command struct {
	Name        string
	Title       string
	Description string
	Options     []OptionSpec
	Run         func(ctx context.Context, r *Run) error
}

// Registry errors.
var (
	ErrCommandExists  = errors.New("command already registered")
	ErrUnknownCommand = errors.New("unknown command")
)

// Registry is a lookup table of commands by name.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry creates a registry holding cmds.
func NewRegistry(cmds ...Command) (*Registry, error) {
	r := &Registry{commands: make(map[string]Command, len(cmds))}
	for _, c := range cmds {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds c. Names must be unique.
func (r *Registry) Register(c Command) error {
	if c.Name == "" || c.Run == nil {
		return fmt.Errorf("%w: command needs a name and a Run func", types.ErrValidation)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.commands[c.Name]; ok {
		return fmt.Errorf("%w: %s", ErrCommandExists, c.Name)
	}
	r.commands[c.Name] = c
	return nil
}

// Lookup returns the command named name.
func (r *Registry) Lookup(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.commands[name]
	return c, ok
}

// Commands returns every command ordered by name.
func (r *Registry) Commands() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Command) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// checkOptions verifies required options are present and integer options
// parse and, when NonNegative, are at least zero.
func (c Command) checkOptions(opts map[string]string) error {
	for _, spec := range c.Options {
		v := strings.TrimSpace(opts[spec.Name])
		if v == "" {
			if spec.Required {
				return fmt.Errorf("%w: option %q is required", types.ErrValidation, spec.Name)
			}
			continue
		}
		if spec.Type == OptionInteger {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: option %q must be an integer", types.ErrInvalidQuantity, spec.Name)
			}
			if spec.NonNegative && n < 0 {
				return fmt.Errorf("%w: option %q is %d", types.ErrNegativeQuantity, spec.Name, n)
			}
		}
	}
	return nil
}
