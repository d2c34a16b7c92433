package session

import "context"

// MessageKind tells the platform how to style a message.
type MessageKind string

// Message kinds.
const (
	KindInfo    MessageKind = "info"
	KindSuccess MessageKind = "success"
	KindWarning MessageKind = "warning"
	KindError   MessageKind = "error"
)

// Message is one rendered message. Build a new one for every render.
type Message struct {
	Kind       MessageKind
	Title      string
	Body       string
	Fields     []Field
	Components []Select
}

// Field is a labeled value shown under the body.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Select is a single-choice component.
type Select struct {
	CustomID    string
	Placeholder string
	Options     []Choice
}

// Choice is one option of a Select.
type Choice struct {
	Label       string
	Value       string
	Description string
}

// Form asks the user for free-form input.
type Form struct {
	CustomID string
	Title    string
	Fields   []FormField
}

// FormField is one input of a Form.
type FormField struct {
	ID          string
	Label       string
	Placeholder string
}

// Messenger is the outbound side of a chat platform.
type Messenger interface {
	// Send posts msg to a channel and returns the new message id.
	Send(ctx context.Context, channelID string, msg *Message) (string, error)

	// Edit replaces the content of an existing message.
	Edit(ctx context.Context, messageID string, msg *Message) error

	// ClearComponents removes every component from a message.
	ClearComponents(ctx context.Context, messageID string) error

	// OpenForm shows form to user in the context of messageID.
	OpenForm(ctx context.Context, user User, messageID string, form *Form) error
}
