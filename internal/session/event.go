package session

// User identifies the person who produced an event.
type User struct {
	ID   string
	Name string
}

// Event is one inbound interaction. It is one of *CommandEvent,
// *SelectEvent or *FormEvent.
type Event interface {
	// Actor returns the user who produced the event.
	Actor() User
	isEvent()
}

// CommandEvent is an invocation of a named command.
type CommandEvent struct {
	User      User
	ChannelID string
	Command   string
	Options   map[string]string
}

// SelectEvent is a choice made on a select component.
type SelectEvent struct {
	User      User
	MessageID string
	CustomID  string
	Values    []string
}

// FormEvent is a submitted form.
type FormEvent struct {
	User     User
	CustomID string
	Fields   map[string]string
}

func (e *CommandEvent) Actor() User { return e.User }
func (e *SelectEvent) Actor() User  { return e.User }
func (e *FormEvent) Actor() User    { return e.User }

func (*CommandEvent) isEvent() {}
func (*SelectEvent) isEvent()  {}
func (*FormEvent) isEvent()    {}

// Option returns the named command option, or "" when absent.
func (e *CommandEvent) Option(name string) string {
	return e.Options[name]
}

// correlationID returns the key a response event is routed by.
func correlationID(ev Event) (string, bool) {
	switch e := ev.(type) {
	case *SelectEvent:
		return e.CustomID, true
	case *FormEvent:
		return e.CustomID, true
	}
	return "", false
}
