package audit

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mesh-intelligence/stockroom/internal/session"
)

// ChannelSink posts each record to a chat channel.
type ChannelSink struct {
	messenger session.Messenger
	channelID string
}

// NewChannelSink creates a sink posting to channelID.
func NewChannelSink(messenger session.Messenger, channelID string) *ChannelSink {
	return &ChannelSink{messenger: messenger, channelID: channelID}
}

func (s *ChannelSink) Record(ctx context.Context, e *Event) error {
	if _, err := s.messenger.Send(ctx, s.channelID, Render(e)); err != nil {
		return fmt.Errorf("posting audit record: %w", err)
	}
	return nil
}

var actionTitles = map[string]string{
	ActionCategoryCreate: "Category created",
	ActionItemAdd:        "Item added",
	ActionItemRemove:     "Item removed",
	ActionItemAdjust:     "Item quantity adjusted",
	ActionItemSet:        "Item quantity set",
	ActionStockView:      "Stock viewed",
}

// Render builds a new log message for e.
func Render(e *Event) *session.Message {
	title, ok := actionTitles[e.Action]
	if !ok {
		title = e.Action
	}
	msg := &session.Message{Kind: session.KindInfo, Title: title}
	if e.Outcome == OutcomeFailure {
		msg.Kind = session.KindWarning
		msg.Title += " (failed)"
		msg.Body = e.Reason
	}

	actor := e.Actor.Name
	if actor == "" {
		actor = e.Actor.ID
	}
	msg.Fields = append(msg.Fields, session.Field{Name: "User", Value: actor, Inline: true})
	if e.CategoryName != "" {
		msg.Fields = append(msg.Fields, session.Field{Name: "Category", Value: e.CategoryName, Inline: true})
	}
	if e.Item != "" {
		msg.Fields = append(msg.Fields, session.Field{Name: "Item", Value: e.Item, Inline: true})
	}
	if e.Before != nil {
		msg.Fields = append(msg.Fields, session.Field{Name: "Before", Value: strconv.FormatInt(*e.Before, 10), Inline: true})
	}
	if e.After != nil {
		msg.Fields = append(msg.Fields, session.Field{Name: "After", Value: strconv.FormatInt(*e.After, 10), Inline: true})
	}
	msg.Fields = append(msg.Fields, session.Field{Name: "Time", Value: e.Time.UTC().Format("2006-01-02 15:04:05 UTC")})
	return msg
}
