// Package audit produces one record per completed workflow and delivers it
// to one or more sinks.
package audit

import (
	"context"
	"errors"
	"time"
)

// Actions.
const (
	ActionCategoryCreate = "category.create"
	ActionItemAdd        = "item.add"
	ActionItemRemove     = "item.remove"
	ActionItemAdjust     = "item.adjust"
	ActionItemSet        = "item.set"
	ActionStockView      = "stock.view"
)

// Outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Actor is the user a record is attributed to.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Event is one audit record. Build a new Event for every record.
type Event struct {
	Action       string    `json:"action"`
	Actor        Actor     `json:"actor"`
	CategoryID   string    `json:"category_id,omitempty"`
	CategoryName string    `json:"category_name,omitempty"`
	Item         string    `json:"item,omitempty"`
	Operation    string    `json:"operation,omitempty"`
	Before       *int64    `json:"before,omitempty"`
	After        *int64    `json:"after,omitempty"`
	Outcome      string    `json:"outcome"`
	Reason       string    `json:"reason,omitempty"`
	Time         time.Time `json:"time"`
}

// Qty returns a pointer to a copy of v, for Event.Before and Event.After.
func Qty(v int64) *int64 {
	return &v
}

// Sink receives audit records.
type Sink interface {
	Record(ctx context.Context, event *Event) error
}

// SinkFunc is an adapter to use a plain function as a Sink.
type SinkFunc func(ctx context.Context, event *Event) error

func (f SinkFunc) Record(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// Multi fans a record out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Record(ctx context.Context, event *Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every record.
var Discard Sink = SinkFunc(func(context.Context, *Event) error { return nil })
