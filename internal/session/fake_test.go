package session

import (
	"context"
	"sync"
)

// fakeMessenger records calls and can react to Edit and OpenForm.
type fakeMessenger struct {
	mu      sync.Mutex
	edits   []*Message
	clears  int
	forms   []*Form
	onEdit  func(msg *Message)
	onForm  func(form *Form)
	editErr error
}

func (f *fakeMessenger) Send(context.Context, string, *Message) (string, error) {
	return "m1", nil
}

func (f *fakeMessenger) Edit(_ context.Context, _ string, msg *Message) error {
	f.mu.Lock()
	f.edits = append(f.edits, msg)
	hook, err := f.onEdit, f.editErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if hook != nil {
		hook(msg)
	}
	return nil
}

func (f *fakeMessenger) ClearComponents(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	return nil
}

func (f *fakeMessenger) OpenForm(_ context.Context, _ User, _ string, form *Form) error {
	f.mu.Lock()
	f.forms = append(f.forms, form)
	hook := f.onForm
	f.mu.Unlock()
	if hook != nil {
		hook(form)
	}
	return nil
}

func (f *fakeMessenger) clearCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clears
}
