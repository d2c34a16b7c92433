// Package session carries the chat-facing half of a conversation: the
// inbound event union, the correlation keys that tie a response to the step
// waiting for it, the Router that delivers responses, and the collectors
// that wait for exactly one of them.
//
// A platform adapter turns whatever its client receives into an Event and
// calls Dispatcher.Dispatch once. Outbound traffic goes through Messenger.
package session
