package imap

import (
	evbus "github.com/asaskevich/EventBus"
)

// Event names an asynchronous notification the selected folder raises in
// reaction to an untagged server response (section 4.N "Untagged responses
// ... drive messageCountEvent / messageChangedEvent dispatches").
type Event int

const (
	// EventMessageCount fires on "* N EXISTS" / "* N RECENT": the folder's
	// message count changed. Handler signature: func(n int, verb string).
	EventMessageCount Event = iota
	// EventMessageExpunged fires on "* N EXPUNGE". Handler: func(seqNum int).
	EventMessageExpunged
	// EventMessageChanged fires on every untagged "* N FETCH (...)",
	// including those answering a client-issued FETCH. Handler:
	// func(seqNum int, text string), text being the raw untagged payload.
	EventMessageChanged
	// EventFolderStatus fires on every untagged status response ("* OK",
	// "* NO", "* BAD", "* BYE", "* PREAUTH"), e.g. "* OK [UIDVALIDITY n] ...".
	// Handler: func(code string, text string); code is "" when the line
	// has no bracketed response code.
	EventFolderStatus
)

var eventTopics = [...]string{
	"imap:message_count",
	"imap:message_expunged",
	"imap:message_changed",
	"imap:folder_status",
}

func (e Event) String() string { return eventTopics[e] }

// EventBus wraps asaskevich/EventBus the same way the teacher's
// EventHandler does, scoped to one connection's folder-status dispatches
// rather than process-wide configuration changes.
type EventBus struct {
	bus *evbus.EventBus
}

func NewEventBus() *EventBus {
	return &EventBus{bus: evbus.New()}
}

func (b *EventBus) Subscribe(topic Event, fn interface{}) error {
	return b.bus.Subscribe(topic.String(), fn)
}

func (b *EventBus) Unsubscribe(topic Event, fn interface{}) error {
	return b.bus.Unsubscribe(topic.String(), fn)
}

func (b *EventBus) Publish(topic Event, args ...interface{}) {
	b.bus.Publish(topic.String(), args...)
}
