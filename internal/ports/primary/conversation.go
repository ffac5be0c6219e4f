// Package primary defines the primary ports (driving adapters) for the application.
// These are the interfaces through which the outside world drives the application.
package primary

import "context"

// ConversationService defines the primary port for inbound chat events.
// Events of one identity must be delivered in arrival order; events of
// different identities may be handled concurrently.
type ConversationService interface {
	// HandleEvent processes one inbound event. Storage and parsing
	// problems are answered in-chat; an error means the event could not
	// be handled at all.
	HandleEvent(ctx context.Context, event Event) error
}

// EventKind discriminates inbound events.
type EventKind string

const (
	EventCommand EventKind = "command" // leading slash, e.g. /start
	EventText    EventKind = "text"    // free text, including keyboard button labels
	EventContact EventKind = "contact" // a shared phone number
)

// Event is one inbound message, tagged by the sending identity.
type Event struct {
	ID         string // correlation id; assigned by the service when empty
	IdentityID int64
	Kind       EventKind

	// Command is the lowercased command name without its slash or @botname
	// suffix. Set for EventCommand.
	Command string

	// Text is the raw message text for EventText and EventCommand.
	Text string

	// Phone and ContactOwnerID are set for EventContact. ContactOwnerID is
	// 0 when the client did not attach a user to the contact.
	Phone          string
	ContactOwnerID int64
}
