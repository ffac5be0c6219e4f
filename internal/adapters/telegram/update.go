package telegram

import (
	"strings"

	"github.com/example/bpbot/internal/ports/primary"
)

// ToEvent maps an update to an inbound event. Updates without a message or
// sender, and messages that are neither text nor contact, are dropped.
func ToEvent(u Update) (primary.Event, bool) {
	msg := u.Message
	if msg == nil || msg.From == nil {
		return primary.Event{}, false
	}

	ev := primary.Event{IdentityID: msg.From.ID}

	switch {
	case msg.Contact != nil:
		ev.Kind = primary.EventContact
		ev.Phone = msg.Contact.PhoneNumber
		ev.ContactOwnerID = msg.Contact.UserID

	case strings.HasPrefix(msg.Text, "/"):
		ev.Kind = primary.EventCommand
		ev.Text = msg.Text
		ev.Command = commandName(msg.Text)

	case msg.Text != "":
		ev.Kind = primary.EventText
		ev.Text = msg.Text

	default:
		return primary.Event{}, false
	}

	return ev, true
}

// commandName turns "/Start@BpBot arg" into "start".
func commandName(text string) string {
	name := strings.TrimPrefix(text, "/")
	if i := strings.IndexAny(name, " \n\t"); i >= 0 {
		name = name[:i]
	}
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}
