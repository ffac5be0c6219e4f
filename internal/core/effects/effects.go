// Package effects defines effect types as data structures representing I/O operations.
// This is the foundation of the Functional Core / Imperative Shell pattern.
// Effects are pure data - they describe what should happen, not how.
package effects

// Effect is the base interface for all effects.
// Effects represent I/O operations as data that can be interpreted by the shell.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// Keyboard describes the reply keyboard shown under a message.
type Keyboard struct {
	Rows           [][]string
	RequestContact bool // first button shares the user's phone number
	Remove         bool
}

// RemoveKeyboard hides whatever keyboard the client currently shows.
func RemoveKeyboard() *Keyboard { return &Keyboard{Remove: true} }

// SendTextEffect delivers a text message. A nil Keyboard leaves the
// client's current keyboard in place.
type SendTextEffect struct {
	ChatID   int64
	Text     string
	Keyboard *Keyboard
}

func (e SendTextEffect) EffectType() string { return "send_text" }

// SendPhotoEffect delivers an image.
type SendPhotoEffect struct {
	ChatID  int64
	Image   []byte
	Caption string
}

func (e SendPhotoEffect) EffectType() string { return "send_photo" }

// SendDocumentEffect delivers a file attachment.
type SendDocumentEffect struct {
	ChatID   int64
	Content  []byte
	Filename string
	Caption  string
}

func (e SendDocumentEffect) EffectType() string { return "send_document" }

// LogEffect represents a logging operation.
type LogEffect struct {
	Level   string
	Message string
	Fields  map[string]any
}

func (e LogEffect) EffectType() string { return "log" }

// NoEffect represents an operation that produces no side effects.
type NoEffect struct{}

func (e NoEffect) EffectType() string { return "none" }
