package secondary

import "context"

// Messenger defines the secondary port for the outbound side of the
// messaging gateway. Chat IDs equal identity IDs.
type Messenger interface {
	// SendText sends a text message, optionally replacing the reply keyboard.
	SendText(ctx context.Context, chatID int64, text string, markup *ReplyMarkup) error

	// SendPhoto uploads an image with a caption.
	SendPhoto(ctx context.Context, chatID int64, image []byte, caption string) error

	// SendDocument uploads a file with a caption.
	SendDocument(ctx context.Context, chatID int64, content []byte, filename, caption string) error
}

// ReplyMarkup describes the reply keyboard attached to a message.
type ReplyMarkup struct {
	Rows           [][]string
	RequestContact bool // the first button asks the client to share its phone
	Remove         bool // hide any keyboard currently shown
}

// ReportRenderer turns ordered readings into files. Pure function of its
// input.
type ReportRenderer interface {
	// Chart renders a PNG time series.
	Chart(measurements []*MeasurementRecord) ([]byte, error)

	// Spreadsheet renders an XLSX workbook.
	Spreadsheet(measurements []*MeasurementRecord) ([]byte, error)

	// CSV renders a comma separated export including identity IDs.
	CSV(measurements []*MeasurementRecord) ([]byte, error)
}
