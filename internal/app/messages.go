package app

import (
	"fmt"
	"strings"

	"github.com/example/bpbot/internal/core/effects"
	"github.com/example/bpbot/internal/core/form"
	"github.com/example/bpbot/internal/ports/secondary"
)

// Keyboard labels. Incoming text equal to one of these is a button press.
const (
	BtnAddReading  = "Add reading"
	BtnRecent      = "Recent readings"
	BtnChart       = "Pressure chart"
	BtnExport      = "Export to Excel"
	BtnLogout      = "Logout"
	BtnSkipComment = "Don't fill comment"
	BtnSharePhone  = "Share phone number"
	BtnStart       = "Start"
	BtnWhatsNew    = "What's new"
)

const (
	msgRegister         = "Welcome! To keep a blood pressure diary, please share your phone number using the button below."
	msgRegistered       = "Thank you, you are registered. Choose an action from the menu."
	msgAlreadyKnown     = "You are already registered. Choose an action from the menu."
	msgForeignContact   = "Please share your own contact using the button below."
	msgNoPhone          = "That contact has no phone number. Please use the button below."
	msgMenu             = "Choose an action from the menu."
	msgAskSystolic      = "Enter the upper (systolic) pressure:"
	msgAskDiastolic     = "Enter the lower (diastolic) pressure:"
	msgAskPulse         = "Enter your pulse:"
	msgAskComment       = "Add a comment, or press \"" + BtnSkipComment + "\"."
	msgNotANumber       = "Please enter a whole number."
	msgSaved            = "Reading saved."
	msgSaveFailed       = "The reading could not be saved. Please send the comment again."
	msgNoReadings       = "You have no readings yet."
	msgChartCaption     = "Your blood pressure chart"
	msgExportCaption    = "Your readings"
	msgLoggedOut        = "You have logged out. Send /start to come back."
	msgUnrecognized     = "Sorry, I did not understand that."
	msgSomethingWrong   = "Something went wrong. Please try again later."
	msgPermissionDenied = "You do not have permission to run this command."
	msgBackupCaption    = "Database backup"
	msgCSVCaption       = "All measurements"
)

func msgUpgradeNotice(version string) string {
	return fmt.Sprintf("The bot has been updated to version %s. Press \"%s\" to continue or \"%s\" to see the changes.", version, BtnStart, BtnWhatsNew)
}

func msgReleaseNotes(version string) string {
	return fmt.Sprintf("What's new in version %s:\n"+
		"- readings can be left without a comment\n"+
		"- the pressure chart shows pulse as a dashed line\n"+
		"- export your diary to Excel from the menu", version)
}

func msgBroadcastStarted(version string) string {
	return fmt.Sprintf("Sending the version %s notice to every user. I will report when it is done.", version)
}

func msgBroadcastDone(version string, updated int64, delivered, failed int) string {
	return fmt.Sprintf("Interface version %s set for %d users. Notice delivered: %d, failed: %d.",
		version, updated, delivered, failed)
}

func msgLastRecords(shown, total int, body string) string {
	return fmt.Sprintf("Last %d of %d readings:\n%s", shown, total, body)
}

func mainMenu() *effects.Keyboard {
	return &effects.Keyboard{Rows: [][]string{
		{BtnAddReading},
		{BtnRecent, BtnChart},
		{BtnExport},
		{BtnLogout},
	}}
}

func updateMenu() *effects.Keyboard {
	return &effects.Keyboard{Rows: [][]string{{BtnStart, BtnWhatsNew}}}
}

func contactKeyboard() *effects.Keyboard {
	return &effects.Keyboard{Rows: [][]string{{BtnSharePhone}}, RequestContact: true}
}

func skipKeyboard() *effects.Keyboard {
	return &effects.Keyboard{Rows: [][]string{{BtnSkipComment}}}
}

func text(chatID int64, body string, kb *effects.Keyboard) effects.Effect {
	return effects.SendTextEffect{ChatID: chatID, Text: body, Keyboard: kb}
}

// upgradeNotice is what the version gate shows instead of the normal reply.
func upgradeNotice(chatID int64, version string) []effects.Effect {
	return []effects.Effect{text(chatID, msgUpgradeNotice(version), updateMenu())}
}

// promptFor renders a form prompt.
func promptFor(chatID int64, p form.Prompt) effects.Effect {
	switch p {
	case form.PromptSystolic:
		return text(chatID, msgAskSystolic, effects.RemoveKeyboard())
	case form.PromptDiastolic:
		return text(chatID, msgAskDiastolic, nil)
	case form.PromptPulse:
		return text(chatID, msgAskPulse, nil)
	case form.PromptComment:
		return text(chatID, msgAskComment, skipKeyboard())
	case form.PromptSaved:
		return text(chatID, msgSaved, mainMenu())
	default:
		return effects.NoEffect{}
	}
}

// formatRecent renders readings newest first, one block per reading.
func formatRecent(records []*secondary.MeasurementRecord) string {
	var b strings.Builder
	for i, m := range records {
		if i > 0 {
			b.WriteString("\n\n")
		}
		comment := "-"
		if m.Comment != nil && *m.Comment != "" {
			comment = *m.Comment
		}
		fmt.Fprintf(&b, "%s\n%d / %d, pulse %d\nComment: %s",
			m.RecordedAt.Format(dateLayout), m.Systolic, m.Diastolic, m.Pulse, comment)
	}
	return b.String()
}

// formatCompact renders one line per reading for the admin digest.
func formatCompact(records []*secondary.MeasurementRecord) string {
	lines := make([]string, 0, len(records))
	for _, m := range records {
		lines = append(lines, fmt.Sprintf("%s  %d/%d  p%d", m.RecordedAt.Format("02.01 15:04"), m.Systolic, m.Diastolic, m.Pulse))
	}
	return strings.Join(lines, "\n")
}

const dateLayout = "02.01.2006 15:04"
