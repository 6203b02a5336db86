package telegram

import (
	"regexp"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Review actions carried in callback data.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionAdd     = "add"
)

var actionRe = regexp.MustCompile(`^act:(.+?):(approve|reject|add)$`)

// ParseAction splits "act:<requestId>:<action>".
func ParseAction(data string) (requestID, action string, ok bool) {
	m := actionRe.FindStringSubmatch(data)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

func actionData(requestID, action string) string {
	return "act:" + requestID + ":" + action
}

// Moderator is the username of whoever pressed the button, "" when Telegram sent none.
func Moderator(cb *tgbotapi.CallbackQuery) string {
	if cb == nil || cb.From == nil {
		return ""
	}
	return cb.From.UserName
}
