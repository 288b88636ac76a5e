package telegram

import "gopkg.in/telebot.v3"

// Client is the outbound transport collaborator. The broadcast coordinator
// and the digest job send through it, so tests can swap in a recording fake
// without a live bot.
type Client interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
}
