package rules

import (
	"regexp"

	"warden-bot/internal/config"

	"github.com/bwmarrin/discordgo"
)

// Custom emoji markup, e.g. <:party:12345> or animated <a:wave:6789>.
var emojiRegex = regexp.MustCompile(`<a?:\w+:\d+>`)

// EmojiRule flags a user posting too many custom emojis in the window.
type EmojiRule struct{}

func (r *EmojiRule) Name() string { return "discord_emojis" }

func (r *EmojiRule) Check(trigger *discordgo.Message, window []*discordgo.Message, cfg config.RuleConfig) *Violation {
	var offending []*discordgo.Message
	total := 0
	for _, msg := range authoredBy(window, trigger.Author.ID) {
		count := len(emojiRegex.FindAllString(msg.Content, -1))
		if count == 0 {
			continue
		}
		total += count
		offending = append(offending, msg)
	}
	if total <= cfg.Max {
		return nil
	}
	return &Violation{
		Rule:     r.Name(),
		Reason:   reason("sent %d emojis in %ds", total, cfg.IntervalSeconds),
		Members:  singleMember(trigger),
		Messages: offending,
	}
}
