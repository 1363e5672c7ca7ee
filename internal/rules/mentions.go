package rules

import (
	"warden-bot/internal/config"

	"github.com/bwmarrin/discordgo"
)

// MentionsRule flags a user sending too many user mentions in the window.
type MentionsRule struct{}

func (r *MentionsRule) Name() string { return "mentions" }

func (r *MentionsRule) Check(trigger *discordgo.Message, window []*discordgo.Message, cfg config.RuleConfig) *Violation {
	var offending []*discordgo.Message
	total := 0
	for _, msg := range authoredBy(window, trigger.Author.ID) {
		if len(msg.Mentions) == 0 {
			continue
		}
		total += len(msg.Mentions)
		offending = append(offending, msg)
	}
	if total <= cfg.Max {
		return nil
	}
	return &Violation{
		Rule:     r.Name(),
		Reason:   reason("sent %d mentions in %ds", total, cfg.IntervalSeconds),
		Members:  singleMember(trigger),
		Messages: offending,
	}
}
