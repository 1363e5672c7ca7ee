package rules

import (
	"warden-bot/internal/config"

	"github.com/bwmarrin/discordgo"
)

// AttachmentsRule flags a user posting too many attachments in the window.
type AttachmentsRule struct{}

func (r *AttachmentsRule) Name() string { return "attachments" }

func (r *AttachmentsRule) Check(trigger *discordgo.Message, window []*discordgo.Message, cfg config.RuleConfig) *Violation {
	var offending []*discordgo.Message
	total := 0
	for _, msg := range authoredBy(window, trigger.Author.ID) {
		if len(msg.Attachments) == 0 {
			continue
		}
		total += len(msg.Attachments)
		offending = append(offending, msg)
	}
	if total <= cfg.Max {
		return nil
	}
	return &Violation{
		Rule:     r.Name(),
		Reason:   reason("sent %d attachments in %ds", total, cfg.IntervalSeconds),
		Members:  singleMember(trigger),
		Messages: offending,
	}
}
