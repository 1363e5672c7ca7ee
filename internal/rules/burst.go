package rules

import (
	"warden-bot/internal/config"

	"github.com/bwmarrin/discordgo"
)

// BurstRule flags a user sending too many messages in the window.
type BurstRule struct{}

func (r *BurstRule) Name() string { return "burst" }

func (r *BurstRule) Check(trigger *discordgo.Message, window []*discordgo.Message, cfg config.RuleConfig) *Violation {
	relevant := authoredBy(window, trigger.Author.ID)
	if len(relevant) <= cfg.Max {
		return nil
	}
	return &Violation{
		Rule:     r.Name(),
		Reason:   reason("sent %d messages in %ds", len(relevant), cfg.IntervalSeconds),
		Members:  singleMember(trigger),
		Messages: relevant,
	}
}
