package rules

import (
	"warden-bot/internal/config"

	"github.com/bwmarrin/discordgo"
)

// DuplicatesRule flags a user repeating the same message content.
type DuplicatesRule struct{}

func (r *DuplicatesRule) Name() string { return "duplicates" }

func (r *DuplicatesRule) Check(trigger *discordgo.Message, window []*discordgo.Message, cfg config.RuleConfig) *Violation {
	var offending []*discordgo.Message
	for _, msg := range authoredBy(window, trigger.Author.ID) {
		if msg.Content != "" && msg.Content == trigger.Content {
			offending = append(offending, msg)
		}
	}
	if len(offending) <= cfg.Max {
		return nil
	}
	return &Violation{
		Rule:     r.Name(),
		Reason:   reason("sent %d duplicated messages in %ds", len(offending), cfg.IntervalSeconds),
		Members:  singleMember(trigger),
		Messages: offending,
	}
}
