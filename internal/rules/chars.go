package rules

import (
	"unicode/utf8"

	"warden-bot/internal/config"

	"github.com/bwmarrin/discordgo"
)

// CharsRule flags a user posting too many characters in the window.
type CharsRule struct{}

func (r *CharsRule) Name() string { return "chars" }

func (r *CharsRule) Check(trigger *discordgo.Message, window []*discordgo.Message, cfg config.RuleConfig) *Violation {
	relevant := authoredBy(window, trigger.Author.ID)
	total := 0
	for _, msg := range relevant {
		total += utf8.RuneCountInString(msg.Content)
	}
	if total <= cfg.Max {
		return nil
	}
	return &Violation{
		Rule:     r.Name(),
		Reason:   reason("sent %d characters in %ds", total, cfg.IntervalSeconds),
		Members:  singleMember(trigger),
		Messages: relevant,
	}
}
