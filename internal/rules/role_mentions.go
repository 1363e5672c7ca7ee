package rules

import (
	"warden-bot/internal/config"

	"github.com/bwmarrin/discordgo"
)

const roleMentionWarning = "Please don't ping roles or everyone. This has been flagged to the moderation team."

// RoleMentionsRule flags a user sending too many role pings in the window.
// An @everyone/@here ping counts as one. On violation the rule also posts
// a warning to the channel; it is the only rule with a side effect.
type RoleMentionsRule struct {
	warner Warner
}

func (r *RoleMentionsRule) Name() string { return "role_mentions" }

func (r *RoleMentionsRule) Check(trigger *discordgo.Message, window []*discordgo.Message, cfg config.RuleConfig) *Violation {
	var offending []*discordgo.Message
	total := 0
	for _, msg := range authoredBy(window, trigger.Author.ID) {
		count := len(msg.MentionRoles)
		if msg.MentionEveryone {
			count++
		}
		if count == 0 {
			continue
		}
		total += count
		offending = append(offending, msg)
	}
	if total <= cfg.Max {
		return nil
	}
	if r.warner != nil {
		r.warner(trigger.ChannelID, roleMentionWarning)
	}
	return &Violation{
		Rule:     r.Name(),
		Reason:   reason("sent %d role mentions in %ds", total, cfg.IntervalSeconds),
		Members:  singleMember(trigger),
		Messages: offending,
	}
}
