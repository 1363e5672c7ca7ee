package rules

import (
	"warden-bot/internal/config"

	"github.com/bwmarrin/discordgo"
)

// BurstSharedRule flags too many messages in the window across ALL
// authors, to catch coordinated raids a per-author burst rule misses.
// High-traffic channels can be exempted from this rule alone.
type BurstSharedRule struct {
	exemptChannels map[string]struct{}
}

func (r *BurstSharedRule) Name() string { return "burst_shared" }

func (r *BurstSharedRule) Check(trigger *discordgo.Message, window []*discordgo.Message, cfg config.RuleConfig) *Violation {
	if _, exempt := r.exemptChannels[trigger.ChannelID]; exempt {
		return nil
	}
	if len(window) <= cfg.Max {
		return nil
	}
	return &Violation{
		Rule:     r.Name(),
		Reason:   reason("sent %d messages in %ds", len(window), cfg.IntervalSeconds),
		Members:  distinctAuthors(window),
		Messages: window,
	}
}
