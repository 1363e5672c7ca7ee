package rules

import (
	"warden-bot/internal/config"
	"warden-bot/internal/utils"

	"github.com/bwmarrin/discordgo"
)

// LinksRule flags a user posting too many links in the window. Links whose
// host falls under an allow-listed domain are not counted.
type LinksRule struct {
	allowDomains map[string]struct{}
}

func (r *LinksRule) Name() string { return "links" }

func (r *LinksRule) Check(trigger *discordgo.Message, window []*discordgo.Message, cfg config.RuleConfig) *Violation {
	var offending []*discordgo.Message
	total := 0
	for _, msg := range authoredBy(window, trigger.Author.ID) {
		count := r.countLinks(msg.Content)
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
		Reason:   reason("sent %d links in %ds", total, cfg.IntervalSeconds),
		Members:  singleMember(trigger),
		Messages: offending,
	}
}

func (r *LinksRule) countLinks(content string) int {
	count := 0
	for _, raw := range utils.ExtractURLs(content) {
		host, err := utils.HostOf(raw)
		if err == nil && utils.AllowedDomain(host, r.allowDomains) {
			continue
		}
		count++
	}
	return count
}
