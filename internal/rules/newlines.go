package rules

import (
	"regexp"

	"warden-bot/internal/config"

	"github.com/bwmarrin/discordgo"
)

var newlineRunRegex = regexp.MustCompile(`\n+`)

// NewlinesRule flags newline flooding. It triggers either on the total
// newline count in the window or on the single largest consecutive run,
// whichever threshold is crossed; the total is checked first and only one
// condition is ever reported.
type NewlinesRule struct{}

func (r *NewlinesRule) Name() string { return "newlines" }

func (r *NewlinesRule) Check(trigger *discordgo.Message, window []*discordgo.Message, cfg config.RuleConfig) *Violation {
	var offending []*discordgo.Message
	total := 0
	maxRun := 0
	for _, msg := range authoredBy(window, trigger.Author.ID) {
		runs := newlineRunRegex.FindAllString(msg.Content, -1)
		if len(runs) == 0 {
			continue
		}
		for _, run := range runs {
			total += len(run)
			if len(run) > maxRun {
				maxRun = len(run)
			}
		}
		offending = append(offending, msg)
	}

	switch {
	case total > cfg.Max:
		return &Violation{
			Rule:     r.Name(),
			Reason:   reason("sent %d newlines in %ds", total, cfg.IntervalSeconds),
			Members:  singleMember(trigger),
			Messages: offending,
		}
	case cfg.MaxConsecutive > 0 && maxRun > cfg.MaxConsecutive:
		return &Violation{
			Rule:     r.Name(),
			Reason:   reason("sent %d consecutive newlines in %ds", maxRun, cfg.IntervalSeconds),
			Members:  singleMember(trigger),
			Messages: offending,
		}
	default:
		return nil
	}
}
