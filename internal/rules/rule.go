package rules

import (
	"fmt"

	"warden-bot/internal/config"

	"github.com/bwmarrin/discordgo"
)

// Violation is the result of a rule detecting an exceeded threshold.
// Messages holds exactly the messages that contributed to the aggregate,
// in chronological order; it is used both as deletion target and as
// punishment evidence.
type Violation struct {
	Rule     string
	Reason   string
	Members  []*discordgo.User
	Messages []*discordgo.Message
}

// Rule evaluates one spam heuristic over a window of recent channel
// messages. The window is already narrowed to the rule's interval and is
// in chronological order. A nil return means no violation. Rules do not
// mutate their inputs; the role_mentions rule additionally posts a channel
// warning on violation, the one sanctioned exception.
type Rule interface {
	Name() string
	Check(trigger *discordgo.Message, window []*discordgo.Message, cfg config.RuleConfig) *Violation
}

// Warner posts a warning message to a channel. Injected into the
// role_mentions rule so the rule package stays transport-free.
type Warner func(channelID, content string)

type Deps struct {
	Warner               Warner
	LinkAllowDomains     []string
	SharedExemptChannels []string
}

// Registry maps rule names to evaluators. Built once at startup and
// injected into the detector; read-only afterwards.
type Registry struct {
	rules map[string]Rule
}

func NewRegistry(deps Deps) *Registry {
	allowDomains := stringSet(deps.LinkAllowDomains)
	sharedExempt := stringSet(deps.SharedExemptChannels)

	all := []Rule{
		&AttachmentsRule{},
		&BurstRule{},
		&BurstSharedRule{exemptChannels: sharedExempt},
		&CharsRule{},
		&DuplicatesRule{},
		&EmojiRule{},
		&LinksRule{allowDomains: allowDomains},
		&MentionsRule{},
		&NewlinesRule{},
		&RoleMentionsRule{warner: deps.Warner},
	}

	rules := make(map[string]Rule, len(all))
	for _, rule := range all {
		rules[rule.Name()] = rule
	}
	return &Registry{rules: rules}
}

func (r *Registry) Get(name string) (Rule, bool) {
	rule, ok := r.rules[name]
	return rule, ok
}

// Validate fails fast on configuration the registry cannot dispatch:
// unknown rule names or absent interval/max.
func (r *Registry) Validate(configs []config.RuleConfig) error {
	for _, cfg := range configs {
		if _, ok := r.rules[cfg.Name]; !ok {
			return fmt.Errorf("unrecognized antispam rule %q", cfg.Name)
		}
		if cfg.IntervalSeconds <= 0 {
			return fmt.Errorf("antispam rule %q: interval is required", cfg.Name)
		}
		if cfg.Max <= 0 {
			return fmt.Errorf("antispam rule %q: max is required", cfg.Name)
		}
	}
	return nil
}

func stringSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	return set
}

// authoredBy returns the subset of window authored by userID, preserving
// order.
func authoredBy(window []*discordgo.Message, userID string) []*discordgo.Message {
	var relevant []*discordgo.Message
	for _, msg := range window {
		if msg.Author != nil && msg.Author.ID == userID {
			relevant = append(relevant, msg)
		}
	}
	return relevant
}

func distinctAuthors(window []*discordgo.Message) []*discordgo.User {
	seen := make(map[string]struct{}, len(window))
	var authors []*discordgo.User
	for _, msg := range window {
		if msg.Author == nil {
			continue
		}
		if _, ok := seen[msg.Author.ID]; ok {
			continue
		}
		seen[msg.Author.ID] = struct{}{}
		authors = append(authors, msg.Author)
	}
	return authors
}

func singleMember(trigger *discordgo.Message) []*discordgo.User {
	return []*discordgo.User{trigger.Author}
}

func reason(format string, total, intervalSeconds int) string {
	return fmt.Sprintf(format, total, intervalSeconds)
}
