package rules

import (
	"fmt"
	"reflect"
	"testing"

	"warden-bot/internal/config"

	"github.com/bwmarrin/discordgo"
)

func msg(id, authorID, content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        id,
		ChannelID: "c1",
		Content:   content,
		Author:    &discordgo.User{ID: authorID, Username: "user-" + authorID},
	}
}

func window(msgs ...*discordgo.Message) []*discordgo.Message {
	return msgs
}

func TestBurstBoundary(t *testing.T) {
	rule := &BurstRule{}
	cfg := config.RuleConfig{Name: "burst", IntervalSeconds: 10, Max: 2}

	exactly := window(msg("1", "a", "x"), msg("2", "a", "y"))
	if v := rule.Check(exactly[1], exactly, cfg); v != nil {
		t.Fatalf("aggregate equal to max must not trigger, got %v", v)
	}

	over := window(msg("1", "a", "x"), msg("2", "a", "y"), msg("3", "a", "z"))
	v := rule.Check(over[2], over, cfg)
	if v == nil {
		t.Fatalf("expected violation")
	}
	if v.Reason != "sent 3 messages in 10s" {
		t.Fatalf("unexpected reason %q", v.Reason)
	}
	if len(v.Messages) != 3 {
		t.Fatalf("expected 3 offending messages, got %d", len(v.Messages))
	}
}

func TestBurstIgnoresOtherAuthors(t *testing.T) {
	rule := &BurstRule{}
	cfg := config.RuleConfig{Name: "burst", IntervalSeconds: 10, Max: 2}

	w := window(msg("1", "a", "x"), msg("2", "b", "y"), msg("3", "b", "z"), msg("4", "a", "w"))
	if v := rule.Check(w[3], w, cfg); v != nil {
		t.Fatalf("other authors must not count, got %v", v)
	}
}

func TestEmptyWindowNeverTriggers(t *testing.T) {
	trigger := msg("1", "a", "spam")
	cfg := config.RuleConfig{IntervalSeconds: 10, Max: 1, MaxConsecutive: 1}

	registry := NewRegistry(Deps{})
	for _, name := range []string{"attachments", "burst", "burst_shared", "chars", "duplicates", "discord_emojis", "links", "mentions", "newlines", "role_mentions"} {
		rule, ok := registry.Get(name)
		if !ok {
			t.Fatalf("rule %s missing from registry", name)
		}
		if v := rule.Check(trigger, nil, cfg); v != nil {
			t.Fatalf("rule %s triggered on empty window: %v", name, v)
		}
	}
}

func TestRulePurity(t *testing.T) {
	rule := &DuplicatesRule{}
	cfg := config.RuleConfig{Name: "duplicates", IntervalSeconds: 10, Max: 2}
	w := window(msg("1", "a", "spam"), msg("2", "a", "spam"), msg("3", "a", "spam"))

	first := rule.Check(w[2], w, cfg)
	second := rule.Check(w[2], w, cfg)
	if first == nil || second == nil {
		t.Fatalf("expected violations on both calls")
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated evaluation differs: %v vs %v", first, second)
	}
}

func TestDuplicates(t *testing.T) {
	rule := &DuplicatesRule{}
	cfg := config.RuleConfig{Name: "duplicates", IntervalSeconds: 10, Max: 2}

	w := window(msg("1", "a", "spam"), msg("2", "a", "other"), msg("3", "a", "spam"), msg("4", "a", "spam"))
	v := rule.Check(w[3], w, cfg)
	if v == nil {
		t.Fatalf("expected violation")
	}
	if v.Reason != "sent 3 duplicated messages in 10s" {
		t.Fatalf("unexpected reason %q", v.Reason)
	}
	if len(v.Messages) != 3 {
		t.Fatalf("only identical messages should be offending, got %d", len(v.Messages))
	}
	for _, offending := range v.Messages {
		if offending.Content != "spam" {
			t.Fatalf("unexpected offending message %q", offending.Content)
		}
	}
}

func TestAttachmentsBoundary(t *testing.T) {
	rule := &AttachmentsRule{}
	cfg := config.RuleConfig{Name: "attachments", IntervalSeconds: 10, Max: 5}

	withAttachments := func(id string, count int) *discordgo.Message {
		m := msg(id, "a", "")
		for i := 0; i < count; i++ {
			m.Attachments = append(m.Attachments, &discordgo.MessageAttachment{ID: fmt.Sprintf("%s-%d", id, i)})
		}
		return m
	}

	exactly := window(withAttachments("1", 3), withAttachments("2", 2))
	if v := rule.Check(exactly[1], exactly, cfg); v != nil {
		t.Fatalf("5 attachments with max=5 must not trigger")
	}

	over := window(withAttachments("1", 3), withAttachments("2", 3))
	v := rule.Check(over[1], over, cfg)
	if v == nil {
		t.Fatalf("expected violation")
	}
	if v.Reason != "sent 6 attachments in 10s" {
		t.Fatalf("unexpected reason %q", v.Reason)
	}
}

func TestAttachmentsOffendingSubset(t *testing.T) {
	rule := &AttachmentsRule{}
	cfg := config.RuleConfig{Name: "attachments", IntervalSeconds: 10, Max: 1}

	plain := msg("1", "a", "hello")
	heavy := msg("2", "a", "")
	heavy.Attachments = []*discordgo.MessageAttachment{{ID: "x"}, {ID: "y"}}
	w := window(plain, heavy)

	v := rule.Check(heavy, w, cfg)
	if v == nil {
		t.Fatalf("expected violation")
	}
	if len(v.Messages) != 1 || v.Messages[0].ID != "2" {
		t.Fatalf("offending subset must be only the contributing messages, got %v", v.Messages)
	}
}

func TestCharsRule(t *testing.T) {
	rule := &CharsRule{}
	cfg := config.RuleConfig{Name: "chars", IntervalSeconds: 5, Max: 10}

	w := window(msg("1", "a", "0123456789"), msg("2", "a", "x"))
	v := rule.Check(w[1], w, cfg)
	if v == nil {
		t.Fatalf("expected violation at 11 chars")
	}
	if v.Reason != "sent 11 characters in 5s" {
		t.Fatalf("unexpected reason %q", v.Reason)
	}
}

func TestEmojiRule(t *testing.T) {
	rule := &EmojiRule{}
	cfg := config.RuleConfig{Name: "discord_emojis", IntervalSeconds: 10, Max: 2}

	w := window(msg("1", "a", "<:party:123> <a:wave:456>"), msg("2", "a", "<:tada:789>"))
	v := rule.Check(w[1], w, cfg)
	if v == nil {
		t.Fatalf("expected violation")
	}
	if v.Reason != "sent 3 emojis in 10s" {
		t.Fatalf("unexpected reason %q", v.Reason)
	}
}

func TestLinksRuleAllowedDomains(t *testing.T) {
	rule := &LinksRule{allowDomains: map[string]struct{}{"example.com": {}}}
	cfg := config.RuleConfig{Name: "links", IntervalSeconds: 10, Max: 1}

	allowed := window(msg("1", "a", "https://example.com/a https://docs.example.com/b"))
	if v := rule.Check(allowed[0], allowed, cfg); v != nil {
		t.Fatalf("allow-listed links must not count, got %v", v)
	}

	blocked := window(msg("1", "a", "https://evil.io/a https://evil.io/b"))
	v := rule.Check(blocked[0], blocked, cfg)
	if v == nil {
		t.Fatalf("expected violation")
	}
	if v.Reason != "sent 2 links in 10s" {
		t.Fatalf("unexpected reason %q", v.Reason)
	}
}

func TestMentionsRule(t *testing.T) {
	rule := &MentionsRule{}
	cfg := config.RuleConfig{Name: "mentions", IntervalSeconds: 10, Max: 2}

	heavy := msg("1", "a", "hi")
	heavy.Mentions = []*discordgo.User{{ID: "x"}, {ID: "y"}, {ID: "z"}}
	w := window(heavy)

	v := rule.Check(heavy, w, cfg)
	if v == nil {
		t.Fatalf("expected violation")
	}
	if v.Reason != "sent 3 mentions in 10s" {
		t.Fatalf("unexpected reason %q", v.Reason)
	}
	if len(v.Members) != 1 || v.Members[0].ID != "a" {
		t.Fatalf("per-author rule must report only the trigger author")
	}
}

func TestNewlinesTotalCheckedFirst(t *testing.T) {
	rule := &NewlinesRule{}
	cfg := config.RuleConfig{Name: "newlines", IntervalSeconds: 10, Max: 5, MaxConsecutive: 3}

	// Total (7) and the largest run (7) both exceed; total wins.
	w := window(msg("1", "a", "a\n\n\n\n\n\n\nb"))
	v := rule.Check(w[0], w, cfg)
	if v == nil {
		t.Fatalf("expected violation")
	}
	if v.Reason != "sent 7 newlines in 10s" {
		t.Fatalf("total condition must be reported first, got %q", v.Reason)
	}
}

func TestNewlinesConsecutiveTrigger(t *testing.T) {
	rule := &NewlinesRule{}
	cfg := config.RuleConfig{Name: "newlines", IntervalSeconds: 10, Max: 100, MaxConsecutive: 3}

	// Total (6) stays under max, but one run of 4 crosses max_consecutive.
	w := window(msg("1", "a", "a\nb\n\n\n\nc\nd"))
	v := rule.Check(w[0], w, cfg)
	if v == nil {
		t.Fatalf("expected violation on consecutive run")
	}
	if v.Reason != "sent 4 consecutive newlines in 10s" {
		t.Fatalf("expected consecutive run reported, got %q", v.Reason)
	}
}

func TestNewlinesConsecutiveDisabled(t *testing.T) {
	rule := &NewlinesRule{}
	cfg := config.RuleConfig{Name: "newlines", IntervalSeconds: 10, Max: 100}

	w := window(msg("1", "a", "a\n\n\n\n\n\nb"))
	if v := rule.Check(w[0], w, cfg); v != nil {
		t.Fatalf("consecutive check disabled, must not trigger: %v", v)
	}
}

func TestRoleMentionsWarns(t *testing.T) {
	var warnedChannel, warnedContent string
	rule := &RoleMentionsRule{warner: func(channelID, content string) {
		warnedChannel = channelID
		warnedContent = content
	}}
	cfg := config.RuleConfig{Name: "role_mentions", IntervalSeconds: 10, Max: 1}

	heavy := msg("1", "a", "@everyone hi")
	heavy.MentionEveryone = true
	heavy.MentionRoles = []string{"r1"}
	w := window(heavy)

	v := rule.Check(heavy, w, cfg)
	if v == nil {
		t.Fatalf("expected violation")
	}
	if v.Reason != "sent 2 role mentions in 10s" {
		t.Fatalf("unexpected reason %q", v.Reason)
	}
	if warnedChannel != "c1" || warnedContent == "" {
		t.Fatalf("expected channel warning, got channel=%q content=%q", warnedChannel, warnedContent)
	}
}

func TestBurstSharedMembersAndExemption(t *testing.T) {
	rule := &BurstSharedRule{exemptChannels: map[string]struct{}{"busy": {}}}
	cfg := config.RuleConfig{Name: "burst_shared", IntervalSeconds: 10, Max: 2}

	w := window(msg("1", "a", "x"), msg("2", "b", "y"), msg("3", "a", "z"))
	v := rule.Check(w[2], w, cfg)
	if v == nil {
		t.Fatalf("expected violation")
	}
	if len(v.Members) != 2 {
		t.Fatalf("shared rule must report all distinct authors, got %d", len(v.Members))
	}
	if len(v.Messages) != 3 {
		t.Fatalf("shared rule must report the full window, got %d", len(v.Messages))
	}

	exempt := msg("4", "a", "x")
	exempt.ChannelID = "busy"
	if v := rule.Check(exempt, w, cfg); v != nil {
		t.Fatalf("exempt channel must never trigger the shared rule")
	}
}

func TestRegistryValidate(t *testing.T) {
	registry := NewRegistry(Deps{})

	valid := []config.RuleConfig{{Name: "burst", IntervalSeconds: 10, Max: 7}}
	if err := registry.Validate(valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	unknown := []config.RuleConfig{{Name: "teleport", IntervalSeconds: 10, Max: 7}}
	if err := registry.Validate(unknown); err == nil {
		t.Fatalf("expected error for unknown rule")
	}

	missing := []config.RuleConfig{{Name: "burst", Max: 7}}
	if err := registry.Validate(missing); err == nil {
		t.Fatalf("expected error for missing interval")
	}
}
