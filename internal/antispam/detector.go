package antispam

import (
	"context"
	"fmt"
	"time"

	"warden-bot/internal/config"
	"warden-bot/internal/rules"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// HistoryFetcher returns channel messages created at or after since, in
// chronological order.
type HistoryFetcher interface {
	History(channelID string, since time.Time) ([]*discordgo.Message, error)
}

// Punisher applies the violation sanction to one member.
type Punisher interface {
	Punish(ctx context.Context, trigger *discordgo.Message, user *discordgo.User, rule, reason string, messages []*discordgo.Message) error
}

// Cleaner removes the offending messages.
type Cleaner interface {
	MaybeDelete(channelID string, messages []*discordgo.Message) error
}

// RoleSource resolves a member's role IDs for the eligibility filter.
type RoleSource interface {
	RolesOf(guildID, userID string) ([]string, error)
}

// RuleSource dispatches rule lookups; satisfied by *rules.Registry.
type RuleSource interface {
	Get(name string) (rules.Rule, bool)
	Validate(configs []config.RuleConfig) error
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Detector runs every eligible message through the configured rules, in
// order, and enforces the first violation found. It keeps no state across
// messages; the window is re-derived from channel history each time.
type Detector struct {
	cfg      config.AntiSpamConfig
	guildID  string
	debug    bool
	logger   *zap.Logger
	registry RuleSource
	fetcher  HistoryFetcher
	punisher Punisher
	cleaner  Cleaner
	roles    RoleSource
	clock    Clock

	maxInterval    time.Duration
	exemptChannels map[string]struct{}
	exemptRoles    map[string]struct{}

	group errgroup.Group
}

func New(cfg config.AntiSpamConfig, guildID string, debug bool, logger *zap.Logger, registry RuleSource, fetcher HistoryFetcher, punisher Punisher, cleaner Cleaner, roleSource RoleSource) (*Detector, error) {
	if err := registry.Validate(cfg.Rules); err != nil {
		return nil, err
	}

	maxInterval := time.Duration(0)
	for _, rule := range cfg.Rules {
		if rule.Interval() > maxInterval {
			maxInterval = rule.Interval()
		}
	}

	return &Detector{
		cfg:            cfg,
		guildID:        guildID,
		debug:          debug,
		logger:         logger,
		registry:       registry,
		fetcher:        fetcher,
		punisher:       punisher,
		cleaner:        cleaner,
		roles:          roleSource,
		clock:          realClock{},
		maxInterval:    maxInterval,
		exemptChannels: stringSet(cfg.ExemptChannels),
		exemptRoles:    stringSet(cfg.ExemptRoles),
	}, nil
}

func (d *Detector) WithClock(clock Clock) {
	d.clock = clock
}

// HandleMessage evaluates one inbound message. Transport errors from the
// history fetch or cleanup propagate to the caller unretried.
func (d *Detector) HandleMessage(ctx context.Context, msg *discordgo.Message) error {
	eligible, err := d.eligible(msg)
	if err != nil {
		return err
	}
	if !eligible {
		return nil
	}

	now := d.clock.Now()
	window, err := d.fetcher.History(msg.ChannelID, now.Add(-d.maxInterval))
	if err != nil {
		return fmt.Errorf("history fetch for %s: %w", msg.ChannelID, err)
	}

	for _, ruleCfg := range d.cfg.Rules {
		rule, ok := d.registry.Get(ruleCfg.Name)
		if !ok {
			// Unreachable after startup validation.
			return fmt.Errorf("unrecognized antispam rule %q", ruleCfg.Name)
		}
		narrowed := narrowWindow(window, now.Add(-ruleCfg.Interval()))
		violation := rule.Check(msg, narrowed, ruleCfg)
		if violation == nil {
			continue
		}
		d.enforce(ctx, msg, violation)
		return nil
	}
	return nil
}

// Drain waits for in-flight punishment tasks, for shutdown.
func (d *Detector) Drain() error {
	return d.group.Wait()
}

func (d *Detector) eligible(msg *discordgo.Message) (bool, error) {
	if msg.Author == nil || msg.Author.Bot {
		return false, nil
	}
	if msg.GuildID != d.guildID {
		return false, nil
	}
	if d.debug {
		return true, nil
	}
	if _, exempt := d.exemptChannels[msg.ChannelID]; exempt {
		return false, nil
	}

	roleIDs, err := d.memberRoles(msg)
	if err != nil {
		return false, err
	}
	for _, roleID := range roleIDs {
		if _, exempt := d.exemptRoles[roleID]; exempt {
			return false, nil
		}
	}
	return true, nil
}

func (d *Detector) memberRoles(msg *discordgo.Message) ([]string, error) {
	if msg.Member != nil {
		return msg.Member.Roles, nil
	}
	return d.roles.RolesOf(d.guildID, msg.Author.ID)
}

// enforce fires one punishment task per offending member without waiting
// on them, then deletes the offending messages once. Punishment includes
// the mute-removal delay and must not stall the message handler.
func (d *Detector) enforce(ctx context.Context, trigger *discordgo.Message, violation *rules.Violation) {
	d.logger.Info("antispam violation",
		zap.String("rule", violation.Rule),
		zap.String("reason", violation.Reason),
		zap.String("channel_id", trigger.ChannelID),
		zap.Int("members", len(violation.Members)),
		zap.Int("messages", len(violation.Messages)))

	for _, member := range violation.Members {
		member := member
		d.group.Go(func() error {
			if err := d.punisher.Punish(ctx, trigger, member, violation.Rule, violation.Reason, violation.Messages); err != nil {
				d.logger.Error("punishment failed", zap.String("user_id", member.ID), zap.Error(err))
				return err
			}
			return nil
		})
	}

	if err := d.cleaner.MaybeDelete(trigger.ChannelID, violation.Messages); err != nil {
		d.logger.Error("cleanup failed", zap.String("channel_id", trigger.ChannelID), zap.Error(err))
	}
}

// narrowWindow keeps messages created at or after cutoff. The shared
// fetch covers the largest configured interval; each rule sees only its
// own lookback.
func narrowWindow(window []*discordgo.Message, cutoff time.Time) []*discordgo.Message {
	for idx, msg := range window {
		if !msg.Timestamp.Before(cutoff) {
			return window[idx:]
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
