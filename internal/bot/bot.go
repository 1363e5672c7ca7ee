package bot

import (
	"context"
	"time"

	"warden-bot/internal/antispam"
	"warden-bot/internal/config"
	"warden-bot/internal/moderation"
	"warden-bot/internal/modlog"
	"warden-bot/internal/rules"
	"warden-bot/internal/storage"
	"warden-bot/internal/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type Bot struct {
	cfg      config.Config
	logger   *zap.Logger
	store    *storage.Store
	session  *discordgo.Session
	modlog   *modlog.Logger
	punisher *moderation.Punisher
	cleaner  *moderation.Cleaner
	detector *antispam.Detector
}

func New(cfg config.Config, logger *zap.Logger, store *storage.Store) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent

	b := &Bot{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		session: session,
	}

	b.modlog = modlog.NewLogger(session, store, logger, cfg.ModLog.ChannelID, cfg.ModLog.ArtifactBaseURL)
	b.punisher = moderation.NewPunisher(session, b.modlog, store, logger, cfg.GuildID, cfg.AntiSpam.Punishment, cfg.ModLog.PingEveryone)
	b.cleaner = moderation.NewCleaner(session, b.modlog, logger, cfg.AntiSpam.CleanOffending)

	registry := rules.NewRegistry(rules.Deps{
		Warner:               b.warnChannel,
		LinkAllowDomains:     cfg.AntiSpam.LinkAllowDomains,
		SharedExemptChannels: cfg.AntiSpam.SharedExemptChannels,
	})
	detector, err := antispam.New(cfg.AntiSpam, cfg.GuildID, cfg.Debug, logger, registry, b, b.punisher, b.cleaner, b)
	if err != nil {
		return nil, err
	}
	b.detector = detector

	return b, nil
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onMessageDelete)
	b.session.AddHandler(b.onMessageDeleteBulk)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return err
	}

	if err := b.registerCommands(); err != nil {
		return err
	}

	b.startRetentionSweep()

	return nil
}

// Close drains in-flight punishment tasks, abandoning them if ctx expires
// first, then closes the gateway session.
func (b *Bot) Close(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		_ = b.detector.Drain()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		b.logger.Warn("punishment tasks abandoned at shutdown")
	}

	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord ready", zap.String("user", session.State.User.Username))
}

// History implements antispam.HistoryFetcher. Discord returns history
// newest first; the detector wants chronological order inclusive of the
// lookback boundary.
func (b *Bot) History(channelID string, since time.Time) ([]*discordgo.Message, error) {
	after := utils.TimeToSnowflake(since)
	messages, err := b.session.ChannelMessages(channelID, 100, "", after, "")
	if err != nil {
		return nil, err
	}

	ordered := make([]*discordgo.Message, 0, len(messages))
	for idx := len(messages) - 1; idx >= 0; idx-- {
		if messages[idx].Timestamp.Before(since) {
			continue
		}
		ordered = append(ordered, messages[idx])
	}
	return ordered, nil
}

// RolesOf implements antispam.RoleSource, consulting state first.
func (b *Bot) RolesOf(guildID, userID string) ([]string, error) {
	member, err := b.session.State.Member(guildID, userID)
	if err == nil && member != nil {
		return member.Roles, nil
	}
	member, err = b.session.GuildMember(guildID, userID)
	if err != nil {
		return nil, err
	}
	return member.Roles, nil
}

func (b *Bot) warnChannel(channelID, content string) {
	if _, err := b.session.ChannelMessageSend(channelID, content); err != nil {
		b.logger.Warn("channel warning failed", zap.String("channel_id", channelID), zap.Error(err))
	}
}

func (b *Bot) startRetentionSweep() {
	if b.cfg.RetentionDays <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			ctx := context.Background()
			if err := b.store.CleanupInfractions(ctx, b.cfg.RetentionDays); err != nil {
				b.logger.Warn("infraction cleanup failed", zap.Error(err))
			}
			if err := b.store.CleanupArtifacts(ctx, b.cfg.RetentionDays); err != nil {
				b.logger.Warn("artifact cleanup failed", zap.Error(err))
			}
		}
	}()
}
