package moderation

import (
	"context"
	"fmt"

	"warden-bot/internal/config"
	"warden-bot/internal/modlog"
	"warden-bot/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Embed descriptions cap out at 4096 characters; headroom for the header
// lines and markdown around the excerpt.
const alertExcerptBudget = 3500

// Session is the subset of *discordgo.Session the punisher needs.
type Session interface {
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
}

// AlertLog is the mod-log surface the punisher posts through.
type AlertLog interface {
	Send(ctx context.Context, alert modlog.Alert) (*discordgo.Message, error)
	UploadLog(ctx context.Context, guildID string, messages []*discordgo.Message) (string, error)
}

// Punisher applies timed mutes for anti-spam violations and posts the
// matching mod-log alert.
type Punisher struct {
	session      Session
	modlog       AlertLog
	store        *storage.Store
	logger       *zap.Logger
	clock        Clock
	guildID      string
	cfg          config.PunishmentConfig
	pingEveryone bool
}

func NewPunisher(session Session, alertLog AlertLog, store *storage.Store, logger *zap.Logger, guildID string, cfg config.PunishmentConfig, pingEveryone bool) *Punisher {
	return &Punisher{
		session:      session,
		modlog:       alertLog,
		store:        store,
		logger:       logger,
		clock:        realClock{},
		guildID:      guildID,
		cfg:          cfg,
		pingEveryone: pingEveryone,
	}
}

func (p *Punisher) WithClock(clock Clock) {
	p.clock = clock
}

// Punish mutes user for the configured duration, records the infraction,
// and alerts the mod-log. A member already holding the muted role is left
// alone; the check is best-effort, concurrent punishments for the same
// member may race and the second arrival becomes a no-op on its check.
func (p *Punisher) Punish(ctx context.Context, trigger *discordgo.Message, user *discordgo.User, rule, reason string, messages []*discordgo.Message) error {
	member, err := p.session.GuildMember(p.guildID, user.ID)
	if err != nil {
		return fmt.Errorf("member lookup for %s: %w", user.ID, err)
	}
	if hasRole(member, p.cfg.RoleID) {
		p.logger.Debug("member already muted", zap.String("user_id", user.ID))
		return nil
	}

	text, err := p.alertText(ctx, trigger, user, reason, messages)
	if err != nil {
		return err
	}
	if _, err := p.modlog.Send(ctx, modlog.Alert{
		Icon:         "\U0001F6A8",
		Colour:       0xEF4444,
		Title:        "Anti-spam: user muted",
		Text:         text,
		Thumbnail:    user.AvatarURL(""),
		PingEveryone: p.pingEveryone,
	}); err != nil {
		return fmt.Errorf("modlog alert: %w", err)
	}

	if err := p.session.GuildMemberRoleAdd(p.guildID, user.ID, p.cfg.RoleID); err != nil {
		return fmt.Errorf("mute %s: %w", user.ID, err)
	}
	if err := p.store.AddInfraction(ctx, storage.Infraction{
		GuildID:         p.guildID,
		UserID:          user.ID,
		Rule:            rule,
		Reason:          reason,
		DurationSeconds: p.cfg.RemoveAfterSeconds,
		CreatedAt:       p.clock.Now(),
	}); err != nil {
		p.logger.Warn("infraction record failed", zap.Error(err))
	}
	p.logger.Info("member muted",
		zap.String("user_id", user.ID),
		zap.String("rule", rule),
		zap.String("reason", reason))

	userID := user.ID
	p.clock.AfterFunc(p.cfg.RemoveAfter(), func() {
		if err := p.session.GuildMemberRoleRemove(p.guildID, userID, p.cfg.RoleID); err != nil {
			p.logger.Warn("unmute failed", zap.String("user_id", userID), zap.Error(err))
			return
		}
		p.logger.Info("member unmuted", zap.String("user_id", userID))
	})
	return nil
}

func (p *Punisher) alertText(ctx context.Context, trigger *discordgo.Message, user *discordgo.User, reason string, messages []*discordgo.Message) (string, error) {
	header := fmt.Sprintf("**%s** (<@%s>) in <#%s>\nReason: %s\nMuted for %s.",
		user.Username, user.ID, trigger.ChannelID, reason, p.cfg.RemoveAfter())

	if len(messages) > 1 {
		url, err := p.modlog.UploadLog(ctx, p.guildID, messages)
		if err != nil {
			return "", fmt.Errorf("upload offending messages: %w", err)
		}
		return header + "\n[Full message log](" + url + ")", nil
	}
	if len(messages) == 1 && messages[0].Content != "" {
		excerpt := messages[0].Content
		if len(excerpt) > alertExcerptBudget {
			excerpt = excerpt[:alertExcerptBudget] + "..."
		}
		return header + "\n>>> " + excerpt, nil
	}
	return header, nil
}

func hasRole(member *discordgo.Member, roleID string) bool {
	if member == nil {
		return false
	}
	for _, id := range member.Roles {
		if id == roleID {
			return true
		}
	}
	return false
}
