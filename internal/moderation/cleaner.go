package moderation

import (
	"fmt"
	"sync"

	"warden-bot/internal/modlog"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// DeleteSession is the subset of *discordgo.Session the cleaner needs.
type DeleteSession interface {
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessagesBulkDelete(channelID string, messages []string, options ...discordgo.RequestOption) error
}

// Ignorer suppresses audit logging for bot-initiated deletions.
type Ignorer interface {
	Ignore(event string, messageIDs ...string)
}

// Cleaner removes offending messages after a violation. Deletion can be
// toggled at runtime through the /clean command.
type Cleaner struct {
	session DeleteSession
	modlog  Ignorer
	logger  *zap.Logger

	mu      sync.Mutex
	enabled bool
}

func NewCleaner(session DeleteSession, ignorer Ignorer, logger *zap.Logger, enabled bool) *Cleaner {
	return &Cleaner{session: session, modlog: ignorer, logger: logger, enabled: enabled}
}

func (c *Cleaner) SetEnabled(enabled bool) {
	c.mu.Lock()
	c.enabled = enabled
	c.mu.Unlock()
}

func (c *Cleaner) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// MaybeDelete removes the offending messages, registering their IDs with
// the mod-log first so the deletions are not audited as moderator actions.
// The bulk endpoint rejects single-item batches, hence the branch.
func (c *Cleaner) MaybeDelete(channelID string, messages []*discordgo.Message) error {
	if !c.Enabled() || len(messages) == 0 {
		return nil
	}

	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		ids = append(ids, msg.ID)
	}

	if len(ids) == 1 {
		c.modlog.Ignore(modlog.EventMessageDelete, ids[0])
		if err := c.session.ChannelMessageDelete(channelID, ids[0]); err != nil {
			return fmt.Errorf("delete message %s: %w", ids[0], err)
		}
	} else {
		c.modlog.Ignore(modlog.EventMessageDeleteBulk, ids...)
		if err := c.session.ChannelMessagesBulkDelete(channelID, ids); err != nil {
			return fmt.Errorf("bulk delete %d messages: %w", len(ids), err)
		}
	}

	c.logger.Info("offending messages deleted",
		zap.String("channel_id", channelID),
		zap.Int("count", len(ids)))
	return nil
}
