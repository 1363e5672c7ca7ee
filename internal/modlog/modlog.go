package modlog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"warden-bot/internal/storage"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Deletion event kinds recognized by the ignore mechanism.
const (
	EventMessageDelete     = "message_delete"
	EventMessageDeleteBulk = "message_delete_bulk"
)

// Sender is the subset of *discordgo.Session the mod-log needs.
type Sender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Alert is a structured moderation notice rendered as an embed in the
// mod-log channel.
type Alert struct {
	Icon         string
	Colour       int
	Title        string
	Text         string
	Thumbnail    string
	ChannelID    string
	PingEveryone bool
}

// Logger posts moderation alerts, stores message artifacts, and tracks
// bot-initiated deletions so they are not logged a second time as
// moderator actions.
type Logger struct {
	session   Sender
	store     *storage.Store
	logger    *zap.Logger
	channelID string
	baseURL   string

	mu      sync.Mutex
	ignored map[string]map[string]struct{}
}

func NewLogger(session Sender, store *storage.Store, logger *zap.Logger, channelID, artifactBaseURL string) *Logger {
	return &Logger{
		session:   session,
		store:     store,
		logger:    logger,
		channelID: channelID,
		baseURL:   strings.TrimSuffix(artifactBaseURL, "/"),
		ignored:   make(map[string]map[string]struct{}),
	}
}

// Send posts the alert and returns the posted message.
func (l *Logger) Send(ctx context.Context, alert Alert) (*discordgo.Message, error) {
	_ = ctx
	channelID := alert.ChannelID
	if channelID == "" {
		channelID = l.channelID
	}
	if channelID == "" {
		return nil, fmt.Errorf("modlog channel not configured")
	}

	embed := &discordgo.MessageEmbed{
		Title:       alert.Icon + " " + alert.Title,
		Description: alert.Text,
		Color:       alert.Colour,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	if alert.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: alert.Thumbnail}
	}

	send := &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
	if alert.PingEveryone {
		send.Content = "@everyone"
		send.AllowedMentions = &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeEveryone},
		}
	}

	msg, err := l.session.ChannelMessageSendComplex(channelID, send)
	if err != nil {
		return nil, err
	}
	l.logger.Info("modlog alert",
		zap.String("channel_id", channelID),
		zap.String("title", alert.Title))
	return msg, nil
}

// Ignore registers message IDs whose next deletion event of the given
// kind must be swallowed by the audit path.
func (l *Logger) Ignore(event string, messageIDs ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	set := l.ignored[event]
	if set == nil {
		set = make(map[string]struct{})
		l.ignored[event] = set
	}
	for _, id := range messageIDs {
		set[id] = struct{}{}
	}
}

// ShouldIgnore reports whether the deletion event for messageID was
// registered, consuming the registration.
func (l *Logger) ShouldIgnore(event, messageID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	set := l.ignored[event]
	if set == nil {
		return false
	}
	if _, ok := set[messageID]; !ok {
		return false
	}
	delete(set, messageID)
	return true
}

// UploadLog stores the messages as a rendered text artifact and returns
// its URL. Used when an alert would exceed embed size limits.
func (l *Logger) UploadLog(ctx context.Context, guildID string, messages []*discordgo.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages to upload")
	}

	artifact := storage.Artifact{
		ID:        uuid.NewString(),
		GuildID:   guildID,
		ChannelID: messages[0].ChannelID,
		Body:      renderMessages(messages),
		CreatedAt: time.Now(),
	}
	if err := l.store.AddArtifact(ctx, artifact); err != nil {
		return "", err
	}
	return l.baseURL + "/artifacts/" + artifact.ID, nil
}

func renderMessages(messages []*discordgo.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		author := "unknown"
		if msg.Author != nil {
			author = fmt.Sprintf("%s (%s)", msg.Author.Username, msg.Author.ID)
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", msg.Timestamp.UTC().Format("15:04:05"), author, msg.Content)
		for _, attachment := range msg.Attachments {
			fmt.Fprintf(&b, "    attachment: %s\n", attachment.URL)
		}
	}
	return b.String()
}
