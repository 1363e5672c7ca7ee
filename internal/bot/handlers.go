package bot

import (
	"context"
	"fmt"

	"warden-bot/internal/modlog"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) onMessageCreate(session *discordgo.Session, event *discordgo.MessageCreate) {
	if err := b.detector.HandleMessage(context.Background(), event.Message); err != nil {
		b.logger.Error("message handling failed",
			zap.String("channel_id", event.ChannelID),
			zap.String("message_id", event.ID),
			zap.Error(err))
	}
}

func (b *Bot) onMessageDelete(session *discordgo.Session, event *discordgo.MessageDelete) {
	if event.GuildID != b.cfg.GuildID {
		return
	}
	if b.modlog.ShouldIgnore(modlog.EventMessageDelete, event.ID) {
		return
	}

	text := fmt.Sprintf("Message `%s` deleted in <#%s>.", event.ID, event.ChannelID)
	if event.BeforeDelete != nil && event.BeforeDelete.Author != nil {
		text = fmt.Sprintf("Message by %s deleted in <#%s>:\n>>> %s",
			event.BeforeDelete.Author.Mention(), event.ChannelID, event.BeforeDelete.Content)
	}
	b.sendAudit(modlog.Alert{
		Icon:   "\U0001F5D1️",
		Colour: 0xF59E0B,
		Title:  "Message deleted",
		Text:   text,
	})
}

func (b *Bot) onMessageDeleteBulk(session *discordgo.Session, event *discordgo.MessageDeleteBulk) {
	if event.GuildID != b.cfg.GuildID {
		return
	}

	remaining := 0
	for _, id := range event.Messages {
		if !b.modlog.ShouldIgnore(modlog.EventMessageDeleteBulk, id) {
			remaining++
		}
	}
	if remaining == 0 {
		return
	}

	b.sendAudit(modlog.Alert{
		Icon:   "\U0001F5D1️",
		Colour: 0xF59E0B,
		Title:  "Messages bulk deleted",
		Text:   fmt.Sprintf("%d messages deleted in <#%s>.", remaining, event.ChannelID),
	})
}

func (b *Bot) sendAudit(alert modlog.Alert) {
	if b.cfg.ModLog.ChannelID == "" {
		return
	}
	if _, err := b.modlog.Send(context.Background(), alert); err != nil {
		b.logger.Warn("audit alert failed", zap.String("title", alert.Title), zap.Error(err))
	}
}
