package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	colourAction = 0x3B82F6
	colourError  = 0xEF4444
)

func (b *Bot) registerCommands() error {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "status",
			Description: "Show anti-spam status",
		},
		{
			Name:        "rules",
			Description: "List configured anti-spam rules",
		},
		{
			Name:        "clean",
			Description: "Toggle deletion of offending messages",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "value",
					Description: "on or off",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "on", Value: "on"},
						{Name: "off", Value: "off"},
					},
				},
			},
		},
	}

	appID := b.session.State.User.ID
	existing, err := b.session.ApplicationCommands(appID, "")
	if err != nil {
		for _, cmd := range commands {
			if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
				return err
			}
		}
		return nil
	}

	existingByName := make(map[string]*discordgo.ApplicationCommand)
	for _, cmd := range existing {
		existingByName[cmd.Name] = cmd
	}

	desired := make(map[string]struct{})
	for _, cmd := range commands {
		desired[cmd.Name] = struct{}{}
		if current, ok := existingByName[cmd.Name]; ok {
			if _, err := b.session.ApplicationCommandEdit(appID, "", current.ID, cmd); err != nil {
				return err
			}
			continue
		}
		if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
			return err
		}
	}

	for _, cmd := range existing {
		if _, ok := desired[cmd.Name]; ok {
			continue
		}
		_ = b.session.ApplicationCommandDelete(appID, "", cmd.ID)
	}
	return nil
}

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if interaction.GuildID != b.cfg.GuildID {
		return
	}

	ctx := context.Background()
	data := interaction.ApplicationCommandData()
	switch data.Name {
	case "status":
		b.handleStatus(ctx, session, interaction)
	case "rules":
		b.handleRules(session, interaction)
	case "clean":
		b.handleClean(session, interaction, data.Options)
	}
}

func (b *Bot) handleStatus(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	infractions, err := b.store.ListInfractions(ctx, b.cfg.GuildID, time.Now().Add(-24*time.Hour))
	if err != nil {
		b.logger.Warn("infraction lookup failed", zap.Error(err))
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Rules", Value: fmt.Sprintf("%d", len(b.cfg.AntiSpam.Rules)), Inline: true},
		{Name: "Cleanup", Value: fmt.Sprintf("%t", b.cleaner.Enabled()), Inline: true},
		{Name: "Debug", Value: fmt.Sprintf("%t", b.cfg.Debug), Inline: true},
		{Name: "Mutes (24h)", Value: fmt.Sprintf("%d", len(infractions)), Inline: true},
	}
	b.respondEmbed(session, interaction, b.commandEmbed("Anti-spam status", "Current enforcement state.", colourAction, fields), true)
}

func (b *Bot) handleRules(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	var lines []string
	for _, rule := range b.cfg.AntiSpam.Rules {
		line := fmt.Sprintf("`%s` — max %d in %ds", rule.Name, rule.Max, rule.IntervalSeconds)
		if rule.MaxConsecutive > 0 {
			line += fmt.Sprintf(" (max %d consecutive)", rule.MaxConsecutive)
		}
		lines = append(lines, line)
	}
	b.respondEmbed(session, interaction, b.commandEmbed("Anti-spam rules", strings.Join(lines, "\n"), colourAction, nil), true)
}

func (b *Bot) handleClean(session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if interaction.Member == nil || interaction.Member.Permissions&discordgo.PermissionManageMessages == 0 {
		b.respondEmbed(session, interaction, b.commandEmbed("Cleanup", "You need the Manage Messages permission.", colourError, nil), true)
		return
	}
	if len(options) == 0 {
		b.respondEmbed(session, interaction, b.commandEmbed("Cleanup", "Missing value.", colourError, nil), true)
		return
	}

	enabled := options[0].StringValue() == "on"
	b.cleaner.SetEnabled(enabled)
	b.logger.Info("cleanup toggled",
		zap.Bool("enabled", enabled),
		zap.String("moderator", interaction.Member.User.ID))
	b.respondEmbed(session, interaction, b.commandEmbed("Cleanup", fmt.Sprintf("Offending message cleanup is now **%s**.", options[0].StringValue()), colourAction, nil), true)
}

func (b *Bot) commandEmbed(title, description string, colour int, fields []*discordgo.MessageEmbedField) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       colour,
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields:      fields,
	}
}

func (b *Bot) respond(session *discordgo.Session, interaction *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
}

func (b *Bot) respondEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	if embed == nil {
		b.respond(session, interaction, "No response available.", ephemeral)
		return
	}
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	})
}
