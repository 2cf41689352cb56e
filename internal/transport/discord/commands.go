package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

const (
	CommandRequest = "req"
	CommandTimer   = "set"
	CommandResync  = "resync"
)

// CommandRegistry is the slice of the session API used to manage slash commands
type CommandRegistry interface {
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// Commands returns the slash commands the bot serves
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        CommandRequest,
			Description: "Request a private voice channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "channel_name",
					Description: "Name for your voice channel",
					Required:    true,
					MinLength:   lo.ToPtr(1),
					MaxLength:   100,
				},
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "teammate1",
					Description: "Teammate to move (optional)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "teammate2",
					Description: "Teammate to move (optional)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "capacity",
					Description: "Max members (optional)",
					MinValue:    lo.ToPtr(1.0),
					MaxValue:    99,
				},
			},
		},
		{
			Name:        CommandTimer,
			Description: "Create a new countdown timer",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "days",
					Description: "Days (0 or more)",
					MinValue:    lo.ToPtr(0.0),
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "hours",
					Description: "Hours (0-23)",
					MinValue:    lo.ToPtr(0.0),
					MaxValue:    23,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "minutes",
					Description: "Minutes (0-59)",
					MinValue:    lo.ToPtr(0.0),
					MaxValue:    59,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "description",
					Description: "Optional description",
				},
			},
		},
		{
			Name:        CommandResync,
			Description: "Clear and resync application commands (owner only)",
		},
	}
}

// SyncCommands replaces every registered command with Commands(). An empty
// guildID targets global commands.
func SyncCommands(registry CommandRegistry, appID, guildID string) ([]*discordgo.ApplicationCommand, error) {
	synced, err := registry.ApplicationCommandBulkOverwrite(appID, guildID, Commands())
	if err != nil {
		return nil, oops.With("app_id", appID, "guild_id", guildID).Wrapf(err, "overwriting commands")
	}
	return synced, nil
}

// ListCommands returns the commands currently registered
func ListCommands(registry CommandRegistry, appID, guildID string) ([]*discordgo.ApplicationCommand, error) {
	cmds, err := registry.ApplicationCommands(appID, guildID)
	if err != nil {
		return nil, oops.With("app_id", appID, "guild_id", guildID).Wrapf(err, "listing commands")
	}
	return cmds, nil
}
