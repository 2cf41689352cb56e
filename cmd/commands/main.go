// Command commands lists or resyncs the bot's slash commands without starting the bot.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bwmarrin/discordgo"
	"github.com/reshetovitsme/squad-bot/internal/shared/config"
	discordTransport "github.com/reshetovitsme/squad-bot/internal/transport/discord"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	flags := pflag.NewFlagSet("commands", pflag.ContinueOnError)
	list := flags.Bool("list", false, "print the registered commands")
	resync := flags.Bool("resync", false, "overwrite the registered commands with the current set")
	global := flags.Bool("global", false, "target global commands instead of the configured guild")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *list == *resync {
		return oops.Errorf("exactly one of --list or --resync is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	guildID := cfg.GuildID
	if *global {
		guildID = ""
	}

	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return oops.Wrapf(err, "creating discord session")
	}
	app, err := s.Application("@me")
	if err != nil {
		return oops.Wrapf(err, "resolving application")
	}

	if *list {
		cmds, err := discordTransport.ListCommands(s, app.ID, guildID)
		if err != nil {
			return err
		}
		printCommands(out, guildID, cmds)
		return nil
	}

	synced, err := discordTransport.SyncCommands(s, app.ID, guildID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Resynced %d commands\n", len(synced))
	printCommands(out, guildID, synced)
	return nil
}

func printCommands(out io.Writer, guildID string, cmds []*discordgo.ApplicationCommand) {
	scope := "global"
	if guildID != "" {
		scope = "guild " + guildID
	}
	fmt.Fprintf(out, "%d %s commands\n", len(cmds), scope)
	for _, cmd := range cmds {
		fmt.Fprintf(out, "  /%s (%s): %s\n", cmd.Name, cmd.ID, cmd.Description)
	}
}
