package bot

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/guild"
	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/split"
)

// Slash command definitions
func (b *Bot) getCommandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "pacestatus",
			Description: "Show how PacemanBot is configured in this server",
		},
		{
			Name:        "splitmodes",
			Description: "List the split modes this bot can run with",
		},
	}
}

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	slog.Info("Registering slash commands")

	appID := b.config.DiscordApplicationID
	if appID == "" {
		appID = b.session.State.User.ID
	}

	commandDefinitions := b.getCommandDefinitions()
	registeredCommands := make([]*discordgo.ApplicationCommand, 0, len(commandDefinitions))

	for _, cmd := range commandDefinitions {
		registered, err := b.session.ApplicationCommandCreate(
			appID,
			"", // Empty string = global command
			cmd,
		)
		if err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
		registeredCommands = append(registeredCommands, registered)
		slog.Debug("Registered command", "name", cmd.Name)
	}

	b.commands = registeredCommands
	slog.Info("Slash commands registered", "count", len(registeredCommands))
	return nil
}

// handleStatus handles the /pacestatus command
func (b *Bot) handleStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		respondWithMessage(s, i, "This command only works in a server.")
		return
	}

	state, ok := b.cache.Get(i.GuildID)
	if !ok {
		respondWithMessage(s, i, fmt.Sprintf("This server is not set up yet. Create a `#%s` channel to receive pace notifications.", guild.ProgressChannelName))
		return
	}

	respondWithMessage(s, i, formatStatus(state, b.mode))
}

// handleSplitModes handles the /splitmodes command
func (b *Bot) handleSplitModes(s *discordgo.Session, i *discordgo.InteractionCreate) {
	respondWithMessage(s, i, formatModes(b.registry.List(), b.mode))
}

// formatStatus renders a read-only summary of a cached guild
func formatStatus(state *guild.State, mode *split.Mode) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**PacemanBot status for %s**\n\n", state.Name))
	sb.WriteString(fmt.Sprintf("Notifications: <#%s>\n", state.ProgressChannel))

	if state.RosterGated {
		sb.WriteString(fmt.Sprintf("Runners: %d from <#%s>\n", len(state.Players), state.RosterChannel))
	} else {
		sb.WriteString("Runners: everyone streaming live\n")
	}

	if state.LeaderboardChannel != "" {
		sb.WriteString(fmt.Sprintf("Leaderboard: <#%s>\n", state.LeaderboardChannel))
	} else {
		sb.WriteString("Leaderboard: off\n")
	}

	sb.WriteString(fmt.Sprintf("Split mode: %s\n", mode.Name))

	if len(state.Roles) == 0 {
		sb.WriteString("Roles: none")
		return sb.String()
	}

	names := make([]string, 0, len(state.Roles))
	for _, r := range state.Roles {
		names = append(names, "`"+r.Name+"`")
	}
	sb.WriteString(fmt.Sprintf("Roles (%d): %s", len(names), strings.Join(names, ", ")))
	return sb.String()
}

func formatModes(modes []*split.Mode, active *split.Mode) string {
	if len(modes) == 0 {
		return "No split modes are registered."
	}

	var sb strings.Builder
	sb.WriteString("**Split Modes:**\n\n")
	for _, m := range modes {
		marker := ""
		if m.Name == active.Name {
			marker = " (active)"
		}
		sb.WriteString(fmt.Sprintf("**%s**%s\n", m.Name, marker))
		sb.WriteString(fmt.Sprintf("  %s\n\n", m.Description))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Helper functions

func respondWithMessage(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		slog.Error("Failed to respond to interaction", "error", err)
	}
}
