package bot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/guild"
)

const rebuildTimeout = 30 * time.Second

// rebuild reloads a guild from Discord. On failure the cached state is left as it was.
func (b *Bot) rebuild(guildID, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), rebuildTimeout)
	defer cancel()

	err := b.cache.Upsert(guildID, func() (*guild.State, error) {
		return b.builder.Build(ctx, guildID)
	})

	switch {
	case err == nil:
		slog.Info("Guild synced", "guildID", guildID, "reason", reason)
	case errors.Is(err, guild.ErrSuperseded):
		slog.Debug("Guild rebuild superseded", "guildID", guildID, "reason", reason)
	case errors.Is(err, guild.ErrLookup):
		slog.Warn("Guild not configured, keeping previous state", "guildID", guildID, "reason", reason, "error", err)
	default:
		slog.Error("Failed to sync guild, keeping previous state", "guildID", guildID, "reason", reason, "error", err)
	}
}

// resyncAll rebuilds every guild the bot is in and drops cached guilds it has left
func (b *Bot) resyncAll() {
	b.session.State.RLock()
	joined := append([]*discordgo.Guild(nil), b.session.State.Guilds...)
	b.session.State.RUnlock()

	rebuild, stale := resyncTargets(b.cache.IDs(), joined)
	slog.Info("Resyncing guilds", "count", len(rebuild), "stale", len(stale))

	for _, id := range stale {
		b.cache.Remove(id)
		slog.Info("Guild removed", "guildID", id, "reason", "resync")
	}
	for _, id := range rebuild {
		b.rebuild(id, "resync")
	}
}

// resyncTargets splits guilds into those to rebuild (joined and available) and cached
// ones the session no longer lists
func resyncTargets(cached []string, joined []*discordgo.Guild) (rebuild, stale []string) {
	present := make(map[string]bool, len(joined))
	for _, g := range joined {
		if g == nil || present[g.ID] {
			continue
		}
		present[g.ID] = true
		// Unavailable guilds are in an outage; keep whatever is cached
		if !g.Unavailable {
			rebuild = append(rebuild, g.ID)
		}
	}
	for _, id := range cached {
		if !present[id] {
			stale = append(stale, id)
		}
	}
	return rebuild, stale
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g.Unavailable {
		return
	}
	b.rebuild(g.ID, "guild create")
}

func (b *Bot) onGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	// Outages mark guilds unavailable without removing the bot
	if g.Unavailable {
		slog.Warn("Guild unavailable", "guildID", g.ID)
		return
	}
	b.cache.Remove(g.ID)
	slog.Info("Guild removed", "guildID", g.ID)
}

func (b *Bot) onChannelCreate(s *discordgo.Session, c *discordgo.ChannelCreate) {
	if channelAffectsConfig(c.Channel, nil) {
		b.rebuild(c.GuildID, "channel create")
	}
}

func (b *Bot) onChannelUpdate(s *discordgo.Session, c *discordgo.ChannelUpdate) {
	if channelAffectsConfig(c.Channel, c.BeforeUpdate) {
		b.rebuild(c.GuildID, "channel update")
	}
}

func (b *Bot) onChannelDelete(s *discordgo.Session, c *discordgo.ChannelDelete) {
	if channelAffectsConfig(c.Channel, nil) {
		b.rebuild(c.GuildID, "channel delete")
	}
}

// channelAffectsConfig reports whether a channel event touches a bot-managed channel,
// including renames away from one.
func channelAffectsConfig(current, before *discordgo.Channel) bool {
	if current == nil || current.GuildID == "" {
		return false
	}
	if guild.IsManagedChannel(current.Name) {
		return true
	}
	return before != nil && guild.IsManagedChannel(before.Name)
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if b.isRosterMessage(s, m.Message) {
		b.rebuild(m.GuildID, "roster message")
	}
}

func (b *Bot) onMessageUpdate(s *discordgo.Session, m *discordgo.MessageUpdate) {
	if b.isRosterMessage(s, m.Message) {
		b.rebuild(m.GuildID, "roster edit")
	}
}

func (b *Bot) isRosterMessage(s *discordgo.Session, m *discordgo.Message) bool {
	if m == nil || m.GuildID == "" {
		return false
	}

	if state, ok := b.cache.Get(m.GuildID); ok && state.RosterChannel != "" {
		return state.RosterChannel == m.ChannelID
	}

	// The guild may not be cached yet if the roster channel is new
	channel, err := s.State.Channel(m.ChannelID)
	if err != nil {
		return false
	}
	return channel.Name == guild.RosterChannelName
}

func (b *Bot) onRoleCreate(s *discordgo.Session, r *discordgo.GuildRoleCreate) {
	if r.Role != nil && guild.IsManagedRole(r.Role.Name) {
		b.rebuild(r.GuildID, "role create")
	}
}

func (b *Bot) onRoleUpdate(s *discordgo.Session, r *discordgo.GuildRoleUpdate) {
	// A rename can turn a managed role into an unmanaged one, so any update rebuilds
	if _, ok := b.cache.Get(r.GuildID); ok || (r.Role != nil && guild.IsManagedRole(r.Role.Name)) {
		b.rebuild(r.GuildID, "role update")
	}
}

func (b *Bot) onRoleDelete(s *discordgo.Session, r *discordgo.GuildRoleDelete) {
	state, ok := b.cache.Get(r.GuildID)
	if !ok {
		return
	}
	for _, role := range state.Roles {
		if role.RoleID == r.RoleID {
			b.rebuild(r.GuildID, "role delete")
			return
		}
	}
}
