package chat

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

// Discord implements Surface on top of a discordgo session
type Discord struct {
	session *discordgo.Session
	limiter *rate.Limiter
}

// NewDiscord creates a Discord surface limited to ratePerSec outbound requests
func NewDiscord(session *discordgo.Session, ratePerSec int) *Discord {
	if ratePerSec <= 0 {
		ratePerSec = 5
	}
	return &Discord{
		session: session,
		// Token bucket: burst = rate per sec, so short spikes don't block too hard.
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
	}
}

func (d *Discord) wait(ctx context.Context) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %v", ErrTransport, err)
	}
	return nil
}

// SendMessage posts content with role mentions enabled
func (d *Discord) SendMessage(ctx context.Context, channelID, content string) (MessageRef, error) {
	if err := d.wait(ctx); err != nil {
		return MessageRef{}, err
	}

	msg, err := d.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeRoles},
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return MessageRef{}, fmt.Errorf("%w: failed to send message: %v", ErrTransport, err)
	}

	return MessageRef{ChannelID: msg.ChannelID, MessageID: msg.ID, Content: msg.Content}, nil
}

// EditMessage replaces a message's content
func (d *Discord) EditMessage(ctx context.Context, ref MessageRef, content string) (MessageRef, error) {
	if err := d.wait(ctx); err != nil {
		return MessageRef{}, err
	}

	msg, err := d.session.ChannelMessageEdit(ref.ChannelID, ref.MessageID, content, discordgo.WithContext(ctx))
	if err != nil {
		return MessageRef{}, fmt.Errorf("%w: failed to edit message: %v", ErrTransport, err)
	}

	return MessageRef{ChannelID: msg.ChannelID, MessageID: msg.ID, Content: msg.Content}, nil
}

// LatestMessage returns the newest message in the channel
func (d *Discord) LatestMessage(ctx context.Context, channelID string) (MessageRef, bool, error) {
	return d.firstOf(ctx, channelID, "")
}

// OldestMessage returns the oldest message in the channel
func (d *Discord) OldestMessage(ctx context.Context, channelID string) (MessageRef, bool, error) {
	// Paging after snowflake 0 starts from the beginning of the channel
	return d.firstOf(ctx, channelID, "0")
}

func (d *Discord) firstOf(ctx context.Context, channelID, afterID string) (MessageRef, bool, error) {
	if err := d.wait(ctx); err != nil {
		return MessageRef{}, false, err
	}

	msgs, err := d.session.ChannelMessages(channelID, 1, "", afterID, "", discordgo.WithContext(ctx))
	if err != nil {
		return MessageRef{}, false, fmt.Errorf("%w: failed to fetch messages: %v", ErrTransport, err)
	}
	if len(msgs) == 0 {
		return MessageRef{}, false, nil
	}

	msg := msgs[0]
	return MessageRef{ChannelID: channelID, MessageID: msg.ID, Content: msg.Content}, true, nil
}

// GuildName prefers the gateway state cache and falls back to REST
func (d *Discord) GuildName(ctx context.Context, guildID string) (string, error) {
	if g, err := d.session.State.Guild(guildID); err == nil && g.Name != "" {
		return g.Name, nil
	}

	if err := d.wait(ctx); err != nil {
		return "", err
	}
	g, err := d.session.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("%w: failed to fetch guild: %v", ErrTransport, err)
	}
	return g.Name, nil
}

// ListChannels returns the guild's text channels
func (d *Discord) ListChannels(ctx context.Context, guildID string) ([]Channel, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}

	channels, err := d.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list channels: %v", ErrTransport, err)
	}

	result := make([]Channel, 0, len(channels))
	for _, c := range channels {
		if c.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		result = append(result, Channel{ID: c.ID, Name: c.Name})
	}
	return result, nil
}

// ListRoles returns the guild's roles
func (d *Discord) ListRoles(ctx context.Context, guildID string) ([]Role, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}

	roles, err := d.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list roles: %v", ErrTransport, err)
	}

	result := make([]Role, 0, len(roles))
	for _, r := range roles {
		result = append(result, Role{ID: r.ID, Name: r.Name})
	}
	return result, nil
}
