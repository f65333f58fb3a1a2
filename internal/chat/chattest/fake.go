// Package chattest provides an in-memory chat.Surface for tests.
package chattest

import (
	"context"
	"fmt"
	"sync"

	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/chat"
)

// Edit records one EditMessage call
type Edit struct {
	Ref     chat.MessageRef
	Content string
}

// Fake is an in-memory chat surface. Messages are kept per channel in send order.
type Fake struct {
	mu sync.Mutex

	Names    map[string]string
	Channels map[string][]chat.Channel
	Roles    map[string][]chat.Role
	Messages map[string][]chat.MessageRef

	Sent  []chat.MessageRef
	Edits []Edit

	// FailSend and FailEdit make the respective calls return a transport error
	FailSend bool
	FailEdit bool

	nextID int
}

// New creates an empty fake surface
func New() *Fake {
	return &Fake{
		Names:    make(map[string]string),
		Channels: make(map[string][]chat.Channel),
		Roles:    make(map[string][]chat.Role),
		Messages: make(map[string][]chat.MessageRef),
	}
}

// AddChannel registers a channel in a guild
func (f *Fake) AddChannel(guildID, channelID, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Channels[guildID] = append(f.Channels[guildID], chat.Channel{ID: channelID, Name: name})
}

// AddRole registers a role in a guild
func (f *Fake) AddRole(guildID, roleID, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Roles[guildID] = append(f.Roles[guildID], chat.Role{ID: roleID, Name: name})
}

// Post appends a message to a channel without recording it as sent
func (f *Fake) Post(channelID, content string) chat.MessageRef {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appendLocked(channelID, content)
}

func (f *Fake) appendLocked(channelID, content string) chat.MessageRef {
	f.nextID++
	ref := chat.MessageRef{ChannelID: channelID, MessageID: fmt.Sprintf("m%d", f.nextID), Content: content}
	f.Messages[channelID] = append(f.Messages[channelID], ref)
	return ref
}

// Content returns the current content of a message
func (f *Fake) Content(ref chat.MessageRef) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.Messages[ref.ChannelID] {
		if m.MessageID == ref.MessageID {
			return m.Content
		}
	}
	return ""
}

// SentTo returns the messages sent to a channel
func (f *Fake) SentTo(channelID string) []chat.MessageRef {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []chat.MessageRef
	for _, m := range f.Sent {
		if m.ChannelID == channelID {
			out = append(out, m)
		}
	}
	return out
}

func (f *Fake) SendMessage(_ context.Context, channelID, content string) (chat.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailSend {
		return chat.MessageRef{}, fmt.Errorf("%w: send disabled", chat.ErrTransport)
	}
	ref := f.appendLocked(channelID, content)
	f.Sent = append(f.Sent, ref)
	return ref, nil
}

func (f *Fake) EditMessage(_ context.Context, ref chat.MessageRef, content string) (chat.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailEdit {
		return chat.MessageRef{}, fmt.Errorf("%w: edit disabled", chat.ErrTransport)
	}
	msgs := f.Messages[ref.ChannelID]
	for i := range msgs {
		if msgs[i].MessageID == ref.MessageID {
			msgs[i].Content = content
			f.Edits = append(f.Edits, Edit{Ref: ref, Content: content})
			return msgs[i], nil
		}
	}
	return chat.MessageRef{}, fmt.Errorf("%w: unknown message %s", chat.ErrTransport, ref.MessageID)
}

func (f *Fake) LatestMessage(_ context.Context, channelID string) (chat.MessageRef, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.Messages[channelID]
	if len(msgs) == 0 {
		return chat.MessageRef{}, false, nil
	}
	return msgs[len(msgs)-1], true, nil
}

func (f *Fake) OldestMessage(_ context.Context, channelID string) (chat.MessageRef, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.Messages[channelID]
	if len(msgs) == 0 {
		return chat.MessageRef{}, false, nil
	}
	return msgs[0], true, nil
}

func (f *Fake) GuildName(_ context.Context, guildID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name, ok := f.Names[guildID]; ok {
		return name, nil
	}
	return guildID, nil
}

func (f *Fake) ListChannels(_ context.Context, guildID string) ([]chat.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chat.Channel(nil), f.Channels[guildID]...), nil
}

func (f *Fake) ListRoles(_ context.Context, guildID string) ([]chat.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chat.Role(nil), f.Roles[guildID]...), nil
}

var _ chat.Surface = (*Fake)(nil)
