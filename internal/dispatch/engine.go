package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/chat"
	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/guild"
	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/leaderboard"
	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/paceman"
	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/split"
)

// Surface is the part of the chat platform the engine writes to
type Surface interface {
	SendMessage(ctx context.Context, channelID, content string) (chat.MessageRef, error)
	EditMessage(ctx context.Context, ref chat.MessageRef, content string) (chat.MessageRef, error)
}

// Options tunes dispatch behavior
type Options struct {
	// PublicCompletionCapMinutes limits completions announced in unrostered guilds
	PublicCompletionCapMinutes int

	// CallTimeout bounds each outbound chat call
	CallTimeout time.Duration
}

// Engine turns classified records into guild notifications
type Engine struct {
	cache       *guild.Cache
	classifier  *split.Classifier
	surface     Surface
	leaderboard leaderboard.Merger
	opts        Options
}

// New creates a dispatch engine
func New(cache *guild.Cache, classifier *split.Classifier, surface Surface, merger leaderboard.Merger, opts Options) *Engine {
	if opts.PublicCompletionCapMinutes <= 0 {
		opts.PublicCompletionCapMinutes = 10
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 10 * time.Second
	}
	return &Engine{
		cache:       cache,
		classifier:  classifier,
		surface:     surface,
		leaderboard: merger,
		opts:        opts,
	}
}

// Handle runs one dispatch pass for a record across every cached guild. The pass holds
// the cache lock throughout and is not interrupted by cancellation of ctx.
func (e *Engine) Handle(ctx context.Context, rec *paceman.Record) {
	ev, ok := e.classifier.Classify(rec)
	if !ok {
		slog.Debug("No event for record", "runner", rec.RunnerDisplayName)
		return
	}

	slog.Debug("Dispatching event", "runner", rec.RunnerDisplayName, "event", ev.Type, "split", ev.Split)

	ctx = context.WithoutCancel(ctx)
	e.cache.ForEachMutable(func(guildID string, g *guild.State) {
		if err := e.dispatchGuild(ctx, g, rec, ev); err != nil {
			slog.Error("Failed to dispatch", "guildID", guildID, "runner", rec.RunnerDisplayName, "event", ev.Type, "error", err)
		}
	})
}

func (e *Engine) dispatchGuild(ctx context.Context, g *guild.State, rec *paceman.Record, ev split.Event) error {
	// Resets only resolve an earlier notification, so they never create a player
	if ev.Type == split.EventReset {
		player, ok := g.Players[rec.RunnerKey()]
		if !ok {
			return nil
		}
		return e.reset(ctx, player)
	}

	// Public guilds only want live runs
	if !g.RosterGated && !rec.Runner.IsLive() {
		return nil
	}

	player, ok := g.Player(rec.RunnerKey())
	if !ok {
		return nil
	}

	switch ev.Type {
	case split.EventCompletion:
		return e.complete(ctx, g, player, rec, ev)
	case split.EventCheckpoint:
		return e.checkpoint(ctx, g, player, rec, ev)
	default:
		return nil
	}
}

// reset marks the runner's outstanding notification and clears it whether or not the
// edit succeeds.
func (e *Engine) reset(ctx context.Context, player *guild.PlayerState) error {
	ref := player.LastNotification
	if ref == nil {
		return nil
	}
	player.LastNotification = nil

	callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()

	if _, err := e.surface.EditMessage(callCtx, *ref, markReset(ref.Content)); err != nil {
		return fmt.Errorf("failed to mark reset: %w", err)
	}
	return nil
}

func (e *Engine) complete(ctx context.Context, g *guild.State, player *guild.PlayerState, rec *paceman.Record, ev split.Event) error {
	minutes := ev.Milestone.Minutes()

	threshold := player.FinishMinutes
	if threshold == 0 {
		threshold = minutes + 1
	}
	if minutes >= threshold {
		return nil
	}
	if !g.RosterGated && minutes >= e.opts.PublicCompletionCapMinutes {
		return nil
	}

	player.LastNotification = nil

	var errs []error

	callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()
	if _, err := e.surface.SendMessage(callCtx, g.ProgressChannel, composeCompletion(rec, ev)); err != nil {
		errs = append(errs, fmt.Errorf("failed to send completion: %w", err))
	} else {
		slog.Info("Sent completion", "guildID", g.GuildID, "runner", rec.RunnerDisplayName, "time", paceman.FormatClock(ev.Milestone.InGameTimeMillis))
	}

	if g.RosterGated && g.LeaderboardChannel != "" && e.leaderboard != nil {
		lbCtx, lbCancel := context.WithTimeout(ctx, e.opts.CallTimeout)
		defer lbCancel()
		if err := e.leaderboard.Merge(lbCtx, g.LeaderboardChannel, rec.RunnerDisplayName, ev.Milestone.InGameTimeMillis); err != nil {
			errs = append(errs, fmt.Errorf("failed to merge leaderboard: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (e *Engine) checkpoint(ctx context.Context, g *guild.State, player *guild.PlayerState, rec *paceman.Record, ev split.Event) error {
	minutes, seconds := ev.Milestone.Minutes(), ev.Milestone.Seconds()

	roles := matchRoles(g, rec.RunnerKey(), player, ev.Split, minutes, seconds)
	if len(roles) == 0 {
		return nil
	}

	recordBest(g, player, ev.Split, minutes)

	callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()

	ref, err := e.surface.SendMessage(callCtx, g.ProgressChannel, composeCheckpoint(rec, ev, roles))
	if err != nil {
		return fmt.Errorf("failed to send checkpoint: %w", err)
	}
	player.LastNotification = &ref

	slog.Info("Sent checkpoint", "guildID", g.GuildID, "runner", rec.RunnerDisplayName, "split", ev.Split, "roles", len(roles))
	return nil
}

// matchRoles selects the roles to ping for a split reached at minutes:seconds
func matchRoles(g *guild.State, runnerKey string, player *guild.PlayerState, kind split.Kind, minutes, seconds int) []guild.RoleThreshold {
	var matched []guild.RoleThreshold
	for _, r := range g.Roles {
		if r.Split != kind {
			continue
		}

		switch {
		case r.RunnerKey != "":
			if r.RunnerKey == runnerKey && r.Beats(minutes, seconds) {
				matched = append(matched, r)
			}
		case r.PersonalBest:
			if !g.RosterGated {
				continue
			}
			if best, ok := player.SplitBests[kind]; ok && best > minutes {
				matched = append(matched, r)
			}
		default:
			if r.Beats(minutes, seconds) {
				matched = append(matched, r)
			}
		}
	}
	return matched
}

// recordBest lowers the runner's best for a split. Rostered runners only move an
// existing best; unrostered runners also gain one on first sighting.
func recordBest(g *guild.State, player *guild.PlayerState, kind split.Kind, minutes int) {
	best, ok := player.SplitBests[kind]
	switch {
	case ok && best > minutes:
		player.SplitBests[kind] = minutes
	case !ok && !g.RosterGated:
		player.SplitBests[kind] = minutes
	}
}
