package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"

	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/chat"
	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/config"
	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/dispatch"
	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/feed"
	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/guild"
	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/leaderboard"
	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/split"
	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/storage"
)

// Bot represents the Discord bot instance
type Bot struct {
	config    *config.Config
	session   *discordgo.Session
	repo      *storage.Repository
	registry  *split.Registry
	mode      *split.Mode
	cache     *guild.Cache
	builder   *guild.Builder
	engine    *dispatch.Engine
	feed      *feed.Client
	relay     *relay
	scheduler *cron.Cron
	commands  []*discordgo.ApplicationCommand
}

// New creates a new Bot instance
func New(cfg *config.Config) (*Bot, error) {
	// Create Discord session
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	// Roster messages are read by content
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	registry := split.NewRegistry()
	mode, err := registry.Get(cfg.SplitMode)
	if err != nil {
		return nil, err
	}

	surface := chat.NewDiscord(session, cfg.ChatRatePerSecond)

	b := &Bot{
		config:   cfg,
		session:  session,
		registry: registry,
		mode:     mode,
		cache:    guild.NewCache(),
		builder:  guild.NewBuilder(surface, mode),
		feed:     feed.NewClient(cfg.FeedURL, cfg.FeedKey, time.Duration(cfg.FeedRetrySeconds)*time.Second),
	}

	var merger leaderboard.Merger
	switch cfg.LeaderboardBackend {
	case config.LeaderboardBackendSQLite:
		repo, err := storage.NewRepository(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		b.repo = repo
		merger = leaderboard.NewStoreMerger(repo, surface)
	default:
		merger = leaderboard.NewMessageMerger(surface)
	}

	b.engine = dispatch.New(b.cache, split.NewClassifier(mode), surface, merger, dispatch.Options{
		PublicCompletionCapMinutes: cfg.PublicCompletionCapMinutes,
	})
	b.relay = newRelay(b.feed, b.engine)

	if cfg.ResyncSchedule != "" {
		b.scheduler = cron.New()
		if _, err := b.scheduler.AddFunc(cfg.ResyncSchedule, b.resyncAll); err != nil {
			b.closeRepo()
			return nil, fmt.Errorf("invalid resync schedule %q: %w", cfg.ResyncSchedule, err)
		}
	}

	// Register event handlers
	b.registerHandlers()

	return b, nil
}

// Start opens the Discord connection and starts background tasks
func (b *Bot) Start(ctx context.Context) error {
	// Open Discord connection; guilds arrive as GuildCreate events
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	slog.Info("Connected to Discord", "user", b.session.State.User.Username, "splitMode", b.mode.Name)

	// Register slash commands
	if err := b.registerCommands(); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	// Start relaying the feed into the dispatcher
	b.relay.Start(ctx)

	if b.scheduler != nil {
		b.scheduler.Start()
		slog.Info("Resync scheduled", "schedule", b.config.ResyncSchedule)
	}

	return nil
}

// Stop gracefully shuts down the bot. An in-flight dispatch pass is allowed to finish.
func (b *Bot) Stop() error {
	if b.scheduler != nil {
		<-b.scheduler.Stop().Done()
	}

	// Closes the feed and waits for the current pass
	if b.relay != nil {
		b.relay.Stop()
	}

	b.closeRepo()

	// Close Discord session
	if b.session != nil {
		return b.session.Close()
	}

	return nil
}

func (b *Bot) closeRepo() {
	if b.repo == nil {
		return
	}
	if err := b.repo.Close(); err != nil {
		slog.Error("Failed to close storage", "error", err)
	}
}

// registerHandlers sets up Discord event handlers
func (b *Bot) registerHandlers() {
	b.session.AddHandler(b.handleInteraction)
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("Bot is ready", "guilds", len(r.Guilds))
	})

	b.session.AddHandler(b.onGuildCreate)
	b.session.AddHandler(b.onGuildDelete)
	b.session.AddHandler(b.onChannelCreate)
	b.session.AddHandler(b.onChannelUpdate)
	b.session.AddHandler(b.onChannelDelete)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onMessageUpdate)
	b.session.AddHandler(b.onRoleCreate)
	b.session.AddHandler(b.onRoleUpdate)
	b.session.AddHandler(b.onRoleDelete)
}

// handleInteraction processes slash command interactions
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	slog.Debug("Received command", "command", data.Name, "guild", i.GuildID)

	switch data.Name {
	case "pacestatus":
		b.handleStatus(s, i)
	case "splitmodes":
		b.handleSplitModes(s, i)
	default:
		slog.Warn("Unknown command", "command", data.Name)
	}
}
