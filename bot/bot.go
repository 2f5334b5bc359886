package bot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"PortalUtils/paginator"

	"github.com/bwmarrin/discordgo"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

type Bot struct {
	Db         *sql.DB
	Driver     string
	Client     *discordgo.Session
	Config     Config
	Theme      Theme
	Log        zerolog.Logger
	Pages      *paginator.Manager
	Translator Translator

	stopSweep context.CancelFunc
}

// NewLogger builds the console logger bots log through.
func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).With().Timestamp().Logger()
}

// NewBot creates the Discord session and loads translations. Nothing connects
// until Open.
func NewBot(cfg Config, log zerolog.Logger) (*Bot, error) {
	client, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, err
	}
	client.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent
	if cfg.MembersIntent {
		client.Identify.Intents |= discordgo.IntentsGuildMembers
	}
	if cfg.ShardCount > 1 {
		client.ShardID = cfg.ShardID
		client.ShardCount = cfg.ShardCount
	}

	b := &Bot{
		Client: client,
		Config: cfg,
		Theme:  NewTheme(cfg.Color),
		Log:    log,
		Pages:  paginator.NewManager(log.With().Str("component", "paginator").Logger(), paginator.DefaultTimeout),
	}

	if cfg.LocalesDir != "" {
		catalog, err := LoadCatalog(cfg.LocalesDir)
		if err != nil {
			return nil, fmt.Errorf("loading translations: %w", err)
		}
		b.Translator = catalog
	}

	client.AddHandler(b.Pages.HandleInteraction)
	return b, nil
}

// OpenDatabase connects to postgres when a URL is configured, otherwise to the
// sqlite file if it exists. Having neither is not an error.
func (b *Bot) OpenDatabase() error {
	if b.Db != nil {
		return nil
	}

	var driver, dsn string
	switch {
	case b.Config.DatabaseURL != "":
		driver, dsn = DriverPostgres, b.Config.DatabaseURL
	case b.Config.SQLitePath != "":
		if _, err := os.Stat(b.Config.SQLitePath); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		driver, dsn = DriverSQLite, b.Config.SQLitePath+"?_foreign_keys=on"
	default:
		return nil
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping db: %w", err)
	}
	b.Db, b.Driver = db, driver
	b.Log.Info().Str("driver", driver).Msg("Database connected")
	return nil
}

// Open connects the database and the gateway, and starts expiring idle
// paginators.
func (b *Bot) Open() error {
	if err := b.OpenDatabase(); err != nil {
		return err
	}
	if err := b.Client.Open(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.stopSweep = cancel
	go b.Pages.Run(ctx, time.Minute)
	return nil
}

// Close stops the paginator sweep and closes the session and the database.
func (b *Bot) Close() error {
	if b.stopSweep != nil {
		b.stopSweep()
	}
	err := b.Client.Close()
	if b.Db != nil {
		err = errors.Join(err, b.Db.Close())
	}
	return err
}

// Embed applies the bot theme to e.
func (b *Bot) Embed(e *discordgo.MessageEmbed) *discordgo.MessageEmbed {
	return b.Theme.Embed(e)
}

// ErrorEmbed applies the bot theme to e with the error colour.
func (b *Bot) ErrorEmbed(e *discordgo.MessageEmbed) *discordgo.MessageEmbed {
	return b.Theme.ErrorEmbed(e)
}

// NewEmbedPaginator returns a paginator whose pages are themed embeds.
func (b *Bot) NewEmbedPaginator(opts ...paginator.Option) *paginator.Paginator {
	return paginator.New(append([]paginator.Option{paginator.WithEmbed(b.Theme.Describe)}, opts...)...)
}

// SendPaginator sends p to a channel and registers it for navigation.
func (b *Bot) SendPaginator(ctx context.Context, p *paginator.Paginator, channelID string) (paginator.Message, error) {
	return b.Pages.Send(ctx, p, paginator.ChannelDestination{Session: b.Client, ChannelID: channelID})
}
