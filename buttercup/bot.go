package buttercup

import (
	"context"
	"net/http"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/log"
	"go.opentelemetry.io/otel/metric"

	"github.com/topi314/buttercup/blossom"
)

type Bot struct {
	Cfg        Config
	Version    string
	Logger     log.Logger
	HTTPClient *http.Client
	Meter      metric.Meter
	Client     bot.Client
	Blossom    *blossom.Client
	Users      Users
	Searcher   Searcher
	Heatmapper Heatmapper
	Searches   SearchCache
	DB         *DB

	CommandsCounter    metric.Int64Counter
	SearchPagesCounter metric.Int64Counter
}

func New(cfg Config, version string, logger log.Logger, meter metric.Meter, db *DB) *Bot {
	blossomClient := blossom.New(logger, cfg.Blossom.ClientConfig())
	users := Users{Blossom: blossomClient}

	var searches SearchCache
	if db != nil {
		searches = NewDBSearchCache(db, cfg.Search.CacheCapacity)
	} else {
		searches = NewMemorySearchCache(cfg.Search.CacheCapacity)
	}

	return &Bot{
		Cfg:        cfg,
		Version:    version,
		Logger:     logger,
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
		Meter:      meter,
		Blossom:    blossomClient,
		Users:      users,
		Searcher: Searcher{
			Blossom:         blossomClient,
			DiscordPageSize: cfg.Search.DiscordPageSize,
			RequestPageSize: cfg.Search.RequestPageSize,
		},
		Heatmapper: Heatmapper{
			Blossom: blossomClient,
			Users:   users,
		},
		Searches: searches,
		DB:       db,
	}
}

func (b *Bot) Setup() (err error) {
	b.Client, err = disgo.New(b.Cfg.Discord.Token,
		bot.WithLogger(b.Logger),
		bot.WithGatewayConfigOpts(gateway.WithIntents(
			gateway.IntentGuildMessageReactions,
			gateway.IntentDirectMessageReactions,
		)),
		bot.WithRestClientConfigOpts(rest.WithHTTPClient(b.HTTPClient)),
		// commands wait on Blossom, so they must not block the gateway
		bot.WithEventManagerConfigOpts(bot.WithAsyncEventsEnabled()),
		bot.WithEventListenerFunc(b.OnApplicationCommand),
		bot.WithEventListenerFunc(b.OnMessageReactionAdd),
	)
	return
}

func (b *Bot) RegisterCommands() {
	if b.Cfg.DevMode {
		for _, guildID := range b.Cfg.DevGuildIDs {
			if _, err := b.Client.Rest().SetGuildCommands(b.Client.ApplicationID(), guildID, Commands); err != nil {
				b.Logger.Errorf("failed to register commands for guild %s: %s", guildID, err)
			}
		}
		return
	}
	if _, err := b.Client.Rest().SetGlobalCommands(b.Client.ApplicationID(), Commands); err != nil {
		b.Logger.Errorf("failed to register global commands: %s", err)
	}
}

func (b *Bot) Start(ctx context.Context) error {
	return b.Client.OpenGateway(ctx)
}

func (b *Bot) Close(ctx context.Context) {
	if b.Client != nil {
		b.Client.Close(ctx)
	}
	if b.DB != nil {
		if err := b.DB.Close(); err != nil {
			b.Logger.Errorf("failed to close database: %s", err)
		}
	}
}
