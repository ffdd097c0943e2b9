package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	dispatchx "github.com/retailrockit/leadbot/bot/dispatch"
	flowx "github.com/retailrockit/leadbot/bot/flow"
	statex "github.com/retailrockit/leadbot/bot/state"
	leadsx "github.com/retailrockit/leadbot/leads"
	ledgerx "github.com/retailrockit/leadbot/ledger"
	configx "github.com/retailrockit/leadbot/pkg/config"
	_ "github.com/retailrockit/leadbot/pkg/logger/autoload"
	whatsappx "github.com/retailrockit/leadbot/pkg/whatsapp"
	quotex "github.com/retailrockit/leadbot/quote"
	webhookx "github.com/retailrockit/leadbot/webhook"
)

type AppConfig struct {
	// StateBackend selects the session store: memory, redis, or sqlite.
	StateBackend string `envconfig:"STATE_BACKEND" split_words:"true" default:"memory"`

	// LeadStoreEnabled turns on the Postgres lead record store.
	LeadStoreEnabled bool `envconfig:"LEAD_STORE_ENABLED" split_words:"true" default:"false"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("")

	store := newSessionStore(appCfg.StateBackend)

	messenger := whatsappx.MustNew(*configx.MustNew[whatsappx.Config]("WHATSAPP"))

	ledgerClient := ledgerx.MustNewClient(*configx.MustNew[ledgerx.Config]("LEDGER"))

	calculator, err := quotex.NewCalculator(ledgerClient, *configx.MustNew[quotex.Config]("QUOTE"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build quote calculator")
	}

	var leadStore leadsx.Store = leadsx.Noop{}
	if appCfg.LeadStoreEnabled {
		bunStore, err := leadsx.NewBunStore(ctx, *configx.MustNew[leadsx.Config]("LEADS"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect lead store")
		}
		defer bunStore.Close()
		leadStore = bunStore
	}

	dispatcher, err := dispatchx.New(*configx.MustNew[dispatchx.Config]("AGENT"), messenger, leadStore)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build dispatcher")
	}

	engine, err := flowx.New(*configx.MustNew[flowx.Config]("FLOW"), store, messenger, calculator, dispatcher)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build flow engine")
	}

	webhookCfg := configx.MustNew[webhookx.Config]("WEBHOOK")
	handler, err := webhookx.NewHandler(*webhookCfg, engine)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build webhook handler")
	}

	if err := webhookx.Serve(ctx, *webhookCfg, handler); err != nil {
		log.Fatal().Err(err).Msg("webhook server failed")
	}
	log.Info().Msg("shutdown complete")
}

func newSessionStore(backend string) statex.Store {
	switch backend {
	case "", "memory":
		return statex.NewMemoryStore()
	case "redis":
		store, err := statex.NewUpstashRedisStore(*configx.MustNew[statex.UpstashRedisConfig]("REDIS"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build redis session store")
		}
		return store
	case "sqlite":
		store, err := statex.NewSQLiteStore(*configx.MustNew[statex.SQLiteConfig]("SQLITE"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build sqlite session store")
		}
		return store
	default:
		log.Fatal().Str("backend", backend).Msg("unknown state backend")
		return nil
	}
}
