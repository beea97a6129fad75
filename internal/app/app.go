package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/phenrril/rodada/internal/adapters/httpserver"
	"github.com/phenrril/rodada/internal/adapters/notify"
	"github.com/phenrril/rodada/internal/adapters/relay/sheets"
	"github.com/phenrril/rodada/internal/adapters/repo/memory"
	"github.com/phenrril/rodada/internal/adapters/repo/postgres"
	"github.com/phenrril/rodada/internal/auth"
	"github.com/phenrril/rodada/internal/config"
	"github.com/phenrril/rodada/internal/domain"
	"github.com/phenrril/rodada/internal/ledger"
	"github.com/phenrril/rodada/internal/metrics"
	"github.com/phenrril/rodada/internal/usecase"
)

type App struct {
	Config  config.Config
	DB      *gorm.DB
	Redis   *redis.Client
	Store   domain.Store
	Feed    domain.ChangeFeed
	Metrics *metrics.Metrics
	Tokens  *auth.Tokens

	CompanyUC     *usecase.CompanyUC
	NegotiationUC *usecase.NegotiationUC
	ReportUC      *usecase.ReportUC
	SettingsUC    *usecase.SettingsUC
}

// NewApp opens the configured store and feed and wires the use cases.
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{Config: cfg, Metrics: metrics.New()}

	switch cfg.Store {
	case "memory":
		a.Store = memory.NewStore()
		log.Warn().Msg("using in-memory store; data is lost on restart")
	default:
		gl := logger.Default.LogMode(logger.Warn)
		if cfg.Production() {
			gl = logger.Default.LogMode(logger.Error)
		}
		db, err := gorm.Open(pgdriver.Open(cfg.DSN), &gorm.Config{TranslateError: true, Logger: gl})
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		a.DB = db
		a.Store = postgres.NewStore(db)
	}

	if cfg.RedisURL != "" {
		client, err := notify.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.Redis = client
		a.Feed = notify.NewRedisFeed(client, cfg.RedisChannel)
	} else {
		a.Feed = notify.NewHub()
	}

	a.Tokens = auth.NewTokens(cfg.JWTSecret, cfg.SessionTTL)

	a.CompanyUC = &usecase.CompanyUC{Store: a.Store, Feed: a.Feed, Metrics: a.Metrics}
	a.NegotiationUC = &usecase.NegotiationUC{
		Store:   a.Store,
		Engine:  ledger.New(),
		Relay:   sheets.NewClient(cfg.RelaySecret, cfg.EventTimezone),
		Feed:    a.Feed,
		Metrics: a.Metrics,
	}
	a.ReportUC = &usecase.ReportUC{Store: a.Store, Location: cfg.EventTimezone}
	a.SettingsUC = &usecase.SettingsUC{Store: a.Store, Feed: a.Feed}
	return a, nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(httpserver.Deps{
		Companies:    a.CompanyUC,
		Negotiations: a.NegotiationUC,
		Reports:      a.ReportUC,
		Settings:     a.SettingsUC,
		Tokens:       a.Tokens,
		Feed:         a.Feed,
		Metrics:      a.Metrics,
		AdminUser:    a.Config.AdminUser,
		AdminPass:    a.Config.AdminPass,
		SessionTTL:   a.Config.SessionTTL,
	})
}

// MigrateAndSeed creates the schema when backed by postgres and makes sure the
// settings row exists with its defaults.
func (a *App) MigrateAndSeed(ctx context.Context) error {
	if a.DB != nil {
		if err := postgres.Migrate(a.DB.WithContext(ctx)); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	st, err := a.Store.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("load initial settings: %w", err)
	}
	log.Info().
		Bool("allow_buyers", st.AllowBuyers).
		Bool("allow_sellers", st.AllowSellers).
		Bool("allow_negotiations", st.AllowNegotiations).
		Bool("relay", st.RelayURL != "").
		Msg("settings loaded")
	return nil
}

// Close waits for in-flight relay deliveries and releases connections.
func (a *App) Close() error {
	if a.NegotiationUC != nil {
		a.NegotiationUC.Wait()
	}
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
