package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/octobees/leadscan/internal/alert"
	"github.com/octobees/leadscan/internal/auth"
	"github.com/octobees/leadscan/internal/config"
	"github.com/octobees/leadscan/internal/database"
	"github.com/octobees/leadscan/internal/enrichment"
	"github.com/octobees/leadscan/internal/handler"
	"github.com/octobees/leadscan/internal/repository"
	"github.com/octobees/leadscan/internal/service"
	"github.com/octobees/leadscan/internal/service/scoring"
	"github.com/octobees/leadscan/internal/service/validate"
)

// appEnv holds everything the commands share.
type appEnv struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client

	Businesses *repository.PGXBusinessesRepository
	Alerts     *repository.PGXAlertsRepository
	Users      *repository.PGXUsersRepository

	JWT        *auth.JWTManager
	Processor  *service.Processor
	Leads      *service.LeadsService
	Enrichment *service.EnrichmentService
	Auth       *service.AuthService
	UserAdmin  *service.UserService
	Dispatcher *alert.Dispatcher
}

func initApp(ctx context.Context) (*appEnv, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := database.Connect(connectCtx, cfg.DatabaseURL, database.WithMaxConns(cfg.DatabaseMaxConns))
	if err != nil {
		return nil, eris.Wrap(err, "connect database")
	}

	env := &appEnv{
		Pool:       pool,
		Businesses: repository.NewPGXBusinessesRepository(pool),
		Alerts:     repository.NewPGXAlertsRepository(pool),
		Users:      repository.NewPGXUsersRepository(pool),
		JWT:        auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TTL),
	}

	proberOpts := []validate.ProberOption{validate.WithTimeout(cfg.Pipeline.ProbeTimeout)}
	if rdb := connectRedis(ctx, cfg.Redis); rdb != nil {
		env.Redis = rdb
		proberOpts = append(proberOpts, validate.WithCache(validate.NewRedisCache(rdb), cfg.Redis.DomainCacheTTL))
	}

	env.Processor = service.NewProcessor(env.Businesses, env.Alerts,
		service.WithDomainChecker(validate.NewDomainProber(proberOpts...)),
		service.WithScorer(scoring.NewScorer(scoring.IndustryTable{
			Relevant:  cfg.Scoring.Relevant,
			HighValue: cfg.Scoring.HighValue,
		})),
		service.WithNameSimilarity(cfg.Pipeline.NameSimilarity),
		service.WithPhoneRegion(cfg.Pipeline.PhoneRegion),
	)
	env.Leads = service.NewLeadsService(env.Businesses, env.Processor)
	env.Enrichment = service.NewEnrichmentService(env.Businesses, env.Alerts, env.Processor, enrichmentClients(ctx, cfg), cfg.Pipeline.EnrichDelay)
	env.Auth = service.NewAuthService(env.Users, env.JWT)
	env.UserAdmin = service.NewUserService(env.Users)

	if sender := alertSender(cfg); sender.Len() > 0 {
		env.Dispatcher = alert.NewDispatcher(env.Alerts, env.Businesses, sender, cfg.Pipeline.PhoneRegion)
	}

	return env, nil
}

// Close releases the database pool and the redis client.
func (e *appEnv) Close() {
	if e.Redis != nil {
		if err := e.Redis.Close(); err != nil {
			zap.L().Warn("close redis", zap.Error(err))
		}
	}
	e.Pool.Close()
}

// HealthChecks lists the dependencies /healthz probes.
func (e *appEnv) HealthChecks() map[string]handler.HealthCheck {
	checks := map[string]handler.HealthCheck{"database": e.Pool.Ping}
	if e.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return e.Redis.Ping(ctx).Err() }
	}
	return checks
}

// connectRedis returns nil when redis is not configured or unreachable; the
// domain probe then runs uncached.
func connectRedis(ctx context.Context, rc config.RedisConfig) *redis.Client {
	if rc.URL == "" {
		return nil
	}
	opts, err := redis.ParseURL(rc.URL)
	if err != nil {
		zap.L().Warn("invalid redis url, domain cache disabled", zap.Error(err))
		return nil
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		zap.L().Warn("redis unreachable, domain cache disabled", zap.Error(err))
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// enrichmentClients registers a provider only when its credentials are set.
func enrichmentClients(ctx context.Context, c *config.Config) []enrichment.Client {
	var clients []enrichment.Client

	if c.Hunter.APIKey != "" {
		clients = append(clients, enrichment.NewHunter(c.Hunter.APIKey, enrichment.WithBaseURL(c.Hunter.BaseURL)))
	}
	if c.Places.APIKey != "" {
		var opts []option.ClientOption
		if c.Places.BaseURL != "" {
			opts = append(opts, option.WithEndpoint(c.Places.BaseURL))
		}
		places, err := enrichment.NewPlaces(ctx, c.Places.APIKey, opts...)
		if err != nil {
			zap.L().Warn("places client disabled", zap.Error(err))
		} else {
			clients = append(clients, places)
		}
	}
	if c.Clearbit.APIKey != "" {
		clients = append(clients, enrichment.NewClearbit(c.Clearbit.APIKey, enrichment.WithBaseURL(c.Clearbit.BaseURL)))
	}
	if c.Apollo.APIKey != "" {
		clients = append(clients, enrichment.NewApollo(c.Apollo.APIKey, enrichment.WithBaseURL(c.Apollo.BaseURL)))
	}
	if c.Worker.BaseURL != "" {
		worker, err := enrichment.NewWorkerClient(ctx, nil, c.Worker.BaseURL, c.Worker.Audience)
		if err != nil {
			zap.L().Warn("crawl worker disabled", zap.Error(err))
		} else {
			clients = append(clients, enrichment.NewLinkedInWorker(worker))
		}
	}

	names := make([]string, 0, len(clients))
	for _, cl := range clients {
		names = append(names, cl.Name())
	}
	zap.L().Info("enrichment providers", zap.Strings("enabled", names))
	return clients
}

// alertSender builds every channel that has credentials.
func alertSender(c *config.Config) *alert.MultiSender {
	var senders []alert.Sender
	if c.Telegram.BotToken != "" {
		tg, err := alert.NewTelegramSender(c.Telegram.BotToken, c.Telegram.ChatID, alert.WithTelegramBaseURL(c.Telegram.BaseURL))
		if err != nil {
			zap.L().Warn("telegram alerts disabled", zap.Error(err))
		} else {
			senders = append(senders, tg)
		}
	}
	if c.SMTP.Host != "" {
		mail, err := alert.NewSMTPSender(alert.SMTPConfig{
			Host:     c.SMTP.Host,
			Port:     c.SMTP.Port,
			Username: c.SMTP.Username,
			Password: c.SMTP.Password,
			From:     c.SMTP.From,
			To:       c.SMTP.To,
		})
		if err != nil {
			zap.L().Warn("smtp alerts disabled", zap.Error(err))
		} else {
			senders = append(senders, mail)
		}
	}
	return alert.NewMultiSender(senders...)
}
