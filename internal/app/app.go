package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/frozenbet/scoring-engine/internal/config"
	domainlivescore "github.com/frozenbet/scoring-engine/internal/domain/livescore"
	"github.com/frozenbet/scoring-engine/internal/domain/scoring"
	"github.com/frozenbet/scoring-engine/internal/infrastructure/jobqueue"
	"github.com/frozenbet/scoring-engine/internal/infrastructure/livescore"
	"github.com/frozenbet/scoring-engine/internal/interfaces/httpapi"
	"github.com/frozenbet/scoring-engine/internal/platform/auth"
	"github.com/frozenbet/scoring-engine/internal/platform/cache"
	idgen "github.com/frozenbet/scoring-engine/internal/platform/id"
	"github.com/frozenbet/scoring-engine/internal/platform/logging"
	"github.com/frozenbet/scoring-engine/internal/platform/resilience"
	"github.com/frozenbet/scoring-engine/internal/usecase"
)

// NewHTTPServer wires storage, services and the router. The returned cleanup stops background
// workers and closes storage; call it after the server has shut down.
func NewHTTPServer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*http.Server, func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	var readCache *cache.Store
	if cfg.CacheEnabled {
		readCache = cache.NewStore(cfg.CacheTTL)
	}

	repos, err := newRepositories(ctx, cfg, readCache, logger)
	if err != nil {
		return nil, nil, err
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	cleanup := func() error {
		stopBackground()
		return repos.close()
	}

	hub := livescore.NewHub(logger)
	var publisher domainlivescore.Publisher = hub
	if cfg.LiveScoresRedisURL != "" {
		client, err := livescore.NewRedisClient(ctx, cfg.LiveScoresRedisURL)
		if err != nil {
			_ = cleanup()
			return nil, nil, fmt.Errorf("connect live score relay: %w", err)
		}
		relay := livescore.NewRedisRelay(client, cfg.LiveScoresChannel, hub, logger)
		publisher = relay
		go func() {
			if err := relay.Run(bgCtx); err != nil {
				logger.Error("live score relay stopped", "error", err)
			}
		}()
		prev := cleanup
		cleanup = func() error {
			return errors.Join(prev(), client.Close())
		}
	}

	drawPolicy, err := scoring.ParseDrawPolicy(cfg.ScoringDrawPolicy)
	if err != nil {
		_ = cleanup()
		return nil, nil, err
	}
	tokens, err := auth.NewTokenIssuer(cfg.AuthJWTSecret, cfg.AuthJWTIssuer, cfg.AuthTokenTTL)
	if err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("build token issuer: %w", err)
	}

	ids := idgen.NewXIDGenerator()
	secrets := idgen.NewRandomGenerator()
	// Statistics are cached per group even when repository read caching is off.
	statsCache := readCache
	if statsCache == nil {
		statsCache = cache.NewStore(cfg.CacheTTL)
	}

	authSvc := usecase.NewAuthService(repos.users, auth.NewPasswordHasher(cfg.AuthBcryptCost), tokens, ids)
	statsSvc := usecase.NewStatisticsService(repos.groups, repos.predictions, repos.rankings, repos.users, repos.competitions, statsCache, cfg.StatsRecentActivityLimit)
	rankingSvc := usecase.NewRankingService(repos.groups, repos.predictions, repos.rankings, repos.users, statsSvc)
	ruleSvc := usecase.NewRuleService(repos.groups, repos.rules, ids, usecase.RuleConfig{
		PointsMin: cfg.RulePointsMin,
		PointsMax: cfg.RulePointsMax,
	})
	predictionSvc := usecase.NewPredictionService(repos.groups, repos.competitions, repos.predictions, ids, statsSvc)
	scoringSvc := usecase.NewScoringService(repos.competitions, repos.predictions, repos.rules, rankingSvc, usecase.ScoringConfig{
		DrawPolicy: drawPolicy,
		Workers:    cfg.ScoringWorkers,
	}, logger)
	groupSvc := usecase.NewGroupService(repos.groups, repos.rules, repos.rankings, repos.users, repos.competitions, rankingSvc, ids, logger)
	invitationSvc := usecase.NewInvitationService(repos.groups, repos.invitations, repos.users, groupSvc, secrets, ids, cfg.InvitationTTL)
	competitionSvc := usecase.NewCompetitionService(repos.competitions)
	jobSvc := usecase.NewJobService(scoringSvc, rankingSvc, repos.groups, newJobQueue(cfg, logger), repos.dispatches, logger)
	matchSvc := usecase.NewMatchService(competitionSvc, repos.competitions, publisher, jobSvc, logger)

	handler := httpapi.NewHandler(httpapi.Services{
		Auth:          authSvc,
		Competitions:  competitionSvc,
		Matches:       matchSvc,
		Groups:        groupSvc,
		Rules:         ruleSvc,
		Predictions:   predictionSvc,
		Rankings:      rankingSvc,
		Invitations:   invitationSvc,
		Notifications: usecase.NewNotificationService(invitationSvc),
		Statistics:    statsSvc,
		Jobs:          jobSvc,
	}, hub, httpapi.SessionCookieConfig{Secure: cfg.AuthCookieSecure}, logger)
	handler.SetLiveScoreHeartbeat(cfg.LiveScoresHeartbeat)

	router := httpapi.NewRouter(handler, authSvc, logger, httpapi.RouterConfig{
		SwaggerEnabled:     cfg.AppEnv != config.EnvProd,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return server, cleanup, nil
}

// newJobQueue returns nil when QStash is disabled so jobs run inline.
func newJobQueue(cfg config.Config, logger *logging.Logger) usecase.JobQueue {
	if !cfg.QStashEnabled {
		logger.Info("job queue disabled", "reason", "QSTASH_ENABLED=false")
		return nil
	}

	return jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
		BaseURL:          cfg.QStashBaseURL,
		Token:            cfg.QStashToken,
		TargetBaseURL:    cfg.QStashTargetBaseURL,
		Retries:          cfg.QStashRetries,
		InternalJobToken: cfg.InternalJobToken,
		Timeout:          cfg.QStashTimeout,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.QStashCircuitEnabled,
			FailureThreshold: cfg.QStashCircuitFailureCount,
			OpenTimeout:      cfg.QStashCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.QStashCircuitHalfOpenMaxReq,
		},
	}, logger)
}
