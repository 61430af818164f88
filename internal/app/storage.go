package app

import (
	"context"
	"fmt"
	"time"

	"github.com/frozenbet/scoring-engine/internal/config"
	"github.com/frozenbet/scoring-engine/internal/domain/competition"
	"github.com/frozenbet/scoring-engine/internal/domain/group"
	"github.com/frozenbet/scoring-engine/internal/domain/invitation"
	"github.com/frozenbet/scoring-engine/internal/domain/jobdispatch"
	"github.com/frozenbet/scoring-engine/internal/domain/prediction"
	"github.com/frozenbet/scoring-engine/internal/domain/ranking"
	"github.com/frozenbet/scoring-engine/internal/domain/rule"
	"github.com/frozenbet/scoring-engine/internal/domain/user"
	cacherepo "github.com/frozenbet/scoring-engine/internal/infrastructure/repository/cache"
	"github.com/frozenbet/scoring-engine/internal/infrastructure/repository/memory"
	"github.com/frozenbet/scoring-engine/internal/infrastructure/repository/postgres"
	"github.com/frozenbet/scoring-engine/internal/platform/cache"
	"github.com/frozenbet/scoring-engine/internal/platform/logging"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

type repositories struct {
	users        user.Repository
	competitions competition.Repository
	groups       group.Repository
	rules        rule.Repository
	predictions  prediction.Repository
	rankings     ranking.Repository
	invitations  invitation.Repository
	dispatches   jobdispatch.Repository
	close        func() error
}

func newRepositories(ctx context.Context, cfg config.Config, readCache *cache.Store, logger *logging.Logger) (repositories, error) {
	var (
		repos repositories
		err   error
	)
	switch cfg.StorageDriver {
	case config.StorageMemory:
		repos = newMemoryRepositories()
		logger.Info("storage ready", "driver", config.StorageMemory)
	default:
		repos, err = newPostgresRepositories(ctx, cfg)
		if err != nil {
			return repositories{}, err
		}
		logger.Info("storage ready", "driver", config.StoragePostgres, "db_name", dbNameFromURL(cfg.DBURL))
	}

	if readCache != nil {
		repos.competitions = cacherepo.NewCompetitionRepository(repos.competitions, readCache)
	}
	return repos, nil
}

func newMemoryRepositories() repositories {
	store := memory.NewStore()
	memory.Seed(store)

	return repositories{
		users:        memory.NewUserRepository(store),
		competitions: memory.NewCompetitionRepository(store),
		groups:       memory.NewGroupRepository(store),
		rules:        memory.NewRuleRepository(store),
		predictions:  memory.NewPredictionRepository(store),
		rankings:     memory.NewRankingRepository(store),
		invitations:  memory.NewInvitationRepository(store),
		dispatches:   memory.NewJobDispatchRepository(store),
		close:        func() error { return nil },
	}
}

func newPostgresRepositories(ctx context.Context, cfg config.Config) (repositories, error) {
	db, err := openDB(ctx, cfg)
	if err != nil {
		return repositories{}, err
	}
	if err := postgres.BootstrapSeed(ctx, db); err != nil {
		_ = db.Close()
		return repositories{}, fmt.Errorf("bootstrap seed: %w", err)
	}

	return repositories{
		users:        postgres.NewUserRepository(db),
		competitions: postgres.NewCompetitionRepository(db),
		groups:       postgres.NewGroupRepository(db),
		rules:        postgres.NewRuleRepository(db),
		predictions:  postgres.NewPredictionRepository(db),
		rankings:     postgres.NewRankingRepository(db),
		invitations:  postgres.NewInvitationRepository(db),
		dispatches:   postgres.NewJobDispatchRepository(db),
		close:        db.Close,
	}, nil
}

func openDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	db, err := otelsqlx.Open(
		"postgres",
		normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
