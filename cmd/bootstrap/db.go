package bootstrap

import (
	"context"

	"mentorbook/internal/infra/db"
	"mentorbook/internal/pkg/config"
	"mentorbook/internal/usecase/shared"
	"mentorbook/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var DBModule = fx.Module("db",
	fx.Provide(
		NewDB,
		func(pool *pgxpool.Pool) shared.DB { return pool },
	),
	fx.Invoke(Migrate),
)

func NewDB(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	pool, cleanup, err := db.Connect(context.Background(), cfg.DB)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			if cleanup != nil {
				cleanup()
			}
			return nil
		},
	})

	return pool, nil
}

func Migrate(lc fx.Lifecycle, pool *pgxpool.Pool) error {
	migrator, err := db.NewMigrator(pool, migrations.Files)
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			defer migrator.Close()
			return migrator.Up(ctx)
		},
	})
	return nil
}
