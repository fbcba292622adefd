package components

import (
	"context"

	"mentorbook/internal/infra/events"
	"mentorbook/internal/infra/provider"
	"mentorbook/internal/infra/readstore"
	"mentorbook/internal/infra/repository"
	"mentorbook/internal/infra/settings"
	"mentorbook/internal/jobs"
	"mentorbook/internal/pkg/config"
	"mentorbook/internal/usecase/commands"
	"mentorbook/internal/usecase/queries"
	"mentorbook/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		fx.Annotate(
			repository.NewTemplateRepository,
			fx.As(new(commands.TemplateRepository)),
		),
		fx.Annotate(
			repository.NewSlotRepository,
			fx.As(new(commands.SlotRepository)),
		),
		fx.Annotate(
			repository.NewBookingRepository,
			fx.As(new(commands.BookingRepository)),
			fx.As(new(jobs.BookingFinder)),
		),
		fx.Annotate(
			repository.NewOrderRepository,
			fx.As(new(commands.OrderRepository)),
			fx.As(new(jobs.OrderFinder)),
		),
		fx.Annotate(
			repository.NewLedgerRepository,
			fx.As(new(commands.LedgerRepository)),
		),
		fx.Annotate(
			repository.NewRefundRequestRepository,
			fx.As(new(commands.RefundRequestRepository)),
		),
		fx.Annotate(
			repository.NewOfferingRepository,
			fx.As(new(commands.OfferingRepository)),
		),
		fx.Annotate(
			repository.NewVideoSessionRepository,
			fx.As(new(jobs.SessionRepository)),
		),
		fx.Annotate(
			repository.NewAuditLog,
			fx.As(new(shared.AuditLog)),
		),
		func(pool *pgxpool.Pool) *settings.Store { return settings.NewStore(pool) },
		func(s *settings.Store) shared.SettingsStore { return s },
		// Read-side stores for queries
		fx.Annotate(
			readstore.NewBookingReadStore,
			fx.As(new(queries.BookingViewRepo)),
		),
		fx.Annotate(
			readstore.NewLedgerReadStore,
			fx.As(new(queries.LedgerViewRepo)),
		),
		// concrete repos again for the read store, which shares them
		repository.NewTemplateRepository,
		repository.NewSlotRepository,
		fx.Annotate(
			readstore.NewAvailabilityReadStore,
			fx.As(new(queries.AvailabilityViewRepo)),
		),
		NewEventPublisher,
		NewPaymentProvider,
		NewVideoProvider,
	),
	fx.Invoke(StartSettingsRefresh),
)

// StartSettingsRefresh ties the settings snapshot loop to the app lifecycle.
func StartSettingsRefresh(lc fx.Lifecycle, s *settings.Store) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.Start(ctx)
			return nil
		},
		OnStop: func(_ context.Context) error {
			s.Stop()
			return nil
		},
	})
}

// NewEventPublisher picks Kafka when a broker is configured, a no-op
// otherwise.
func NewEventPublisher(cfg config.Config) shared.EventPublisher {
	if !cfg.Kafka.Enabled {
		return events.NopPublisher{}
	}
	return events.NewKafkaPublisher(cfg.Kafka)
}

func NewPaymentProvider() shared.PaymentProvider {
	return provider.UnconfiguredPayment{}
}

func NewVideoProvider() shared.VideoProvider {
	return provider.UnconfiguredVideo{}
}
