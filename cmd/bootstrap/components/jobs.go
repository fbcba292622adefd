package components

import (
	"context"

	"mentorbook/internal/jobs"
	"mentorbook/internal/pkg/clock"
	"mentorbook/internal/pkg/config"
	"mentorbook/internal/usecase/commands"
	"mentorbook/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var JobsModule = fx.Module("jobs",
	fx.Provide(
		NewJobs,
		NewScheduler,
	),
	fx.Invoke(StartScheduler),
)

type jobDeps struct {
	fx.In

	Cfg           config.Config
	OrderFinder   jobs.OrderFinder
	BookingFinder jobs.BookingFinder
	OrderRepo     commands.OrderRepository
	BookingRepo   commands.BookingRepository
	SlotRepo      commands.SlotRepository
	LedgerRepo    commands.LedgerRepository
	SessionRepo   jobs.SessionRepository
	Payments      commands.PaymentCommands
	Provider      shared.PaymentProvider
	Rooms         shared.VideoProvider
	Settings      shared.SettingsStore
	Publisher     shared.EventPublisher
	Pool          *pgxpool.Pool
	Clock         clock.Clock
}

func NewJobs(d jobDeps) []jobs.Job {
	jc, vc, bc := d.Cfg.Jobs, d.Cfg.Video, d.Cfg.Billing
	return []jobs.Job{
		jobs.NewExpireOrdersJob(
			d.OrderFinder, d.OrderRepo, d.BookingRepo, d.SlotRepo,
			d.Settings, d.Publisher, d.Pool, d.Clock,
			jc.ExpireOrdersInterval, jc.OrderExpiry,
		),
		jobs.NewExpireBookingsJob(
			d.BookingFinder, d.BookingRepo, d.OrderRepo, d.SlotRepo,
			d.Publisher, d.Pool, d.Clock,
			jc.ExpireBookingsInterval, jc.BookingExpiry,
		),
		jobs.NewReconcilePaymentsJob(
			d.OrderFinder, d.Payments, d.Provider,
			d.Pool, d.Clock,
			jc.ReconciliationInterval, jc.ReconciliationMinAge,
			jc.ReconciliationMaxAge, jc.ProviderTimeout,
		),
		jobs.NewDetectNoShowJob(
			d.BookingFinder, d.BookingRepo, d.SessionRepo,
			d.Publisher, d.Pool, d.Clock,
			jc.NoShowInterval, vc.NoShowGrace,
		),
		jobs.NewEnforceSessionEndJob(
			d.SessionRepo, d.BookingRepo, d.Rooms,
			d.Publisher, d.Pool, d.Clock,
			jc.SessionEndInterval, vc.SessionEndGrace,
			jc.DevModeBypassSessionEnd,
		),
		jobs.NewCleanupStaleSessionsJob(
			d.SessionRepo, d.Rooms, d.Pool, d.Clock,
			jc.StaleSessionInterval, vc.StaleSessionAge,
		),
		jobs.NewPayoutJob(
			d.OrderFinder, d.LedgerRepo, d.Settings,
			d.Publisher, d.Pool, d.Clock,
			jc.PayoutInterval, bc.BookingHoldback, bc.CourseHoldback,
		),
	}
}

func NewScheduler(js []jobs.Job) *jobs.Scheduler {
	return jobs.NewScheduler(js...)
}

func StartScheduler(lc fx.Lifecycle, s *jobs.Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			s.Start(context.Background())
			return nil
		},
		OnStop: func(_ context.Context) error {
			s.Stop()
			return nil
		},
	})
}
