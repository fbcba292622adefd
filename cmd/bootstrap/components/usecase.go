package components

import (
	"mentorbook/internal/pkg/clock"
	"mentorbook/internal/usecase/commands"
	"mentorbook/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseCommandsModule,
	usecaseQueriesModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewAvailabilityCommands,
		commands.NewBookingCommands,
		commands.NewPaymentCommands,
		commands.NewRefundCommands,
		func(rc commands.RefundCommands) commands.RefundInitiator { return rc },
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewAvailabilityQueries,
		queries.NewBookingQueries,
		queries.NewLedgerQueries,
	),
)
