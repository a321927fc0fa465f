// Package schedule runs the ingestion batch on a cron schedule.
package schedule

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Parser accepts standard five-field specs, an optional leading seconds
// field and descriptors such as @hourly or @every 30m
var Parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Job is one scheduled batch run
type Job func(ctx context.Context)

// Validate reports whether spec parses
func Validate(spec string) error {
	if _, err := Parser.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Run calls job on every tick of spec until ctx is cancelled, then waits
// for a running job to finish. A tick that fires while the previous run
// is still going is skipped.
func Run(ctx context.Context, spec string, job Job, log zerolog.Logger) error {
	logger := cronLogger{log: log.With().Str("component", "schedule").Logger()}
	c := cron.New(
		cron.WithParser(Parser),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	id, err := c.AddFunc(spec, func() { job(ctx) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	c.Start()
	logger.log.Info().Str("schedule", spec).Time("next", c.Entry(id).Next).Msg("scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	logger.log.Info().Msg("scheduler stopped")
	return nil
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
