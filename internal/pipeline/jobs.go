package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// runTimeout bounds one job cycle; a stalled storage call times out here
// instead of holding the cycle open.
const runTimeout = 30 * time.Second

// Jobs runs the two periodic tasks (batch drain, counter flush) on a cron
// scheduler, decoupled from connection goroutines. A cycle that overruns
// its interval is not stacked: the scheduler skips the tick.
type Jobs struct {
	c   *cron.Cron
	ctx context.Context
	log *slog.Logger
}

func NewJobs(ctx context.Context, log *slog.Logger) *Jobs {
	cl := cronLogger{log: log}
	return &Jobs{
		c:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cl))),
		ctx: ctx,
		log: log,
	}
}

func (j *Jobs) Every(interval time.Duration, name string, fn func(ctx context.Context)) error {
	spec := fmt.Sprintf("@every %s", interval)
	_, err := j.c.AddFunc(spec, func() {
		defer func() {
			if r := recover(); r != nil {
				j.log.Error("periodic job panic", "job", name, "panic", r)
			}
		}()
		ctx, cancel := context.WithTimeout(j.ctx, runTimeout)
		defer cancel()
		fn(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	j.log.Info("periodic job scheduled", "job", name, "interval", interval)
	return nil
}

func (j *Jobs) Start() {
	j.c.Start()
}

// Stop halts scheduling and waits for in-flight runs.
func (j *Jobs) Stop() {
	<-j.c.Stop().Done()
}

// cronLogger adapts slog to cron's logger; cron speaks through it when a
// tick is skipped.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, kv ...any) {
	l.log.Info(msg, kv...)
}

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.log.Error(msg, append([]any{"err", err}, kv...)...)
}
