package cronrunner

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner wraps robfig/cron with a base context so jobs stop scheduling new
// work once the process begins shutdown.
type Runner struct {
	cron    *cron.Cron
	logger  *zap.Logger
	baseCtx context.Context
}

func New(logger *zap.Logger, baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Runner{
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger,
		baseCtx: baseCtx,
	}
}

func (r *Runner) Add(spec string, job func(context.Context)) (cron.EntryID, error) {
	return r.cron.AddFunc(spec, func() {
		ctx := r.baseCtx
		if ctx.Err() != nil {
			return
		}
		job(ctx)
	})
}

func (r *Runner) Start() {
	if r.logger != nil {
		r.logger.Info("cron started")
	}
	r.cron.Start()
}

func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	if r.logger != nil {
		r.logger.Info("cron stopped")
	}
}
