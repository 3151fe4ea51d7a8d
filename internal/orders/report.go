package orders

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Lister is anything that can list the current orders.
type Lister interface {
	List(ctx context.Context) ([]Order, error)
}

// OccupancyReport logs table availability derived from the store.
type OccupancyReport struct {
	Src    Lister
	Tables int
	Log    *zap.Logger
}

// Run logs one report.
func (r *OccupancyReport) Run() {
	defer func() {
		if err := recover(); err != nil {
			r.Log.Error("occupancy report panicked", zap.Any("panic", err))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	list, err := r.Src.List(ctx)
	if err != nil {
		r.Log.Warn("occupancy report", zap.Error(err))
		return
	}
	a := ComputeAvailability(r.Tables, list)
	active := 0
	for _, o := range list {
		if o.Status.Active() {
			active++
		}
	}
	r.Log.Info("table occupancy",
		zap.Int("tables", a.Total),
		zap.Int("booked", len(a.Booked)),
		zap.Int("available", len(a.Available)),
		zap.Int("active_orders", active))
}

// Schedule starts a cron scheduler running r on spec. Stop the returned
// scheduler on shutdown.
func (r *OccupancyReport) Schedule(spec string) (*cron.Cron, error) {
	sched := cron.New(cron.WithParser(cronParser))
	if _, err := sched.AddJob(spec, r); err != nil {
		return nil, errors.Wrapf(err, "occupancy report spec %q", spec)
	}
	sched.Start()
	return sched, nil
}
