// Package router fronts the execution engine with broker-rate compliance.
// Every command passes the total-command throttler; new-order commands pass
// an additional, stricter stage first.
package router

import (
	"context"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/model"
	"main/internal/obs"
)

var (
	ErrNilEngine     = errors.New("router engine endpoint is nil")
	ErrInvalidRates  = errors.New("router rates must be > 0")
	ErrOrderRateHigh = errors.New("new-order rate must not exceed total command rate")
)

// Config holds the broker's published rate limits. Both limits share one
// refill interval.
type Config struct {
	CommandsPerInterval  int
	NewOrdersPerInterval int
	Interval             time.Duration
}

// CommandRouter sits between command producers and the execution engine.
// New-order commands traverse the order throttler chained into the command
// throttler; every other command enters the command throttler directly, so
// a burst of new orders can never starve cancels.
type CommandRouter struct {
	commandThrottler *bus.Throttler
	orderThrottler   *bus.Throttler
}

// NewCommandRouter builds the two-stage throttler chain in front of the
// engine endpoint.
func NewCommandRouter(engine bus.Poster, cfg Config, metrics *obs.Metrics) (*CommandRouter, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	if cfg.CommandsPerInterval <= 0 || cfg.NewOrdersPerInterval <= 0 || cfg.Interval <= 0 {
		return nil, ErrInvalidRates
	}
	if cfg.NewOrdersPerInterval > cfg.CommandsPerInterval {
		return nil, ErrOrderRateHigh
	}
	commandThrottler, err := bus.NewThrottler("commands", engine, cfg.Interval, cfg.CommandsPerInterval, metrics)
	if err != nil {
		return nil, errors.Wrap(err, "build command throttler")
	}
	orderThrottler, err := bus.NewThrottler("new-orders", commandThrottler, cfg.Interval, cfg.NewOrdersPerInterval, metrics)
	if err != nil {
		return nil, errors.Wrap(err, "build new-order throttler")
	}
	return &CommandRouter{
		commandThrottler: commandThrottler,
		orderThrottler:   orderThrottler,
	}, nil
}

// Post classifies the command and hands it to the matching throttler stage.
func (r *CommandRouter) Post(e bus.Envelope) error {
	if e.Message == nil {
		return errors.New("command message is nil")
	}
	switch e.Message.Type() {
	case model.TypeSubmitOrder, model.TypeSubmitBracketOrder:
		return r.orderThrottler.Post(e)
	case model.TypeCancelOrder, model.TypeModifyOrder, model.TypeAccountInquiry:
		return r.commandThrottler.Post(e)
	default:
		return errors.Errorf("unroutable command type %d", e.Message.Type())
	}
}

// QueueDepths reports envelopes waiting in the order and command stages.
func (r *CommandRouter) QueueDepths() (orders, commands int) {
	return r.orderThrottler.QueueDepth(), r.commandThrottler.QueueDepth()
}

// Start launches the downstream stage first so a queued order command never
// lands in a stopped command throttler.
func (r *CommandRouter) Start(ctx context.Context) {
	r.commandThrottler.Start(ctx)
	r.orderThrottler.Start(ctx)
	logs.Info("command router started")
}

// Stop drains the order stage into the command stage, then the command
// stage into the engine.
func (r *CommandRouter) Stop() {
	r.orderThrottler.Stop()
	r.commandThrottler.Stop()
	logs.Info("command router stopped")
}
