package actor

import (
	"context"
	"fmt"

	"github.com/berfenger/smarthq2mqtt/internal/config"
	"github.com/berfenger/smarthq2mqtt/internal/core/domain"
	"github.com/berfenger/smarthq2mqtt/internal/core/port"
	"github.com/berfenger/smarthq2mqtt/internal/metrics"
	"github.com/berfenger/smarthq2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// PollerActor requests a full state snapshot of one appliance on every tick.
// It lives as long as the client session it was created for.
type PollerActor struct {
	macAddr   string
	client    port.SmartHQClient
	cfg       config.CoordinatorConfig
	metrics   *metrics.CoordinatorMetrics
	scheduler *scheduler.TimerScheduler
	cancel    scheduler.CancelFunc
	logger    *zap.Logger
}

type pollTick struct {
}

func NewPollerActor(macAddr string, client port.SmartHQClient, cfg config.CoordinatorConfig,
	metrics *metrics.CoordinatorMetrics, logger *zap.Logger) *PollerActor {
	return &PollerActor{
		macAddr: macAddr,
		client:  client,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger.With(zap.String("poller", macAddr)),
	}
}

func (state *PollerActor) Receive(ctx actor.Context) {
	switch ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("poller@default started")
		state.scheduler = scheduler.NewTimerScheduler(ctx)
		state.schedule(ctx)
	case pollTick:
		if !state.client.Connected() {
			state.schedule(ctx)
			return
		}
		actorutil.NewBackgroundTaskErr(ctx, func(bg context.Context) error {
			return state.client.RequestUpdate(bg, state.macAddr)
		}).WithTimeout(state.cfg.AsyncTimeout()).Recover(func(err error) actorutil.TaskDone {
			state.metrics.RequestFailed("update")
			state.logger.Warn("poller: update request failed",
				zap.Error(fmt.Errorf("%w: %v", domain.ErrTransientRequestFailure, err)))
			return actorutil.TaskDone{}
		}).PipeTo(ctx.Self())
	case actorutil.TaskDone:
		state.schedule(ctx)
	case *actor.Stopping:
		state.logger.Debug("poller@default stopping")
		if state.cancel != nil {
			state.cancel()
		}
	}
}

func (state *PollerActor) schedule(ctx actor.Context) {
	state.cancel = state.scheduler.RequestOnce(state.cfg.UpdateInterval(), ctx.Self(), pollTick{})
}
