package actor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/berfenger/smarthq2mqtt/internal/config"
	"github.com/berfenger/smarthq2mqtt/internal/core/appliance"
	"github.com/berfenger/smarthq2mqtt/internal/core/domain"
	"github.com/berfenger/smarthq2mqtt/internal/core/port"
	"github.com/berfenger/smarthq2mqtt/internal/core/service"
	"github.com/berfenger/smarthq2mqtt/internal/metrics"
	. "github.com/berfenger/smarthq2mqtt/internal/util/actorutil"
	"github.com/berfenger/smarthq2mqtt/pkg/smarthq"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/zap"
)

// CoordinatorActor owns the cloud client session, the appliance apis and the
// readiness of the current session. Client callbacks are turned into messages
// tagged with the session that produced them; messages of a torn down session
// are dropped.
type CoordinatorActor struct {
	ActorWithStates
	cfg         config.CoordinatorConfig
	policy      port.CoordinatorPolicy
	factory     port.ClientFactory
	eventStream *eventstream.EventStream
	metrics     *metrics.CoordinatorMetrics
	scheduler   *scheduler.TimerScheduler
	stash       *Stash
	listTrigger *quartz.CronTrigger

	client        port.SmartHQClient
	session       uint64
	state         service.CoordinatorState
	connected     bool
	setupComplete bool
	resume        bool
	apis          map[string]*appliance.Api
	pollers       map[string]*actor.PID
	waiters       []*actor.PID

	cancelSetupTimeout scheduler.CancelFunc
	cancelListRefresh  scheduler.CancelFunc

	logger *zap.Logger
}

// session scoped messages

type clientConnected struct {
	session uint64
}

type clientDisconnected struct {
	session uint64
	err     error
}

type clientStartResult struct {
	session uint64
	err     error
}

type applianceListReceived struct {
	session    uint64
	appliances []*smarthq.Appliance
}

type initialUpdateReceived struct {
	session   uint64
	appliance *smarthq.Appliance
}

type updateReceived struct {
	session   uint64
	appliance *smarthq.Appliance
	changed   map[smarthq.ErdCode]string
}

type rosterSettled struct {
	session uint64
}

type readySettled struct {
	session uint64
}

type setupTimeout struct {
	session uint64
}

type reconnectTick struct {
	session uint64
}

type listRefreshTick struct {
	session uint64
}

func NewCoordinatorActor(cfg *config.Config, policy port.CoordinatorPolicy, factory port.ClientFactory,
	eventStream *eventstream.EventStream, metrics *metrics.CoordinatorMetrics, logger *zap.Logger) *CoordinatorActor {
	act := &CoordinatorActor{
		cfg:         cfg.Coordinator,
		policy:      policy,
		factory:     factory,
		eventStream: eventStream,
		metrics:     metrics,
		stash:       &Stash{},
		apis:        map[string]*appliance.Api{},
		pollers:     map[string]*actor.PID{},
		logger:      ActorLogger(domain.ACTOR_ID_COORDINATOR, logger),
		ActorWithStates: ActorWithStates{
			Behavior: actor.NewBehavior(),
		},
	}
	// sessions of a previous incarnation never match a new one
	act.session = uint64(time.Now().UnixNano())
	if cfg.Coordinator.ApplianceListCron != "" {
		trigger, err := quartz.NewCronTrigger(cfg.Coordinator.ApplianceListCron)
		if err != nil {
			act.logger.Warn("invalid appliance list cron, using interval", zap.Error(err))
		} else {
			act.listTrigger = trigger
		}
	}
	act.Become(disconnectedState{actor: act})
	return act
}

// Resume makes the actor reconnect on start as if its first setup had already
// succeeded. Used for supervisor restarts, where no setup request follows.
func (c *CoordinatorActor) Resume() {
	c.resume = true
}

func (c *CoordinatorActor) Receive(context actor.Context) {
	c.Behavior.Receive(context)
}

// Disconnected state: no client session. Entered at start, after a failed setup
// and while waiting for the next reconnect attempt.

type disconnectedState struct {
	actor *CoordinatorActor
}

func (s disconnectedState) Name() string {
	return "disconnected"
}

func (s disconnectedState) Receive(ctx actor.Context) {
	c := s.actor
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		c.logger.Debug("coordinator@disconnected started")
		c.scheduler = scheduler.NewTimerScheduler(ctx)
		if c.resume {
			c.logger.Warn("coordinator@disconnected resuming after restart")
			c.setupComplete = true
			c.reconnect(ctx)
		}
	case domain.CoordinatorSetupRequest:
		replyTo := ForRequest(msg).ReplyTo(ctx)
		if c.setupComplete {
			// the reconnect loop owns the session from here
			c.setupAfterComplete(ctx, replyTo)
			return
		}
		c.logger.Info("coordinator@disconnected setup requested")
		c.addWaiter(replyTo)
		c.state.ResetSession()
		c.startClient(ctx)
	case reconnectTick:
		if !c.current(msg.session) {
			return
		}
		c.reconnect(ctx)
	default:
		c.commonReceive(ctx)
	}
}

// Connecting state: a client was created and Connect is in flight. Events of
// the new session are stashed until the connected callback arrives.

type connectingState struct {
	actor *CoordinatorActor
}

func (s connectingState) Name() string {
	return "connecting"
}

func (s connectingState) Receive(ctx actor.Context) {
	c := s.actor
	switch msg := ctx.Message().(type) {
	case domain.CoordinatorSetupRequest:
		replyTo := ForRequest(msg).ReplyTo(ctx)
		if c.setupComplete {
			c.setupAfterComplete(ctx, replyTo)
		} else {
			c.addWaiter(replyTo)
		}
	case clientConnected:
		if !c.current(msg.session) {
			return
		}
		c.onConnected(ctx)
	case clientStartResult:
		if !c.current(msg.session) {
			return
		}
		if msg.err != nil {
			c.onStartFailed(ctx, msg.err)
		}
	case clientDisconnected:
		if !c.current(msg.session) {
			return
		}
		err := msg.err
		if err == nil {
			err = fmt.Errorf("%w: disconnected while connecting", domain.ErrConnectFailure)
		}
		c.onStartFailed(ctx, err)
	case applianceListReceived:
		if c.current(msg.session) {
			c.stash.Stash(ctx, msg)
		}
	case initialUpdateReceived:
		if c.current(msg.session) {
			c.stash.Stash(ctx, msg)
		}
	case updateReceived:
		if c.current(msg.session) {
			c.stash.Stash(ctx, msg)
		}
	default:
		c.commonReceive(ctx)
	}
}

// Connected state: the client is up. Roster, initial updates and pushes drive
// readiness and entity state.

type connectedState struct {
	actor *CoordinatorActor
}

func (s connectedState) Name() string {
	return "connected"
}

func (s connectedState) Receive(ctx actor.Context) {
	c := s.actor
	switch msg := ctx.Message().(type) {
	case domain.CoordinatorSetupRequest:
		replyTo := ForRequest(msg).ReplyTo(ctx)
		if c.setupComplete {
			c.setupAfterComplete(ctx, replyTo)
		} else {
			c.addWaiter(replyTo)
		}
	case applianceListReceived:
		if !c.current(msg.session) {
			return
		}
		c.onApplianceList(ctx, msg.appliances)
	case initialUpdateReceived:
		if !c.current(msg.session) {
			return
		}
		c.onInitialUpdate(ctx, msg.appliance)
	case updateReceived:
		if !c.current(msg.session) {
			return
		}
		c.onUpdate(msg.appliance, msg.changed)
	case rosterSettled:
		if !c.current(msg.session) {
			return
		}
		c.logger.Debug("coordinator@connected roster settled")
		c.tryReady(ctx)
	case readySettled:
		if !c.current(msg.session) {
			return
		}
		c.onReady(ctx)
	case setupTimeout:
		if !c.current(msg.session) || c.setupComplete {
			return
		}
		c.logger.Warn("coordinator@connected setup timed out waiting for appliances")
		c.failSetup(ctx, domain.ErrTimeoutFailure)
	case listRefreshTick:
		if !c.current(msg.session) {
			return
		}
		c.refreshApplianceList(ctx)
	case clientDisconnected:
		if !c.current(msg.session) {
			return
		}
		c.onDisconnected(ctx, msg.err)
	case clientConnected, clientStartResult:
	default:
		c.commonReceive(ctx)
	}
}

// Stopped state: shut down, only answers queries.

type stoppedState struct {
	actor *CoordinatorActor
}

func (s stoppedState) Name() string {
	return "stopped"
}

func (s stoppedState) Receive(ctx actor.Context) {
	c := s.actor
	switch msg := ctx.Message().(type) {
	case domain.CoordinatorSetupRequest:
		c.respondSetup(ctx, ForRequest(msg).ReplyTo(ctx), domain.ErrShutdown)
	case domain.CoordinatorShutdownRequest:
		ForRequest(msg).Respond(ctx, domain.CoordinatorShutdownResponse{})
	case domain.CoordinatorStatusRequest, domain.ApplianceApisRequest, domain.ActorHealthRequest, domain.SetEntityValueRequest:
		c.commonReceive(ctx)
	}
}

// commonReceive handles the messages every state answers the same way.
func (c *CoordinatorActor) commonReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_COORDINATOR,
			Healthy: !c.Is(stoppedState{}),
			State:   c.StateName(),
		})
	case domain.CoordinatorStatusRequest:
		ForRequest(msg).Respond(ctx, c.status())
	case domain.ApplianceApisRequest:
		ForRequest(msg).Respond(ctx, domain.ApplianceApisResponse{
			Initialized: c.state.InitDone,
			Appliances:  c.applianceInfos(),
		})
	case domain.SetEntityValueRequest:
		c.setEntityValue(ctx, msg)
	case domain.CoordinatorShutdownRequest:
		c.logger.Info("coordinator shutdown requested")
		c.shutdown(ctx)
		ForRequest(msg).Respond(ctx, domain.CoordinatorShutdownResponse{})
	case *actor.Stopping:
		c.shutdown(ctx)
	case *actor.Restarting:
		c.logger.Warn("coordinator restarting, releasing the client session")
		c.release(ctx)
		c.resolveWaiters(ctx, fmt.Errorf("%w: coordinator restarted", domain.ErrConnectFailure))
	case clientConnected, clientDisconnected, clientStartResult, applianceListReceived, initialUpdateReceived,
		updateReceived, rosterSettled, readySettled, setupTimeout, reconnectTick, listRefreshTick:
		c.logger.Debug("coordinator: dropped session message", zap.String("state", c.StateName()),
			zap.String("type", fmt.Sprintf("%T", msg)))
	default:
		c.logger.Debug("coordinator: unhandled message", zap.String("state", c.StateName()),
			zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (c *CoordinatorActor) current(session uint64) bool {
	return session == c.session
}

func (c *CoordinatorActor) online() bool {
	return c.policy.Online(c.connected, c.state.RetryCount)
}

func (c *CoordinatorActor) handlers(ctx actor.Context, session uint64) smarthq.EventHandlers {
	root := ctx.ActorSystem().Root
	self := ctx.Self()
	return smarthq.EventHandlers{
		OnConnected: func() {
			root.Send(self, clientConnected{session: session})
		},
		OnDisconnected: func(err error) {
			root.Send(self, clientDisconnected{session: session, err: err})
		},
		OnApplianceList: func(appliances []*smarthq.Appliance) {
			root.Send(self, applianceListReceived{session: session, appliances: appliances})
		},
		OnInitialUpdate: func(a *smarthq.Appliance) {
			root.Send(self, initialUpdateReceived{session: session, appliance: a})
		},
		OnUpdateReceived: func(a *smarthq.Appliance, changed map[smarthq.ErdCode]string) {
			root.Send(self, updateReceived{session: session, appliance: a, changed: changed})
		},
	}
}

// startClient opens a new session with a fresh client and starts connecting.
func (c *CoordinatorActor) startClient(ctx actor.Context) {
	c.teardownClient(ctx)
	c.session++
	session := c.session
	c.metrics.SetSession(session)

	client := c.factory(c.handlers(ctx, session))
	c.client = client
	c.logger.Debug("coordinator: connecting", zap.Uint64("session", session), zap.Int("retry", c.state.RetryCount))

	NewBackgroundTask(ctx, func(bg context.Context) (*clientStartResult, error) {
		return &clientStartResult{session: session, err: client.Connect(bg)}, nil
	}).WithTimeout(c.cfg.AsyncTimeout()).Recover(func(err error) clientStartResult {
		return clientStartResult{session: session, err: err}
	}).PipeTo(ctx.Self())

	c.Become(connectingState{actor: c})
}

// teardownClient detaches the current client. Its pending callbacks become
// stale and the disconnect is best effort.
func (c *CoordinatorActor) teardownClient(ctx actor.Context) {
	c.stash.Clear()
	if c.cancelListRefresh != nil {
		c.cancelListRefresh()
		c.cancelListRefresh = nil
	}
	if c.client == nil {
		return
	}
	old := c.client
	c.client = nil
	c.session++
	old.ClearEventHandlers()
	NewBackgroundTaskErr(ctx, func(context.Context) error {
		return old.Disconnect()
	}).WithTimeout(c.cfg.AsyncTimeout()).OnError(func(err error) {
		c.logger.Debug("coordinator: disconnect of previous client failed", zap.Error(err))
	}).Detach()
}

func (c *CoordinatorActor) onConnected(ctx actor.Context) {
	c.logger.Info("coordinator@connecting connected", zap.Uint64("session", c.session))
	c.connected = true
	c.state.Connected()
	c.publishConnectivity()
	if !c.setupComplete {
		c.cancelSetupTimeout = c.scheduler.RequestOnce(c.cfg.SetupTimeout(), ctx.Self(), setupTimeout{session: c.session})
	}
	c.Become(connectedState{actor: c})
	c.stash.UnstashAll(ctx)
}

func (c *CoordinatorActor) onStartFailed(ctx actor.Context, err error) {
	if !c.setupComplete {
		c.logger.Warn("coordinator@connecting setup failed", zap.Error(err))
		c.failSetup(ctx, err)
		return
	}
	delay := c.policy.RetryDelay(c.state.RetryCount + 1)
	c.logger.Warn("coordinator@connecting reconnect failed", zap.Error(err),
		zap.Int("retry", c.state.RetryCount), zap.Duration("next", delay))
	c.teardownClient(ctx)
	c.connected = false
	c.publishConnectivity()
	c.publishAllStates()
	c.scheduler.RequestOnce(delay, ctx.Self(), reconnectTick{session: c.session})
	c.Become(disconnectedState{actor: c})
}

// failSetup resolves the pending setup with a classified error. No internal
// retry happens before the first successful setup.
func (c *CoordinatorActor) failSetup(ctx actor.Context, err error) {
	if c.cancelSetupTimeout != nil {
		c.cancelSetupTimeout()
		c.cancelSetupTimeout = nil
	}
	c.stopPollers(ctx)
	c.teardownClient(ctx)
	c.connected = false
	c.state.ResetSession()
	c.resolveWaiters(ctx, domain.ClassifySetupError(err))
	c.Become(disconnectedState{actor: c})
}

func (c *CoordinatorActor) onApplianceList(ctx actor.Context, appliances []*smarthq.Appliance) {
	c.logger.Debug("coordinator@connected appliance list", zap.Int("count", len(appliances)))
	if c.state.MarkRoster() {
		c.scheduler.RequestOnce(c.cfg.RosterSettle(), ctx.Self(), rosterSettled{session: c.session})
	}
	c.scheduleListRefresh(ctx)
}

func (c *CoordinatorActor) onInitialUpdate(ctx actor.Context, a *smarthq.Appliance) {
	mac := a.MacAddr()
	api, ok := c.apis[mac]
	if !ok {
		api = appliance.ApiFor(a, c.online)
		c.apis[mac] = api
		c.logger.Info("coordinator@connected new appliance", zap.String("mac", mac), zap.String("kind", api.Kind()))
	} else if err := api.SetAppliance(a); err != nil {
		c.logger.Error("coordinator@connected cannot swap appliance", zap.Error(err))
		return
	}
	c.announce(mac, api.BuildEntities())
	c.metrics.SetAppliances(len(c.apis))
	c.publishStates(api.Entities())
	c.tryReady(ctx)
	c.startPoller(ctx, mac)
}

func (c *CoordinatorActor) onUpdate(a *smarthq.Appliance, changed map[smarthq.ErdCode]string) {
	c.state.LastUpdateSuccess = true
	c.metrics.Update()
	api, ok := c.apis[a.MacAddr()]
	if !ok {
		return
	}
	c.logger.Debug("coordinator@connected update", zap.String("mac", a.MacAddr()), zap.Int("changed", len(changed)))
	c.announce(a.MacAddr(), api.BuildEntities())
	c.publishStates(api.EntitiesFor(changed))
}

// announce publishes entities added once the session is ready. Before that the
// ready event makes discovery pick them up.
func (c *CoordinatorActor) announce(mac string, added []*appliance.Entity) {
	if len(added) == 0 {
		return
	}
	c.logger.Debug("coordinator@connected entities added", zap.String("mac", mac), zap.Int("count", len(added)))
	if !c.state.InitDone {
		return
	}
	evt := domain.EntitiesAddedEvent{Session: c.session}
	for _, e := range added {
		evt.Entities = append(evt.Entities, e.Describe())
	}
	c.eventStream.Publish(evt)
}

func (c *CoordinatorActor) tryReady(ctx actor.Context) {
	if c.client == nil {
		return
	}
	if service.TryLatchReady(&c.state, c.client.Appliances()) {
		c.logger.Info("coordinator@connected all appliances initialized", zap.Uint64("session", c.session))
		c.scheduler.RequestOnce(c.cfg.ReadySettle(), ctx.Self(), readySettled{session: c.session})
	}
}

func (c *CoordinatorActor) onReady(ctx actor.Context) {
	c.logger.Info("coordinator@connected ready", zap.Uint64("session", c.session), zap.Int("appliances", len(c.apis)))
	if c.cancelSetupTimeout != nil {
		c.cancelSetupTimeout()
		c.cancelSetupTimeout = nil
	}
	c.setupComplete = true
	c.resolveWaiters(ctx, nil)
	c.metrics.Ready()
	c.eventStream.Publish(domain.AllAppliancesReadyEvent{Session: c.session})
}

func (c *CoordinatorActor) onDisconnected(ctx actor.Context, err error) {
	c.connected = false
	c.state.LastUpdateSuccess = false
	c.stopPollers(ctx)
	if !c.setupComplete {
		if err == nil {
			err = fmt.Errorf("%w: disconnected during setup", domain.ErrConnectFailure)
		}
		c.logger.Warn("coordinator@connected disconnected during setup", zap.Error(err))
		c.failSetup(ctx, err)
		return
	}
	delay := c.policy.RetryDelay(c.state.RetryCount + 1)
	c.logger.Warn("coordinator@connected disconnected", zap.Error(err), zap.Duration("reconnect", delay))
	c.publishConnectivity()
	c.publishAllStates()
	c.scheduler.RequestOnce(delay, ctx.Self(), reconnectTick{session: c.session})
	c.Become(disconnectedState{actor: c})
}

func (c *CoordinatorActor) reconnect(ctx actor.Context) {
	retry := c.state.BeginRetry()
	c.metrics.Reconnect()
	c.logger.Info("coordinator@disconnected reconnecting", zap.Int("retry", retry))
	c.stopPollers(ctx)
	c.state.ResetSession()
	for _, api := range c.apis {
		api.Appliance().SetInitialized(false)
	}
	c.publishConnectivity()
	c.startClient(ctx)
}

func (c *CoordinatorActor) scheduleListRefresh(ctx actor.Context) {
	if c.cancelListRefresh != nil {
		c.cancelListRefresh()
		c.cancelListRefresh = nil
	}
	delay := c.cfg.ApplianceListInterval()
	if c.listTrigger != nil {
		next, err := c.listTrigger.NextFireTime(time.Now().UnixNano())
		if err == nil {
			delay = time.Until(time.Unix(0, next))
		}
	}
	if delay <= 0 {
		return
	}
	c.cancelListRefresh = c.scheduler.RequestOnce(delay, ctx.Self(), listRefreshTick{session: c.session})
}

func (c *CoordinatorActor) refreshApplianceList(ctx actor.Context) {
	client := c.client
	if client == nil || !client.Connected() {
		return
	}
	c.logger.Debug("coordinator@connected refreshing appliance list")
	NewBackgroundTaskErr(ctx, client.RequestApplianceList).
		WithTimeout(c.cfg.AsyncTimeout()).
		OnError(func(err error) {
			c.metrics.RequestFailed("appliance_list")
			c.logger.Warn("coordinator: appliance list refresh failed",
				zap.Error(fmt.Errorf("%w: %v", domain.ErrTransientRequestFailure, err)))
		}).Detach()
}

func (c *CoordinatorActor) startPoller(ctx actor.Context, mac string) {
	if _, ok := c.pollers[mac]; ok {
		return
	}
	client := c.client
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewPollerActor(mac, client, c.cfg, c.metrics, c.logger)
	})
	c.pollers[mac] = ctx.Spawn(props)
}

func (c *CoordinatorActor) stopPollers(ctx actor.Context) {
	for mac, pid := range c.pollers {
		ctx.Stop(pid)
		delete(c.pollers, mac)
	}
}

func (c *CoordinatorActor) shutdown(ctx actor.Context) {
	if c.Is(stoppedState{}) {
		return
	}
	c.release(ctx)
	c.resolveWaiters(ctx, domain.ErrShutdown)
	c.Become(stoppedState{actor: c})
}

// release stops timers, pollers and the client of the current session.
func (c *CoordinatorActor) release(ctx actor.Context) {
	if c.cancelSetupTimeout != nil {
		c.cancelSetupTimeout()
		c.cancelSetupTimeout = nil
	}
	c.stopPollers(ctx)
	c.teardownClient(ctx)
	c.connected = false
}

func (c *CoordinatorActor) addWaiter(pid *actor.PID) {
	if pid != nil {
		c.waiters = append(c.waiters, pid)
	}
}

// resolveWaiters answers every pending setup request.
func (c *CoordinatorActor) resolveWaiters(ctx actor.Context, err error) {
	for _, pid := range c.waiters {
		c.sendSetupResponse(ctx, pid, err)
	}
	c.waiters = nil
}

// setupAfterComplete answers a setup request once the first setup succeeded.
// A session that is not ready yet keeps the requester until it is.
func (c *CoordinatorActor) setupAfterComplete(ctx actor.Context, pid *actor.PID) {
	if c.state.InitDone {
		c.respondSetup(ctx, pid, nil)
		return
	}
	c.addWaiter(pid)
}

func (c *CoordinatorActor) respondSetup(ctx actor.Context, pid *actor.PID, err error) {
	if pid != nil {
		c.sendSetupResponse(ctx, pid, err)
	}
}

func (c *CoordinatorActor) sendSetupResponse(ctx actor.Context, pid *actor.PID, err error) {
	resp := domain.CoordinatorSetupResponse{
		ActorResponseMixIn: domain.ErrorResponse(err),
		Session:            c.session,
	}
	ctx.Send(pid, resp)
}

func (c *CoordinatorActor) setEntityValue(ctx actor.Context, msg domain.SetEntityValueRequest) {
	replyTo := ForRequest(msg).ReplyTo(ctx)
	respond := func(err error) {
		if err != nil {
			c.logger.Warn("coordinator: command rejected", zap.Stringer("command", msg.Command), zap.Error(err))
		}
		if replyTo != nil {
			ctx.Send(replyTo, domain.SetEntityValueResponse{ActorResponseMixIn: domain.ErrorResponse(err)})
		}
	}

	entity := c.findEntity(msg.Command.UniqueId)
	if entity == nil {
		respond(fmt.Errorf("%w: %s", domain.ErrUnknownEntity, msg.Command.UniqueId))
		return
	}
	if !c.connected || c.client == nil {
		respond(domain.ErrNotConnected)
		return
	}
	code, raw, err := entity.Command(msg.Command.Payload)
	if err != nil {
		respond(err)
		return
	}

	client := c.client
	mac := entity.Api().MacAddr()
	c.logger.Debug("coordinator: set erd value", zap.String("mac", mac), zap.String("erd", string(code)), zap.String("value", raw))
	task := NewBackgroundTask(ctx, func(bg context.Context) (*domain.SetEntityValueResponse, error) {
		if err := client.SetErdValue(bg, mac, code, raw); err != nil {
			return nil, err
		}
		return &domain.SetEntityValueResponse{}, nil
	}).WithTimeout(c.cfg.AsyncTimeout()).Recover(func(err error) domain.SetEntityValueResponse {
		err = fmt.Errorf("%w: %v", domain.ErrTransientRequestFailure, err)
		c.metrics.RequestFailed("set_erd")
		c.logger.Warn("coordinator: set erd value failed", zap.Stringer("command", msg.Command), zap.Error(err))
		return domain.SetEntityValueResponse{ActorResponseMixIn: domain.ErrorResponse(err)}
	})
	if replyTo != nil {
		task.PipeTo(replyTo)
	} else {
		task.Detach()
	}
}

func (c *CoordinatorActor) findEntity(uniqueId string) *appliance.Entity {
	for _, api := range c.apis {
		if e, ok := api.Entity(uniqueId); ok {
			return e
		}
	}
	return nil
}

func (c *CoordinatorActor) publishStates(entities []*appliance.Entity) {
	for _, e := range entities {
		c.eventStream.Publish(e.StateEvent())
	}
}

// publishAllStates refreshes every known entity, availability follows online.
func (c *CoordinatorActor) publishAllStates() {
	for _, api := range c.sortedApis() {
		c.publishStates(api.Entities())
	}
}

func (c *CoordinatorActor) publishConnectivity() {
	online := c.online()
	c.metrics.SetConnectivity(c.connected, online, c.state.RetryCount)
	c.eventStream.Publish(domain.ConnectivityEvent{
		Connected:  c.connected,
		Online:     online,
		RetryCount: c.state.RetryCount,
	})
}

func (c *CoordinatorActor) sortedApis() []*appliance.Api {
	list := make([]*appliance.Api, 0, len(c.apis))
	for _, api := range c.apis {
		list = append(list, api)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].MacAddr() < list[j].MacAddr()
	})
	return list
}

func (c *CoordinatorActor) applianceInfos() []domain.ApplianceInfo {
	apis := c.sortedApis()
	infos := make([]domain.ApplianceInfo, 0, len(apis))
	for _, api := range apis {
		infos = append(infos, api.Info())
	}
	return infos
}

func (c *CoordinatorActor) status() domain.CoordinatorStatusResponse {
	return domain.CoordinatorStatusResponse{
		State:             c.StateName(),
		Session:           c.session,
		Connected:         c.connected,
		Online:            c.online(),
		Initialized:       c.state.InitDone,
		GotRoster:         c.state.GotRoster,
		RetryCount:        c.state.RetryCount,
		LastUpdateSuccess: c.state.LastUpdateSuccess,
		Appliances:        c.applianceInfos(),
	}
}
