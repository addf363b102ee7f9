package actor

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/berfenger/smarthq2mqtt/internal/config"
	"github.com/berfenger/smarthq2mqtt/internal/core/domain"
	"github.com/berfenger/smarthq2mqtt/internal/core/port"
	"github.com/berfenger/smarthq2mqtt/internal/core/service"
	"github.com/berfenger/smarthq2mqtt/internal/metrics"
	"github.com/berfenger/smarthq2mqtt/internal/util"
	"github.com/berfenger/smarthq2mqtt/internal/util/actorutil"
	"github.com/berfenger/smarthq2mqtt/pkg/smarthq"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testClients hands out TestClients and keeps them for inspection.
type testClients struct {
	mu         sync.Mutex
	clients    []*smarthq.TestClient
	created    []time.Time
	connectErr error
	calls      int
	panicOn    int
}

func (f *testClients) factory(handlers smarthq.EventHandlers) port.SmartHQClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls == f.panicOn {
		panic(fmt.Sprintf("client factory failure on call %d", f.calls))
	}
	c := smarthq.NewTestClient(handlers)
	c.ConnectErr = f.connectErr
	f.clients = append(f.clients, c)
	f.created = append(f.created, time.Now())
	return c
}

// gaps returns the time between consecutive client creations.
func (f *testClients) gaps() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	var gaps []time.Duration
	for i := 1; i < len(f.created); i++ {
		gaps = append(gaps, f.created[i].Sub(f.created[i-1]))
	}
	return gaps
}

func (f *testClients) setConnectErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectErr = err
}

func (f *testClients) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

func (f *testClients) last() *smarthq.TestClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.clients) == 0 {
		return nil
	}
	return f.clients[len(f.clients)-1]
}

type eventRecorder struct {
	mu           sync.Mutex
	ready        []domain.AllAppliancesReadyEvent
	added        []domain.EntitiesAddedEvent
	states       []domain.EntityStateEvent
	connectivity []domain.ConnectivityEvent
}

func recordEvents(es *eventstream.EventStream) *eventRecorder {
	rec := &eventRecorder{}
	es.Subscribe(func(evt any) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		switch e := evt.(type) {
		case domain.AllAppliancesReadyEvent:
			rec.ready = append(rec.ready, e)
		case domain.EntitiesAddedEvent:
			rec.added = append(rec.added, e)
		case domain.EntityStateEvent:
			rec.states = append(rec.states, e)
		case domain.ConnectivityEvent:
			rec.connectivity = append(rec.connectivity, e)
		}
	})
	return rec
}

func (r *eventRecorder) readyCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ready)
}

func (r *eventRecorder) addedIds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, evt := range r.added {
		for _, e := range evt.Entities {
			ids = append(ids, e.UniqueId)
		}
	}
	return ids
}

func (r *eventRecorder) stateCount(uniqueId string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.states {
		if s.UniqueId == uniqueId {
			n++
		}
	}
	return n
}

// lastState is the last state event published for uniqueId.
func (r *eventRecorder) lastState(uniqueId string) (domain.EntityStateEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.states) - 1; i >= 0; i-- {
		if r.states[i].UniqueId == uniqueId {
			return r.states[i], true
		}
	}
	return domain.EntityStateEvent{}, false
}

type coordinatorFixture struct {
	as      *actor.ActorSystem
	root    *actor.RootContext
	pid     *actor.PID
	clients *testClients
	es      *eventstream.EventStream
	events  *eventRecorder
}

func newCoordinatorFixture(t *testing.T, cfg config.Config) *coordinatorFixture {
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	t.Cleanup(as.Shutdown)

	f := &coordinatorFixture{
		as:      as,
		root:    as.Root,
		clients: &testClients{},
		es:      &eventstream.EventStream{},
	}
	f.events = recordEvents(f.es)

	policy := service.DefaultCoordinatorPolicy{
		MinRetryDelay:     cfg.Coordinator.MinRetryDelay(),
		MaxRetryDelay:     cfg.Coordinator.MaxRetryDelay(),
		RetryOfflineCount: cfg.Coordinator.RetryOfflineCount,
	}
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewCoordinatorActor(&cfg, policy, f.clients.factory, f.es, metrics.NewCoordinatorMetrics(), logger)
	})
	f.pid = f.root.Spawn(props)
	return f
}

func (f *coordinatorFixture) setup() *actor.Future {
	return f.root.RequestFuture(f.pid, domain.CoordinatorSetupRequest{}, 5*time.Second)
}

// connectedClient waits for the n-th client to be connected.
func (f *coordinatorFixture) connectedClient(t *testing.T, n int) *smarthq.TestClient {
	require.Eventually(t, func() bool {
		return f.clients.count() == n && f.clients.last().Connected()
	}, 3*time.Second, 10*time.Millisecond)
	return f.clients.last()
}

func (f *coordinatorFixture) status(t *testing.T) domain.CoordinatorStatusResponse {
	res, err := f.root.RequestFuture(f.pid, domain.CoordinatorStatusRequest{}, time.Second).Result()
	require.NoError(t, err)
	return res.(domain.CoordinatorStatusResponse)
}

func (f *coordinatorFixture) apis(t *testing.T) domain.ApplianceApisResponse {
	res, err := f.root.RequestFuture(f.pid, domain.ApplianceApisRequest{}, time.Second).Result()
	require.NoError(t, err)
	return res.(domain.ApplianceApisResponse)
}

func setupResult(t *testing.T, future *actor.Future) domain.CoordinatorSetupResponse {
	res, err := future.Result()
	require.NoError(t, err)
	resp, ok := res.(domain.CoordinatorSetupResponse)
	require.True(t, ok)
	return resp
}

func testAppliances() []*smarthq.Appliance {
	return []*smarthq.Appliance{
		smarthq.NewTestAppliance("AA:BB:CC:00:00:01", smarthq.ApplianceTypeDishwasher, "SN1"),
		smarthq.NewTestAppliance("AA:BB:CC:00:00:02", smarthq.ApplianceTypeOven, "SN2"),
		smarthq.NewTestAppliance("AA:BB:CC:00:00:03", smarthq.ApplianceTypeWasher, "SN3"),
	}
}

// readyFixture runs a successful setup with the given appliances.
func readyFixture(t *testing.T, cfg config.Config, appliances ...*smarthq.Appliance) (*coordinatorFixture, *smarthq.TestClient) {
	f := newCoordinatorFixture(t, cfg)
	future := f.setup()
	client := f.connectedClient(t, 1)
	client.EmitApplianceList(appliances...)
	for _, a := range appliances {
		client.EmitInitialUpdate(a)
	}
	resp := setupResult(t, future)
	require.False(t, resp.HasResponseError(), "setup error: %v", resp.GetResponseError())
	return f, client
}

func TestCoordinatorSetupAllReady(t *testing.T) {
	cfg := util.LoadTestConfig()
	appliances := testAppliances()

	f := newCoordinatorFixture(t, cfg)
	future := f.setup()
	client := f.connectedClient(t, 1)

	client.EmitApplianceList(appliances...)
	client.EmitInitialUpdate(appliances[0])
	client.EmitInitialUpdate(appliances[1])

	// not ready while one appliance is missing
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, f.events.readyCount())
	assert.False(t, f.status(t).Initialized)

	client.EmitInitialUpdate(appliances[2])

	resp := setupResult(t, future)
	assert.False(t, resp.HasResponseError())

	require.Eventually(t, func() bool { return f.events.readyCount() == 1 }, time.Second, 10*time.Millisecond)

	// duplicate initial updates do not fire ready again
	client.EmitInitialUpdate(appliances[0])
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, f.events.readyCount())

	apis := f.apis(t)
	assert.True(t, apis.Initialized)
	require.Len(t, apis.Appliances, 3)
	for _, info := range apis.Appliances {
		assert.True(t, info.Initialized)
		assert.True(t, info.Available)
		assert.NotEmpty(t, info.Entities)
	}
	assert.Equal(t, "Dishwasher", apis.Appliances[0].ApplianceType)

	status := f.status(t)
	assert.Equal(t, "connected", status.State)
	assert.True(t, status.Connected)
	assert.True(t, status.Online)
	assert.True(t, status.GotRoster)
	assert.Equal(t, 0, status.RetryCount)

	// a second setup request is answered right away
	resp = setupResult(t, f.setup())
	assert.False(t, resp.HasResponseError())

	// pollers request snapshots every update interval
	require.Eventually(t, func() bool {
		return client.UpdateRequests(appliances[0].MacAddr()) >= 2 && client.UpdateRequests(appliances[2].MacAddr()) >= 2
	}, 2*time.Second, 20*time.Millisecond)
}

func TestCoordinatorEmptyRosterIsReady(t *testing.T) {
	cfg := util.LoadTestConfig()

	f := newCoordinatorFixture(t, cfg)
	future := f.setup()
	client := f.connectedClient(t, 1)
	client.EmitApplianceList()

	resp := setupResult(t, future)
	assert.False(t, resp.HasResponseError())
	require.Eventually(t, func() bool { return f.events.readyCount() == 1 }, time.Second, 10*time.Millisecond)
	assert.Empty(t, f.apis(t).Appliances)
}

func TestCoordinatorNotReadyWithoutRoster(t *testing.T) {
	cfg := util.LoadTestConfig()
	cfg.Coordinator.SetupTimeoutMillis = 300
	a := testAppliances()[0]

	f := newCoordinatorFixture(t, cfg)
	future := f.setup()
	client := f.connectedClient(t, 1)
	client.EmitInitialUpdate(a)

	resp := setupResult(t, future)
	require.True(t, resp.HasResponseError())
	assert.ErrorIs(t, resp.GetResponseError(), domain.ErrTimeoutFailure)
	assert.ErrorIs(t, resp.GetResponseError(), domain.ErrConnectFailure)
	assert.Equal(t, 0, f.events.readyCount())
	assert.Equal(t, "disconnected", f.status(t).State)
}

func TestCoordinatorSetupAuthFailure(t *testing.T) {
	cfg := util.LoadTestConfig()

	f := newCoordinatorFixture(t, cfg)
	f.clients.setConnectErr(fmt.Errorf("token: %w", smarthq.ErrAuthFailed))

	resp := setupResult(t, f.setup())
	require.True(t, resp.HasResponseError())
	assert.ErrorIs(t, resp.GetResponseError(), domain.ErrAuthFailure)
	assert.NotErrorIs(t, resp.GetResponseError(), domain.ErrConnectFailure)

	// no internal retry before the first successful setup
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 1, f.clients.count())
	assert.Equal(t, "disconnected", f.status(t).State)
}

func TestCoordinatorSetupConnectFailure(t *testing.T) {
	cfg := util.LoadTestConfig()

	f := newCoordinatorFixture(t, cfg)
	f.clients.setConnectErr(errors.New("connection refused"))

	resp := setupResult(t, f.setup())
	require.True(t, resp.HasResponseError())
	assert.ErrorIs(t, resp.GetResponseError(), domain.ErrConnectFailure)
	assert.NotErrorIs(t, resp.GetResponseError(), domain.ErrAuthFailure)

	// the host may retry the setup
	f.clients.setConnectErr(nil)
	future := f.setup()
	client := f.connectedClient(t, 2)
	client.EmitApplianceList()
	resp = setupResult(t, future)
	assert.False(t, resp.HasResponseError())
}

func TestCoordinatorReconnectBackoff(t *testing.T) {
	cfg := util.LoadTestConfig()
	a := testAppliances()[0]

	f, client := readyFixture(t, cfg, a)
	before := f.apis(t).Appliances[0].Entities

	f.clients.setConnectErr(errors.New("cloud unreachable"))
	client.DropConnection(errors.New("socket closed"))

	// 100ms, then 200ms, then 400ms between attempts
	require.Eventually(t, func() bool {
		return f.status(t).RetryCount == 2
	}, 2*time.Second, 10*time.Millisecond)
	status := f.status(t)
	assert.False(t, status.Connected)
	assert.True(t, status.Online, "still online within the offline retry count")

	require.Eventually(t, func() bool {
		return f.status(t).RetryCount == 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, f.status(t).Online)

	// each failed attempt doubles the wait before the next client
	gaps := f.clients.gaps()
	require.GreaterOrEqual(t, len(gaps), 3)
	assert.GreaterOrEqual(t, gaps[0], 100*time.Millisecond)
	assert.GreaterOrEqual(t, gaps[1], 200*time.Millisecond)
	assert.GreaterOrEqual(t, gaps[2], 400*time.Millisecond)

	uid := before[0].UniqueId
	require.Eventually(t, func() bool {
		state, ok := f.events.lastState(uid)
		return ok && !state.Available
	}, time.Second, 10*time.Millisecond)

	// next attempt succeeds
	f.clients.setConnectErr(nil)
	attempts := f.clients.count()
	reconnected := f.connectedClient(t, attempts+1)
	require.Eventually(t, func() bool {
		return f.status(t).RetryCount == 0
	}, time.Second, 10*time.Millisecond)

	fresh := smarthq.NewTestAppliance(a.MacAddr(), smarthq.ApplianceTypeDishwasher, "SN1")
	reconnected.EmitApplianceList(fresh)
	reconnected.EmitInitialUpdate(fresh)

	require.Eventually(t, func() bool { return f.events.readyCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	after := f.apis(t).Appliances
	require.Len(t, after, 1)
	assert.Equal(t, before, after[0].Entities, "entities survive reconnects")
	assert.True(t, f.status(t).Online)

	// the old session is detached
	client.EmitUpdate(a, map[smarthq.ErdCode]string{smarthq.ErdSabbathMode: smarthq.EncodeBool(true)})
	time.Sleep(50 * time.Millisecond)
	state, _ := f.events.lastState("sn1_sabbath_mode")
	assert.Equal(t, "off", state.State)
}

func TestCoordinatorUpdateFanOut(t *testing.T) {
	cfg := util.LoadTestConfig()
	a := testAppliances()[0]

	f, client := readyFixture(t, cfg, a)
	clockStates := f.events.stateCount("sn1_clock_time")
	client.EmitUpdate(a, map[smarthq.ErdCode]string{smarthq.ErdSabbathMode: smarthq.EncodeBool(true)})

	require.Eventually(t, func() bool {
		state, ok := f.events.lastState("sn1_sabbath_mode")
		return ok && state.State == "on" && state.Known && state.Available
	}, time.Second, 10*time.Millisecond)
	assert.True(t, f.status(t).LastUpdateSuccess)
	// entities of untouched erds are not republished
	assert.Equal(t, clockStates, f.events.stateCount("sn1_clock_time"))
	assert.Empty(t, f.events.addedIds())
}

func TestCoordinatorAnnouncesLateEntities(t *testing.T) {
	cfg := util.LoadTestConfig()
	a := testAppliances()[0]

	f, client := readyFixture(t, cfg, a)
	require.Eventually(t, func() bool { return f.events.readyCount() == 1 }, time.Second, 10*time.Millisecond)

	client.EmitUpdate(a, map[smarthq.ErdCode]string{smarthq.ErdDishwasherRinseAgent: "01"})

	require.Eventually(t, func() bool {
		_, ok := f.events.lastState("sn1_rinse_agent_low")
		return ok
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"sn1_rinse_agent_low"}, f.events.addedIds())

	// later changes update the state without another announcement
	client.EmitUpdate(a, map[smarthq.ErdCode]string{smarthq.ErdDishwasherRinseAgent: "00"})
	require.Eventually(t, func() bool {
		return f.events.stateCount("sn1_rinse_agent_low") == 2
	}, time.Second, 10*time.Millisecond)
	assert.Len(t, f.events.addedIds(), 1)
}

func TestCoordinatorSetEntityValue(t *testing.T) {
	cfg := util.LoadTestConfig()
	a := testAppliances()[0]

	f, client := readyFixture(t, cfg, a)

	set := func(uid, payload string) domain.SetEntityValueResponse {
		res, err := f.root.RequestFuture(f.pid, domain.SetEntityValueRequest{
			Command: domain.EntityCommand{Platform: domain.PLATFORM_SWITCH, UniqueId: uid, Payload: payload},
		}, time.Second).Result()
		require.NoError(t, err)
		return res.(domain.SetEntityValueResponse)
	}

	resp := set("sn1_sabbath_mode", "on")
	assert.False(t, resp.HasResponseError())
	requests := client.SetRequests()
	require.Len(t, requests, 1)
	assert.Equal(t, a.MacAddr(), requests[0].MacAddr)
	assert.Equal(t, smarthq.ErdSabbathMode, requests[0].Code)
	assert.Equal(t, smarthq.EncodeBool(true), requests[0].Value)

	resp = set("sn1_nope", "on")
	assert.ErrorIs(t, resp.GetResponseError(), domain.ErrUnknownEntity)

	resp = set("sn1_sabbath_mode", "maybe")
	assert.True(t, resp.HasResponseError())
	assert.Len(t, client.SetRequests(), 1)
}

func TestCoordinatorShutdown(t *testing.T) {
	cfg := util.LoadTestConfig()

	f, client := readyFixture(t, cfg, testAppliances()[0])

	_, err := f.root.RequestFuture(f.pid, domain.CoordinatorShutdownRequest{}, time.Second).Result()
	require.NoError(t, err)

	require.Eventually(t, func() bool { return client.Disconnects() == 1 }, time.Second, 10*time.Millisecond)
	status := f.status(t)
	assert.Equal(t, "stopped", status.State)
	assert.False(t, status.Connected)

	resp := setupResult(t, f.setup())
	assert.ErrorIs(t, resp.GetResponseError(), domain.ErrShutdown)

	// no reconnect after shutdown
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 1, f.clients.count())
}

func TestCoordinatorApplianceListRefresh(t *testing.T) {
	cfg := util.LoadTestConfig()
	cfg.Coordinator.ApplianceListIntervalMillis = 100

	_, client := readyFixture(t, cfg)

	require.Eventually(t, func() bool {
		return client.ListRequests() >= 1
	}, 2*time.Second, 10*time.Millisecond)
}
