package actor

import (
	"sync"
	"testing"
	"time"

	"github.com/berfenger/smarthq2mqtt/internal/core/domain"
	"github.com/berfenger/smarthq2mqtt/internal/util"
	"github.com/berfenger/smarthq2mqtt/pkg/smarthq"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type discoveryRecorder struct {
	mu       sync.Mutex
	requests []domain.PublishDiscoveryRequest
}

func (p *discoveryRecorder) receive(ctx actor.Context) {
	if msg, ok := ctx.Message().(domain.PublishDiscoveryRequest); ok {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.requests = append(p.requests, msg)
	}
}

func (p *discoveryRecorder) entities() ([]domain.GenericEntity, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var entities []domain.GenericEntity
	for _, r := range p.requests {
		entities = append(entities, r.Entities...)
	}
	return entities, len(p.requests)
}

func TestHADiscoveryLateSubscriber(t *testing.T) {
	cfg := util.LoadTestConfig()
	a := testAppliances()[0]

	f, _ := readyFixture(t, cfg, a)
	require.Eventually(t, func() bool { return f.events.readyCount() == 1 }, time.Second, 10*time.Millisecond)
	applianceEntities := f.apis(t).Appliances[0].Entities

	recorder := &discoveryRecorder{}
	mqttPID := f.root.Spawn(actor.PropsFromFunc(recorder.receive))

	logger := zap.Must(zap.NewDevelopment())
	f.root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&cfg, f.pid, mqttPID, f.es, logger)
	}))

	bridge := domain.BridgeDevice(cfg.MQTT.BaseTopic)
	expected := len(domain.BridgeEntities(bridge)) + len(applianceEntities)
	require.Eventually(t, func() bool {
		entities, _ := recorder.entities()
		return len(entities) == expected
	}, 2*time.Second, 10*time.Millisecond)

	entities, requests := recorder.entities()
	assert.Equal(t, 2, requests)
	seen := map[string]bool{}
	for _, e := range entities {
		assert.False(t, seen[e.UniqueId], "duplicate %s", e.UniqueId)
		seen[e.UniqueId] = true
		if e.Device.Id != bridge.Id {
			assert.Equal(t, bridge.Id, e.Device.ViaDevice)
		}
	}

	// a ready event of a later session registers nothing new
	f.es.Publish(domain.AllAppliancesReadyEvent{Session: 42})
	time.Sleep(100 * time.Millisecond)
	_, requests = recorder.entities()
	assert.Equal(t, 2, requests)
}

func TestHADiscoveryWaitsForReady(t *testing.T) {
	cfg := util.LoadTestConfig()
	a := testAppliances()[1]

	f := newCoordinatorFixture(t, cfg)

	recorder := &discoveryRecorder{}
	mqttPID := f.root.Spawn(actor.PropsFromFunc(recorder.receive))
	logger := zap.Must(zap.NewDevelopment())
	f.root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&cfg, f.pid, mqttPID, f.es, logger)
	}))

	// only the bridge until the coordinator is ready
	bridgeCount := len(domain.BridgeEntities(domain.BridgeDevice(cfg.MQTT.BaseTopic)))
	require.Eventually(t, func() bool {
		entities, _ := recorder.entities()
		return len(entities) == bridgeCount
	}, time.Second, 10*time.Millisecond)

	future := f.setup()
	client := f.connectedClient(t, 1)
	client.EmitApplianceList(a)
	client.EmitInitialUpdate(a)
	resp := setupResult(t, future)
	require.False(t, resp.HasResponseError())

	require.Eventually(t, func() bool {
		entities, _ := recorder.entities()
		return len(entities) > bridgeCount
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHADiscoveryRegistersLateEntities(t *testing.T) {
	cfg := util.LoadTestConfig()
	a := testAppliances()[0]

	f, client := readyFixture(t, cfg, a)
	require.Eventually(t, func() bool { return f.events.readyCount() == 1 }, time.Second, 10*time.Millisecond)

	recorder := &discoveryRecorder{}
	mqttPID := f.root.Spawn(actor.PropsFromFunc(recorder.receive))
	logger := zap.Must(zap.NewDevelopment())
	f.root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&cfg, f.pid, mqttPID, f.es, logger)
	}))
	require.Eventually(t, func() bool {
		_, requests := recorder.entities()
		return requests == 2
	}, 2*time.Second, 10*time.Millisecond)

	client.EmitUpdate(a, map[smarthq.ErdCode]string{smarthq.ErdDishwasherRinseAgent: "01"})

	require.Eventually(t, func() bool {
		_, requests := recorder.entities()
		return requests == 3
	}, 2*time.Second, 10*time.Millisecond)
	recorder.mu.Lock()
	late := recorder.requests[2].Entities
	recorder.mu.Unlock()
	require.Len(t, late, 1)
	assert.Equal(t, "sn1_rinse_agent_low", late[0].UniqueId)
	assert.Equal(t, domain.BridgeDevice(cfg.MQTT.BaseTopic).Id, late[0].Device.ViaDevice)
}
