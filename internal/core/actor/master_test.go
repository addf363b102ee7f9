package actor

import (
	"errors"
	"testing"
	"time"

	adactor "github.com/berfenger/smarthq2mqtt/internal/adapter/actor"
	"github.com/berfenger/smarthq2mqtt/internal/core/domain"
	"github.com/berfenger/smarthq2mqtt/internal/core/service"
	"github.com/berfenger/smarthq2mqtt/internal/mqtt"
	"github.com/berfenger/smarthq2mqtt/internal/util"
	"github.com/berfenger/smarthq2mqtt/internal/util/actorutil"
	"github.com/berfenger/smarthq2mqtt/pkg/smarthq"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMasterActor(t *testing.T) {

	cfg := util.LoadTestConfig()
	cfg.MQTT.HADiscoveryEnable = true
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()
	context := as.Root

	clients := &testClients{}
	policy := service.DefaultCoordinatorPolicy{
		MinRetryDelay:     cfg.Coordinator.MinRetryDelay(),
		MaxRetryDelay:     cfg.Coordinator.MaxRetryDelay(),
		RetryOfflineCount: cfg.Coordinator.RetryOfflineCount,
	}

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, func(es *eventstream.EventStream) *CoordinatorActor {
			return NewCoordinatorActor(&cfg, policy, clients.factory, es, nil, logger)
		}, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, logger)
		}, nil, logger)
	})
	pid, err := context.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	require.NoError(t, err)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 5*time.Second).Result()
	require.NoError(t, err)
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.True(t, healthResp.Healthy, "healthy is true")

	// setup is forwarded to the coordinator
	future := context.RequestFuture(pid, domain.CoordinatorSetupRequest{}, 5*time.Second)
	require.Eventually(t, func() bool {
		return clients.count() == 1 && clients.last().Connected()
	}, 3*time.Second, 10*time.Millisecond)
	client := clients.last()
	a := testAppliances()[0]
	client.EmitApplianceList(a)
	client.EmitInitialUpdate(a)

	res, err = future.Result()
	require.NoError(t, err)
	setupResp := res.(domain.CoordinatorSetupResponse)
	assert.False(t, setupResp.HasResponseError())

	// an mqtt command reaches the client
	context.Send(pid, adactor.ParsedCommand{Command: &mqtt.ParsedMQTTCommand{
		Platform: domain.PLATFORM_SWITCH,
		UniqueId: "sn1_sabbath_mode",
		Payload:  "on",
	}})
	require.Eventually(t, func() bool {
		return len(client.SetRequests()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	res, err = context.RequestFuture(pid, domain.CoordinatorStatusRequest{}, time.Second).Result()
	require.NoError(t, err)
	status := res.(domain.CoordinatorStatusResponse)
	assert.Equal(t, "connected", status.State)
	assert.Len(t, status.Appliances, 1)

	res, err = context.RequestFuture(pid, domain.CoordinatorShutdownRequest{}, time.Second).Result()
	require.NoError(t, err)
	_, ok = res.(domain.CoordinatorShutdownResponse)
	assert.True(t, ok)

	context.Stop(pid)
}

func TestMasterCoordinatorRecoversAfterRestart(t *testing.T) {

	cfg := util.LoadTestConfig()
	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()
	context := as.Root

	// the reconnect after the drop fails inside the coordinator
	clients := &testClients{panicOn: 2}
	policy := service.DefaultCoordinatorPolicy{
		MinRetryDelay:     cfg.Coordinator.MinRetryDelay(),
		MaxRetryDelay:     cfg.Coordinator.MaxRetryDelay(),
		RetryOfflineCount: cfg.Coordinator.RetryOfflineCount,
	}
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, func(es *eventstream.EventStream) *CoordinatorActor {
			return NewCoordinatorActor(&cfg, policy, clients.factory, es, nil, logger)
		}, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, logger)
		}, nil, logger)
	})
	pid := context.Spawn(props)

	status := func() domain.CoordinatorStatusResponse {
		res, err := context.RequestFuture(pid, domain.CoordinatorStatusRequest{}, time.Second).Result()
		require.NoError(t, err)
		return res.(domain.CoordinatorStatusResponse)
	}

	future := context.RequestFuture(pid, domain.CoordinatorSetupRequest{}, 5*time.Second)
	require.Eventually(t, func() bool {
		return clients.count() == 1 && clients.last().Connected()
	}, 3*time.Second, 10*time.Millisecond)
	first := clients.last()
	a := testAppliances()[0]
	first.EmitApplianceList(a)
	first.EmitInitialUpdate(a)
	res, err := future.Result()
	require.NoError(t, err)
	require.False(t, res.(domain.CoordinatorSetupResponse).HasResponseError())

	first.DropConnection(errors.New("socket closed"))

	// the restarted coordinator reconnects without a new setup request
	require.Eventually(t, func() bool {
		return clients.count() == 2 && clients.last().Connected()
	}, 3*time.Second, 10*time.Millisecond)
	second := clients.last()
	fresh := smarthq.NewTestAppliance(a.MacAddr(), smarthq.ApplianceTypeDishwasher, "SN1")
	second.EmitApplianceList(fresh)
	second.EmitInitialUpdate(fresh)

	require.Eventually(t, func() bool {
		s := status()
		return s.State == "connected" && s.Initialized && len(s.Appliances) == 1
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, status().RetryCount)

	// callbacks of the client owned by the failed incarnation are ignored
	first.EmitUpdate(a, map[smarthq.ErdCode]string{smarthq.ErdSabbathMode: smarthq.EncodeBool(true)})

	res, err = context.RequestFuture(pid, domain.CoordinatorSetupRequest{}, time.Second).Result()
	require.NoError(t, err)
	assert.False(t, res.(domain.CoordinatorSetupResponse).HasResponseError())
}
