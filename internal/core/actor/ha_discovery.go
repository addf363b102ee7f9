package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/smarthq2mqtt/internal/config"
	"github.com/berfenger/smarthq2mqtt/internal/core/domain"
	"github.com/berfenger/smarthq2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

// HADiscoveryActor registers entities with Home Assistant. It subscribes to the
// ready event first and then asks for the current apis, so a coordinator that
// became ready before this actor started is still picked up.
type HADiscoveryActor struct {
	config           *config.Config
	behavior         actor.Behavior
	coordinatorActor *actor.PID
	mqttActor        *actor.PID
	eventStream      *eventstream.EventStream
	subscription     *eventstream.Subscription
	bridgeDevice     domain.Device
	registered       map[string]struct{}

	logger *zap.Logger
}

func NewHADiscoveryActor(config *config.Config, coordinatorActor *actor.PID, mqttActor *actor.PID,
	eventStream *eventstream.EventStream, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:           config,
		coordinatorActor: coordinatorActor,
		mqttActor:        mqttActor,
		eventStream:      eventStream,
		behavior:         actor.NewBehavior(),
		bridgeDevice:     domain.BridgeDevice(config.MQTT.BaseTopic),
		registered:       map[string]struct{}{},
		logger:           actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")

		root := ctx.ActorSystem().Root
		self := ctx.Self()
		state.subscription = state.eventStream.Subscribe(func(evt any) {
			switch e := evt.(type) {
			case domain.AllAppliancesReadyEvent, domain.EntitiesAddedEvent:
				root.Send(self, e)
			}
		})

		state.register(ctx, domain.BridgeEntities(state.bridgeDevice))
		state.requestApis(ctx)
		state.behavior.Become(state.DefaultReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("hadiscovery@starting: unexpected message", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *HADiscoveryActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.AllAppliancesReadyEvent:
		state.logger.Debug("hadiscovery@default AllAppliancesReadyEvent", zap.Uint64("session", msg.Session))
		state.requestApis(ctx)
	case domain.EntitiesAddedEvent:
		state.logger.Debug("hadiscovery@default EntitiesAddedEvent", zap.Int("count", len(msg.Entities)))
		entities := make([]domain.GenericEntity, 0, len(msg.Entities))
		for _, entity := range msg.Entities {
			entity.Device.ViaDevice = state.bridgeDevice.Id
			entities = append(entities, entity)
		}
		state.register(ctx, entities)
	case domain.ApplianceApisResponse:
		if msg.HasResponseError() {
			state.logger.Error("hadiscovery@default ApplianceApisResponse error", zap.Error(msg.GetResponseError()))
			return
		}
		if !msg.Initialized {
			// the ready event will follow
			state.logger.Debug("hadiscovery@default coordinator not ready yet")
			return
		}
		var entities []domain.GenericEntity
		for _, info := range msg.Appliances {
			for _, entity := range info.Entities {
				entity.Device.ViaDevice = state.bridgeDevice.Id
				entities = append(entities, entity)
			}
		}
		state.register(ctx, entities)
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_HA_DISCOVERY,
			Healthy: true,
			State:   "default",
		})
	case *actor.Stopping:
		if state.subscription != nil {
			state.eventStream.Unsubscribe(state.subscription)
			state.subscription = nil
		}
	case *actor.Restarting:
		if state.subscription != nil {
			state.eventStream.Unsubscribe(state.subscription)
			state.subscription = nil
		}
	default:
		state.logger.Debug("hadiscovery@default: unexpected message", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *HADiscoveryActor) requestApis(ctx actor.Context) {
	actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.coordinatorActor, domain.ApplianceApisRequest{}, 2*time.Second), func(err error) any {
		return domain.ApplianceApisResponse{
			ActorResponseMixIn: domain.ErrorResponse(err),
		}
	})
}

// register publishes discovery for the entities not registered yet.
func (state *HADiscoveryActor) register(ctx actor.Context, entities []domain.GenericEntity) {
	var fresh []domain.GenericEntity
	for _, entity := range entities {
		if _, ok := state.registered[entity.UniqueId]; ok {
			continue
		}
		state.registered[entity.UniqueId] = struct{}{}
		fresh = append(fresh, entity)
	}
	if len(fresh) == 0 {
		return
	}
	state.logger.Info("hadiscovery: registering entities", zap.Int("count", len(fresh)))
	ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
		Entities: fresh,
	})
}
