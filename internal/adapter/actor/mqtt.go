package actor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/berfenger/smarthq2mqtt/internal/config"
	"github.com/berfenger/smarthq2mqtt/internal/core/domain"
	"github.com/berfenger/smarthq2mqtt/internal/mqtt"
	"github.com/berfenger/smarthq2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MQTTActor publishes entity states, availability and discovery configs from
// the event stream, and forwards entity commands to its parent.
type MQTTActor struct {
	config         *config.Config
	behavior       actor.Behavior
	stash          *actorutil.Stash
	client         *mqtt.MQTTClient
	eventStream    *eventstream.EventStream
	eventStreamSub *eventstream.Subscription
	bridgeDevice   domain.Device
	published      map[string]string
	logger         *zap.Logger
}

type MQTTConnected struct {
}

type MQTTSubscribed struct {
}

type MQTTConnectionLost struct {
	Error error
}

type publishResult struct {
	Topic   string
	ReplyTo *actor.PID
	Error   error
}

type ParsedCommand struct {
	Command *mqtt.ParsedMQTTCommand
}

type onEventStreamMessage struct {
	message any
}

type rawMessage struct {
	topic   string
	message string
	retain  bool
}

func NewMQTTActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *MQTTActor {
	act := newMQTTActor(config, eventStream, logger)
	act.behavior.Become(act.StartingReceive)
	return act
}

func newMQTTActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *MQTTActor {
	return &MQTTActor{
		config:       config,
		behavior:     actor.NewBehavior(),
		stash:        &actorutil.Stash{},
		eventStream:  eventStream,
		bridgeDevice: domain.BridgeDevice(config.MQTT.BaseTopic),
		published:    map[string]string{},
		logger:       actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
}

func (state *MQTTActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MQTTActor) StartingReceive(ctx actor.Context) {
	root := ctx.ActorSystem().Root
	self := ctx.Self()
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("mqtt@starting started")

		// create MQTT client
		state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config), func(_ pahomqtt.Client) {
		}, func(_ pahomqtt.Client, err error) {
			root.Send(self, MQTTConnectionLost{Error: err})
		})

		// connect to MQTT server
		state.client.Connect(func(err error) {
			if err != nil {
				root.Send(self, MQTTConnectionLost{Error: err})
			} else {
				root.Send(self, MQTTConnected{})
			}
		}, 10*time.Second)

	case MQTTConnected:
		state.logger.Debug("mqtt@starting connected")

		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_ONLINE, 0, true, func(error) {}, 500*time.Millisecond)

		// subscribe to MQTT command topic
		state.client.SubscribeToCommandTopic(func(c pahomqtt.Client, m pahomqtt.Message) {
			cmd, err := state.client.ParseMQTTCommand(m)
			if err != nil {
				state.logger.Warn("mqtt: invalid command", zap.String("topic", m.Topic()), zap.Error(err))
				return
			}
			root.Send(self, ParsedCommand{Command: cmd})
		}, func(err error) {
			if err != nil {
				root.Send(self, MQTTConnectionLost{Error: err})
			} else {
				root.Send(self, MQTTSubscribed{})
			}
		}, 1*time.Second)
	case MQTTSubscribed:
		// init completed, transition to default state
		state.logger.Debug("mqtt@starting subscribed")
		state.subscribeEvents(ctx)
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@starting connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	case *actor.Restarting:
		state.stop()
	default:
		state.logger.Debug("mqtt@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@default ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: state.client.IsConnected(),
			State:   "idle",
		})
	case ParsedCommand:
		// route command to parent
		state.logger.Debug("mqtt@default parsedCommand", zap.Any("command", msg.Command))
		ctx.Send(ctx.Parent(), msg)
	case domain.PublishMessageRequest:
		state.logger.Debug("mqtt@default PublishMessageRequest", zap.String("topic", msg.Topic))
		state.publish(ctx, rawMessage{topic: msg.Topic, message: msg.Payload, retain: msg.Retain}, actorutil.ForRequest(msg).ReplyTo(ctx))
	case onEventStreamMessage:
		for _, m := range state.eventMessages(msg.message) {
			state.publish(ctx, m, nil)
		}
	case domain.PublishDiscoveryRequest:
		state.logger.Debug("mqtt@default PublishDiscoveryRequest", zap.Int("entities", len(msg.Entities)))
		if err := state.PublishHomeAssistantDiscovery(msg.Entities); err != nil {
			state.logger.Error("mqtt@default PublishDiscoveryRequest error", zap.Error(err))
		}
	case publishResult:
		if msg.Error != nil {
			state.logger.Error("mqtt@default could not publish a message", zap.String("topic", msg.Topic), zap.Error(msg.Error))
			// retry on the next event
			delete(state.published, msg.Topic)
		}
		if msg.ReplyTo != nil {
			ctx.Send(msg.ReplyTo, domain.PublishMessageResponse{
				ActorResponseMixIn: domain.ErrorResponse(msg.Error),
			})
		}
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@default connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	default:
		state.logger.Debug("mqtt@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MQTTActor) subscribeEvents(ctx actor.Context) {
	root := ctx.ActorSystem().Root
	self := ctx.Self()
	state.eventStreamSub = state.eventStream.Subscribe(func(value any) {
		switch value.(type) {
		case domain.EntityStateEvent, domain.ConnectivityEvent:
			root.Send(self, onEventStreamMessage{message: value})
		}
	})
}

// eventMessages maps an event to the messages to publish. Messages whose
// payload did not change since the last publish are skipped.
func (state *MQTTActor) eventMessages(event any) []rawMessage {
	var messages []rawMessage
	switch msg := event.(type) {
	case domain.EntityStateEvent:
		if msg.Platform != domain.PLATFORM_BUTTON && msg.Known {
			messages = append(messages, rawMessage{
				topic:   state.client.EntityStateTopic(msg.Platform, msg.UniqueId),
				message: msg.State,
				retain:  true,
			})
		}
		messages = append(messages, rawMessage{
			topic:   state.client.EntityAvailabilityTopic(msg.Platform, msg.UniqueId),
			message: availabilityPayload(msg.Available),
			retain:  true,
		})
	case domain.ConnectivityEvent:
		messages = append(messages,
			rawMessage{
				topic:   state.bridgeEntityTopic(domain.PLATFORM_BINARY_SENSOR, domain.ENTITY_ID_CLOUD_CONNECTED),
				message: bool2MQTTPayload(msg.Connected),
			},
			rawMessage{
				topic:   state.bridgeEntityTopic(domain.PLATFORM_BINARY_SENSOR, domain.ENTITY_ID_CLOUD_ONLINE),
				message: bool2MQTTPayload(msg.Online),
			},
			rawMessage{
				topic:   state.bridgeEntityTopic(domain.PLATFORM_SENSOR, domain.ENTITY_ID_CLOUD_RETRY_COUNT),
				message: strconv.Itoa(msg.RetryCount),
			},
		)
	}
	fresh := messages[:0]
	for _, m := range messages {
		if last, ok := state.published[m.topic]; ok && last == m.message {
			continue
		}
		state.published[m.topic] = m.message
		fresh = append(fresh, m)
	}
	return fresh
}

func (state *MQTTActor) bridgeEntityTopic(platform, id string) string {
	return state.client.EntityStateTopic(platform, domain.BridgeUniqueId(state.bridgeDevice, id))
}

func (state *MQTTActor) publish(ctx actor.Context, msg rawMessage, replyTo *actor.PID) {
	root := ctx.ActorSystem().Root
	self := ctx.Self()
	state.logger.Sugar().Debugf("mqtt@publish: %s => %s", msg.topic, msg.message)
	state.client.Publish(msg.topic, msg.message, 1, msg.retain, func(err error) {
		if err != nil || replyTo != nil {
			root.Send(self, publishResult{Topic: msg.topic, ReplyTo: replyTo, Error: err})
		}
	}, 5*time.Second)
}

func (state *MQTTActor) PublishHomeAssistantDiscovery(entities []domain.GenericEntity) error {
	for i := range entities {
		msg := mqtt.GenericEntityToHADiscoveryMessage(state.client, entities[i])
		payload, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		topic := mqtt.HADiscoveryTopic(state.config.MQTT.HADiscoveryTopic, entities[i])
		state.client.Publish(topic, payload, 0, true, func(error) {}, 1*time.Second)
	}
	return nil
}

func (state *MQTTActor) stop() {
	state.logger.Debug("mqtt: disconnect")
	if state.eventStreamSub != nil {
		state.eventStream.Unsubscribe(state.eventStreamSub)
		state.eventStreamSub = nil
	}
	if state.client != nil {
		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_OFFLINE, 0, true, func(error) {}, 500*time.Millisecond)
		state.client.Disconnect(500 * time.Millisecond)
	}
}

func bool2MQTTPayload(value bool) string {
	if value {
		return mqtt.MQTT_PAYLOAD_ON
	}
	return mqtt.MQTT_PAYLOAD_OFF
}

func availabilityPayload(available bool) string {
	if available {
		return mqtt.MQTT_PAYLOAD_ONLINE
	}
	return mqtt.MQTT_PAYLOAD_OFFLINE
}

// NewTestMQTTActor does not connect to a broker. Publishes are recorded and
// can be read with TestPublishedRequest.
func NewTestMQTTActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *MQTTActor {
	act := newMQTTActor(config, eventStream, logger)
	act.behavior.Become(act.DummyReceive)
	return act
}

type TestPublishedRequest struct {
}

type TestPublishedResponse struct {
	Messages map[string]string
}

func (state *MQTTActor) DummyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config), nil, nil)
		state.subscribeEvents(ctx)
	case *actor.Stopping:
		if state.eventStreamSub != nil {
			state.eventStream.Unsubscribe(state.eventStreamSub)
		}
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "idle",
		})
	case onEventStreamMessage:
		state.eventMessages(msg.message)
	case ParsedCommand:
		ctx.Send(ctx.Parent(), msg)
	case domain.PublishDiscoveryRequest:
		for _, e := range msg.Entities {
			state.published[mqtt.HADiscoveryTopic(state.config.MQTT.HADiscoveryTopic, e)] = e.UniqueId
		}
	case domain.PublishMessageRequest:
		state.published[msg.Topic] = msg.Payload
		actorutil.ForRequest(msg).Respond(ctx, domain.PublishMessageResponse{})
	case TestPublishedRequest:
		messages := make(map[string]string, len(state.published))
		for k, v := range state.published {
			messages[k] = v
		}
		ctx.Respond(TestPublishedResponse{Messages: messages})
	}
}
