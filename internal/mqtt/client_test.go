package mqtt

import (
	"testing"

	"github.com/berfenger/smarthq2mqtt/internal/config"
	"github.com/berfenger/smarthq2mqtt/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandParse(t *testing.T) {

	require := require.New(t)

	r := commandExtractor("loremTopic")

	cmd, err := parseCommand(r, "loremTopic/switch/sn1_sabbath_mode/set", "on")
	require.NoError(err)
	require.Equal("switch", cmd.Platform)
	require.Equal("sn1_sabbath_mode", cmd.UniqueId)
	require.Equal("on", cmd.Payload)

	cmd, err = parseCommand(r, "loremTopic/select/sn1_ac_fan/set", " high \n")
	require.NoError(err)
	require.Equal("high", cmd.Payload)

	cmd, err = parseCommand(r, "loremTopic/button/sn1_oven_cancel/set", "PRESS")
	require.NoError(err)
	require.Equal("button", cmd.Platform)
}

func TestCommandParseFail(t *testing.T) {

	assert := assert.New(t)

	r := commandExtractor("loremTopic")

	_, err := parseCommand(r, "loremTopic/switch/sn1_sabbath_mode/state", "on")
	assert.Error(err, "state topic")
	_, err = parseCommand(r, "loremTopic/sensor/sn1_clock_time/set", "1")
	assert.Error(err, "sensors take no commands")
	_, err = parseCommand(r, "otherTopic/switch/sn1_sabbath_mode/set", "on")
	assert.Error(err, "foreign base topic")
	_, err = parseCommand(r, "loremTopic/number/sn1_target/set", "warm")
	assert.Error(err, "number payload")
}

func TestNumberCommandParse(t *testing.T) {
	cmd, err := parseCommand(commandExtractor("loremTopic"), "loremTopic/number/sn1_target/set", "72.5")
	assert.NoError(t, err)
	assert.Equal(t, "72.5", cmd.Payload)
}

func testClient() *MQTTClient {
	return &MQTTClient{
		cfg:           config.MQTTConfig{BaseTopic: "smarthq"},
		commandRegexp: commandExtractor("smarthq"),
	}
}

func TestDiscoveryApplianceSwitch(t *testing.T) {
	assert := assert.New(t)

	client := testClient()
	entity := domain.GenericEntity{
		Device:   domain.Device{Id: "smarthq_sn1", ViaDevice: "smarthq_bridge_x"},
		Platform: domain.PLATFORM_SWITCH,
		Id:       "sabbath_mode",
		Name:     "Sabbath mode",
		UniqueId: "sn1_sabbath_mode",
	}
	msg := GenericEntityToHADiscoveryMessage(client, entity)
	assert.Equal("smarthq/switch/sn1_sabbath_mode/state", msg.StateTopic)
	assert.Equal("smarthq/switch/sn1_sabbath_mode/set", msg.CommandTopic)
	assert.Equal(MQTT_PAYLOAD_ON, msg.PayloadOn)
	assert.Equal("all", msg.AvailabilityMode)
	assert.Len(msg.Availability, 2)
	assert.Equal("smarthq/bridge/state", msg.Availability[0].Topic)
	assert.Equal("smarthq/switch/sn1_sabbath_mode/availability", msg.Availability[1].Topic)
	assert.Equal("homeassistant/switch/smarthq_sn1/sabbath_mode/config", HADiscoveryTopic("homeassistant", entity))
}

func TestDiscoveryBridgeAndButton(t *testing.T) {
	assert := assert.New(t)

	client := testClient()
	bridge := domain.BridgeEntities(domain.BridgeDevice("smarthq"))
	msg := GenericEntityToHADiscoveryMessage(client, bridge[0])
	assert.Equal("smarthq/bridge/state", msg.StateTopic)
	assert.Equal(MQTT_PAYLOAD_ONLINE, msg.PayloadOn)
	assert.Empty(msg.Availability)
	assert.Empty(msg.CommandTopic)

	msg = GenericEntityToHADiscoveryMessage(client, bridge[1])
	assert.Equal(client.EntityStateTopic(domain.PLATFORM_BINARY_SENSOR, bridge[1].UniqueId), msg.StateTopic)
	assert.Len(msg.Availability, 1)

	button := domain.GenericEntity{
		Device:       domain.Device{Id: "smarthq_sn1", ViaDevice: "smarthq_bridge_x"},
		Platform:     domain.PLATFORM_BUTTON,
		Id:           "oven_cancel",
		UniqueId:     "sn1_oven_cancel",
		PayloadPress: "PRESS",
	}
	msg = GenericEntityToHADiscoveryMessage(client, button)
	assert.Empty(msg.StateTopic)
	assert.Equal("smarthq/button/sn1_oven_cancel/set", msg.CommandTopic)
	assert.Equal("PRESS", msg.PayloadPress)
}
