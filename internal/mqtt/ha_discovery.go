package mqtt

import (
	"fmt"

	"github.com/berfenger/smarthq2mqtt/internal/core/domain"
)

type HADiscoveryConfig struct {
	Device            HADiscoveryDevice         `json:"device"`
	StateTopic        string                    `json:"state_topic,omitempty"`
	CommandTopic      string                    `json:"command_topic,omitempty"`
	StateClass        string                    `json:"state_class,omitempty"`
	DeviceClass       string                    `json:"device_class,omitempty"`
	UnitOfMeasurement string                    `json:"unit_of_measurement,omitempty"`
	Availability      []HADiscoveryAvailability `json:"availability,omitempty"`
	AvailabilityMode  string                    `json:"availability_mode,omitempty"`
	EntityCategory    string                    `json:"entity_category,omitempty"`
	Name              string                    `json:"name"`
	UniqueId          string                    `json:"unique_id"`
	Platform          string                    `json:"platform"`
	EnabledByDefault  *bool                     `json:"enabled_by_default,omitempty"`
	PayloadOn         string                    `json:"payload_on,omitempty"`
	PayloadOff        string                    `json:"payload_off,omitempty"`
	PayloadPress      string                    `json:"payload_press,omitempty"`
	Icon              string                    `json:"icon,omitempty"`
	Options           []string                  `json:"options,omitempty"`
	Min               *float64                  `json:"min,omitempty"`
	Max               *float64                  `json:"max,omitempty"`
	Step              float64                   `json:"step,omitempty"`
	Mode              string                    `json:"mode,omitempty"`
}

type HADiscoveryAvailability struct {
	Topic               string `json:"topic"`
	PayloadAvailable    string `json:"payload_available,omitempty"`
	PayloadNotAvailable string `json:"payload_not_available,omitempty"`
}

type HADiscoveryDevice struct {
	Id           []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Version      string   `json:"sw_version,omitempty"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name,omitempty"`
	ViaDevice    string   `json:"via_device,omitempty"`
}

func HADiscoveryTopic(prefix string, entity domain.GenericEntity) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", prefix, entity.Platform, entity.Device.Id, entity.Id)
}

// GenericEntityToHADiscoveryMessage builds the discovery config of one entity.
// Entities routed through the bridge device (ViaDevice set) also depend on their
// own availability topic.
func GenericEntityToHADiscoveryMessage(client *MQTTClient, entity domain.GenericEntity) HADiscoveryConfig {
	disConfig := HADiscoveryConfig{
		Device:            device(entity.Device),
		StateClass:        entity.StateClass,
		DeviceClass:       entity.DeviceClass,
		UnitOfMeasurement: entity.UnitOfMeasurement,
		EntityCategory:    entity.EntityCategory,
		Name:              entity.Name,
		UniqueId:          entity.UniqueId,
		Icon:              entity.Icon,
		EnabledByDefault:  entity.EnabledByDefault,
		Platform:          "mqtt",
	}

	bridgeAvailability := HADiscoveryAvailability{Topic: client.BridgeStateTopic()}
	isBridgeState := entity.Id == domain.ENTITY_ID_BRIDGE_STATE && entity.Device.ViaDevice == ""
	switch {
	case isBridgeState:
		disConfig.StateTopic = client.BridgeStateTopic()
	case entity.Device.ViaDevice == "":
		disConfig.Availability = []HADiscoveryAvailability{bridgeAvailability}
	default:
		disConfig.Availability = []HADiscoveryAvailability{
			bridgeAvailability,
			{Topic: client.EntityAvailabilityTopic(entity.Platform, entity.UniqueId)},
		}
		disConfig.AvailabilityMode = "all"
	}
	if disConfig.StateTopic == "" && entity.Platform != domain.PLATFORM_BUTTON {
		disConfig.StateTopic = client.EntityStateTopic(entity.Platform, entity.UniqueId)
	}
	if entity.AcceptsCommands() {
		disConfig.CommandTopic = client.EntityCommandTopic(entity.Platform, entity.UniqueId)
	}

	switch entity.Platform {
	case domain.PLATFORM_BINARY_SENSOR:
		if isBridgeState {
			disConfig.PayloadOn = MQTT_PAYLOAD_ONLINE
			disConfig.PayloadOff = MQTT_PAYLOAD_OFFLINE
		} else {
			disConfig.PayloadOn = MQTT_PAYLOAD_ON
			disConfig.PayloadOff = MQTT_PAYLOAD_OFF
		}
	case domain.PLATFORM_SWITCH:
		disConfig.PayloadOn = MQTT_PAYLOAD_ON
		disConfig.PayloadOff = MQTT_PAYLOAD_OFF
	case domain.PLATFORM_SELECT:
		disConfig.Options = entity.Options
	case domain.PLATFORM_NUMBER:
		disConfig.Min = &entity.Min
		disConfig.Max = &entity.Max
		disConfig.Step = entity.Step
		disConfig.Mode = entity.Mode
	case domain.PLATFORM_BUTTON:
		disConfig.PayloadPress = entity.PayloadPress
	}
	return disConfig
}

func device(d domain.Device) HADiscoveryDevice {
	return HADiscoveryDevice{
		Id:           []string{d.Id},
		Manufacturer: d.Manufacturer,
		Version:      d.Version,
		Model:        d.Model,
		Name:         d.Name,
		ViaDevice:    d.ViaDevice,
	}
}
