package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/carlmjohnson/versioninfo"
)

const (
	ENTITY_ID_BRIDGE_STATE      = "bridge"
	ENTITY_ID_CLOUD_CONNECTED   = "cloud_connected"
	ENTITY_ID_CLOUD_ONLINE      = "cloud_online"
	ENTITY_ID_CLOUD_RETRY_COUNT = "cloud_retry_count"
)

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("smarthq_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "smarthq2mqtt",
		Model:        "SmartHQ bridge",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("SmartHQ %s", md5HashShort(baseTopic)),
	}
}

func BridgeEntities(bridgeDevice Device) []GenericEntity {

	var entities []GenericEntity

	// MQTT bridge availability
	entities = append(entities, GenericEntity{
		Device:         bridgeDevice,
		Platform:       PLATFORM_BINARY_SENSOR,
		Id:             ENTITY_ID_BRIDGE_STATE,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       BridgeUniqueId(bridgeDevice, ENTITY_ID_BRIDGE_STATE),
	})

	// cloud websocket
	entities = append(entities, GenericEntity{
		Device:         bridgeDevice,
		Platform:       PLATFORM_BINARY_SENSOR,
		Id:             ENTITY_ID_CLOUD_CONNECTED,
		Name:           "Cloud connected",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       BridgeUniqueId(bridgeDevice, ENTITY_ID_CLOUD_CONNECTED),
	})

	entities = append(entities, GenericEntity{
		Device:         bridgeDevice,
		Platform:       PLATFORM_BINARY_SENSOR,
		Id:             ENTITY_ID_CLOUD_ONLINE,
		Name:           "Cloud online",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       BridgeUniqueId(bridgeDevice, ENTITY_ID_CLOUD_ONLINE),
	})

	entities = append(entities, GenericEntity{
		Device:           bridgeDevice,
		Platform:         PLATFORM_SENSOR,
		Id:               ENTITY_ID_CLOUD_RETRY_COUNT,
		Name:             "Cloud reconnect attempts",
		StateClass:       STATE_CLASS_MEASUREMENT,
		EntityCategory:   ENTITY_CLASS_DIAGNOSTIC,
		EnabledByDefault: OptionalBool(false),
		Icon:             "mdi:cloud-refresh",
		UniqueId:         BridgeUniqueId(bridgeDevice, ENTITY_ID_CLOUD_RETRY_COUNT),
	})

	return entities
}

func BridgeUniqueId(bridgeDevice Device, id string) string {
	return fmt.Sprintf("uid_%s_%s", bridgeDevice.Id, id)
}

func md5HashShort(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])[0:8]
}
