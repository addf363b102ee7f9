package util

import (
	"github.com/berfenger/smarthq2mqtt/internal/config"

	"go.uber.org/zap"
)

// LoadTestConfig returns a config with millisecond scale coordinator timings.
func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		SmartHQ: config.SmartHQConfig{
			Username: "test@example.com",
			Password: "test",
			Region:   "US",
		},
		MQTT: config.MQTTConfig{
			Host:             "localhost",
			Port:             1883,
			BaseTopic:        "smarthq",
			HADiscoveryTopic: "homeassistant",
		},
		Coordinator: config.CoordinatorConfig{
			UpdateIntervalMillis:        100,
			AsyncTimeoutMillis:          500,
			SetupTimeoutMillis:          2000,
			RosterSettleMillis:          20,
			ReadySettleMillis:           20,
			MinRetryDelayMillis:         100,
			MaxRetryDelayMillis:         1000,
			RetryOfflineCount:           2,
			ApplianceListIntervalMillis: 60000,
		},
		Port: 8080,
	}
}
