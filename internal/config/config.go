package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel    zapcore.Level
	SmartHQ     SmartHQConfig     `mapstructure:"smarthq"`
	MQTT        MQTTConfig        `mapstructure:"mqtt"`
	Coordinator CoordinatorConfig `mapstructure:"coordinator"`
	Port        uint              `mapstructure:"port"`
	HttpLog     bool              `mapstructure:"http_log"`
}

type SmartHQConfig struct {
	Username     string
	Password     string
	Region       string
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	TokenFile    string `mapstructure:"token_file"`
}

type CoordinatorConfig struct {
	UpdateIntervalMillis        uint32 `mapstructure:"update_interval_millis"`
	AsyncTimeoutMillis          uint32 `mapstructure:"async_timeout_millis"`
	SetupTimeoutMillis          uint32 `mapstructure:"setup_timeout_millis"`
	RosterSettleMillis          uint32 `mapstructure:"roster_settle_millis"`
	ReadySettleMillis           uint32 `mapstructure:"ready_settle_millis"`
	MinRetryDelayMillis         uint32 `mapstructure:"min_retry_delay_millis"`
	MaxRetryDelayMillis         uint32 `mapstructure:"max_retry_delay_millis"`
	RetryOfflineCount           int    `mapstructure:"retry_offline_count"`
	ApplianceListIntervalMillis uint32 `mapstructure:"appliance_list_interval_millis"`
	ApplianceListCron           string `mapstructure:"appliance_list_cron"`
}

func millis(v uint32) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func (c CoordinatorConfig) UpdateInterval() time.Duration {
	return millis(c.UpdateIntervalMillis)
}

func (c CoordinatorConfig) AsyncTimeout() time.Duration {
	return millis(c.AsyncTimeoutMillis)
}

func (c CoordinatorConfig) SetupTimeout() time.Duration {
	return millis(c.SetupTimeoutMillis)
}

func (c CoordinatorConfig) RosterSettle() time.Duration {
	return millis(c.RosterSettleMillis)
}

func (c CoordinatorConfig) ReadySettle() time.Duration {
	return millis(c.ReadySettleMillis)
}

func (c CoordinatorConfig) MinRetryDelay() time.Duration {
	return millis(c.MinRetryDelayMillis)
}

func (c CoordinatorConfig) MaxRetryDelay() time.Duration {
	return millis(c.MaxRetryDelayMillis)
}

func (c CoordinatorConfig) ApplianceListInterval() time.Duration {
	return millis(c.ApplianceListIntervalMillis)
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

// Validate checks bounds of the coordinator and cloud settings.
func (cfg Config) Validate() error {
	if cfg.SmartHQ.Username == "" || cfg.SmartHQ.Password == "" {
		return errors.New("config params smarthq.username and smarthq.password are required")
	}
	c := cfg.Coordinator
	if c.UpdateIntervalMillis < 1000 {
		return errors.New("config param coordinator.update_interval_millis should be >= 1000")
	}
	if c.AsyncTimeoutMillis == 0 || c.SetupTimeoutMillis == 0 {
		return errors.New("config params coordinator.async_timeout_millis and coordinator.setup_timeout_millis must be > 0")
	}
	if c.MinRetryDelayMillis == 0 || c.MaxRetryDelayMillis < c.MinRetryDelayMillis {
		return errors.New("config param coordinator.max_retry_delay_millis must be >= coordinator.min_retry_delay_millis > 0")
	}
	if c.RetryOfflineCount < 0 {
		return errors.New("config param coordinator.retry_offline_count must be >= 0")
	}
	if c.ApplianceListCron != "" {
		if _, err := quartz.NewCronTrigger(c.ApplianceListCron); err != nil {
			return fmt.Errorf("config param coordinator.appliance_list_cron: %w", err)
		}
	}
	return nil
}
