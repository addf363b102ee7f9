package appliance

import (
	"github.com/berfenger/smarthq2mqtt/internal/core/domain"
	"github.com/berfenger/smarthq2mqtt/pkg/smarthq"
)

type specOption func(*EntitySpec)

func def(platform, key, name string, code smarthq.ErdCode, format Formatter, opts ...specOption) EntityDef {
	spec := EntitySpec{Platform: platform, Key: key, Name: name}
	for _, opt := range opts {
		opt(&spec)
	}
	return EntityDef{Spec: spec, Code: code, Format: format}
}

func icon(icon string) specOption {
	return func(s *EntitySpec) { s.Icon = icon }
}

func measurement(unit, deviceClass string) specOption {
	return func(s *EntitySpec) {
		s.UnitOfMeasurement = unit
		s.DeviceClass = deviceClass
		s.StateClass = domain.STATE_CLASS_MEASUREMENT
	}
}

func deviceClass(class string) specOption {
	return func(s *EntitySpec) { s.DeviceClass = class }
}

func numberRange(min, max, step float64, unit string) specOption {
	return func(s *EntitySpec) {
		s.Min, s.Max, s.Step = min, max, step
		s.UnitOfMeasurement = unit
		s.Mode = domain.INPUT_NUMBER_MODE_BOX
	}
}

func diagnostic(s *EntitySpec) {
	s.EntityCategory = domain.ENTITY_CLASS_DIAGNOSTIC
}

func config(s *EntitySpec) {
	s.EntityCategory = domain.ENTITY_CLASS_CONFIG
}

func disabledByDefault(s *EntitySpec) {
	s.EnabledByDefault = domain.OptionalBool(false)
}

var (
	minutes = NumberFormat{Width: 2}
	percent = NumberFormat{Width: 1}
	tempF   = NumberFormat{Width: 2, Signed: true}
)

var commonDefs = []EntityDef{
	def(domain.PLATFORM_SENSOR, "clock_time", "Clock time", smarthq.ErdClockTime, ClockFormat{},
		icon("mdi:clock"), diagnostic),
	def(domain.PLATFORM_SWITCH, "sabbath_mode", "Sabbath mode", smarthq.ErdSabbathMode, BoolFormat{Writable: true},
		icon("mdi:star-david"), config),
	def(domain.PLATFORM_SENSOR, "model_number", "Model number", smarthq.ErdModelNumber, StringFormat{},
		diagnostic, disabledByDefault),
	def(domain.PLATFORM_SENSOR, "wifi_version", "WiFi module version", smarthq.ErdWifiModuleSwVersion, VersionFormat{},
		icon("mdi:wifi"), diagnostic, disabledByDefault),
	def(domain.PLATFORM_BINARY_SENSOR, "ui_locked", "Controls locked", smarthq.ErdUserInterfaceLocked, BoolFormat{},
		icon("mdi:lock")),
	def(domain.PLATFORM_SELECT, "sound_level", "Sound level", smarthq.ErdSoundLevel,
		EnumFormat{Width: 1, Writable: true, Values: map[uint64]string{0: "off", 1: "low", 2: "standard", 3: "high"}},
		icon("mdi:volume-high"), config),
}
