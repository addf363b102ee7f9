package appliance

import (
	"github.com/berfenger/smarthq2mqtt/internal/core/domain"
	"github.com/berfenger/smarthq2mqtt/pkg/smarthq"
)

var airConDefs = []EntityDef{
	def(domain.PLATFORM_SWITCH, "ac_power", "Power", smarthq.ErdAcPowerStatus, BoolFormat{Writable: true},
		icon("mdi:power")),
	def(domain.PLATFORM_NUMBER, "ac_target_temperature", "Target temperature", smarthq.ErdAcTargetTemperature,
		NumberFormat{Width: 1, Writable: true}, numberRange(64, 86, 1, "°F"), icon("mdi:thermometer")),
	def(domain.PLATFORM_SENSOR, "ac_ambient_temperature", "Ambient temperature", smarthq.ErdAcAmbientTemperature,
		NumberFormat{Width: 1}, measurement("°F", domain.DEVICE_CLASS_TEMPERATURE)),
	def(domain.PLATFORM_SELECT, "ac_fan", "Fan", smarthq.ErdAcFanSetting,
		EnumFormat{Width: 1, Writable: true, Values: map[uint64]string{0: "auto", 1: "low", 2: "medium", 3: "high"}},
		icon("mdi:fan")),
	def(domain.PLATFORM_SELECT, "ac_mode", "Mode", smarthq.ErdAcOperationMode,
		EnumFormat{Width: 1, Writable: true, Values: map[uint64]string{0: "cool", 1: "fan_only", 2: "energy_saver", 3: "heat", 4: "dry", 5: "auto"}},
		icon("mdi:air-conditioner")),
}

var dehumidifierDefs = []EntityDef{
	def(domain.PLATFORM_SWITCH, "dehumidifier_power", "Power", smarthq.ErdAcPowerStatus, BoolFormat{Writable: true},
		icon("mdi:power")),
	def(domain.PLATFORM_NUMBER, "target_humidity", "Target humidity", smarthq.ErdDhumTargetHumidity,
		NumberFormat{Width: 1, Writable: true}, numberRange(35, 80, 5, "%"), icon("mdi:water-percent")),
	def(domain.PLATFORM_SENSOR, "current_humidity", "Humidity", smarthq.ErdDhumCurrentHumidity, percent,
		measurement("%", domain.DEVICE_CLASS_HUMIDITY)),
}

var waterHeaterDefs = []EntityDef{
	def(domain.PLATFORM_NUMBER, "wh_target_temperature", "Target temperature", smarthq.ErdWhTargetTemperature,
		NumberFormat{Width: 2, Writable: true}, numberRange(90, 140, 1, "°F"), icon("mdi:thermometer")),
	def(domain.PLATFORM_SELECT, "wh_mode", "Mode", smarthq.ErdWhMode,
		EnumFormat{Width: 1, Writable: true, Values: map[uint64]string{0: "hybrid", 1: "standard_electric", 2: "heat_pump", 3: "high_demand", 4: "vacation"}},
		icon("mdi:water-boiler")),
	def(domain.PLATFORM_SENSOR, "wh_tank_temperature", "Tank temperature", smarthq.ErdWhTankTemperature, tempF,
		measurement("°F", domain.DEVICE_CLASS_TEMPERATURE)),
}

var waterFilterDefs = []EntityDef{
	def(domain.PLATFORM_SELECT, "filter_position", "Filter position", smarthq.ErdWfnFilterPosition,
		EnumFormat{Width: 1, Writable: true, Values: map[uint64]string{0: "bypass", 1: "off", 2: "filtered", 3: "ready"}},
		icon("mdi:valve")),
	def(domain.PLATFORM_SENSOR, "filter_life_remaining", "Filter life remaining", smarthq.ErdWfnLifeRemaining, percent,
		measurement("%", ""), icon("mdi:air-filter")),
	def(domain.PLATFORM_SENSOR, "flow_rate", "Flow rate", smarthq.ErdWfnFlowRate, NumberFormat{Width: 2, Scale: 0.01, Decimals: 2},
		measurement("gal/min", ""), icon("mdi:water")),
}

var waterSoftenerDefs = []EntityDef{
	def(domain.PLATFORM_SENSOR, "salt_level", "Salt level", smarthq.ErdWsSaltLevel, percent,
		measurement("%", ""), icon("mdi:shaker-outline")),
	def(domain.PLATFORM_SELECT, "shutoff_position", "Shutoff valve", smarthq.ErdWsShutoffPosition,
		EnumFormat{Width: 1, Writable: true, Values: map[uint64]string{0: "open", 1: "closed"}},
		icon("mdi:valve")),
}
