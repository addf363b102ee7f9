package appliance

import (
	"github.com/berfenger/smarthq2mqtt/internal/core/domain"
	"github.com/berfenger/smarthq2mqtt/pkg/smarthq"
)

var ovenCookModes = EnumFormat{Width: 2, Values: map[uint64]string{
	0: "no_mode", 1: "bake", 2: "convection_bake", 3: "broil", 4: "convection_roast",
	5: "proof", 6: "warm", 7: "dehydrate", 8: "air_fry", 9: "self_clean", 10: "steam_clean",
}}

var lightLevels = EnumFormat{Width: 1, Writable: true, Values: map[uint64]string{0: "off", 1: "dim", 2: "high"}}

var ovenDefs = []EntityDef{
	def(domain.PLATFORM_SENSOR, "oven_cook_mode", "Oven cook mode", smarthq.ErdUpperOvenCookMode, ovenCookModes,
		icon("mdi:stove")),
	def(domain.PLATFORM_SENSOR, "oven_display_temperature", "Oven temperature", smarthq.ErdUpperOvenDisplayTemperature, tempF,
		measurement("°F", domain.DEVICE_CLASS_TEMPERATURE)),
	def(domain.PLATFORM_BINARY_SENSOR, "oven_remote_enabled", "Oven remote enabled", smarthq.ErdUpperOvenRemoteEnabled, BoolFormat{},
		icon("mdi:remote")),
	def(domain.PLATFORM_SENSOR, "oven_kitchen_timer", "Kitchen timer", smarthq.ErdUpperOvenKitchenTimer, minutes,
		measurement("min", domain.DEVICE_CLASS_DURATION), icon("mdi:timer-outline")),
	def(domain.PLATFORM_SELECT, "oven_light", "Oven light", smarthq.ErdUpperOvenLightLevel, lightLevels,
		icon("mdi:lightbulb")),
	def(domain.PLATFORM_BUTTON, "oven_cancel", "Cancel cooking", smarthq.ErdUpperOvenCookMode, PressFormat{Value: "0000"},
		icon("mdi:stop")),
}

var cooktopDefs = []EntityDef{
	def(domain.PLATFORM_BINARY_SENSOR, "cooktop_active", "Cooktop active", smarthq.ErdCooktopStatus, BoolFormat{},
		deviceClass(domain.DEVICE_CLASS_RUNNING), icon("mdi:fire")),
}

var fridgeDefs = []EntityDef{
	def(domain.PLATFORM_BINARY_SENSOR, "door", "Door", smarthq.ErdFridgeDoorStatus, BoolFormat{},
		deviceClass(domain.DEVICE_CLASS_DOOR)),
	def(domain.PLATFORM_SENSOR, "fridge_temperature", "Fridge temperature", smarthq.ErdFridgeCurrentTemperature, tempF,
		measurement("°F", domain.DEVICE_CLASS_TEMPERATURE)),
	def(domain.PLATFORM_SENSOR, "water_filter", "Water filter", smarthq.ErdFridgeWaterFilterStatus,
		EnumFormat{Width: 1, Values: map[uint64]string{0: "good", 1: "replace", 2: "expired", 3: "unfiltered", 4: "leak_detected"}},
		icon("mdi:water-check")),
	def(domain.PLATFORM_SWITCH, "turbo_cool", "Turbo cool", smarthq.ErdFridgeTurboCoolStatus, BoolFormat{Writable: true},
		icon("mdi:snowflake")),
	def(domain.PLATFORM_SWITCH, "turbo_freeze", "Turbo freeze", smarthq.ErdFridgeTurboFreezeStatus, BoolFormat{Writable: true},
		icon("mdi:snowflake-variant")),
	def(domain.PLATFORM_SWITCH, "ice_maker", "Ice maker", smarthq.ErdFridgeIceMakerControl, BoolFormat{Writable: true},
		icon("mdi:cube-outline")),
}

var beverageDefs = fridgeDefs[:2]

var dishwasherDefs = []EntityDef{
	def(domain.PLATFORM_SENSOR, "cycle_state", "Cycle state", smarthq.ErdDishwasherCycleState,
		EnumFormat{Width: 1, Values: map[uint64]string{0: "idle", 1: "pre_wash", 2: "wash", 3: "rinse", 4: "drying", 5: "clean", 6: "paused"}},
		icon("mdi:dishwasher")),
	def(domain.PLATFORM_SENSOR, "operating_mode", "Operating mode", smarthq.ErdDishwasherOperatingMode,
		EnumFormat{Width: 1, Values: map[uint64]string{0: "low_power", 1: "power_up", 2: "standby", 3: "delay_start", 4: "pause", 5: "running", 6: "end_of_cycle", 7: "service"}}),
	def(domain.PLATFORM_BINARY_SENSOR, "rinse_agent_low", "Rinse agent low", smarthq.ErdDishwasherRinseAgent, BoolFormat{},
		deviceClass(domain.DEVICE_CLASS_PROBLEM)),
	def(domain.PLATFORM_SENSOR, "time_remaining", "Time remaining", smarthq.ErdDishwasherTimeRemaining, minutes,
		measurement("min", domain.DEVICE_CLASS_DURATION)),
}

var microwaveDefs = []EntityDef{
	def(domain.PLATFORM_SENSOR, "microwave_state", "State", smarthq.ErdMicrowaveState,
		EnumFormat{Width: 1, Values: map[uint64]string{0: "off", 1: "cooking", 2: "paused", 3: "done"}},
		icon("mdi:microwave")),
}

var hoodDefs = []EntityDef{
	def(domain.PLATFORM_SELECT, "hood_fan", "Fan speed", smarthq.ErdHoodFanSpeed,
		EnumFormat{Width: 1, Writable: true, Values: map[uint64]string{0: "off", 1: "low", 2: "medium", 3: "high", 4: "boost"}},
		icon("mdi:fan")),
	def(domain.PLATFORM_SELECT, "hood_light", "Light", smarthq.ErdHoodLightLevel, lightLevels,
		icon("mdi:lightbulb")),
}

var coffeeDefs = []EntityDef{
	def(domain.PLATFORM_BINARY_SENSOR, "brewing", "Brewing", smarthq.ErdCcmIsBrewing, BoolFormat{},
		deviceClass(domain.DEVICE_CLASS_RUNNING), icon("mdi:coffee-maker")),
	def(domain.PLATFORM_BINARY_SENSOR, "pot_present", "Pot present", smarthq.ErdCcmPotPresent, BoolFormat{},
		icon("mdi:coffee")),
	def(domain.PLATFORM_SELECT, "brew_strength", "Brew strength", smarthq.ErdCcmBrewStrength,
		EnumFormat{Width: 1, Writable: true, Values: map[uint64]string{0: "light", 1: "medium", 2: "bold", 3: "gold"}}),
}

var espressoDefs = []EntityDef{
	def(domain.PLATFORM_SENSOR, "espresso_state", "State", smarthq.ErdEspressoState,
		EnumFormat{Width: 1, Values: map[uint64]string{0: "off", 1: "heating", 2: "ready", 3: "brewing", 4: "descaling"}},
		icon("mdi:coffee")),
}

var iceMakerDefs = []EntityDef{
	def(domain.PLATFORM_SENSOR, "ice_maker_status", "Status", smarthq.ErdOimStatus,
		EnumFormat{Width: 1, Values: map[uint64]string{0: "off", 1: "making_ice", 2: "full", 3: "add_water", 4: "cleaning"}},
		icon("mdi:cube-outline")),
	def(domain.PLATFORM_SWITCH, "ice_maker_power", "Power", smarthq.ErdOimPowerStatus, BoolFormat{Writable: true},
		icon("mdi:power")),
	def(domain.PLATFORM_SELECT, "ice_maker_light", "Light", smarthq.ErdOimLightLevel, lightLevels,
		icon("mdi:lightbulb")),
}
