package appliance

import (
	"github.com/berfenger/smarthq2mqtt/internal/core/domain"
	"github.com/berfenger/smarthq2mqtt/pkg/smarthq"
)

var laundryDefs = []EntityDef{
	def(domain.PLATFORM_SENSOR, "machine_state", "Machine state", smarthq.ErdLaundryMachineState,
		EnumFormat{Width: 1, Values: map[uint64]string{0: "idle", 1: "standby", 2: "run", 3: "pause", 4: "end_of_cycle", 5: "delay_run"}},
		icon("mdi:washing-machine")),
	def(domain.PLATFORM_SENSOR, "cycle", "Cycle", smarthq.ErdLaundryCycle,
		EnumFormat{Width: 1, Values: map[uint64]string{0: "not_defined", 1: "normal", 2: "delicates", 3: "heavy_duty", 4: "bulky", 5: "quick", 6: "towels", 7: "sanitize"}}),
	def(domain.PLATFORM_SENSOR, "time_remaining", "Time remaining", smarthq.ErdLaundryTimeRemaining, minutes,
		measurement("min", domain.DEVICE_CLASS_DURATION)),
	def(domain.PLATFORM_BINARY_SENSOR, "door", "Door", smarthq.ErdLaundryDoorStatus, BoolFormat{},
		deviceClass(domain.DEVICE_CLASS_DOOR)),
	def(domain.PLATFORM_BINARY_SENSOR, "remote_status", "Remote control", smarthq.ErdLaundryRemoteStatus, BoolFormat{},
		icon("mdi:remote")),
}
