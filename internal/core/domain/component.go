package domain

const (
	PLATFORM_SENSOR        = "sensor"
	PLATFORM_BINARY_SENSOR = "binary_sensor"
	PLATFORM_SWITCH        = "switch"
	PLATFORM_SELECT        = "select"
	PLATFORM_NUMBER        = "number"
	PLATFORM_BUTTON        = "button"

	STATE_CLASS_MEASUREMENT      = "measurement"
	STATE_CLASS_TOTAL_INCREASING = "total_increasing"

	DEVICE_CLASS_CONNECTIVITY = "connectivity"
	DEVICE_CLASS_DOOR         = "door"
	DEVICE_CLASS_DURATION     = "duration"
	DEVICE_CLASS_HUMIDITY     = "humidity"
	DEVICE_CLASS_PROBLEM      = "problem"
	DEVICE_CLASS_RUNNING      = "running"
	DEVICE_CLASS_TEMPERATURE  = "temperature"

	ENTITY_CLASS_DIAGNOSTIC = "diagnostic"
	ENTITY_CLASS_CONFIG     = "config"

	INPUT_NUMBER_MODE_BOX    = "box"
	INPUT_NUMBER_MODE_SLIDER = "slider"
)

// CommandPlatforms accept commands from the broker.
var CommandPlatforms = []string{PLATFORM_SWITCH, PLATFORM_SELECT, PLATFORM_NUMBER, PLATFORM_BUTTON}

type Device struct {
	Id           string
	Name         string
	Version      string
	Model        string
	Manufacturer string
	ViaDevice    string
}

// GenericEntity describes one published entity, independent of the transport.
type GenericEntity struct {
	Device            Device
	Platform          string
	Id                string
	Name              string
	UniqueId          string
	UnitOfMeasurement string
	StateClass        string // measurement, total_increasing
	DeviceClass       string
	EntityCategory    string // diagnostic, config, nil
	EnabledByDefault  *bool
	Icon              string
	Options           []string // select
	Min               float64  // number
	Max               float64
	Step              float64
	Mode              string
	PayloadPress      string // button
}

func (e GenericEntity) AcceptsCommands() bool {
	for _, p := range CommandPlatforms {
		if p == e.Platform {
			return true
		}
	}
	return false
}

// ApplianceInfo is a read-only snapshot of one appliance and its entities.
type ApplianceInfo struct {
	MacAddr       string          `json:"mac_addr"`
	ApplianceType string          `json:"appliance_type"`
	Initialized   bool            `json:"initialized"`
	Available     bool            `json:"available"`
	Device        Device          `json:"-"`
	Entities      []GenericEntity `json:"-"`
}

func OptionalBool(value bool) *bool {
	return &value
}
