package appliance

import (
	"fmt"

	"github.com/berfenger/smarthq2mqtt/internal/core/domain"
	"github.com/berfenger/smarthq2mqtt/pkg/smarthq"
)

type EntitySpec struct {
	Platform          string
	Key               string
	Name              string
	Icon              string
	DeviceClass       string
	UnitOfMeasurement string
	StateClass        string
	EntityCategory    string
	EnabledByDefault  *bool
	Min               float64
	Max               float64
	Step              float64
	Mode              string
}

// EntityDef binds a spec to the erd it reads and the format of its values.
type EntityDef struct {
	Spec   EntitySpec
	Code   smarthq.ErdCode
	Format Formatter
}

// Entity is one exposed value of an appliance. State is read through the owning
// Api so a swapped appliance reference is picked up.
type Entity struct {
	api *Api
	def EntityDef
}

func (e *Entity) UniqueId() string {
	return fmt.Sprintf("%s_%s", e.api.idBase, e.def.Spec.Key)
}

func (e *Entity) Spec() EntitySpec {
	return e.def.Spec
}

func (e *Entity) ErdCode() smarthq.ErdCode {
	return e.def.Code
}

func (e *Entity) Api() *Api {
	return e.api
}

func (e *Entity) State() Option[string] {
	raw, ok := e.api.Appliance().GetErdValue(e.def.Code)
	if !ok {
		return None[string]()
	}
	return MapOption(Some(raw), e.def.Format.Format)
}

func (e *Entity) Available() bool {
	return e.api.Available()
}

// Command translates a command payload into the raw erd value to write.
func (e *Entity) Command(payload string) (smarthq.ErdCode, string, error) {
	raw, err := e.def.Format.Parse(payload)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", e.UniqueId(), err)
	}
	return e.def.Code, raw, nil
}

func (e *Entity) StateEvent() domain.EntityStateEvent {
	state, known := e.State().Get()
	return domain.EntityStateEvent{
		UniqueId:  e.UniqueId(),
		Platform:  e.def.Spec.Platform,
		State:     state,
		Known:     known,
		Available: e.Available(),
	}
}

func (e *Entity) Describe() domain.GenericEntity {
	spec := e.def.Spec
	entity := domain.GenericEntity{
		Device:            e.api.Device(),
		Platform:          spec.Platform,
		Id:                spec.Key,
		Name:              spec.Name,
		UniqueId:          e.UniqueId(),
		UnitOfMeasurement: spec.UnitOfMeasurement,
		StateClass:        spec.StateClass,
		DeviceClass:       spec.DeviceClass,
		EntityCategory:    spec.EntityCategory,
		EnabledByDefault:  spec.EnabledByDefault,
		Icon:              spec.Icon,
		Min:               spec.Min,
		Max:               spec.Max,
		Step:              spec.Step,
		Mode:              spec.Mode,
	}
	if enum, ok := e.def.Format.(EnumFormat); ok && spec.Platform == domain.PLATFORM_SELECT {
		entity.Options = enum.Options()
	}
	if spec.Platform == domain.PLATFORM_BUTTON {
		entity.PayloadPress = PAYLOAD_PRESS
	}
	return entity
}
