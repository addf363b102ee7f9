package appliance

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/berfenger/smarthq2mqtt/internal/core/domain"
	"github.com/berfenger/smarthq2mqtt/pkg/smarthq"
)

const MANUFACTURER = "GE"

var idSanitizer = regexp.MustCompile(`[^a-z0-9]+`)

// Api wraps one appliance and owns its entities. Entities are only ever added;
// an entity keeps its unique id for the lifetime of the Api, including across
// client reconnects where the appliance reference is swapped.
// Not safe for concurrent use, the coordinator owns it.
type Api struct {
	kind      string
	appliance *smarthq.Appliance
	online    func() bool
	idBase    string
	defs      []EntityDef
	entities  map[string]*Entity
	order     []string
}

func newApi(kind string, defs []EntityDef, appliance *smarthq.Appliance, online func() bool) *Api {
	if online == nil {
		online = func() bool { return true }
	}
	a := &Api{
		kind:      kind,
		appliance: appliance,
		online:    online,
		defs:      defs,
		entities:  map[string]*Entity{},
	}
	a.idBase = idSanitizer.ReplaceAllString(strings.ToLower(a.SerialOrMac()), "_")
	return a
}

func (a *Api) Kind() string {
	return a.kind
}

func (a *Api) Appliance() *smarthq.Appliance {
	return a.appliance
}

// SetAppliance swaps the underlying appliance after a reconnect.
func (a *Api) SetAppliance(appliance *smarthq.Appliance) error {
	if appliance.MacAddr() != a.appliance.MacAddr() {
		return fmt.Errorf("appliance %s cannot replace %s", appliance.MacAddr(), a.appliance.MacAddr())
	}
	a.appliance = appliance
	return nil
}

func (a *Api) MacAddr() string {
	return a.appliance.MacAddr()
}

func (a *Api) SerialNumber() Option[string] {
	raw, ok := a.appliance.GetErdValue(smarthq.ErdSerialNumber)
	if !ok {
		return None[string]()
	}
	serial := MapOption(Some(raw), smarthq.DecodeString)
	if s, ok := serial.Get(); ok && s == "" {
		return None[string]()
	}
	return serial
}

func (a *Api) ModelNumber() Option[string] {
	raw, ok := a.appliance.GetErdValue(smarthq.ErdModelNumber)
	if !ok {
		return None[string]()
	}
	return MapOption(Some(raw), smarthq.DecodeString)
}

func (a *Api) SerialOrMac() string {
	return a.SerialNumber().OrElse(a.MacAddr())
}

func (a *Api) Name() string {
	return fmt.Sprintf("GE %s %s", a.appliance.ApplianceType().Title(), a.SerialOrMac())
}

func (a *Api) Device() domain.Device {
	version, _ := a.appliance.GetErdValue(smarthq.ErdWifiModuleSwVersion)
	return domain.Device{
		Id:           fmt.Sprintf("smarthq_%s", a.idBase),
		Name:         a.Name(),
		Manufacturer: MANUFACTURER,
		Model:        a.ModelNumber().OrElse(a.kind),
		Version:      MapOption(Some(version), VersionFormat{}.Format).OrElse(""),
	}
}

// Available requires both the appliance and the cloud session to be up.
func (a *Api) Available() bool {
	return a.appliance.Available() && a.online()
}

// BuildEntities adds the entities whose erd the appliance reports and returns
// the ones added by this call.
func (a *Api) BuildEntities() []*Entity {
	var added []*Entity
	for _, def := range a.defs {
		if !a.appliance.HasProperty(def.Code) {
			continue
		}
		e := &Entity{api: a, def: def}
		uid := e.UniqueId()
		if _, ok := a.entities[uid]; ok {
			continue
		}
		a.entities[uid] = e
		a.order = append(a.order, uid)
		added = append(added, e)
	}
	return added
}

func (a *Api) Entities() []*Entity {
	list := make([]*Entity, 0, len(a.order))
	for _, uid := range a.order {
		list = append(list, a.entities[uid])
	}
	return list
}

func (a *Api) Entity(uniqueId string) (*Entity, bool) {
	e, ok := a.entities[uniqueId]
	return e, ok
}

// EntitiesFor returns the entities reading any of the given erds.
func (a *Api) EntitiesFor(codes map[smarthq.ErdCode]string) []*Entity {
	var list []*Entity
	for _, e := range a.Entities() {
		if _, ok := codes[e.ErdCode()]; ok {
			list = append(list, e)
		}
	}
	return list
}

func (a *Api) Info() domain.ApplianceInfo {
	info := domain.ApplianceInfo{
		MacAddr:       a.MacAddr(),
		ApplianceType: a.kind,
		Initialized:   a.appliance.Initialized(),
		Available:     a.Available(),
		Device:        a.Device(),
	}
	for _, e := range a.Entities() {
		info.Entities = append(info.Entities, e.Describe())
	}
	return info
}
