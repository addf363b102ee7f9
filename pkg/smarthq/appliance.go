package smarthq

import (
	"sort"
	"strings"
	"sync"
)

// Appliance is the client side cache of a remote appliance. Values are raw hex
// erd strings as received from the cloud. Safe for concurrent use: the transport
// writes while consumers read.
type Appliance struct {
	mu            sync.RWMutex
	macAddr       string
	applianceType ApplianceType
	values        map[ErdCode]string
	initialized   bool
	available     bool
}

func NewAppliance(macAddr string) *Appliance {
	return &Appliance{
		macAddr:       strings.ToUpper(macAddr),
		applianceType: ApplianceTypeUnknown,
		values:        map[ErdCode]string{},
		available:     true,
	}
}

func (a *Appliance) MacAddr() string {
	return a.macAddr
}

func (a *Appliance) ApplianceType() ApplianceType {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.applianceType
}

// Initialized reports whether the full property set has been received at least once.
func (a *Appliance) Initialized() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.initialized
}

func (a *Appliance) SetInitialized(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.initialized = v
}

func (a *Appliance) Available() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.available
}

func (a *Appliance) SetAvailable(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.available = v
}

func (a *Appliance) GetErdValue(code ErdCode) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.values[code]
	return v, ok
}

func (a *Appliance) HasProperty(code ErdCode) bool {
	_, ok := a.GetErdValue(code)
	return ok
}

// KnownProperties returns the erd codes received so far, sorted.
func (a *Appliance) KnownProperties() []ErdCode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	codes := make([]ErdCode, 0, len(a.values))
	for code := range a.values {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// UpdateErdValues merges values into the cache and returns the ones that changed.
func (a *Appliance) UpdateErdValues(values map[ErdCode]string) map[ErdCode]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	changed := map[ErdCode]string{}
	for code, value := range values {
		value = strings.ToLower(value)
		if old, ok := a.values[code]; ok && old == value {
			continue
		}
		a.values[code] = value
		changed[code] = value
		if code == ErdApplianceType {
			a.applianceType = ParseApplianceType(value)
		}
	}
	return changed
}
