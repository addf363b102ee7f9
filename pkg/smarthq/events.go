package smarthq

// EventHandlers are invoked from the transport goroutines. Handlers must not block.
type EventHandlers struct {
	OnConnected      func()
	OnDisconnected   func(err error)
	OnApplianceList  func(appliances []*Appliance)
	OnInitialUpdate  func(appliance *Appliance)
	OnUpdateReceived func(appliance *Appliance, changed map[ErdCode]string)
}

func (h EventHandlers) connected() {
	if h.OnConnected != nil {
		h.OnConnected()
	}
}

func (h EventHandlers) disconnected(err error) {
	if h.OnDisconnected != nil {
		h.OnDisconnected(err)
	}
}

func (h EventHandlers) applianceList(appliances []*Appliance) {
	if h.OnApplianceList != nil {
		h.OnApplianceList(appliances)
	}
}

func (h EventHandlers) initialUpdate(appliance *Appliance) {
	if h.OnInitialUpdate != nil {
		h.OnInitialUpdate(appliance)
	}
}

func (h EventHandlers) updateReceived(appliance *Appliance, changed map[ErdCode]string) {
	if h.OnUpdateReceived != nil {
		h.OnUpdateReceived(appliance, changed)
	}
}
