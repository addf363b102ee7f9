package smarthq

import (
	"context"
	"encoding/hex"
	"strings"
	"sync"
)

// TestClient is an in-memory client. Events are driven by the Emit methods.
type TestClient struct {
	mu         sync.Mutex
	handlers   EventHandlers
	connected  bool
	appliances map[string]*Appliance

	ConnectErr     error
	connects       int
	disconnects    int
	listRequests   int
	updateRequests map[string]int
	setRequests    []TestSetRequest
}

type TestSetRequest struct {
	MacAddr string
	Code    ErdCode
	Value   string
}

func NewTestClient(handlers EventHandlers) *TestClient {
	return &TestClient{
		handlers:       handlers,
		appliances:     map[string]*Appliance{},
		updateRequests: map[string]int{},
	}
}

// NewTestAppliance builds an appliance cache with the basic identity erds set.
func NewTestAppliance(macAddr string, applianceType ApplianceType, serial string) *Appliance {
	a := NewAppliance(macAddr)
	a.UpdateErdValues(map[ErdCode]string{
		ErdApplianceType:       EncodeUint(uint64(applianceType), 1),
		ErdSerialNumber:        encodeString(serial),
		ErdModelNumber:         encodeString("TEST-" + applianceType.String()),
		ErdWifiModuleSwVersion: "01020304",
		ErdClockTime:           "0c1e",
		ErdSabbathMode:         EncodeBool(false),
	})
	return a
}

func encodeString(s string) string {
	return hex.EncodeToString([]byte(s))
}

func (c *TestClient) hooks() EventHandlers {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handlers
}

func (c *TestClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	c.connects++
	if c.ConnectErr != nil {
		err := c.ConnectErr
		c.mu.Unlock()
		return err
	}
	c.connected = true
	c.mu.Unlock()
	c.hooks().connected()
	return nil
}

func (c *TestClient) Disconnect() error {
	c.mu.Lock()
	c.disconnects++
	was := c.connected
	c.connected = false
	c.mu.Unlock()
	if was {
		c.hooks().disconnected(nil)
	}
	return nil
}

func (c *TestClient) ClearEventHandlers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = EventHandlers{}
}

func (c *TestClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *TestClient) Appliances() []*Appliance {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := make([]*Appliance, 0, len(c.appliances))
	for _, a := range c.appliances {
		list = append(list, a)
	}
	return list
}

func (c *TestClient) RequestApplianceList(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return ErrNotConnected
	}
	c.listRequests++
	return nil
}

func (c *TestClient) RequestUpdate(ctx context.Context, macAddr string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return ErrNotConnected
	}
	c.updateRequests[strings.ToUpper(macAddr)]++
	return nil
}

func (c *TestClient) SetErdValue(ctx context.Context, macAddr string, code ErdCode, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return ErrNotConnected
	}
	c.setRequests = append(c.setRequests, TestSetRequest{MacAddr: macAddr, Code: code, Value: value})
	return nil
}

// EmitApplianceList makes the appliances known and fires OnApplianceList.
func (c *TestClient) EmitApplianceList(appliances ...*Appliance) {
	c.mu.Lock()
	for _, a := range appliances {
		c.appliances[a.MacAddr()] = a
	}
	c.mu.Unlock()
	c.hooks().applianceList(appliances)
}

// EmitInitialUpdate marks the appliance initialized and fires OnInitialUpdate.
func (c *TestClient) EmitInitialUpdate(a *Appliance) {
	c.mu.Lock()
	c.appliances[a.MacAddr()] = a
	c.mu.Unlock()
	a.SetInitialized(true)
	c.hooks().initialUpdate(a)
}

func (c *TestClient) EmitUpdate(a *Appliance, values map[ErdCode]string) {
	changed := a.UpdateErdValues(values)
	c.hooks().updateReceived(a, changed)
}

// DropConnection simulates the cloud closing the socket.
func (c *TestClient) DropConnection(err error) {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	c.hooks().disconnected(err)
}

func (c *TestClient) Connects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connects
}

func (c *TestClient) Disconnects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnects
}

func (c *TestClient) ListRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listRequests
}

func (c *TestClient) UpdateRequests(macAddr string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updateRequests[strings.ToUpper(macAddr)]
}

func (c *TestClient) SetRequests() []TestSetRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]TestSetRequest(nil), c.setRequests...)
}
