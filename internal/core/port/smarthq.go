package port

import (
	"context"

	"github.com/berfenger/smarthq2mqtt/pkg/smarthq"
)

// SmartHQClient is the cloud session used by the coordinator. Implementations
// deliver events through the handlers given to the ClientFactory.
type SmartHQClient interface {
	Connect(ctx context.Context) error
	Disconnect() error
	ClearEventHandlers()
	Connected() bool
	Appliances() []*smarthq.Appliance
	RequestApplianceList(ctx context.Context) error
	RequestUpdate(ctx context.Context, macAddr string) error
	SetErdValue(ctx context.Context, macAddr string, code smarthq.ErdCode, value string) error
}

type ClientFactory func(handlers smarthq.EventHandlers) SmartHQClient

// ensure interface compliance
var _ SmartHQClient = (*smarthq.WebsocketClient)(nil)
var _ SmartHQClient = (*smarthq.TestClient)(nil)
