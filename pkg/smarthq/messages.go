package smarthq

import (
	"encoding/json"
	"fmt"
)

const (
	kindSubscribe   = "websocket#subscribe"
	kindAPI         = "websocket#api"
	kindPing        = "websocket#ping"
	kindPong        = "websocket#pong"
	kindEndpoint    = "websocket#endpoint"
	kindPublishErd  = "publish#erd"
	kindErdListItem = "appliance#erdListEntry"

	requestIdApplianceList = "List-appliances"
	requestIdAllErdSuffix  = "-allErd"
	requestIdKeepalive     = "keepalive-ping"
)

type subscribeMessage struct {
	Kind      string   `json:"kind"`
	Action    string   `json:"action"`
	Resources []string `json:"resources"`
}

type apiRequestMessage struct {
	Kind   string `json:"kind"`
	Action string `json:"action"`
	Host   string `json:"host"`
	Method string `json:"method"`
	Path   string `json:"path"`
	Id     string `json:"id"`
	Body   any    `json:"body,omitempty"`
}

type pingMessage struct {
	Kind   string `json:"kind"`
	Id     string `json:"id"`
	Action string `json:"action"`
}

type erdSetBody struct {
	Kind        string `json:"kind"`
	ApplianceId string `json:"applianceId"`
	Erd         string `json:"erd"`
	Value       string `json:"value"`
	AckTimeout  int    `json:"ackTimeout"`
	Delay       int    `json:"delay"`
}

// inbound frames share the kind discriminator
type inboundMessage struct {
	Kind string          `json:"kind"`
	Id   string          `json:"id"`
	Code int             `json:"code"`
	Body json.RawMessage `json:"body"`
	Item json.RawMessage `json:"item"`
}

type endpointResponse struct {
	Kind     string `json:"kind"`
	Endpoint string `json:"endpoint"`
}

type applianceListBody struct {
	Items []struct {
		ApplianceId string `json:"applianceId"`
		Type        string `json:"type"`
		Online      string `json:"online"`
	} `json:"items"`
}

type erdItem struct {
	ApplianceId string `json:"applianceId"`
	Erd         string `json:"erd"`
	Value       string `json:"value"`
}

type allErdBody struct {
	Items []erdItem `json:"items"`
}

func newAPIRequest(method, path, id string, body any) apiRequestMessage {
	return apiRequestMessage{
		Kind:   kindAPI,
		Action: "api",
		Host:   apiHost,
		Method: method,
		Path:   path,
		Id:     id,
		Body:   body,
	}
}

func applianceErdPath(macAddr string) string {
	return fmt.Sprintf("/v1/appliance/%s/erd", macAddr)
}
