package domain

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_COORDINATOR  = "coordinator"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

// CoordinatorSetupRequest starts a client session. The response is sent once all
// appliances are ready, or with a classified error.
type CoordinatorSetupRequest struct {
	ActorRequestMixIn
}

type CoordinatorSetupResponse struct {
	ActorResponseMixIn
	Session uint64
}

type CoordinatorShutdownRequest struct {
	ActorRequestMixIn
}

type CoordinatorShutdownResponse struct {
	ActorResponseMixIn
}

type ApplianceApisRequest struct {
	ActorRequestMixIn
}

type ApplianceApisResponse struct {
	ActorResponseMixIn
	Initialized bool
	Appliances  []ApplianceInfo
}

type CoordinatorStatusRequest struct {
	ActorRequestMixIn
}

type CoordinatorStatusResponse struct {
	ActorResponseMixIn
	State             string          `json:"state"`
	Session           uint64          `json:"session"`
	Connected         bool            `json:"connected"`
	Online            bool            `json:"online"`
	Initialized       bool            `json:"initialized"`
	GotRoster         bool            `json:"got_roster"`
	RetryCount        int             `json:"retry_count"`
	LastUpdateSuccess bool            `json:"last_update_success"`
	Appliances        []ApplianceInfo `json:"appliances"`
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Entities []GenericEntity
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
