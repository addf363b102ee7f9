package domain

// AllAppliancesReadyEvent is published once per client session, after every
// known appliance reported its initial state.
type AllAppliancesReadyEvent struct {
	Session uint64
}

// EntitiesAddedEvent announces entities that appeared after the ready event of
// their session, when an appliance starts reporting a new erd.
type EntitiesAddedEvent struct {
	Session  uint64
	Entities []GenericEntity
}

type EntityStateEvent struct {
	UniqueId  string
	Platform  string
	State     string
	Known     bool
	Available bool
}

type ConnectivityEvent struct {
	Connected  bool
	Online     bool
	RetryCount int
}
