package domain

import "fmt"

// EntityCommand is a command addressed to one entity by unique id.
type EntityCommand struct {
	Platform string
	UniqueId string
	Payload  string
}

func (c EntityCommand) String() string {
	return fmt.Sprintf("%s/%s=%q", c.Platform, c.UniqueId, c.Payload)
}

type SetEntityValueRequest struct {
	ActorRequestMixIn
	Command EntityCommand
}

type SetEntityValueResponse struct {
	ActorResponseMixIn
}
