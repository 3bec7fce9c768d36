package dto

import "github.com/jsamuelsen/go-context-propagation/internal/domain"

// ContextResponse is the wire form of a domain.Snapshot. Downstream
// instances serve it on /api/v1/context and the relay reads it back.
type ContextResponse struct {
	Service string         `json:"service"`
	Values  map[string]any `json:"values"`
}

// NewContextResponse converts a snapshot.
func NewContextResponse(s domain.Snapshot) ContextResponse {
	values := s.Values
	if values == nil {
		values = map[string]any{}
	}

	return ContextResponse{Service: s.Service, Values: values}
}

// GreetingRequest holds the optional query parameters of /api/v1/greeting.
type GreetingRequest struct {
	Salutation string `form:"salutation" validate:"omitempty,alpha,max=32"`
}

// GreetingResponse is the wire form of a domain.Greeting.
type GreetingResponse struct {
	UserID  string `json:"userId"`
	Tenant  string `json:"tenant,omitempty"`
	Message string `json:"message"`
}

// NewGreetingResponse converts a greeting.
func NewGreetingResponse(g *domain.Greeting) GreetingResponse {
	return GreetingResponse{UserID: g.UserID, Tenant: g.Tenant, Message: g.Message}
}

// RelayResponse shows the local context next to what the downstream received.
type RelayResponse struct {
	Local      ContextResponse `json:"local"`
	Downstream ContextResponse `json:"downstream"`
}
