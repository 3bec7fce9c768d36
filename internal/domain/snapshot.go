package domain

import (
	"fmt"
	"maps"
	"slices"
)

// Snapshot is the set of propagated values observed by one service for one request.
type Snapshot struct {
	// Service is the name of the service that observed the values.
	Service string

	// Values maps propagation keys (e.g. "user_id") to their values.
	Values map[string]any
}

// NewSnapshot copies values into a new snapshot.
func NewSnapshot(service string, values map[string]any) Snapshot {
	if values == nil {
		values = map[string]any{}
	}

	return Snapshot{Service: service, Values: maps.Clone(values)}
}

// Keys returns the snapshot keys in sorted order.
func (s Snapshot) Keys() []string {
	return slices.Sorted(maps.Keys(s.Values))
}

// String returns the value under key formatted as a string, or "" when absent.
func (s Snapshot) String(key string) string {
	v, ok := s.Values[key]
	if !ok || v == nil {
		return ""
	}

	return fmt.Sprint(v)
}

// DefaultSalutation opens a greeting when none is requested.
const DefaultSalutation = "hello"

// Greeting is produced for the user identified by the propagated context.
type Greeting struct {
	UserID  string
	Tenant  string
	Message string
}

// NewGreeting validates the identity and builds the greeting message.
// An empty salutation means DefaultSalutation.
func NewGreeting(userID, tenant, salutation string) (*Greeting, error) {
	if userID == "" {
		return nil, NewValidationError("user_id", "must not be empty")
	}

	if salutation == "" {
		salutation = DefaultSalutation
	}

	msg := fmt.Sprintf("%s, %s", salutation, userID)
	if tenant != "" {
		msg += " of " + tenant
	}

	return &Greeting{UserID: userID, Tenant: tenant, Message: msg}, nil
}
