// Package acl is the anti-corruption layer between downstream services and
// the domain. Adapters here own the external DTOs, translate them into domain
// types, and map transport failures onto domain errors:
//
//   - 404 Not Found → [domain.ErrNotFound]
//   - 400/422 → [domain.ErrValidation]
//   - 5xx, 429, network and retry exhaustion → [domain.ErrUnavailable]
//
// External DTOs never leave this package.
package acl
