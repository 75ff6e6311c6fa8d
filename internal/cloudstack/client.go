package cloudstack

import (
	"context"

	"github.com/DazWorrall/ansible-modules-extras/internal/domain"
)

// API is the provider surface the modules consume. One authenticated client
// is constructed per invocation and passed by reference into the resolver,
// the state reader and the reconciler; there is no process-wide singleton.
//
// Lookups return domain.ErrNotFound when nothing matches. Mutations return
// a domain.ProviderError when the API reports failure or an asynchronous
// job fails.
type API interface {
	// Identity resolution. ResolveZone with an empty name returns the
	// provider's default zone (the first one listed).
	ResolveZone(ctx context.Context, name string) (id, zoneName string, err error)
	ResolveDomain(ctx context.Context, path string) (id string, err error)
	ResolveAccount(ctx context.Context, name, domainID string) error
	ResolveProject(ctx context.Context, name string) (id string, err error)
	ResolvePublicIP(ctx context.Context, scope domain.Scope, address string) (id string, err error)

	// State reading. FindRule returns the first match when the provider
	// reports several rules under one name; names are expected to be
	// unique per scope, so this is the documented contract.
	FindRule(ctx context.Context, scope domain.Scope, name, publicIPID string) (*domain.Rule, error)
	ListRuleMembers(ctx context.Context, ruleID string) ([]domain.Member, error)
	ListVirtualMachines(ctx context.Context, scope domain.Scope) ([]domain.Member, error)

	// Mutations. Member changes carry the full delta in a single call.
	CreateRule(ctx context.Context, scope domain.Scope, spec domain.RuleSpec) (*domain.Rule, error)
	DeleteRule(ctx context.Context, ruleID string) error
	AssignMembers(ctx context.Context, ruleID string, vmIDs []string) error
	RemoveMembers(ctx context.Context, ruleID string, vmIDs []string) error
}
