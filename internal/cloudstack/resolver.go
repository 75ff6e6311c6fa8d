package cloudstack

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/DazWorrall/ansible-modules-extras/internal/domain"
)

// Names are the optional human-readable scoping parameters of an invocation.
// Empty fields mean "use the caller's default context".
type Names struct {
	Account string
	Domain  string
	Project string
	Zone    string
}

// Resolver turns Names into a Scope of provider identifiers, exactly once
// per invocation. Every later call reuses the resolved scope so all lookups
// share one consistent tenant context.
type Resolver struct {
	api API
	log zerolog.Logger
}

// NewResolver creates a resolver over the given provider client.
func NewResolver(api API, log zerolog.Logger) *Resolver {
	return &Resolver{api: api, log: log}
}

// Resolve performs the read-only lookups. A name that does not resolve
// yields a ConfigurationError carrying the offending name. The zone is
// always resolved: an unset zone name selects the provider's default zone.
func (r *Resolver) Resolve(ctx context.Context, names Names) (domain.Scope, error) {
	var scope domain.Scope

	if names.Domain != "" {
		id, err := r.api.ResolveDomain(ctx, names.Domain)
		if errors.Is(err, domain.ErrNotFound) {
			return scope, domain.NewUnknownError("domain", names.Domain)
		}
		if err != nil {
			return scope, err
		}
		scope.DomainID = id
		scope.Domain = names.Domain
	}

	if names.Account != "" {
		err := r.api.ResolveAccount(ctx, names.Account, scope.DomainID)
		if errors.Is(err, domain.ErrNotFound) {
			return scope, domain.NewUnknownError("account", names.Account)
		}
		if err != nil {
			return scope, err
		}
		scope.Account = names.Account
	}

	if names.Project != "" {
		id, err := r.api.ResolveProject(ctx, names.Project)
		if errors.Is(err, domain.ErrNotFound) {
			return scope, domain.NewUnknownError("project", names.Project)
		}
		if err != nil {
			return scope, err
		}
		scope.ProjectID = id
		scope.Project = names.Project
	}

	zoneID, zoneName, err := r.api.ResolveZone(ctx, names.Zone)
	if errors.Is(err, domain.ErrNotFound) {
		if names.Zone == "" {
			return scope, domain.NewUnknownError("zone", "default")
		}
		return scope, domain.NewUnknownError("zone", names.Zone)
	}
	if err != nil {
		return scope, err
	}
	scope.ZoneID = zoneID
	scope.Zone = zoneName

	r.log.Debug().
		Str("zone", scope.Zone).
		Str("account", scope.Account).
		Str("domain_id", scope.DomainID).
		Str("project_id", scope.ProjectID).
		Msg("resolved scope")
	return scope, nil
}
