package lb

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/DazWorrall/ansible-modules-extras/internal/cloudstack"
	"github.com/DazWorrall/ansible-modules-extras/internal/domain"
)

// RuleRequest describes the desired rule state, keyed by (scope, name).
type RuleRequest struct {
	Spec  domain.RuleSpec
	Scope domain.Scope
}

// Rules drives the rule lifecycle: absent to present and back. Create is
// idempotent but not reconciling: an existing rule is left untouched even
// when the requested attributes differ, since no update path exists.
type Rules struct {
	api       cloudstack.API
	log       zerolog.Logger
	checkMode bool
}

// NewRules creates the rule lifecycle service.
func NewRules(api cloudstack.API, log zerolog.Logger, checkMode bool) *Rules {
	return &Rules{api: api, log: log, checkMode: checkMode}
}

// Ensure creates the rule when no rule of that name exists in scope.
func (r *Rules) Ensure(ctx context.Context, req RuleRequest) (*Outcome, error) {
	spec, err := r.resolvePublicIP(ctx, req)
	if err != nil {
		return nil, err
	}

	rule, err := r.api.FindRule(ctx, req.Scope, spec.Name, spec.PublicIPID)
	if err == nil {
		r.log.Debug().Str("rule", rule.Name).Msg("rule already present")
		return &Outcome{Rule: rule}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	out := &Outcome{Changed: true}
	if r.checkMode {
		return out, nil
	}
	rule, err = r.api.CreateRule(ctx, req.Scope, spec)
	if err != nil {
		return nil, err
	}
	r.log.Info().Str("rule", rule.Name).Str("id", rule.ID).Msg("rule created")
	out.Rule = rule
	return out, nil
}

// Delete removes the rule; absence is a no-op.
func (r *Rules) Delete(ctx context.Context, req RuleRequest) (*Outcome, error) {
	spec, err := r.resolvePublicIP(ctx, req)
	if err != nil {
		return nil, err
	}

	rule, err := r.api.FindRule(ctx, req.Scope, spec.Name, spec.PublicIPID)
	if errors.Is(err, domain.ErrNotFound) {
		return &Outcome{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := &Outcome{Changed: true, Rule: rule}
	if r.checkMode {
		return out, nil
	}
	if err := r.api.DeleteRule(ctx, rule.ID); err != nil {
		return nil, err
	}
	r.log.Info().Str("rule", rule.Name).Str("id", rule.ID).Msg("rule deleted")
	return out, nil
}

func (r *Rules) resolvePublicIP(ctx context.Context, req RuleRequest) (domain.RuleSpec, error) {
	spec := req.Spec
	if spec.PublicIP == "" {
		return spec, nil
	}
	id, err := r.api.ResolvePublicIP(ctx, req.Scope, spec.PublicIP)
	if errors.Is(err, domain.ErrNotFound) {
		return spec, domain.NewUnknownError("public IP", spec.PublicIP)
	}
	if err != nil {
		return spec, err
	}
	spec.PublicIPID = id
	return spec, nil
}
