package lb

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/DazWorrall/ansible-modules-extras/internal/cloudstack"
	"github.com/DazWorrall/ansible-modules-extras/internal/domain"
)

// Outcome is the result of one reconciliation pass: whether a mutation
// happened (or would have, in check mode) plus the rule and member snapshot
// used to render the module result.
type Outcome struct {
	Changed bool
	Rule    *domain.Rule
	Members []domain.Member
}

// MemberRequest describes the desired membership assertion.
type MemberRequest struct {
	RuleName string
	VMNames  []string
	Scope    domain.Scope
}

// Members reconciles the VM membership of an existing rule. It never creates
// rules: targeting an unknown rule name is a configuration error.
type Members struct {
	api       cloudstack.API
	log       zerolog.Logger
	checkMode bool
}

// NewMembers creates the membership reconciler. In check mode no mutating
// call is ever issued; the outcome still reports whether one would be.
func NewMembers(api cloudstack.API, log zerolog.Logger, checkMode bool) *Members {
	return &Members{api: api, log: log, checkMode: checkMode}
}

// Add ensures every named VM is a member of the rule.
func (m *Members) Add(ctx context.Context, req MemberRequest) (*Outcome, error) {
	return m.reconcile(ctx, req, OperationAdd)
}

// Remove ensures none of the named VMs is a member of the rule.
func (m *Members) Remove(ctx context.Context, req MemberRequest) (*Outcome, error) {
	return m.reconcile(ctx, req, OperationRemove)
}

func (m *Members) reconcile(ctx context.Context, req MemberRequest, op Operation) (*Outcome, error) {
	rule, err := m.api.FindRule(ctx, req.Scope, req.RuleName, "")
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewUnknownError("rule", req.RuleName)
	}
	if err != nil {
		return nil, err
	}

	members, err := m.api.ListRuleMembers(ctx, rule.ID)
	if err != nil {
		return nil, err
	}
	current := make(map[string]string, len(members))
	for _, member := range members {
		current[member.Name] = member.ID
	}

	delta := Delta(op, req.VMNames, current)
	out := &Outcome{Rule: rule, Members: members}
	if len(delta) == 0 {
		m.log.Debug().Str("rule", rule.Name).Str("op", string(op)).Msg("membership already satisfied")
		return out, nil
	}

	ids, err := m.resolveVMs(ctx, req.Scope, delta)
	if err != nil {
		return nil, err
	}

	out.Changed = true
	if m.checkMode {
		m.log.Debug().Str("rule", rule.Name).Str("op", string(op)).
			Strs("delta", delta).Msg("check mode, skipping provider call")
		return out, nil
	}

	// One call carries the whole delta; never one call per VM.
	switch op {
	case OperationAdd:
		err = m.api.AssignMembers(ctx, rule.ID, ids)
	case OperationRemove:
		err = m.api.RemoveMembers(ctx, rule.ID, ids)
	}
	if err != nil {
		return nil, err
	}
	m.log.Info().Str("rule", rule.Name).Str("op", string(op)).
		Strs("vms", delta).Msg("membership changed")

	// Re-read for result attributes and the final member list.
	rule, err = m.api.FindRule(ctx, req.Scope, req.RuleName, "")
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if rule != nil {
		out.Rule = rule
	}
	members, err = m.api.ListRuleMembers(ctx, out.Rule.ID)
	if err != nil {
		return nil, err
	}
	out.Members = members
	return out, nil
}

// resolveVMs maps delta names to VM ids via one scoped listing. Zero matches
// for a name is a configuration error; so is more than one, since picking an
// arbitrary id for a mutating call depends on provider listing order.
func (m *Members) resolveVMs(ctx context.Context, scope domain.Scope, names []string) ([]string, error) {
	vms, err := m.api.ListVirtualMachines(ctx, scope)
	if err != nil {
		return nil, err
	}
	byName := make(map[string][]string, len(vms))
	for _, vm := range vms {
		byName[vm.Name] = append(byName[vm.Name], vm.ID)
	}

	ids := make([]string, 0, len(names))
	for _, name := range names {
		matches := byName[name]
		switch len(matches) {
		case 0:
			return nil, domain.NewUnknownError("VM", name)
		case 1:
			ids = append(ids, matches[0])
		default:
			return nil, domain.NewAmbiguousError("VM", name, len(matches))
		}
	}
	return ids, nil
}
