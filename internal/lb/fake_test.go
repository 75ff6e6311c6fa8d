package lb

import (
	"context"
	"fmt"

	"github.com/DazWorrall/ansible-modules-extras/internal/cloudstack"
	"github.com/DazWorrall/ansible-modules-extras/internal/domain"
)

// fakeAPI is an in-memory stand-in for the provider client, recording every
// mutating call so tests can assert on call counts and payloads.
type fakeAPI struct {
	rules     map[string]*domain.Rule     // keyed by rule name
	members   map[string][]domain.Member  // keyed by rule id
	vms       []domain.Member
	publicIPs map[string]string // address -> id

	assignCalls   int
	removeCalls   int
	findRuleCalls int
	lastAssign    []string
	lastRemove    []string
	created       []domain.RuleSpec
	deleted       []string

	// injected mutation failures
	assignErr error
	removeErr error
}

var _ cloudstack.API = (*fakeAPI)(nil)

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		rules:     make(map[string]*domain.Rule),
		members:   make(map[string][]domain.Member),
		publicIPs: make(map[string]string),
	}
}

func (f *fakeAPI) addRule(rule *domain.Rule, members ...domain.Member) {
	f.rules[rule.Name] = rule
	f.members[rule.ID] = members
}

func (f *fakeAPI) ResolveZone(ctx context.Context, name string) (string, string, error) {
	if name == "" {
		return "zone-1", "zone1", nil
	}
	return "zone-" + name, name, nil
}

func (f *fakeAPI) ResolveDomain(ctx context.Context, path string) (string, error) {
	return "domain-" + path, nil
}

func (f *fakeAPI) ResolveAccount(ctx context.Context, name, domainID string) error {
	return nil
}

func (f *fakeAPI) ResolveProject(ctx context.Context, name string) (string, error) {
	return "project-" + name, nil
}

func (f *fakeAPI) ResolvePublicIP(ctx context.Context, scope domain.Scope, address string) (string, error) {
	id, ok := f.publicIPs[address]
	if !ok {
		return "", domain.ErrNotFound
	}
	return id, nil
}

func (f *fakeAPI) FindRule(ctx context.Context, scope domain.Scope, name, publicIPID string) (*domain.Rule, error) {
	f.findRuleCalls++
	rule, ok := f.rules[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if publicIPID != "" && rule.PublicIPID != publicIPID {
		return nil, domain.ErrNotFound
	}
	copied := *rule
	return &copied, nil
}

func (f *fakeAPI) ListRuleMembers(ctx context.Context, ruleID string) ([]domain.Member, error) {
	members, ok := f.members[ruleID]
	if !ok {
		return nil, domain.NewProviderError("listLoadBalancerRuleInstances",
			fmt.Errorf("unknown rule id %s", ruleID))
	}
	return append([]domain.Member(nil), members...), nil
}

func (f *fakeAPI) ListVirtualMachines(ctx context.Context, scope domain.Scope) ([]domain.Member, error) {
	return append([]domain.Member(nil), f.vms...), nil
}

func (f *fakeAPI) CreateRule(ctx context.Context, scope domain.Scope, spec domain.RuleSpec) (*domain.Rule, error) {
	f.created = append(f.created, spec)
	rule := &domain.Rule{
		ID:          fmt.Sprintf("rule-%d", len(f.created)),
		Name:        spec.Name,
		Algorithm:   spec.Algorithm,
		Protocol:    spec.Protocol,
		Cidr:        spec.Cidr,
		PublicIPID:  spec.PublicIPID,
		PublicPort:  spec.PublicPort,
		PrivatePort: spec.PrivatePort,
		State:       "Active",
	}
	f.addRule(rule)
	return rule, nil
}

func (f *fakeAPI) DeleteRule(ctx context.Context, ruleID string) error {
	f.deleted = append(f.deleted, ruleID)
	for name, rule := range f.rules {
		if rule.ID == ruleID {
			delete(f.rules, name)
		}
	}
	delete(f.members, ruleID)
	return nil
}

func (f *fakeAPI) AssignMembers(ctx context.Context, ruleID string, vmIDs []string) error {
	f.assignCalls++
	f.lastAssign = append([]string(nil), vmIDs...)
	if f.assignErr != nil {
		return f.assignErr
	}
	for _, id := range vmIDs {
		for _, vm := range f.vms {
			if vm.ID == id {
				f.members[ruleID] = append(f.members[ruleID], vm)
			}
		}
	}
	return nil
}

func (f *fakeAPI) RemoveMembers(ctx context.Context, ruleID string, vmIDs []string) error {
	f.removeCalls++
	f.lastRemove = append([]string(nil), vmIDs...)
	if f.removeErr != nil {
		return f.removeErr
	}
	remove := make(map[string]bool, len(vmIDs))
	for _, id := range vmIDs {
		remove[id] = true
	}
	var kept []domain.Member
	for _, member := range f.members[ruleID] {
		if !remove[member.ID] {
			kept = append(kept, member)
		}
	}
	f.members[ruleID] = kept
	return nil
}
