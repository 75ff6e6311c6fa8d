// Package memory is the in-memory Store used by tests and by cs-sim when no
// database is configured. State does not survive a restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/DazWorrall/ansible-modules-extras/internal/simulator/state"
)

// Store is an in-memory implementation of state.Store.
type Store struct {
	mu sync.RWMutex

	zones    map[string]*state.Zone
	domains  map[string]*state.Domain
	accounts map[string]*state.Account
	projects map[string]*state.Project
	ips      map[string]*state.PublicIP
	vms      map[string]*state.VirtualMachine
	rules    map[string]*state.LoadBalancerRule
	members  map[string]map[string]struct{} // ruleID -> set of vmIDs
}

// New creates an empty store.
func New() *Store {
	return &Store{
		zones:    make(map[string]*state.Zone),
		domains:  make(map[string]*state.Domain),
		accounts: make(map[string]*state.Account),
		projects: make(map[string]*state.Project),
		ips:      make(map[string]*state.PublicIP),
		vms:      make(map[string]*state.VirtualMachine),
		rules:    make(map[string]*state.LoadBalancerRule),
		members:  make(map[string]map[string]struct{}),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateZone(ctx context.Context, z *state.Zone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *z
	s.zones[z.ID] = &copied
	return nil
}

func (s *Store) ListZones(ctx context.Context, name string) ([]*state.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*state.Zone
	for _, z := range s.zones {
		if name == "" || strings.EqualFold(z.Name, name) {
			copied := *z
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateDomain(ctx context.Context, d *state.Domain) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *d
	s.domains[d.ID] = &copied
	return nil
}

func (s *Store) ListDomains(ctx context.Context) ([]*state.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*state.Domain
	for _, d := range s.domains {
		copied := *d
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (s *Store) CreateAccount(ctx context.Context, a *state.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *a
	s.accounts[a.ID] = &copied
	return nil
}

func (s *Store) ListAccounts(ctx context.Context, name, domainID string) ([]*state.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*state.Account
	for _, a := range s.accounts {
		if name != "" && !strings.EqualFold(a.Name, name) {
			continue
		}
		if domainID != "" && a.DomainID != domainID {
			continue
		}
		copied := *a
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateProject(ctx context.Context, p *state.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *p
	s.projects[p.ID] = &copied
	return nil
}

func (s *Store) ListProjects(ctx context.Context) ([]*state.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*state.Project
	for _, p := range s.projects {
		copied := *p
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreatePublicIP(ctx context.Context, ip *state.PublicIP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *ip
	s.ips[ip.ID] = &copied
	return nil
}

func (s *Store) ListPublicIPs(ctx context.Context, f state.IPFilter) ([]*state.PublicIP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*state.PublicIP
	for _, ip := range s.ips {
		if f.Address != "" && ip.Address != f.Address {
			continue
		}
		if f.Account != "" && !strings.EqualFold(ip.Account, f.Account) {
			continue
		}
		if f.DomainID != "" && ip.DomainID != f.DomainID {
			continue
		}
		if f.ProjectID != "" && ip.ProjectID != f.ProjectID {
			continue
		}
		copied := *ip
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

func (s *Store) CreateVirtualMachine(ctx context.Context, vm *state.VirtualMachine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *vm
	s.vms[vm.ID] = &copied
	return nil
}

func (s *Store) ListVirtualMachines(ctx context.Context, f state.VMFilter) ([]*state.VirtualMachine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*state.VirtualMachine
	for _, vm := range s.vms {
		if !matchVM(vm, f) {
			continue
		}
		copied := *vm
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func matchVM(vm *state.VirtualMachine, f state.VMFilter) bool {
	if f.Account != "" && !strings.EqualFold(vm.Account, f.Account) {
		return false
	}
	if f.DomainID != "" && vm.DomainID != f.DomainID {
		return false
	}
	if f.ProjectID != "" && vm.ProjectID != f.ProjectID {
		return false
	}
	return true
}

func (s *Store) CreateRule(ctx context.Context, r *state.LoadBalancerRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *r
	s.rules[r.ID] = &copied
	s.members[r.ID] = make(map[string]struct{})
	return nil
}

func (s *Store) GetRule(ctx context.Context, id string) (*state.LoadBalancerRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[id]
	if !ok {
		return nil, state.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (s *Store) ListRules(ctx context.Context, f state.RuleFilter) ([]*state.LoadBalancerRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*state.LoadBalancerRule
	for _, r := range s.rules {
		if f.Name != "" && !strings.EqualFold(r.Name, f.Name) {
			continue
		}
		if f.Account != "" && !strings.EqualFold(r.Account, f.Account) {
			continue
		}
		if f.DomainID != "" && r.DomainID != f.DomainID {
			continue
		}
		if f.ProjectID != "" && r.ProjectID != f.ProjectID {
			continue
		}
		if f.ZoneID != "" && r.ZoneID != f.ZoneID {
			continue
		}
		if f.PublicIPID != "" && r.PublicIPID != f.PublicIPID {
			continue
		}
		copied := *r
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) DeleteRule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[id]; !ok {
		return state.ErrNotFound
	}
	delete(s.rules, id)
	delete(s.members, id)
	return nil
}

func (s *Store) ListRuleMembers(ctx context.Context, ruleID string) ([]*state.VirtualMachine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids, ok := s.members[ruleID]
	if !ok {
		return nil, state.ErrNotFound
	}
	var out []*state.VirtualMachine
	for id := range ids {
		if vm, ok := s.vms[id]; ok {
			copied := *vm
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) AssignMembers(ctx context.Context, ruleID string, vmIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, ok := s.members[ruleID]
	if !ok {
		return state.ErrNotFound
	}
	for _, id := range vmIDs {
		if _, ok := s.vms[id]; !ok {
			return state.ErrNotFound
		}
		ids[id] = struct{}{}
	}
	return nil
}

func (s *Store) RemoveMembers(ctx context.Context, ruleID string, vmIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, ok := s.members[ruleID]
	if !ok {
		return state.ErrNotFound
	}
	for _, id := range vmIDs {
		delete(ids, id)
	}
	return nil
}
