// Package state holds the entity model of the CloudStack simulator: the
// zones, tenants, addresses, VMs and load balancer rules the API commands
// read and mutate. Implementations must be safe for concurrent use.
package state

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// Zone is a deployment zone.
type Zone struct {
	ID   string `db:"id" toml:"id"`
	Name string `db:"name" toml:"name"`
}

// Domain is a tenant domain, addressed by path (e.g. ROOT/customers).
type Domain struct {
	ID   string `db:"id" toml:"id"`
	Name string `db:"name" toml:"name"`
	Path string `db:"path" toml:"path"`
}

// Account is a tenant account within a domain.
type Account struct {
	ID       string `db:"id" toml:"id"`
	Name     string `db:"name" toml:"name"`
	DomainID string `db:"domain_id" toml:"domain_id"`
}

// Project groups resources across accounts.
type Project struct {
	ID   string `db:"id" toml:"id"`
	Name string `db:"name" toml:"name"`
}

// PublicIP is an acquired public address, scoped to a tenant.
type PublicIP struct {
	ID        string `db:"id" toml:"id"`
	Address   string `db:"address" toml:"address"`
	Account   string `db:"account" toml:"account"`
	DomainID  string `db:"domain_id" toml:"domain_id"`
	ProjectID string `db:"project_id" toml:"project_id"`
	ZoneID    string `db:"zone_id" toml:"zone_id"`
}

// VirtualMachine is a tenant VM that can be attached to rules.
type VirtualMachine struct {
	ID        string `db:"id" toml:"id"`
	Name      string `db:"name" toml:"name"`
	Account   string `db:"account" toml:"account"`
	DomainID  string `db:"domain_id" toml:"domain_id"`
	ProjectID string `db:"project_id" toml:"project_id"`
	ZoneID    string `db:"zone_id" toml:"zone_id"`
	State     string `db:"state" toml:"state"`
}

// LoadBalancerRule is a rule plus its scoping attributes. Member ids live in
// a separate relation.
type LoadBalancerRule struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Algorithm   string `db:"algorithm"`
	Protocol    string `db:"protocol"`
	Cidr        string `db:"cidr"`
	PublicIPID  string `db:"public_ip_id"`
	PublicPort  int    `db:"public_port"`
	PrivatePort int    `db:"private_port"`
	Account     string `db:"account"`
	DomainID    string `db:"domain_id"`
	ProjectID   string `db:"project_id"`
	ZoneID      string `db:"zone_id"`
	State       string `db:"state"`
}

// RuleFilter narrows a rule listing; empty fields match everything.
type RuleFilter struct {
	Name       string
	Account    string
	DomainID   string
	ProjectID  string
	ZoneID     string
	PublicIPID string
}

// VMFilter narrows a VM listing; empty fields match everything.
type VMFilter struct {
	Account   string
	DomainID  string
	ProjectID string
}

// IPFilter narrows a public IP listing; empty fields match everything.
type IPFilter struct {
	Address   string
	Account   string
	DomainID  string
	ProjectID string
}

// Store is the persistence interface of the simulator.
type Store interface {
	Close() error

	CreateZone(ctx context.Context, z *Zone) error
	ListZones(ctx context.Context, name string) ([]*Zone, error)

	CreateDomain(ctx context.Context, d *Domain) error
	ListDomains(ctx context.Context) ([]*Domain, error)

	CreateAccount(ctx context.Context, a *Account) error
	ListAccounts(ctx context.Context, name, domainID string) ([]*Account, error)

	CreateProject(ctx context.Context, p *Project) error
	ListProjects(ctx context.Context) ([]*Project, error)

	CreatePublicIP(ctx context.Context, ip *PublicIP) error
	ListPublicIPs(ctx context.Context, f IPFilter) ([]*PublicIP, error)

	CreateVirtualMachine(ctx context.Context, vm *VirtualMachine) error
	ListVirtualMachines(ctx context.Context, f VMFilter) ([]*VirtualMachine, error)

	CreateRule(ctx context.Context, r *LoadBalancerRule) error
	GetRule(ctx context.Context, id string) (*LoadBalancerRule, error)
	ListRules(ctx context.Context, f RuleFilter) ([]*LoadBalancerRule, error)
	DeleteRule(ctx context.Context, id string) error

	// Membership. Assign ignores already attached ids, Remove ignores
	// detached ids; the provider-side contract the reconciler relies on is
	// only that member names stay unique within a rule.
	ListRuleMembers(ctx context.Context, ruleID string) ([]*VirtualMachine, error)
	AssignMembers(ctx context.Context, ruleID string, vmIDs []string) error
	RemoveMembers(ctx context.Context, ruleID string, vmIDs []string) error
}
