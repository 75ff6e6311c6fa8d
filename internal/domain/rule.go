package domain

// Scope pins one invocation to a single tenant context. All lookups and
// mutations within an invocation use the same resolved scope, so rules and
// VMs that share names across tenants cannot be confused mid-run.
//
// The CloudStack API addresses accounts by name (paired with a domain id)
// and everything else by id. Display names are kept alongside the ids so
// results can echo what the caller asked for.
type Scope struct {
	Account   string // account name, empty means the caller's own account
	DomainID  string
	ProjectID string
	ZoneID    string

	Domain  string
	Project string
	Zone    string
}

// Rule is a read-once snapshot of a load balancer rule. It is never cached
// beyond a single reconciliation pass.
type Rule struct {
	ID          string
	Name        string
	Description string
	Algorithm   string
	Protocol    string
	Cidr        string
	PublicIP    string
	PublicIPID  string
	PublicPort  int
	PrivatePort int
	State       string
	Account     string
	Domain      string
	Project     string
	Tags        []Tag
}

// Tag is a provider resource tag.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Member is a VM attached to a rule, identified by the provider VM id and
// displayed by name.
type Member struct {
	ID   string
	Name string
}

// RuleSpec holds the desired attributes for a rule create operation.
// PublicIPID is filled in after the public IP address has been resolved
// within scope; the remaining fields come straight from the caller.
type RuleSpec struct {
	Name         string
	Algorithm    string
	PublicPort   int
	PrivatePort  int
	PublicIP     string
	PublicIPID   string
	Cidr         string
	Protocol     string
	Description  string
	OpenFirewall bool
}
