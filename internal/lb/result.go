package lb

import "github.com/DazWorrall/ansible-modules-extras/internal/domain"

// Result is the module-facing view of an Outcome, with the provider's field
// names mapped to the documented result keys (publicip becomes public_ip,
// ports become integers, cidrlist becomes cidr).
type Result struct {
	Changed     bool         `json:"changed"`
	ID          string       `json:"id,omitempty"`
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
	Algorithm   string       `json:"algorithm,omitempty"`
	Cidr        string       `json:"cidr,omitempty"`
	Protocol    string       `json:"protocol,omitempty"`
	PublicIP    string       `json:"public_ip,omitempty"`
	PublicPort  int          `json:"public_port,omitempty"`
	PrivatePort int          `json:"private_port,omitempty"`
	State       string       `json:"state,omitempty"`
	Zone        string       `json:"zone,omitempty"`
	Account     string       `json:"account,omitempty"`
	Domain      string       `json:"domain,omitempty"`
	Project     string       `json:"project,omitempty"`
	Tags        []domain.Tag `json:"tags,omitempty"`
	VMs         []string     `json:"vms,omitempty"`
}

// NewResult assembles the module result. Scope display names win over the
// rule snapshot for zone/account/domain/project, echoing what the caller
// asked for; the rule snapshot fills in whatever the caller left unscoped.
func NewResult(out *Outcome, scope domain.Scope, withMembers bool) Result {
	res := Result{
		Changed: out.Changed,
		Zone:    scope.Zone,
		Account: scope.Account,
		Domain:  scope.Domain,
		Project: scope.Project,
	}
	if out.Rule != nil {
		rule := out.Rule
		res.ID = rule.ID
		res.Name = rule.Name
		res.Description = rule.Description
		res.Algorithm = rule.Algorithm
		res.Cidr = rule.Cidr
		res.Protocol = rule.Protocol
		res.PublicIP = rule.PublicIP
		res.PublicPort = rule.PublicPort
		res.PrivatePort = rule.PrivatePort
		res.State = rule.State
		res.Tags = rule.Tags
		if res.Account == "" {
			res.Account = rule.Account
		}
		if res.Domain == "" {
			res.Domain = rule.Domain
		}
		if res.Project == "" {
			res.Project = rule.Project
		}
	}
	if withMembers {
		res.VMs = make([]string, 0, len(out.Members))
		for _, member := range out.Members {
			res.VMs = append(res.VMs, member.Name)
		}
	}
	return res
}
