package cloudstack

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	cs "github.com/xanzy/go-cloudstack/v2/cloudstack"

	"github.com/DazWorrall/ansible-modules-extras/internal/domain"
)

// Options configure the underlying SDK client for one invocation.
type Options struct {
	APIURL    string
	APIKey    string
	APISecret string
	// HTTPMethod selects GET or POST request encoding ("get" is the default
	// the original tooling uses).
	HTTPMethod string
	// Timeout bounds the wait on asynchronous jobs, in seconds.
	Timeout int
	// VerifySSL toggles TLS certificate verification.
	VerifySSL bool
	// PollAsync makes mutating calls block until their asynchronous job
	// resolves. When false the job id is returned without waiting and the
	// result reflects pre-completion state.
	PollAsync bool
}

// Client implements API on top of the go-cloudstack SDK. HTTP signing,
// request dispatch and async job polling all live in the SDK; this type only
// translates between SDK types and the domain model.
type Client struct {
	cs  *cs.CloudStackClient
	log zerolog.Logger
}

var _ API = (*Client)(nil)

// New constructs the per-invocation client.
func New(opts Options, log zerolog.Logger) *Client {
	var sdk *cs.CloudStackClient
	if opts.PollAsync {
		sdk = cs.NewAsyncClient(opts.APIURL, opts.APIKey, opts.APISecret, opts.VerifySSL)
		if opts.Timeout > 0 {
			sdk.AsyncTimeout(int64(opts.Timeout))
		}
	} else {
		sdk = cs.NewClient(opts.APIURL, opts.APIKey, opts.APISecret, opts.VerifySSL)
	}
	if strings.EqualFold(opts.HTTPMethod, "get") || opts.HTTPMethod == "" {
		sdk.HTTPGETOnly = true
	}
	return &Client{cs: sdk, log: log}
}

func (c *Client) ResolveZone(ctx context.Context, name string) (string, string, error) {
	p := c.cs.Zone.NewListZonesParams()
	if name != "" {
		p.SetName(name)
	}
	resp, err := c.cs.Zone.ListZones(p)
	if err != nil {
		return "", "", domain.NewProviderError("listZones", err)
	}
	if resp.Count == 0 {
		return "", "", domain.ErrNotFound
	}
	// No zone requested means the caller's default zone: the first listed.
	zone := resp.Zones[0]
	return zone.Id, zone.Name, nil
}

func (c *Client) ResolveDomain(ctx context.Context, path string) (string, error) {
	p := c.cs.Domain.NewListDomainsParams()
	p.SetListall(true)
	resp, err := c.cs.Domain.ListDomains(p)
	if err != nil {
		return "", domain.NewProviderError("listDomains", err)
	}
	for _, d := range resp.Domains {
		if strings.EqualFold(d.Path, path) ||
			strings.EqualFold(d.Path, "ROOT/"+path) ||
			strings.EqualFold(d.Name, path) {
			return d.Id, nil
		}
	}
	return "", domain.ErrNotFound
}

func (c *Client) ResolveAccount(ctx context.Context, name, domainID string) error {
	p := c.cs.Account.NewListAccountsParams()
	p.SetName(name)
	p.SetListall(true)
	if domainID != "" {
		p.SetDomainid(domainID)
	}
	resp, err := c.cs.Account.ListAccounts(p)
	if err != nil {
		return domain.NewProviderError("listAccounts", err)
	}
	if resp.Count == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (c *Client) ResolveProject(ctx context.Context, name string) (string, error) {
	p := c.cs.Project.NewListProjectsParams()
	p.SetListall(true)
	resp, err := c.cs.Project.ListProjects(p)
	if err != nil {
		return "", domain.NewProviderError("listProjects", err)
	}
	for _, project := range resp.Projects {
		if strings.EqualFold(project.Name, name) || project.Id == name {
			return project.Id, nil
		}
	}
	return "", domain.ErrNotFound
}

func (c *Client) ResolvePublicIP(ctx context.Context, scope domain.Scope, address string) (string, error) {
	p := c.cs.Address.NewListPublicIpAddressesParams()
	p.SetIpaddress(address)
	if scope.Account != "" {
		p.SetAccount(scope.Account)
	}
	if scope.DomainID != "" {
		p.SetDomainid(scope.DomainID)
	}
	if scope.ProjectID != "" {
		p.SetProjectid(scope.ProjectID)
	}
	resp, err := c.cs.Address.ListPublicIpAddresses(p)
	if err != nil {
		return "", domain.NewProviderError("listPublicIpAddresses", err)
	}
	if resp.Count == 0 {
		return "", domain.ErrNotFound
	}
	return resp.PublicIpAddresses[0].Id, nil
}

func (c *Client) FindRule(ctx context.Context, scope domain.Scope, name, publicIPID string) (*domain.Rule, error) {
	p := c.cs.LoadBalancer.NewListLoadBalancerRulesParams()
	p.SetName(name)
	if scope.Account != "" {
		p.SetAccount(scope.Account)
	}
	if scope.DomainID != "" {
		p.SetDomainid(scope.DomainID)
	}
	if scope.ProjectID != "" {
		p.SetProjectid(scope.ProjectID)
	}
	if scope.ZoneID != "" {
		p.SetZoneid(scope.ZoneID)
	}
	if publicIPID != "" {
		p.SetPublicipid(publicIPID)
	}
	resp, err := c.cs.LoadBalancer.ListLoadBalancerRules(p)
	if err != nil {
		return nil, domain.NewProviderError("listLoadBalancerRules", err)
	}
	if resp.Count == 0 {
		return nil, domain.ErrNotFound
	}
	if resp.Count > 1 {
		c.log.Warn().Str("name", name).Int("matches", resp.Count).
			Msg("rule name matches several rules, taking the first")
	}
	return c.ruleFromSDK(resp.LoadBalancerRules[0]), nil
}

func (c *Client) ListRuleMembers(ctx context.Context, ruleID string) ([]domain.Member, error) {
	p := c.cs.LoadBalancer.NewListLoadBalancerRuleInstancesParams(ruleID)
	resp, err := c.cs.LoadBalancer.ListLoadBalancerRuleInstances(p)
	if err != nil {
		return nil, domain.NewProviderError("listLoadBalancerRuleInstances", err)
	}
	members := make([]domain.Member, 0, resp.Count)
	for _, vm := range resp.LoadBalancerRuleInstances {
		members = append(members, domain.Member{ID: vm.Id, Name: vm.Name})
	}
	return members, nil
}

// ListVirtualMachines deliberately scopes by tenant only, not by zone: a
// rule's members may live in any zone the account can reach.
func (c *Client) ListVirtualMachines(ctx context.Context, scope domain.Scope) ([]domain.Member, error) {
	p := c.cs.VirtualMachine.NewListVirtualMachinesParams()
	p.SetListall(true)
	if scope.Account != "" {
		p.SetAccount(scope.Account)
	}
	if scope.DomainID != "" {
		p.SetDomainid(scope.DomainID)
	}
	if scope.ProjectID != "" {
		p.SetProjectid(scope.ProjectID)
	}
	resp, err := c.cs.VirtualMachine.ListVirtualMachines(p)
	if err != nil {
		return nil, domain.NewProviderError("listVirtualMachines", err)
	}
	vms := make([]domain.Member, 0, resp.Count)
	for _, vm := range resp.VirtualMachines {
		vms = append(vms, domain.Member{ID: vm.Id, Name: vm.Name})
	}
	return vms, nil
}

func (c *Client) CreateRule(ctx context.Context, scope domain.Scope, spec domain.RuleSpec) (*domain.Rule, error) {
	p := c.cs.LoadBalancer.NewCreateLoadBalancerRuleParams(
		spec.Algorithm, spec.Name, spec.PrivatePort, spec.PublicPort)
	if spec.PublicIPID != "" {
		p.SetPublicipid(spec.PublicIPID)
	}
	if spec.Cidr != "" {
		// The module parameter is one comma-separated string; the SDK wants
		// the individual CIDRs.
		cidrs := strings.Split(spec.Cidr, ",")
		for i := range cidrs {
			cidrs[i] = strings.TrimSpace(cidrs[i])
		}
		p.SetCidrlist(cidrs)
	}
	if spec.Protocol != "" {
		p.SetProtocol(spec.Protocol)
	}
	if spec.Description != "" {
		p.SetDescription(spec.Description)
	}
	p.SetOpenfirewall(spec.OpenFirewall)
	if scope.Account != "" {
		p.SetAccount(scope.Account)
	}
	if scope.DomainID != "" {
		p.SetDomainid(scope.DomainID)
	}
	if scope.ZoneID != "" {
		p.SetZoneid(scope.ZoneID)
	}
	resp, err := c.cs.LoadBalancer.CreateLoadBalancerRule(p)
	if err != nil {
		return nil, domain.NewProviderError("createLoadBalancerRule", err)
	}
	publicPort := c.parsePort("publicport", resp.Publicport)
	privatePort := c.parsePort("privateport", resp.Privateport)
	rule := &domain.Rule{
		ID:          resp.Id,
		Name:        resp.Name,
		Description: resp.Description,
		Algorithm:   resp.Algorithm,
		Protocol:    resp.Protocol,
		Cidr:        resp.Cidrlist,
		PublicIP:    resp.Publicip,
		PublicIPID:  resp.Publicipid,
		PublicPort:  publicPort,
		PrivatePort: privatePort,
		State:       resp.State,
		Account:     resp.Account,
		Domain:      resp.Domain,
		Project:     resp.Project,
	}
	for _, t := range resp.Tags {
		rule.Tags = append(rule.Tags, domain.Tag{Key: t.Key, Value: t.Value})
	}
	return rule, nil
}

func (c *Client) DeleteRule(ctx context.Context, ruleID string) error {
	p := c.cs.LoadBalancer.NewDeleteLoadBalancerRuleParams(ruleID)
	if _, err := c.cs.LoadBalancer.DeleteLoadBalancerRule(p); err != nil {
		return domain.NewProviderError("deleteLoadBalancerRule", err)
	}
	return nil
}

func (c *Client) AssignMembers(ctx context.Context, ruleID string, vmIDs []string) error {
	p := c.cs.LoadBalancer.NewAssignToLoadBalancerRuleParams(ruleID)
	p.SetVirtualmachineids(vmIDs)
	if _, err := c.cs.LoadBalancer.AssignToLoadBalancerRule(p); err != nil {
		return domain.NewProviderError("assignToLoadBalancerRule", err)
	}
	return nil
}

func (c *Client) RemoveMembers(ctx context.Context, ruleID string, vmIDs []string) error {
	p := c.cs.LoadBalancer.NewRemoveFromLoadBalancerRuleParams(ruleID)
	p.SetVirtualmachineids(vmIDs)
	if _, err := c.cs.LoadBalancer.RemoveFromLoadBalancerRule(p); err != nil {
		return domain.NewProviderError("removeFromLoadBalancerRule", err)
	}
	return nil
}

// parsePort converts a wire-string port. The API always sends ports as
// decimal strings; anything else is flagged and rendered as 0 rather than
// failing the whole invocation over a display field.
func (c *Client) parsePort(field, value string) int {
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		c.log.Warn().Str("field", field).Str("value", value).
			Msg("unparseable port in provider response")
		return 0
	}
	return n
}

func (c *Client) ruleFromSDK(r *cs.LoadBalancerRule) *domain.Rule {
	publicPort := c.parsePort("publicport", r.Publicport)
	privatePort := c.parsePort("privateport", r.Privateport)
	rule := &domain.Rule{
		ID:          r.Id,
		Name:        r.Name,
		Description: r.Description,
		Algorithm:   r.Algorithm,
		Protocol:    r.Protocol,
		Cidr:        r.Cidrlist,
		PublicIP:    r.Publicip,
		PublicIPID:  r.Publicipid,
		PublicPort:  publicPort,
		PrivatePort: privatePort,
		State:       r.State,
		Account:     r.Account,
		Domain:      r.Domain,
		Project:     r.Project,
	}
	for _, t := range r.Tags {
		rule.Tags = append(rule.Tags, domain.Tag{Key: t.Key, Value: t.Value})
	}
	return rule
}
