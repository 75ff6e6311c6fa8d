// Command cs-loadbalancer-rule manages the lifecycle of a CloudStack load
// balancer rule as an Ansible binary module. state=present creates the rule
// when it is missing; state=absent deletes it. An existing rule is never
// updated in place, the provider offers no update call for these attributes.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/DazWorrall/ansible-modules-extras/internal/ansible"
	"github.com/DazWorrall/ansible-modules-extras/internal/cloudstack"
	"github.com/DazWorrall/ansible-modules-extras/internal/config"
	"github.com/DazWorrall/ansible-modules-extras/internal/domain"
	"github.com/DazWorrall/ansible-modules-extras/internal/lb"
)

type params struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Algorithm    string       `json:"algorithm"`
	PublicPort   int          `json:"public_port"`
	PrivatePort  int          `json:"private_port"`
	IPAddress    string       `json:"ip_address"`
	PublicIP     string       `json:"public_ip"` // alias for ip_address
	Cidr         string       `json:"cidr"`
	Protocol     string       `json:"protocol"`
	OpenFirewall ansible.Bool `json:"open_firewall"`
	State        string       `json:"state"`

	Account string `json:"account"`
	Domain  string `json:"domain"`
	Project string `json:"project"`
	Zone    string `json:"zone"`

	APIKey     string       `json:"api_key"`
	APISecret  string       `json:"api_secret"`
	APIURL     string       `json:"api_url"`
	APIMethod  string       `json:"api_http_method"`
	APITimeout int          `json:"api_timeout"`
	APIRegion  string       `json:"api_region"`
	PollAsync  ansible.Bool `json:"poll_async"`
}

func (p *params) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.IPAddress == "" {
		p.IPAddress = p.PublicIP
	}
	if p.IPAddress == "" {
		return fmt.Errorf("ip_address is required")
	}
	switch strings.ToLower(p.State) {
	case "present":
		if p.PublicPort <= 0 || p.PrivatePort <= 0 {
			return fmt.Errorf("public_port and private_port are required for state=present")
		}
	case "absent":
	default:
		return fmt.Errorf("state must be present or absent, got %q", p.State)
	}
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	log := zerolog.New(os.Stderr).With().Timestamp().
		Str("module", "cs_loadbalancer_rule").Logger()

	if len(os.Args) < 2 {
		ansible.WriteFailure(os.Stdout, fmt.Errorf("missing module args file argument"))
		return 1
	}
	module, err := ansible.Load(os.Args[1], os.Stdout, log)
	if err != nil {
		ansible.WriteFailure(os.Stdout, err)
		return 1
	}

	p := params{
		Algorithm: "source",
		State:     "present",
		PollAsync: true,
	}
	if err := module.Bind(&p); err != nil {
		module.FailJSON(err)
		return 1
	}

	cfg, err := config.Load(p.APIRegion)
	if err != nil {
		module.FailJSON(err)
		return 1
	}
	cfg.Apply(p.APIURL, p.APIKey, p.APISecret, p.APIMethod, p.APITimeout)
	if err := cfg.Validate(); err != nil {
		module.FailJSON(err)
		return 1
	}

	client := cloudstack.New(cloudstack.Options{
		APIURL:     cfg.APIURL,
		APIKey:     cfg.APIKey,
		APISecret:  cfg.APISecret,
		HTTPMethod: cfg.HTTPMethod,
		Timeout:    cfg.Timeout,
		VerifySSL:  cfg.VerifySSL,
		PollAsync:  bool(p.PollAsync),
	}, log)

	ctx := context.Background()
	scope, err := cloudstack.NewResolver(client, log).Resolve(ctx, cloudstack.Names{
		Account: p.Account,
		Domain:  p.Domain,
		Project: p.Project,
		Zone:    p.Zone,
	})
	if err != nil {
		module.FailJSON(err)
		return 1
	}

	req := lb.RuleRequest{
		Scope: scope,
		Spec: domain.RuleSpec{
			Name:         p.Name,
			Algorithm:    p.Algorithm,
			PublicPort:   p.PublicPort,
			PrivatePort:  p.PrivatePort,
			PublicIP:     p.IPAddress,
			Cidr:         p.Cidr,
			Protocol:     p.Protocol,
			Description:  p.Description,
			OpenFirewall: bool(p.OpenFirewall),
		},
	}

	rules := lb.NewRules(client, log, module.CheckMode())
	var out *lb.Outcome
	if strings.ToLower(p.State) == "absent" {
		out, err = rules.Delete(ctx, req)
	} else {
		out, err = rules.Ensure(ctx, req)
	}
	if err != nil {
		module.FailJSON(err)
		return 1
	}

	module.ExitJSON(lb.NewResult(out, scope, false))
	return 0
}
