// Command cs-loadbalancer-rule-member asserts membership of VMs in an
// existing CloudStack load balancer rule as an Ansible binary module.
// state=present attaches the named VMs that are not yet members;
// state=absent detaches the named VMs that are. Members outside the named
// set are never touched.
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
	"github.com/DazWorrall/ansible-modules-extras/internal/lb"
)

type params struct {
	Name  string             `json:"name"`
	VMs   ansible.StringList `json:"vms"`
	VM    ansible.StringList `json:"vm"` // alias for vms
	State string             `json:"state"`

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
	if len(p.VMs) == 0 {
		p.VMs = p.VM
	}
	if len(p.VMs) == 0 {
		return fmt.Errorf("vms is required")
	}
	switch strings.ToLower(p.State) {
	case "present", "absent":
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
		Str("module", "cs_loadbalancer_rule_member").Logger()

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

	req := lb.MemberRequest{
		RuleName: p.Name,
		VMNames:  p.VMs,
		Scope:    scope,
	}

	members := lb.NewMembers(client, log, module.CheckMode())
	var out *lb.Outcome
	if strings.ToLower(p.State) == "absent" {
		out, err = members.Remove(ctx, req)
	} else {
		out, err = members.Add(ctx, req)
	}
	if err != nil {
		module.FailJSON(err)
		return 1
	}

	module.ExitJSON(lb.NewResult(out, scope, true))
	return 0
}
