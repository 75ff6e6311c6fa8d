package simulator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/DazWorrall/ansible-modules-extras/internal/simulator/state"
)

func (s *Server) listZones(ctx context.Context, r *http.Request) (any, error) {
	zones, err := s.store.ListZones(ctx, r.FormValue("name"))
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(zones))
	for _, z := range zones {
		items = append(items, map[string]any{"id": z.ID, "name": z.Name})
	}
	return listPayload("zone", items), nil
}

func (s *Server) listDomains(ctx context.Context) (any, error) {
	domains, err := s.store.ListDomains(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(domains))
	for _, d := range domains {
		items = append(items, map[string]any{"id": d.ID, "name": d.Name, "path": d.Path})
	}
	return listPayload("domain", items), nil
}

func (s *Server) listAccounts(ctx context.Context, r *http.Request) (any, error) {
	accounts, err := s.store.ListAccounts(ctx, r.FormValue("name"), r.FormValue("domainid"))
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(accounts))
	for _, a := range accounts {
		items = append(items, map[string]any{"id": a.ID, "name": a.Name, "domainid": a.DomainID})
	}
	return listPayload("account", items), nil
}

func (s *Server) listProjects(ctx context.Context) (any, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(projects))
	for _, p := range projects {
		items = append(items, map[string]any{"id": p.ID, "name": p.Name})
	}
	return listPayload("project", items), nil
}

func (s *Server) listPublicIPs(ctx context.Context, r *http.Request) (any, error) {
	ips, err := s.store.ListPublicIPs(ctx, state.IPFilter{
		Address:   r.FormValue("ipaddress"),
		Account:   r.FormValue("account"),
		DomainID:  r.FormValue("domainid"),
		ProjectID: r.FormValue("projectid"),
	})
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(ips))
	for _, ip := range ips {
		items = append(items, map[string]any{
			"id":        ip.ID,
			"ipaddress": ip.Address,
			"account":   ip.Account,
			"domainid":  ip.DomainID,
			"zoneid":    ip.ZoneID,
		})
	}
	return listPayload("publicipaddress", items), nil
}

func (s *Server) listVirtualMachines(ctx context.Context, r *http.Request) (any, error) {
	vms, err := s.store.ListVirtualMachines(ctx, state.VMFilter{
		Account:   r.FormValue("account"),
		DomainID:  r.FormValue("domainid"),
		ProjectID: r.FormValue("projectid"),
	})
	if err != nil {
		return nil, err
	}
	return listPayload("virtualmachine", vmItems(vms)), nil
}

func (s *Server) listRules(ctx context.Context, r *http.Request) (any, error) {
	rules, err := s.store.ListRules(ctx, state.RuleFilter{
		Name:       r.FormValue("name"),
		Account:    r.FormValue("account"),
		DomainID:   r.FormValue("domainid"),
		ProjectID:  r.FormValue("projectid"),
		ZoneID:     r.FormValue("zoneid"),
		PublicIPID: r.FormValue("publicipid"),
	})
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(rules))
	for _, rule := range rules {
		item, err := s.ruleItem(ctx, rule)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return listPayload("loadbalancerrule", items), nil
}

func (s *Server) listRuleMembers(ctx context.Context, r *http.Request) (any, error) {
	id := r.FormValue("id")
	vms, err := s.store.ListRuleMembers(ctx, id)
	if errors.Is(err, state.ErrNotFound) {
		return nil, fmt.Errorf("unable to find load balancer rule %s", id)
	}
	if err != nil {
		return nil, err
	}
	return listPayload("loadbalancerruleinstance", vmItems(vms)), nil
}

func (s *Server) createRule(ctx context.Context, r *http.Request) (any, error) {
	publicPort, err := strconv.Atoi(r.FormValue("publicport"))
	if err != nil {
		return nil, fmt.Errorf("invalid publicport: %s", r.FormValue("publicport"))
	}
	privatePort, err := strconv.Atoi(r.FormValue("privateport"))
	if err != nil {
		return nil, fmt.Errorf("invalid privateport: %s", r.FormValue("privateport"))
	}

	rule := &state.LoadBalancerRule{
		ID:          uuid.New().String(),
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Algorithm:   r.FormValue("algorithm"),
		Protocol:    r.FormValue("protocol"),
		Cidr:        r.FormValue("cidrlist"),
		PublicIPID:  r.FormValue("publicipid"),
		PublicPort:  publicPort,
		PrivatePort: privatePort,
		Account:     r.FormValue("account"),
		DomainID:    r.FormValue("domainid"),
		ZoneID:      r.FormValue("zoneid"),
		State:       "Active",
	}
	if rule.Name == "" || rule.Algorithm == "" {
		return nil, fmt.Errorf("unable to execute API command createloadbalancerrule due to missing parameter name or algorithm")
	}
	if rule.Protocol == "" {
		rule.Protocol = "tcp"
	}

	// Inherit tenant scope from the public IP the rule binds to.
	if rule.PublicIPID != "" {
		ips, err := s.store.ListPublicIPs(ctx, state.IPFilter{})
		if err != nil {
			return nil, err
		}
		var found bool
		for _, ip := range ips {
			if ip.ID == rule.PublicIPID {
				found = true
				if rule.Account == "" {
					rule.Account = ip.Account
				}
				if rule.DomainID == "" {
					rule.DomainID = ip.DomainID
				}
				if rule.ProjectID == "" {
					rule.ProjectID = ip.ProjectID
				}
				if rule.ZoneID == "" {
					rule.ZoneID = ip.ZoneID
				}
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unable to find public ip address %s", rule.PublicIPID)
		}
	}

	if err := s.store.CreateRule(ctx, rule); err != nil {
		return nil, err
	}

	item, err := s.ruleItem(ctx, rule)
	if err != nil {
		return nil, err
	}
	jobID := s.jobs.add(map[string]any{"loadbalancer": item})
	return map[string]any{"id": rule.ID, "jobid": jobID}, nil
}

func (s *Server) deleteRule(ctx context.Context, r *http.Request) (any, error) {
	id := r.FormValue("id")
	err := s.store.DeleteRule(ctx, id)
	if errors.Is(err, state.ErrNotFound) {
		return nil, fmt.Errorf("unable to find load balancer rule %s", id)
	}
	if err != nil {
		return nil, err
	}
	jobID := s.jobs.add(successResult("load balancer rule deleted"))
	return map[string]any{"jobid": jobID}, nil
}

func (s *Server) changeMembers(ctx context.Context, r *http.Request, assign bool) (any, error) {
	ruleID := r.FormValue("id")
	raw := r.FormValue("virtualmachineids")
	if raw == "" {
		return nil, fmt.Errorf("unable to execute API command due to missing parameter virtualmachineids")
	}
	vmIDs := strings.Split(raw, ",")

	var err error
	if assign {
		err = s.store.AssignMembers(ctx, ruleID, vmIDs)
	} else {
		err = s.store.RemoveMembers(ctx, ruleID, vmIDs)
	}
	if errors.Is(err, state.ErrNotFound) {
		return nil, fmt.Errorf("unable to find load balancer rule %s or one of the instances", ruleID)
	}
	if err != nil {
		return nil, err
	}

	text := "successfully removed instances from load balancer"
	if assign {
		text = "successfully assigned instances to load balancer"
	}
	jobID := s.jobs.add(successResult(text))
	return map[string]any{"jobid": jobID}, nil
}

func (s *Server) queryJob(r *http.Request) (any, error) {
	jobID := r.FormValue("jobid")
	result, ok := s.jobs.get(jobID)
	if !ok {
		return nil, fmt.Errorf("unable to find async job %s", jobID)
	}
	return map[string]any{
		"jobid":         jobID,
		"jobstatus":     1,
		"jobresultcode": 0,
		"jobresulttype": "object",
		"jobresult":     result,
	}, nil
}

// ruleItem renders a rule in the wire shape of listLoadBalancerRules: ports
// as strings, tenant ids resolved back to display names.
func (s *Server) ruleItem(ctx context.Context, rule *state.LoadBalancerRule) (map[string]any, error) {
	item := map[string]any{
		"id":          rule.ID,
		"name":        rule.Name,
		"algorithm":   rule.Algorithm,
		"protocol":    rule.Protocol,
		"publicport":  strconv.Itoa(rule.PublicPort),
		"privateport": strconv.Itoa(rule.PrivatePort),
		"state":       rule.State,
		"account":     rule.Account,
		"zoneid":      rule.ZoneID,
	}
	if rule.Description != "" {
		item["description"] = rule.Description
	}
	if rule.Cidr != "" {
		item["cidrlist"] = rule.Cidr
	}
	if rule.PublicIPID != "" {
		item["publicipid"] = rule.PublicIPID
		ips, err := s.store.ListPublicIPs(ctx, state.IPFilter{})
		if err != nil {
			return nil, err
		}
		for _, ip := range ips {
			if ip.ID == rule.PublicIPID {
				item["publicip"] = ip.Address
				break
			}
		}
	}
	if rule.DomainID != "" {
		item["domainid"] = rule.DomainID
		domains, err := s.store.ListDomains(ctx)
		if err != nil {
			return nil, err
		}
		for _, d := range domains {
			if d.ID == rule.DomainID {
				item["domain"] = d.Name
				break
			}
		}
	}
	if rule.ProjectID != "" {
		item["projectid"] = rule.ProjectID
		projects, err := s.store.ListProjects(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range projects {
			if p.ID == rule.ProjectID {
				item["project"] = p.Name
				break
			}
		}
	}
	return item, nil
}

func vmItems(vms []*state.VirtualMachine) []map[string]any {
	items := make([]map[string]any, 0, len(vms))
	for _, vm := range vms {
		items = append(items, map[string]any{
			"id":      vm.ID,
			"name":    vm.Name,
			"account": vm.Account,
			"zoneid":  vm.ZoneID,
			"state":   vm.State,
		})
	}
	return items
}

func listPayload(key string, items []map[string]any) map[string]any {
	if len(items) == 0 {
		// CloudStack omits the list and count keys entirely on no match.
		return map[string]any{}
	}
	return map[string]any{"count": len(items), key: items}
}

func successResult(text string) map[string]any {
	return map[string]any{"success": true, "displaytext": text}
}
