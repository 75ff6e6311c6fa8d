package lb

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DazWorrall/ansible-modules-extras/internal/domain"
)

func webSpec() domain.RuleSpec {
	return domain.RuleSpec{
		Name:        "web",
		Algorithm:   "roundrobin",
		PublicPort:  80,
		PrivatePort: 8080,
		PublicIP:    "1.2.3.4",
	}
}

func TestRulesEnsureCreatesMissingRule(t *testing.T) {
	api := newFakeAPI()
	api.publicIPs["1.2.3.4"] = "ip-1"

	rules := NewRules(api, zerolog.Nop(), false)
	out, err := rules.Ensure(context.Background(), RuleRequest{Spec: webSpec()})
	require.NoError(t, err)

	assert.True(t, out.Changed)
	require.NotNil(t, out.Rule)
	assert.Equal(t, "web", out.Rule.Name)
	require.Len(t, api.created, 1)
	assert.Equal(t, "ip-1", api.created[0].PublicIPID, "address resolved before create")
}

func TestRulesEnsureExistingRuleIsUntouched(t *testing.T) {
	api := newFakeAPI()
	api.publicIPs["1.2.3.4"] = "ip-1"
	api.addRule(&domain.Rule{
		ID:         "rule-web",
		Name:       "web",
		Algorithm:  "leastconn",
		PublicIPID: "ip-1",
		PublicPort: 443,
	})

	// Requested attributes differ from the existing rule; there is no update
	// path, so the existing rule wins and nothing changes.
	rules := NewRules(api, zerolog.Nop(), false)
	out, err := rules.Ensure(context.Background(), RuleRequest{Spec: webSpec()})
	require.NoError(t, err)

	assert.False(t, out.Changed)
	assert.Equal(t, "leastconn", out.Rule.Algorithm)
	assert.Equal(t, 443, out.Rule.PublicPort)
	assert.Empty(t, api.created)
}

func TestRulesEnsureCheckMode(t *testing.T) {
	api := newFakeAPI()
	api.publicIPs["1.2.3.4"] = "ip-1"

	rules := NewRules(api, zerolog.Nop(), true)
	out, err := rules.Ensure(context.Background(), RuleRequest{Spec: webSpec()})
	require.NoError(t, err)

	assert.True(t, out.Changed)
	assert.Nil(t, out.Rule)
	assert.Empty(t, api.created)
}

func TestRulesEnsureUnknownPublicIP(t *testing.T) {
	api := newFakeAPI()

	rules := NewRules(api, zerolog.Nop(), false)
	_, err := rules.Ensure(context.Background(), RuleRequest{Spec: webSpec()})

	var cerr *domain.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.EqualError(t, err, "unknown public IP: 1.2.3.4")
}

func TestRulesDelete(t *testing.T) {
	api := newFakeAPI()
	api.publicIPs["1.2.3.4"] = "ip-1"
	api.addRule(&domain.Rule{ID: "rule-web", Name: "web", PublicIPID: "ip-1"})

	rules := NewRules(api, zerolog.Nop(), false)
	out, err := rules.Delete(context.Background(), RuleRequest{Spec: webSpec()})
	require.NoError(t, err)

	assert.True(t, out.Changed)
	assert.Equal(t, []string{"rule-web"}, api.deleted)
}

func TestRulesDeleteAbsentIsNoOp(t *testing.T) {
	api := newFakeAPI()
	api.publicIPs["1.2.3.4"] = "ip-1"

	rules := NewRules(api, zerolog.Nop(), false)
	out, err := rules.Delete(context.Background(), RuleRequest{Spec: webSpec()})
	require.NoError(t, err)

	assert.False(t, out.Changed)
	assert.Empty(t, api.deleted)
}

func TestRulesDeleteCheckMode(t *testing.T) {
	api := newFakeAPI()
	api.publicIPs["1.2.3.4"] = "ip-1"
	api.addRule(&domain.Rule{ID: "rule-web", Name: "web", PublicIPID: "ip-1"})

	rules := NewRules(api, zerolog.Nop(), true)
	out, err := rules.Delete(context.Background(), RuleRequest{Spec: webSpec()})
	require.NoError(t, err)

	assert.True(t, out.Changed)
	assert.Empty(t, api.deleted)
}

func TestResultMapsRuleFields(t *testing.T) {
	out := &Outcome{
		Changed: true,
		Rule: &domain.Rule{
			ID:          "rule-web",
			Name:        "web",
			PublicIP:    "1.2.3.4",
			PublicPort:  80,
			PrivatePort: 8080,
			Account:     "acme",
		},
		Members: []domain.Member{{ID: "vm-1", Name: "web-01"}},
	}
	scope := domain.Scope{Zone: "zone1", Domain: "customers"}

	res := NewResult(out, scope, true)
	assert.True(t, res.Changed)
	assert.Equal(t, "1.2.3.4", res.PublicIP)
	assert.Equal(t, 80, res.PublicPort)
	assert.Equal(t, "zone1", res.Zone)
	assert.Equal(t, "customers", res.Domain)
	assert.Equal(t, "acme", res.Account, "rule fills in what the caller left unscoped")
	assert.Equal(t, []string{"web-01"}, res.VMs)
}
