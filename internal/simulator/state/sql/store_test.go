package sql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DazWorrall/ansible-modules-extras/internal/simulator/state"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrateAndRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateZone(ctx, &state.Zone{ID: "z1", Name: "zone1"}))
	require.NoError(t, s.CreateAccount(ctx, &state.Account{ID: "a1", Name: "acme", DomainID: "d1"}))
	require.NoError(t, s.CreatePublicIP(ctx, &state.PublicIP{
		ID: "ip1", Address: "1.2.3.4", Account: "acme", ZoneID: "z1",
	}))

	zones, err := s.ListZones(ctx, "ZONE1")
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, "z1", zones[0].ID)

	accounts, err := s.ListAccounts(ctx, "acme", "d1")
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	ips, err := s.ListPublicIPs(ctx, state.IPFilter{Address: "1.2.3.4", Account: "acme"})
	require.NoError(t, err)
	require.Len(t, ips, 1)
	assert.Equal(t, "ip1", ips[0].ID)

	ips, err = s.ListPublicIPs(ctx, state.IPFilter{Address: "5.6.7.8"})
	require.NoError(t, err)
	assert.Empty(t, ips)
}

func TestRuleAndMembership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateVirtualMachine(ctx, &state.VirtualMachine{
		ID: "vm1", Name: "web-01", Account: "acme", State: "Running",
	}))
	require.NoError(t, s.CreateVirtualMachine(ctx, &state.VirtualMachine{
		ID: "vm2", Name: "web-02", Account: "acme", State: "Running",
	}))
	require.NoError(t, s.CreateRule(ctx, &state.LoadBalancerRule{
		ID: "r1", Name: "web", Algorithm: "roundrobin",
		PublicPort: 80, PrivatePort: 8080, State: "Active",
	}))

	rules, err := s.ListRules(ctx, state.RuleFilter{Name: "WEB"})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, 80, rules[0].PublicPort)

	require.NoError(t, s.AssignMembers(ctx, "r1", []string{"vm1", "vm2"}))
	// Duplicate assignment hits the conflict clause, not an error.
	require.NoError(t, s.AssignMembers(ctx, "r1", []string{"vm1"}))

	members, err := s.ListRuleMembers(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "web-01", members[0].Name)

	assert.ErrorIs(t, s.AssignMembers(ctx, "r1", []string{"missing"}), state.ErrNotFound)
	assert.ErrorIs(t, s.AssignMembers(ctx, "missing", []string{"vm1"}), state.ErrNotFound)

	require.NoError(t, s.RemoveMembers(ctx, "r1", []string{"vm1"}))
	members, err = s.ListRuleMembers(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "web-02", members[0].Name)

	require.NoError(t, s.DeleteRule(ctx, "r1"))
	_, err = s.GetRule(ctx, "r1")
	assert.ErrorIs(t, err, state.ErrNotFound)
	_, err = s.ListRuleMembers(ctx, "r1")
	assert.ErrorIs(t, err, state.ErrNotFound)
}
