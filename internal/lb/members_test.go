package lb

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DazWorrall/ansible-modules-extras/internal/domain"
)

func webRule() *domain.Rule {
	return &domain.Rule{
		ID:          "rule-web",
		Name:        "web",
		Algorithm:   "roundrobin",
		Protocol:    "tcp",
		PublicIP:    "1.2.3.4",
		PublicPort:  80,
		PrivatePort: 8080,
		State:       "Active",
	}
}

func webVMs() []domain.Member {
	return []domain.Member{
		{ID: "vm-1", Name: "web-01"},
		{ID: "vm-2", Name: "web-02"},
		{ID: "vm-3", Name: "web-03"},
	}
}

func TestMembersAddAttachesOnlyMissing(t *testing.T) {
	api := newFakeAPI()
	api.vms = webVMs()
	api.addRule(webRule(), domain.Member{ID: "vm-1", Name: "web-01"})

	members := NewMembers(api, zerolog.Nop(), false)
	out, err := members.Add(context.Background(), MemberRequest{
		RuleName: "web",
		VMNames:  []string{"web-01", "web-02", "web-03"},
	})
	require.NoError(t, err)

	assert.True(t, out.Changed)
	assert.Equal(t, 1, api.assignCalls)
	assert.Equal(t, []string{"vm-2", "vm-3"}, api.lastAssign)
	assert.Len(t, out.Members, 3)
}

func TestMembersAddIsIdempotent(t *testing.T) {
	api := newFakeAPI()
	api.vms = webVMs()
	api.addRule(webRule(),
		domain.Member{ID: "vm-1", Name: "web-01"},
		domain.Member{ID: "vm-2", Name: "web-02"})

	members := NewMembers(api, zerolog.Nop(), false)
	out, err := members.Add(context.Background(), MemberRequest{
		RuleName: "web",
		VMNames:  []string{"web-01", "web-02"},
	})
	require.NoError(t, err)

	assert.False(t, out.Changed)
	assert.Zero(t, api.assignCalls)
	assert.Len(t, out.Members, 2)
}

func TestMembersRemoveDetachesOnlyAttached(t *testing.T) {
	api := newFakeAPI()
	api.vms = webVMs()
	api.addRule(webRule(), domain.Member{ID: "vm-1", Name: "web-01"})

	members := NewMembers(api, zerolog.Nop(), false)
	out, err := members.Remove(context.Background(), MemberRequest{
		RuleName: "web",
		VMNames:  []string{"web-01", "web-02"},
	})
	require.NoError(t, err)

	assert.True(t, out.Changed)
	assert.Equal(t, 1, api.removeCalls)
	assert.Equal(t, []string{"vm-1"}, api.lastRemove)
	assert.Empty(t, out.Members)
}

func TestMembersRemoveIsIdempotent(t *testing.T) {
	api := newFakeAPI()
	api.vms = webVMs()
	api.addRule(webRule())

	members := NewMembers(api, zerolog.Nop(), false)
	out, err := members.Remove(context.Background(), MemberRequest{
		RuleName: "web",
		VMNames:  []string{"web-01", "web-02"},
	})
	require.NoError(t, err)

	assert.False(t, out.Changed)
	assert.Zero(t, api.removeCalls)
}

func TestMembersAddNeverRemoves(t *testing.T) {
	api := newFakeAPI()
	api.vms = webVMs()
	// web-03 is attached but absent from the desired set; it must survive.
	api.addRule(webRule(), domain.Member{ID: "vm-3", Name: "web-03"})

	members := NewMembers(api, zerolog.Nop(), false)
	out, err := members.Add(context.Background(), MemberRequest{
		RuleName: "web",
		VMNames:  []string{"web-01"},
	})
	require.NoError(t, err)

	assert.True(t, out.Changed)
	assert.Zero(t, api.removeCalls)
	names := memberNames(out.Members)
	assert.Contains(t, names, "web-03")
	assert.Contains(t, names, "web-01")
}

func TestMembersCheckModeDoesNotMutate(t *testing.T) {
	api := newFakeAPI()
	api.vms = webVMs()
	api.addRule(webRule())

	members := NewMembers(api, zerolog.Nop(), true)
	out, err := members.Add(context.Background(), MemberRequest{
		RuleName: "web",
		VMNames:  []string{"web-01"},
	})
	require.NoError(t, err)

	assert.True(t, out.Changed)
	assert.Zero(t, api.assignCalls)
	assert.Empty(t, api.members["rule-web"])
}

func TestMembersCheckModeStillRejectsUnknownVM(t *testing.T) {
	api := newFakeAPI()
	api.vms = webVMs()
	api.addRule(webRule())

	members := NewMembers(api, zerolog.Nop(), true)
	_, err := members.Add(context.Background(), MemberRequest{
		RuleName: "web",
		VMNames:  []string{"db-01"},
	})

	var cerr *domain.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.EqualError(t, err, "unknown VM: db-01")
}

func TestMembersUnknownRule(t *testing.T) {
	api := newFakeAPI()
	api.vms = webVMs()

	members := NewMembers(api, zerolog.Nop(), false)
	_, err := members.Add(context.Background(), MemberRequest{
		RuleName: "missing",
		VMNames:  []string{"web-01"},
	})

	var cerr *domain.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.EqualError(t, err, "unknown rule: missing")
}

func TestMembersUnknownVM(t *testing.T) {
	api := newFakeAPI()
	api.vms = webVMs()
	api.addRule(webRule())

	members := NewMembers(api, zerolog.Nop(), false)
	_, err := members.Add(context.Background(), MemberRequest{
		RuleName: "web",
		VMNames:  []string{"web-01", "db-01"},
	})

	require.Error(t, err)
	assert.EqualError(t, err, "unknown VM: db-01")
	assert.Zero(t, api.assignCalls, "no partial mutation on a failed resolve")
}

func TestMembersAmbiguousVM(t *testing.T) {
	api := newFakeAPI()
	api.vms = append(webVMs(), domain.Member{ID: "vm-9", Name: "web-01"})
	api.addRule(webRule())

	members := NewMembers(api, zerolog.Nop(), false)
	_, err := members.Add(context.Background(), MemberRequest{
		RuleName: "web",
		VMNames:  []string{"web-01"},
	})

	var cerr *domain.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, err.Error(), "ambiguous VM: web-01")
	assert.Zero(t, api.assignCalls)
}

func TestMembersApplyFailureIsTerminal(t *testing.T) {
	tests := []struct {
		name string
		op   func(*Members, context.Context, MemberRequest) (*Outcome, error)
		fail func(*fakeAPI, error)
	}{
		{
			"assign",
			(*Members).Add,
			func(f *fakeAPI, err error) { f.assignErr = err },
		},
		{
			"remove",
			(*Members).Remove,
			func(f *fakeAPI, err error) { f.removeErr = err },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			api.vms = webVMs()
			api.addRule(webRule(), domain.Member{ID: "vm-1", Name: "web-01"})
			tt.fail(api, domain.NewProviderError(tt.name, errors.New("async job failed")))

			members := NewMembers(api, zerolog.Nop(), false)
			_, err := tt.op(members, context.Background(), MemberRequest{
				RuleName: "web",
				VMNames:  []string{"web-01", "web-02"},
			})

			var perr *domain.ProviderError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, 1, api.assignCalls+api.removeCalls, "one call, no retry")
			assert.Equal(t, 1, api.findRuleCalls, "no re-read after a failed apply")
		})
	}
}

func memberNames(members []domain.Member) []string {
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Name)
	}
	return names
}
