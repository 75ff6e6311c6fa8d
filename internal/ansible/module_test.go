package ansible

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReadsArgsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "args.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"web"}`), 0o600))

	var out bytes.Buffer
	m, err := Load(path, &out, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, m.CheckMode())
}

func TestCheckModeFlag(t *testing.T) {
	var out bytes.Buffer
	m, err := New([]byte(`{"name":"web","_ansible_check_mode":true}`), &out, zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, m.CheckMode())
}

type testParams struct {
	Name string `json:"name"`
	VMs  StringList
}

func (p *testParams) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func TestBindRunsValidation(t *testing.T) {
	var out bytes.Buffer
	m, err := New([]byte(`{"state":"present"}`), &out, zerolog.Nop())
	require.NoError(t, err)

	var p testParams
	err = m.Bind(&p)
	assert.EqualError(t, err, "name is required")
}

func TestExitJSONWritesSingleDocument(t *testing.T) {
	var out bytes.Buffer
	m, err := New([]byte(`{}`), &out, zerolog.Nop())
	require.NoError(t, err)

	m.ExitJSON(map[string]any{"changed": true})

	var result map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, true, result["changed"])
}

func TestFailJSONEnvelope(t *testing.T) {
	var out bytes.Buffer
	m, err := New([]byte(`{}`), &out, zerolog.Nop())
	require.NoError(t, err)

	m.FailJSON(errors.New("unknown rule: web"))

	var result struct {
		Failed bool   `json:"failed"`
		Msg    string `json:"msg"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.True(t, result.Failed)
	assert.Equal(t, "unknown rule: web", result.Msg)
}

func TestStringListCoercions(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want StringList
	}{
		{"array", `["a","b"]`, StringList{"a", "b"}},
		{"scalar", `"a"`, StringList{"a"}},
		{"empty array", `[]`, StringList{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l StringList
			require.NoError(t, json.Unmarshal([]byte(tt.in), &l))
			assert.Equal(t, tt.want, l)
		})
	}

	var l StringList
	assert.Error(t, json.Unmarshal([]byte(`42`), &l))
}

func TestBoolCoercions(t *testing.T) {
	tests := []struct {
		in   string
		want Bool
	}{
		{`true`, true},
		{`false`, false},
		{`"yes"`, true},
		{`"no"`, false},
		{`"True"`, true},
		{`"off"`, false},
		{`1`, true},
		{`0`, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var b Bool
			require.NoError(t, json.Unmarshal([]byte(tt.in), &b))
			assert.Equal(t, tt.want, b)
		})
	}

	var b Bool
	assert.Error(t, json.Unmarshal([]byte(`"maybe"`), &b))
}
