// Package ansible implements the binary-module side of the Ansible module
// protocol: the harness invokes the binary with the path to a JSON args file
// as its first argument, and reads a single JSON document from stdout. A
// fatal error is reported as {"failed": true, "msg": ...} with a non-zero
// exit code and no partial result.
package ansible

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Validator lets parameter structs enforce their own invariants after
// binding, in the same way config types validate after loading.
type Validator interface {
	Validate() error
}

// Module is one invocation's view of the protocol.
type Module struct {
	args      []byte
	checkMode bool
	out       io.Writer
	log       zerolog.Logger
}

// common holds the harness-supplied control flags every module understands.
type common struct {
	CheckMode bool `json:"_ansible_check_mode"`
}

// Load reads the args file the harness passed on the command line.
func Load(path string, out io.Writer, log zerolog.Logger) (*Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading module args %s: %w", path, err)
	}
	return New(data, out, log)
}

// New builds a module from raw args, used directly by tests.
func New(args []byte, out io.Writer, log zerolog.Logger) (*Module, error) {
	var c common
	if err := json.Unmarshal(args, &c); err != nil {
		return nil, fmt.Errorf("parsing module args: %w", err)
	}
	return &Module{args: args, checkMode: c.CheckMode, out: out, log: log}, nil
}

// CheckMode reports whether the play runs with --check: the module must
// report the would-be change without touching provider state.
func (m *Module) CheckMode() bool {
	return m.checkMode
}

// Bind unmarshals the args into the module's parameter struct and runs its
// validation when it has any.
func (m *Module) Bind(params any) error {
	if err := json.Unmarshal(m.args, params); err != nil {
		return fmt.Errorf("parsing module args: %w", err)
	}
	if v, ok := params.(Validator); ok {
		return v.Validate()
	}
	return nil
}

// ExitJSON emits the success result. Anything written here must be the only
// bytes on stdout, which is why logging goes to stderr.
func (m *Module) ExitJSON(result any) {
	if err := json.NewEncoder(m.out).Encode(result); err != nil {
		m.log.Error().Err(err).Msg("encoding module result")
	}
}

// FailJSON emits the terminal error result.
func (m *Module) FailJSON(err error) {
	m.log.Error().Err(err).Msg("module failed")
	WriteFailure(m.out, err)
}

// WriteFailure writes the failure envelope; usable before a Module exists,
// e.g. when the args file itself cannot be read.
func WriteFailure(w io.Writer, err error) {
	failure := struct {
		Failed bool   `json:"failed"`
		Msg    string `json:"msg"`
	}{Failed: true, Msg: err.Error()}
	_ = json.NewEncoder(w).Encode(failure)
}
