package ansible

import (
	"encoding/json"
	"fmt"
)

// StringList accepts either a JSON array of strings or a single scalar
// string. Playbooks commonly pass `vm: "{{ ansible_hostname }}"` where the
// parameter is documented as a list; Ansible's own argument parsing performs
// the same coercion.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = StringList{single}
		return nil
	}
	return fmt.Errorf("expected string or list of strings, got %s", data)
}

// Bool accepts JSON booleans plus the yes/no/true/false/0/1 spellings that
// YAML playbooks produce for boolean-ish module parameters.
type Bool bool

func (b *Bool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = Bool(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "yes", "Yes", "YES", "true", "True", "TRUE", "on", "1":
			*b = true
			return nil
		case "no", "No", "NO", "false", "False", "FALSE", "off", "0", "":
			*b = false
			return nil
		}
		return fmt.Errorf("cannot interpret %q as a boolean", s)
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*b = n != 0
		return nil
	}
	return fmt.Errorf("cannot interpret %s as a boolean", data)
}
