package lb

// Operation selects which side of the membership assertion an invocation
// makes. There is no two-way sync: Add never removes members missing from
// the desired set, Remove never adds anyone.
type Operation string

const (
	OperationAdd    Operation = "add"
	OperationRemove Operation = "remove"
)

// Delta computes the minimal set of member names to change.
//
//	Add:    desired − current (names not yet attached)
//	Remove: desired ∩ current (names currently attached)
//
// Input order is preserved and duplicates in desired collapse, so the result
// is a set in all but type. An empty delta means the invocation is a no-op.
func Delta(op Operation, desired []string, current map[string]string) []string {
	seen := make(map[string]struct{}, len(desired))
	var out []string
	for _, name := range desired {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		_, attached := current[name]
		switch op {
		case OperationAdd:
			if !attached {
				out = append(out, name)
			}
		case OperationRemove:
			if attached {
				out = append(out, name)
			}
		}
	}
	return out
}
