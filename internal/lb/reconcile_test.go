package lb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeltaAdd(t *testing.T) {
	current := map[string]string{"web-01": "vm-1", "web-02": "vm-2"}

	tests := []struct {
		name    string
		desired []string
		want    []string
	}{
		{"all attached", []string{"web-01", "web-02"}, nil},
		{"one missing", []string{"web-01", "web-03"}, []string{"web-03"}},
		{"all missing", []string{"web-03", "web-04"}, []string{"web-03", "web-04"}},
		{"duplicates collapse", []string{"web-03", "web-03"}, []string{"web-03"}},
		{"empty desired", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Delta(OperationAdd, tt.desired, current)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeltaRemove(t *testing.T) {
	current := map[string]string{"web-01": "vm-1", "web-02": "vm-2"}

	tests := []struct {
		name    string
		desired []string
		want    []string
	}{
		{"all attached", []string{"web-01", "web-02"}, []string{"web-01", "web-02"}},
		{"one attached", []string{"web-01", "web-03"}, []string{"web-01"}},
		{"none attached", []string{"web-03", "web-04"}, nil},
		{"duplicates collapse", []string{"web-01", "web-01"}, []string{"web-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Delta(OperationRemove, tt.desired, current)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeltaPreservesOrder(t *testing.T) {
	got := Delta(OperationAdd, []string{"c", "a", "b"}, nil)
	assert.Equal(t, []string{"c", "a", "b"}, got)
}
