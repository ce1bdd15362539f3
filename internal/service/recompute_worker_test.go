package service

import (
	"testing"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
)

func TestParseTargetKey(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    model.TargetRef
		ok      bool
	}{
		{"node", "node:abc123", model.TargetRef{Type: model.TargetNode, ID: "abc123"}, true},
		{"edge", "edge:rel-42", model.TargetRef{Type: model.TargetEdge, ID: "rel-42"}, true},
		{"id with colon", "node:ns:7", model.TargetRef{Type: model.TargetNode, ID: "ns:7"}, true},
		{"missing separator", "nodeabc", model.TargetRef{}, false},
		{"empty id", "node:", model.TargetRef{}, false},
		{"unknown type", "vertex:abc", model.TargetRef{}, false},
		{"empty payload", "", model.TargetRef{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseTargetKey(tt.payload)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("target = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestScheduleCoalescesCauses(t *testing.T) {
	w := &RecomputeWorker{pending: make(map[model.TargetRef]string)}
	target := model.TargetRef{Type: model.TargetNode, ID: "n1"}

	w.Schedule(target, "mutation_event")
	w.Schedule(target, "expiry_sweep")
	w.Schedule(model.TargetRef{Type: model.TargetEdge, ID: "e1"}, "mutation_event")

	if len(w.pending) != 2 {
		t.Fatalf("pending = %d entries, want 2 (same target coalesces)", len(w.pending))
	}
	if w.pending[target] != "expiry_sweep" {
		t.Errorf("cause = %q, want latest trigger to win", w.pending[target])
	}
}
