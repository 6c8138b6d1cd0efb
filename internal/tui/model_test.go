package tui

import (
	"net"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vajra-scan/vajra/internal/model"
)

func probeResult(port uint16, state model.PortState) model.ProbeResult {
	target := model.NewTarget(net.IPv4(10, 0, 0, 1), port)
	return model.NewProbeResult(target, state)
}

func TestAddResultDeduplicatesByTarget(t *testing.T) {
	m := New("10.0.0.1", "80", "tcp")
	m.addResult(probeResult(80, model.Open))
	m.addResult(probeResult(80, model.Closed))
	if len(m.order) != 1 {
		t.Fatalf("expected 1 row after re-probing the same target, got %d", len(m.order))
	}
	if m.rows[m.order[0]].result.State != model.Closed {
		t.Fatal("expected the later result to overwrite the row")
	}
}

func TestFilterOpenHidesClosedPorts(t *testing.T) {
	m := New("10.0.0.1", "80,443", "tcp")
	m.addResult(probeResult(80, model.Open))
	m.addResult(probeResult(443, model.Closed))
	m.rebuildFiltered()
	if len(m.filtered) != 2 {
		t.Fatalf("expected 2 rows unfiltered, got %d", len(m.filtered))
	}

	m.filterMode = FilterOpen
	m.rebuildFiltered()
	if len(m.filtered) != 1 {
		t.Fatalf("expected 1 open row, got %d", len(m.filtered))
	}
}

func TestUpdateQuitsOnQ(t *testing.T) {
	m := New("10.0.0.1", "80", "tcp")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
}

func TestUpdateHandlesDoneMsg(t *testing.T) {
	m := New("10.0.0.1", "80", "tcp")
	updated, cmd := m.Update(DoneMsg{})
	if !updated.(Model).done {
		t.Fatal("expected done to be set")
	}
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
}

func TestProgressSnapshotFraction(t *testing.T) {
	s := ProgressSnapshot{Total: 4, Completed: 1, Failed: 1}
	if f := s.fraction(); f != 0.5 {
		t.Errorf("expected 0.5, got %v", f)
	}
	if (ProgressSnapshot{}).fraction() != 0 {
		t.Error("expected 0 fraction for empty snapshot")
	}
}
