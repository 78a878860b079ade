package progress

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/surmigrate/surmigrate/internal/executor"
	"github.com/surmigrate/surmigrate/internal/migration"
	"github.com/surmigrate/surmigrate/internal/source"
)

func classified(names ...string) []migration.File {
	out := make([]migration.File, 0, len(names))
	for _, n := range names {
		out = append(out, migration.ClassifyFile(source.File{Name: n}))
	}
	return out
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		if m, ok = next.(Model); !ok {
			t.Fatalf("Update returned %T, want Model", next)
		}
	}
	return m
}

func TestModelTracksRun(t *testing.T) {
	files := classified("001-init.sql", "20-seed.sql", "ensure.sql")
	plan := migration.Plan{OneOffs: files[:2], Idempotents: files[2:]}

	m := send(t, New("local"),
		EventMsg{Type: executor.EventState, State: executor.StateOrdering},
		EventMsg{Type: executor.EventPlanned, Plan: plan},
		EventMsg{Type: executor.EventSkipped, File: files[0]},
		EventMsg{Type: executor.EventStarted, File: files[1]},
		EventMsg{Type: executor.EventExecuted, File: files[1]},
		EventMsg{Type: executor.EventStarted, File: files[2]},
	)

	want := []status{statusSkipped, statusExecuted, statusRunning}
	for i, r := range m.rows {
		if r.status != want[i] {
			t.Errorf("row %d (%s) status = %v, want %v", i, r.file.Name, r.status, want[i])
		}
	}

	view := m.View()
	for _, s := range []string{"001-init.sql (already applied)", "20-seed.sql", "ensure.sql"} {
		if !strings.Contains(view, s) {
			t.Errorf("view missing %q:\n%s", s, view)
		}
	}

	m = send(t, m,
		EventMsg{Type: executor.EventExecuted, File: files[2]},
		DoneMsg{Report: &executor.Report{
			ExecutedOneOffs:     []string{"20-seed.sql"},
			SkippedOneOffs:      []string{"001-init.sql"},
			ExecutedIdempotents: []string{"ensure.sql"},
		}},
	)
	if !m.done {
		t.Error("expected model to be done")
	}
	if view := m.View(); !strings.Contains(view, "1 one-off executed, 1 skipped, 1 idempotent executed") {
		t.Errorf("view missing summary:\n%s", view)
	}
}

func TestModelFailure(t *testing.T) {
	files := classified("1-a.sql", "2-b.sql")

	m := send(t, New("local"),
		EventMsg{Type: executor.EventPlanned, Plan: migration.Plan{OneOffs: files}},
		EventMsg{Type: executor.EventStarted, File: files[0]},
		EventMsg{Type: executor.EventFailed, Err: errors.New("failed executing migration 1-a.sql")},
	)

	if m.rows[0].status != statusFailed {
		t.Errorf("running row should be marked failed, got %v", m.rows[0].status)
	}
	if m.rows[1].status != statusPending {
		t.Errorf("later row should stay pending, got %v", m.rows[1].status)
	}
	if view := m.View(); !strings.Contains(view, "failed executing migration 1-a.sql") {
		t.Errorf("view should show the error:\n%s", view)
	}
}

func TestModelQuitsOnDone(t *testing.T) {
	_, cmd := New("local").Update(DoneMsg{Report: &executor.Report{}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestSummary(t *testing.T) {
	got := Summary(&executor.Report{ExecutedOneOffs: []string{"1-a.sql", "2-b.sql"}})
	if got != "2 one-off executed, 0 skipped, 0 idempotent executed" {
		t.Errorf("Summary() = %q", got)
	}
}
