package wizard

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/surmigrate/surmigrate/internal/config"
)

func press(t *testing.T, m WizardModel, msgs ...tea.Msg) (WizardModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		var ok bool
		if m, ok = next.(WizardModel); !ok {
			t.Fatalf("Update returned %T, want WizardModel", next)
		}
	}
	return m, cmd
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	down  = tea.KeyMsg{Type: tea.KeyDown}
	up    = tea.KeyMsg{Type: tea.KeyUp}
)

func TestWizardModel_Update(t *testing.T) {
	tests := []struct {
		name          string
		model         WizardModel
		msg           tea.Msg
		expectedState WizardState
		expectCmd     bool
	}{
		{
			name:          "enter on welcome goes to database type",
			model:         New(t.TempDir()),
			msg:           enter,
			expectedState: StateDatabaseType,
		},
		{
			name:          "existing config detected",
			model:         New(t.TempDir()),
			msg:           existingConfigMsg{path: "surmigrate.toml", envNames: []string{"local"}},
			expectedState: StateCheckExisting,
		},
		{
			name:          "no existing config",
			model:         New(t.TempDir()),
			msg:           existingConfigMsg{},
			expectedState: StateWelcome,
		},
		{
			name:          "successful file creation",
			model:         WizardModel{state: StateCreating},
			msg:           fileCreationResultMsg{result: &InitResult{}},
			expectedState: StateDone,
		},
		{
			name:          "failed file creation",
			model:         WizardModel{state: StateCreating},
			msg:           fileCreationResultMsg{err: errors.New("permission denied")},
			expectedState: StateError,
		},
		{
			name:          "ctrl+c quits",
			model:         New(t.TempDir()),
			msg:           tea.KeyMsg{Type: tea.KeyCtrlC},
			expectedState: StateWelcome,
			expectCmd:     true,
		},
		{
			name:          "summary creates files",
			model:         WizardModel{state: StateSummary},
			msg:           enter,
			expectedState: StateCreating,
			expectCmd:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, cmd := press(t, tt.model, tt.msg)

			if m.state != tt.expectedState {
				t.Errorf("expected state %v, got %v", tt.expectedState, m.state)
			}
			if tt.expectCmd && cmd == nil {
				t.Error("expected command to be returned, got nil")
			}
		})
	}
}

func TestWizardSelectsBackend(t *testing.T) {
	m, _ := press(t, New(t.TempDir()), enter, down, down, up, enter)

	if m.state != StateConnectionDetails {
		t.Fatalf("expected connection details, got %v", m.state)
	}
	if m.currentEnv.Backend != "postgres" {
		t.Errorf("expected postgres, got %q", m.currentEnv.Backend)
	}
	if len(m.inputs) != 7 {
		t.Errorf("expected 7 postgres inputs, got %d", len(m.inputs))
	}
}

func TestWizardConnectionDetailsValidation(t *testing.T) {
	m, _ := press(t, New(t.TempDir()), enter, enter)
	if m.currentEnv.Backend != "surrealdb" {
		t.Fatalf("expected surrealdb first, got %q", m.currentEnv.Backend)
	}

	m.inputs[2].SetValue("app;drop")
	m, cmd := press(t, m, enter)

	if m.state != StateConnectionDetails {
		t.Errorf("invalid namespace should keep the form open, got %v", m.state)
	}
	if cmd != nil {
		t.Error("no connection test expected for invalid input")
	}
	if !strings.Contains(m.View(), "namespace must not contain ';'") {
		t.Errorf("expected validation error in view:\n%s", m.View())
	}
}

func TestWizardSQLiteFlow(t *testing.T) {
	dir := t.TempDir()

	// welcome -> type list -> sqlite (third) -> details
	m, _ := press(t, New(dir), enter, down, down, enter)
	if m.currentEnv.Backend != "sqlite" {
		t.Fatalf("expected sqlite, got %q", m.currentEnv.Backend)
	}

	m.inputs[1].SetValue("app.db")
	m, cmd := press(t, m, enter)
	if m.state != StateTestConnection || cmd == nil {
		t.Fatalf("expected connection test to start, state %v", m.state)
	}

	// Run the connection test; sqlite creates the file under dir
	m, _ = press(t, m, cmd())
	if m.connectionTestResult != "success" {
		t.Fatalf("expected sqlite connection to succeed, got %v", m.connectionError)
	}

	m, _ = press(t, m, enter)
	if m.state != StateAddAnother || len(m.environments) != 1 {
		t.Fatalf("expected environment saved, state %v, envs %d", m.state, len(m.environments))
	}

	m, _ = press(t, m, enter)
	if m.state != StateSummary {
		t.Fatalf("expected summary, got %v", m.state)
	}

	m, cmd = press(t, m, enter)
	if cmd == nil {
		t.Fatal("expected file creation command")
	}
	m, _ = press(t, m, cmd())
	if m.state != StateDone {
		t.Fatalf("expected done, got %v (err %v)", m.state, m.err)
	}

	cfg, err := config.LoadConfigFrom(dir)
	if err != nil {
		t.Fatalf("LoadConfigFrom returned error: %v", err)
	}
	if cfg.Environments["local"].Backend != "sqlite" {
		t.Errorf("expected sqlite local environment, got %+v", cfg.Environments)
	}
	if _, err := os.Stat(filepath.Join(dir, "app.db")); err != nil {
		t.Errorf("expected sqlite database file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "migrations")); err != nil {
		t.Errorf("expected migrations directory: %v", err)
	}
}

func TestWizardFailedConnectionChoices(t *testing.T) {
	base := WizardModel{
		state:                StateTestConnection,
		currentEnv:           EnvironmentInput{Name: "local", Backend: "surrealdb"},
		connectionTestResult: "failed",
		connectionError:      errors.New("connection refused"),
		errors:               map[string]string{},
	}

	t.Run("edit", func(t *testing.T) {
		m, _ := press(t, base, down, enter)
		if m.state != StateConnectionDetails {
			t.Errorf("expected connection details, got %v", m.state)
		}
	})

	t.Run("save without testing", func(t *testing.T) {
		m, _ := press(t, base, down, down, enter)
		if m.state != StateAddAnother || len(m.environments) != 1 {
			t.Errorf("expected environment kept, state %v", m.state)
		}
	})

	t.Run("add another", func(t *testing.T) {
		m, _ := press(t, base, down, down, enter, up, enter)
		if m.state != StateDatabaseType {
			t.Errorf("expected database type selection, got %v", m.state)
		}
	})
}

func TestWizardModel_View(t *testing.T) {
	tests := []struct {
		name     string
		model    WizardModel
		contains string
	}{
		{
			name:     "welcome",
			model:    WizardModel{state: StateWelcome},
			contains: "Press Enter",
		},
		{
			name:     "existing config",
			model:    WizardModel{state: StateCheckExisting, existingConfigPath: "surmigrate.toml", existingEnvNames: []string{"local", "prod"}},
			contains: "local, prod",
		},
		{
			name:     "database types",
			model:    WizardModel{state: StateDatabaseType},
			contains: "SurrealDB",
		},
		{
			name:     "summary",
			model:    WizardModel{state: StateSummary, environments: []EnvironmentInput{{Name: "local", Backend: "surrealdb"}}},
			contains: ".env.local",
		},
		{
			name:     "done",
			model:    WizardModel{state: StateDone, result: &InitResult{ConfigCreated: true, ConfigPath: "surmigrate.toml"}},
			contains: "surmigrate apply",
		},
		{
			name:     "error",
			model:    WizardModel{state: StateError, err: errors.New("permission denied")},
			contains: "permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := tt.model.View()
			if !strings.Contains(view, tt.contains) {
				t.Errorf("expected view to contain %q, got %q", tt.contains, view)
			}
		})
	}
}

func TestCheckForExistingConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.FileName), []byte("[environments.prod]\nbackend = \"postgres\"\n\n[environments.local]\nbackend = \"sqlite\"\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	msg := New(dir).checkForExistingConfig()
	existing, ok := msg.(existingConfigMsg)
	if !ok {
		t.Fatalf("expected existingConfigMsg, got %T", msg)
	}
	if strings.Join(existing.envNames, ",") != "local,prod" {
		t.Errorf("expected sorted env names, got %v", existing.envNames)
	}
}

func TestRenderHelpers(t *testing.T) {
	tests := []struct {
		name    string
		got     string
		want    string
		exclude string
	}{
		{"selected option", renderOption(true, "PostgreSQL"), iconCursor + " PostgreSQL", ""},
		{"unselected option", renderOption(false, "PostgreSQL"), "PostgreSQL", iconCursor},
		{"success", renderSuccess("Connected"), iconSuccess + " Connected", ""},
		{"error", renderError("refused"), iconError + " refused", ""},
		{"hint", renderInfo("run surmigrate apply"), "hint: run surmigrate apply", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.got, tt.want) {
				t.Errorf("expected %q in %q", tt.want, tt.got)
			}
			if tt.exclude != "" && strings.Contains(tt.got, tt.exclude) {
				t.Errorf("did not expect %q in %q", tt.exclude, tt.got)
			}
		})
	}
}
