package wizard

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/surmigrate/surmigrate/internal/config"
)

// New creates a new wizard model writing into dir
func New(dir string) WizardModel {
	return WizardModel{
		state:        StateWelcome,
		dir:          dir,
		environments: []EnvironmentInput{},
		errors:       make(map[string]string),
		inputs:       []textinput.Model{},
		dbTypeIndex:  0,
	}
}

// Init initializes the wizard (Bubble Tea Init)
func (m WizardModel) Init() tea.Cmd {
	return m.checkForExistingConfig
}

// Update handles state transitions (Bubble Tea Update)
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			// q is a valid character while typing connection details
			if m.state == StateConnectionDetails {
				return m.handleTextInput(msg)
			}
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up":
			return m.handleUp()

		case "down":
			return m.handleDown()

		case "tab":
			return m.handleTab()

		default:
			// Handle text input
			return m.handleTextInput(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case connectionTestResultMsg:
		m.testingConnection = false
		if msg.err != nil {
			m.connectionError = msg.err
			m.connectionTestResult = "failed"
		} else {
			m.connectionTestResult = "success"
			m.connectionError = nil
		}
		return m, nil

	case fileCreationResultMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = StateError
			return m, nil
		}
		m.result = msg.result
		m.state = StateDone
		return m, nil

	case existingConfigMsg:
		if msg.path != "" {
			// Found existing config
			m.existingConfigPath = msg.path
			m.existingEnvNames = msg.envNames
			m.state = StateCheckExisting
		} else {
			// No existing config, go to welcome
			m.state = StateWelcome
		}
		return m, nil
	}

	return m, nil
}

// View renders the wizard UI (Bubble Tea View)
func (m WizardModel) View() string {
	switch m.state {
	case StateWelcome:
		return m.renderWelcome()
	case StateCheckExisting:
		return m.renderCheckExisting()
	case StateDatabaseType:
		return m.renderDatabaseType()
	case StateConnectionDetails:
		return m.renderConnectionDetails()
	case StateTestConnection:
		return m.renderTestConnection()
	case StateAddAnother:
		return m.renderAddAnother()
	case StateSummary:
		return m.renderSummary()
	case StateCreating:
		return m.renderCreating()
	case StateDone:
		return m.renderDone()
	case StateError:
		return m.renderError()
	default:
		return "Unknown state"
	}
}

// State transition handlers

func (m WizardModel) handleEnter() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateWelcome, StateCheckExisting:
		m.state = StateDatabaseType
		return m, nil

	case StateDatabaseType:
		m.currentEnv = EnvironmentInput{Backend: DatabaseTypes[m.dbTypeIndex].ID}
		m.state = StateConnectionDetails
		m.initializeInputs()
		return m, nil

	case StateConnectionDetails:
		if err := m.collectInputValues(); err != nil {
			return m, nil
		}
		m.state = StateTestConnection
		m.testingConnection = true
		return m, m.testConnection()

	case StateTestConnection:
		if m.testingConnection {
			return m, nil
		}
		switch m.connectionTestResult {
		case "success":
			m.saveCurrentEnv()
			return m, nil
		case "failed":
			switch m.retryChoice {
			case 0: // Retry
				m.connectionTestResult = ""
				m.connectionError = nil
				m.testingConnection = true
				return m, m.testConnection()
			case 1: // Edit
				m.state = StateConnectionDetails
				m.connectionTestResult = ""
				m.connectionError = nil
				m.retryChoice = 0
				return m, nil
			case 2: // Keep without a working connection
				m.retryChoice = 0
				m.saveCurrentEnv()
				return m, nil
			case 3: // Quit
				return m, tea.Quit
			}
		}
		return m, nil

	case StateAddAnother:
		if m.addAnotherChoice == 0 {
			m.state = StateDatabaseType
			m.dbTypeIndex = 0
			return m, nil
		}
		m.state = StateSummary
		return m, nil

	case StateSummary:
		m.state = StateCreating
		return m, m.createFiles()

	case StateDone, StateError:
		return m, tea.Quit
	}

	return m, nil
}

func (m *WizardModel) saveCurrentEnv() {
	m.state = StateAddAnother
	m.addAnotherChoice = 1
	m.environments = append(m.environments, m.currentEnv)
	m.currentEnv = EnvironmentInput{}
	m.connectionTestResult = ""
	m.connectionError = nil
}

func (m WizardModel) handleUp() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateDatabaseType:
		if m.dbTypeIndex > 0 {
			m.dbTypeIndex--
		}
	case StateConnectionDetails:
		if m.focusIndex > 0 {
			m.focusIndex--
			m.updateInputFocus()
		}
	case StateTestConnection:
		if m.connectionTestResult == "failed" && m.retryChoice > 0 {
			m.retryChoice--
		}
	case StateAddAnother:
		m.addAnotherChoice = 0
	}
	return m, nil
}

func (m WizardModel) handleDown() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateDatabaseType:
		if m.dbTypeIndex < len(DatabaseTypes)-1 {
			m.dbTypeIndex++
		}
	case StateConnectionDetails:
		if m.focusIndex < len(m.inputs)-1 {
			m.focusIndex++
			m.updateInputFocus()
		}
	case StateTestConnection:
		if m.connectionTestResult == "failed" && m.retryChoice < 3 {
			m.retryChoice++
		}
	case StateAddAnother:
		m.addAnotherChoice = 1
	}
	return m, nil
}

func (m WizardModel) handleTab() (tea.Model, tea.Cmd) {
	if m.state == StateConnectionDetails && len(m.inputs) > 0 {
		m.focusIndex = (m.focusIndex + 1) % len(m.inputs)
		m.updateInputFocus()
	}
	return m, nil
}

func (m WizardModel) handleTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state == StateConnectionDetails && len(m.inputs) > 0 {
		var cmd tea.Cmd
		m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
		return m, cmd
	}
	return m, nil
}

// Input management

func (m *WizardModel) initializeInputs() {
	m.inputs = []textinput.Model{}
	m.focusIndex = 0
	m.errors = make(map[string]string)

	switch m.currentEnv.Backend {
	case "surrealdb":
		m.inputs = append(m.inputs,
			m.makeInput("Environment name", "local", false),
			m.makeInput("Server URL", "http://localhost:8000", false),
			m.makeInput("Namespace", "app", false),
			m.makeInput("Database", "app", false),
			m.makeInput("User", "root", false),
			m.makeInput("Password", "root", true),
		)
	case "postgres":
		m.inputs = append(m.inputs,
			m.makeInput("Environment name", "local", false),
			m.makeInput("Host", "localhost", false),
			m.makeInput("Port", "5432", false),
			m.makeInput("Database", "app", false),
			m.makeInput("User", "postgres", false),
			m.makeInput("Password", "postgres", true),
			m.makeInput("Schema for the ledger (optional)", "", false),
		)
	case "sqlite":
		m.inputs = append(m.inputs,
			m.makeInput("Environment name", "local", false),
			m.makeInput("Database file path", "data/surmigrate.db", false),
		)
	case "libsql":
		m.inputs = append(m.inputs,
			m.makeInput("Environment name", "production", false),
			m.makeInput("Database URL", "libsql://[name]-[org].turso.io", false),
			m.makeInput("Auth token", "", true),
		)
	}

	if len(m.inputs) > 0 {
		m.inputs[0].Focus()
	}
}

func (m *WizardModel) makeInput(placeholder, value string, isPassword bool) textinput.Model {
	input := textinput.New()
	input.Placeholder = placeholder
	input.SetValue(value)
	if isPassword {
		input.EchoMode = textinput.EchoPassword
		input.EchoCharacter = '*'
	}
	return input
}

func (m *WizardModel) updateInputFocus() {
	for i := range m.inputs {
		if i == m.focusIndex {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m *WizardModel) collectInputValues() error {
	m.errors = make(map[string]string)
	fail := func(field string, err error) error {
		m.errors[field] = err.Error()
		return err
	}
	value := func(i int) string {
		return strings.TrimSpace(m.inputs[i].Value())
	}

	switch m.currentEnv.Backend {
	case "surrealdb":
		if len(m.inputs) < 6 {
			return fmt.Errorf("not enough inputs")
		}
		m.currentEnv.Name = value(0)
		m.currentEnv.URL = value(1)
		m.currentEnv.Namespace = value(2)
		m.currentEnv.Database = value(3)
		m.currentEnv.User = value(4)
		m.currentEnv.Password = m.inputs[5].Value()

		if err := ValidateConnectionString(m.currentEnv.URL, "surrealdb"); err != nil {
			return fail("url", err)
		}
		if err := ValidateNamespace("namespace", m.currentEnv.Namespace, true); err != nil {
			return fail("namespace", err)
		}
		if err := ValidateNamespace("database", m.currentEnv.Database, true); err != nil {
			return fail("database", err)
		}

	case "postgres":
		if len(m.inputs) < 7 {
			return fmt.Errorf("not enough inputs")
		}
		m.currentEnv.Name = value(0)
		m.currentEnv.Host = value(1)
		m.currentEnv.Port = value(2)
		m.currentEnv.Database = value(3)
		m.currentEnv.User = value(4)
		m.currentEnv.Password = m.inputs[5].Value()
		m.currentEnv.Namespace = value(6)

		if err := ValidatePort(m.currentEnv.Port); err != nil {
			return fail("port", err)
		}
		if err := ValidateNamespace("schema", m.currentEnv.Namespace, false); err != nil {
			return fail("schema", err)
		}

	case "sqlite":
		if len(m.inputs) < 2 {
			return fmt.Errorf("not enough inputs")
		}
		m.currentEnv.Name = value(0)
		m.currentEnv.FilePath = value(1)

	case "libsql":
		if len(m.inputs) < 3 {
			return fmt.Errorf("not enough inputs")
		}
		m.currentEnv.Name = value(0)
		m.currentEnv.URL = value(1)
		m.currentEnv.AuthToken = m.inputs[2].Value()

		if err := ValidateConnectionString(m.currentEnv.URL, "libsql"); err != nil {
			return fail("url", err)
		}
	}

	if err := ValidateEnvironmentName(m.currentEnv.Name); err != nil {
		return fail("name", err)
	}
	return nil
}

// Message types for async operations

type connectionTestResultMsg struct {
	err error
}

func (m WizardModel) testConnection() tea.Cmd {
	env := m.currentEnv
	if env.Backend == "sqlite" {
		// Relative paths are created under the wizard's directory
		path := BuildSQLiteConnectionString(env)
		if !filepath.IsAbs(path) {
			env.FilePath = filepath.Join(m.dir, path)
		}
	}
	return func() tea.Msg {
		return connectionTestResultMsg{err: TestConnection(env)}
	}
}

type fileCreationResultMsg struct {
	result *InitResult
	err    error
}

func (m WizardModel) createFiles() tea.Cmd {
	dir, environments := m.dir, m.environments
	return func() tea.Msg {
		result, err := GenerateFiles(dir, environments)
		return fileCreationResultMsg{result: result, err: err}
	}
}

type existingConfigMsg struct {
	path     string
	envNames []string
}

func (m WizardModel) checkForExistingConfig() tea.Msg {
	configPath := filepath.Join(m.dir, config.FileName)
	envNames, err := getEnvironmentNames(configPath)
	if err == nil && len(envNames) > 0 {
		return existingConfigMsg{path: configPath, envNames: envNames}
	}

	// No existing config
	return existingConfigMsg{}
}

// View renderers

func (m WizardModel) renderWelcome() string {
	var b strings.Builder

	b.WriteString(renderHeader("surmigrate init"))
	b.WriteString("\n\n")
	b.WriteString("Welcome! Let's set up surmigrate for your project.\n\n")
	b.WriteString(renderInfo("This wizard will help you:\n" +
		"  • Configure database connections\n" +
		"  • Keep credentials in per-environment .env files\n" +
		"  • Create the migrations directory"))
	b.WriteString("\n\n")
	b.WriteString(renderStatusBar("Press Enter to continue, q to quit"))

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderCheckExisting() string {
	var b strings.Builder

	b.WriteString(renderHeader("surmigrate init"))
	b.WriteString("\n\n")
	b.WriteString(renderSuccess("Found existing configuration!"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Config: %s\n", m.existingConfigPath)
	fmt.Fprintf(&b, "Environments: %s\n", strings.Join(m.existingEnvNames, ", "))
	b.WriteString("\n\n")
	b.WriteString(renderInfo("New environments are merged into the existing file.\n" +
		"An environment with the same name is replaced."))
	b.WriteString("\n\n")
	b.WriteString(renderStatusBar("Press Enter to continue, q to quit"))

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderDatabaseType() string {
	var b strings.Builder

	b.WriteString(renderHeader("surmigrate init"))
	b.WriteString("\n\n")
	b.WriteString(renderSectionHeader("Database Type Selection"))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("What database are you migrating?"))
	b.WriteString("\n\n")

	for i, dbType := range DatabaseTypes {
		line := fmt.Sprintf("%d. %s %s (%s)",
			i+1, dbType.Icon, dbType.DisplayName, dbType.Description)
		b.WriteString(renderOption(i == m.dbTypeIndex, line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderStatusBar("↑/↓: navigate  Enter: select  q: quit"))

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderConnectionDetails() string {
	var b strings.Builder

	b.WriteString(renderHeader("surmigrate init"))
	b.WriteString("\n\n")
	b.WriteString(renderSectionHeader("Connection Details"))
	b.WriteString("\n\n")

	dbType := DatabaseTypes[m.dbTypeIndex]
	fmt.Fprintf(&b, "Database: %s %s\n\n", dbType.Icon, dbType.DisplayName)

	for i, input := range m.inputs {
		label := input.Placeholder
		if i == m.focusIndex {
			b.WriteString(selectedStyle.Render(iconCursor + " " + label + ":"))
		} else {
			b.WriteString(labelStyle.Render("  " + label + ":"))
		}
		b.WriteString("\n  ")
		b.WriteString(input.View())
		b.WriteString("\n\n")
	}

	if len(m.errors) > 0 {
		for _, errMsg := range m.errors {
			b.WriteString(renderError(errMsg))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	switch m.currentEnv.Backend {
	case "surrealdb":
		b.WriteString(renderInfo("The namespace and database are created\non the first apply if they do not exist."))
	case "postgres":
		b.WriteString(renderInfo("The ledger table is created in the schema,\nor in the search path when none is given."))
	case "sqlite":
		b.WriteString(renderInfo("The database file is created if missing."))
	case "libsql":
		b.WriteString(renderInfo("The auth token is stored in .env only."))
	}

	b.WriteString("\n\n")
	b.WriteString(renderStatusBar("↑/↓ or Tab: navigate  Enter: test connection  ctrl+c: quit"))

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderTestConnection() string {
	var b strings.Builder

	b.WriteString(renderHeader("surmigrate init"))
	b.WriteString("\n\n")
	b.WriteString(renderSectionHeader("Testing Connection"))
	b.WriteString("\n\n")

	if m.testingConnection {
		b.WriteString(infoStyle.Render(iconWorking + " Testing connection..."))
	} else if m.connectionTestResult == "success" {
		b.WriteString(renderSuccess("Connection successful!"))
		b.WriteString("\n\n")
		b.WriteString("Connected to: " + m.currentEnv.Name)
	} else if m.connectionTestResult == "failed" {
		b.WriteString(renderError("Connection failed"))
		b.WriteString("\n\n")
		if m.connectionError != nil {
			b.WriteString(errorStyle.Render("Error: " + m.connectionError.Error()))
		}
		b.WriteString("\n\n")
		b.WriteString("What would you like to do?\n\n")

		for i, option := range []string{"Retry connection", "Edit connection details", "Save without testing", "Quit wizard"} {
			b.WriteString(renderOption(m.retryChoice == i, option))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	if m.connectionTestResult == "failed" {
		b.WriteString(renderStatusBar("↑/↓: navigate  Enter: select  q: quit"))
	} else {
		b.WriteString(renderStatusBar("Press Enter to continue"))
	}

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderAddAnother() string {
	var b strings.Builder

	b.WriteString(renderHeader("surmigrate init"))
	b.WriteString("\n\n")
	b.WriteString(renderSectionHeader("Add Another Environment?"))
	b.WriteString("\n\n")
	if len(m.environments) > 0 {
		fmt.Fprintf(&b, "%s Added environment: %s\n\n", iconSuccess, m.environments[len(m.environments)-1].Name)
	}
	b.WriteString(renderOption(m.addAnotherChoice == 0, "Add another environment (e.g., staging, production)"))
	b.WriteString("\n")
	b.WriteString(renderOption(m.addAnotherChoice == 1, "Finish and review"))
	b.WriteString("\n\n")
	b.WriteString(renderStatusBar("↑/↓: navigate  Enter: select  q: quit"))

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderSummary() string {
	var b strings.Builder

	b.WriteString(renderHeader("surmigrate init"))
	b.WriteString("\n\n")
	b.WriteString(renderSectionHeader("Summary"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Ready to create configuration for %d environment(s):\n\n", len(m.environments))

	for _, env := range m.environments {
		fmt.Fprintf(&b, "  • %s (%s)\n", env.Name, env.Backend)
	}

	b.WriteString("\n")
	b.WriteString("This will create:\n")
	fmt.Fprintf(&b, "  • %s\n", config.FileName)
	fmt.Fprintf(&b, "  • %s/\n", defaultMigrationsDir)
	for _, env := range m.environments {
		fmt.Fprintf(&b, "  • .env.%s\n", env.Name)
	}
	b.WriteString("  • Update .env.example and .gitignore\n")

	b.WriteString("\n\n")
	b.WriteString(renderStatusBar("Press Enter to create files, q to quit"))

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderCreating() string {
	var b strings.Builder

	b.WriteString(renderHeader("surmigrate init"))
	b.WriteString("\n\n")
	b.WriteString(infoStyle.Render(iconWorking + " Creating project structure..."))

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderDone() string {
	var b strings.Builder

	b.WriteString(renderHeader("surmigrate init"))
	b.WriteString("\n\n")
	b.WriteString(renderSuccess("Setup complete!"))
	b.WriteString("\n\n")

	if m.result != nil {
		b.WriteString("Created:\n")
		if m.result.ConfigCreated {
			fmt.Fprintf(&b, "  %s %s\n", iconSuccess, m.result.ConfigPath)
		}
		if m.result.ConfigUpdated {
			fmt.Fprintf(&b, "  %s %s updated\n", iconSuccess, m.result.ConfigPath)
		}
		if m.result.MigrationsDirCreated {
			fmt.Fprintf(&b, "  %s %s/\n", iconSuccess, m.result.MigrationsDir)
		}
		for _, envFile := range m.result.EnvFiles {
			fmt.Fprintf(&b, "  %s %s\n", iconSuccess, envFile)
		}
		if m.result.GitignoreUpdated {
			fmt.Fprintf(&b, "  %s .gitignore updated\n", iconSuccess)
		}
	}

	b.WriteString("\n")
	b.WriteString(renderInfo("Add migration files, then run: surmigrate apply\n\n" +
		"  001-init.surql   runs once, recorded in the ledger\n" +
		"  views.surql      runs on every apply"))

	b.WriteString("\n\n")
	b.WriteString(renderStatusBar("Press Enter to exit"))

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderError() string {
	var b strings.Builder

	b.WriteString(renderHeader("surmigrate init"))
	b.WriteString("\n\n")
	b.WriteString(renderError("An error occurred"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
	}

	b.WriteString("\n\n")
	b.WriteString(renderStatusBar("Press Enter to exit"))

	return borderStyle.Render(b.String())
}

// Run starts the wizard in dir and returns what it created, or nil if the
// user quit before files were written.
func Run(dir string) (*InitResult, error) {
	final, err := tea.NewProgram(New(dir)).Run()
	if err != nil {
		return nil, err
	}
	m, ok := final.(WizardModel)
	if !ok {
		return nil, nil
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}
