package cmd

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Aman-CERP/cjdocs-bridge/internal/preflight"
	"github.com/Aman-CERP/cjdocs-bridge/internal/ui"
)

// doctorModel is a one-shot bubbletea view of doctor's diagnostic results,
// grounded on the teacher's indexing TUI (internal/ui/tui.go) but rendering
// a static status snapshot rather than a live progress stream: any key
// exits, since there's nothing further to observe. There is no timeout.
type doctorModel struct {
	styles  ui.Styles
	results []preflight.CheckResult
	index   string
	bridge  string
}

func newDoctorModel(results []preflight.CheckResult, index, bridge string) doctorModel {
	return doctorModel{
		styles:  ui.DefaultStyles(),
		results: results,
		index:   index,
		bridge:  bridge,
	}
}

func (m doctorModel) Init() tea.Cmd { return nil }

func (m doctorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case tea.KeyMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m doctorModel) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Header.Render("cjdocs doctor") + "\n\n")

	for _, r := range m.results {
		line := fmt.Sprintf("%-28s %s", r.Name, r.Message)
		switch r.Status {
		case preflight.StatusPass:
			b.WriteString(m.styles.Success.Render("✓ "+line) + "\n")
		case preflight.StatusWarn:
			b.WriteString(m.styles.Warning.Render("! "+line) + "\n")
		case preflight.StatusFail:
			b.WriteString(m.styles.Error.Render("✗ "+line) + "\n")
		}
	}

	b.WriteString("\n" + m.styles.Label.Render("Index: ") + m.index + "\n")
	b.WriteString(m.styles.Label.Render("Language bridge: ") + m.bridge + "\n")
	b.WriteString("\n" + m.styles.Dim.Render("press any key to exit") + "\n")

	return m.styles.Panel.Render(b.String())
}

func runDoctorTUI(checker *preflight.Checker, results []preflight.CheckResult, index, bridge string) error {
	model := newDoctorModel(results, index, bridge)
	p := tea.NewProgram(model)
	_, err := p.Run()
	if err != nil {
		return err
	}
	if checker.HasCriticalFailures(results) {
		return &doctorError{message: "system check failed"}
	}
	return nil
}
