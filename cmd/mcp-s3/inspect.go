package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"

	"github.com/ilkoid/mcp-s3/pkg/lookup"
	"github.com/ilkoid/mcp-s3/pkg/utils"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Interactive lookup against the configured bucket",
	Args:  cobra.NoArgs,
	RunE:  runInspect,
}

// lookupTimeout ограничивает один поиск из TUI.
const lookupTimeout = 30 * time.Second

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// --- Сообщения (Messages) ---
type resultMsg struct {
	query string
	names []string
	took  time.Duration
	err   error
}

// finder — то, что модели нужно от lookup.Service.
type finder interface {
	FindSimilar(ctx context.Context, query string) ([]string, error)
}

// --- Модель ---
type inspectModel struct {
	ctx     context.Context // отменяется по SIGINT/SIGTERM
	finder  finder
	title   string
	input   textinput.Model
	spinner spinner.Model
	width   int

	loading bool
	last    *resultMsg
}

func newInspectModel(ctx context.Context, f finder, title string) inspectModel {
	ti := textinput.New()
	ti.Placeholder = "file name to look for"
	ti.Prompt = "> "
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return inspectModel{
		ctx:     ctx,
		finder:  f,
		title:   title,
		input:   ti,
		spinner: s,
		width:   80,
	}
}

func (m inspectModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, runLookup(m.ctx, m.finder, m.input.Value()))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(m.input.Prompt) - 1
		return m, nil

	case resultMsg:
		m.loading = false
		m.last = &msg
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m inspectModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.loading:
		fmt.Fprintf(&b, "%s Listing keys...\n", m.spinner.View())
	case m.last != nil && m.last.err != nil:
		fmt.Fprintf(&b, "%s\n", errorStyle.Render(lookup.Kind(m.last.err)+": ")+m.clip(m.last.err.Error()))
	case m.last != nil:
		fmt.Fprintf(&b, "%s\n", hintStyle.Render(fmt.Sprintf("%q: %d match(es) in %s", m.last.query, len(m.last.names), m.last.took.Round(time.Millisecond))))
		b.WriteString(m.clipLines(formatMatches(m.last.names)))
	}

	b.WriteString("\n")
	b.WriteString(hintStyle.Render("enter: search • esc: quit"))
	return b.String()
}

// clip обрезает строку по ширине терминала.
func (m inspectModel) clip(s string) string {
	if m.width <= 0 {
		return s
	}
	return truncate.StringWithTail(s, uint(m.width), "…")
}

func (m inspectModel) clipLines(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = m.clip(line)
	}
	return strings.Join(lines, "\n") + "\n"
}

// --- Бизнес-логика (Commands) ---

func runLookup(parent context.Context, f finder, query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, lookupTimeout)
		defer cancel()

		start := time.Now()
		names, err := f.FindSimilar(ctx, query)
		return resultMsg{query: query, names: names, took: time.Since(start), err: err}
	}
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx, shutdown := utils.SetupGracefulShutdown(cmd.Context())
	defer shutdown()

	comps, err := setup(ctx, true)
	if err != nil {
		return err
	}

	cfg := comps.Service.Config()
	title := fmt.Sprintf("S3 Lookup  s3://%s/%s", cfg.Bucket, cfg.Prefix)

	p := tea.NewProgram(newInspectModel(ctx, comps.Service, title), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	return nil
}
