package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pagecraft-io/pagestream/render"
	"github.com/pagecraft-io/pagestream/types"
)

// progressMsg carries a renderer progress update into the model.
type progressMsg render.ProgressUpdate

// doneMsg carries the terminal result into the model.
type doneMsg struct {
	result *render.Result
	err    error
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ProgressModel is a Bubble Tea model showing one render session live.
type ProgressModel struct {
	slug string
	spin spinner.Model

	update   render.ProgressUpdate
	result   *render.Result
	err      error
	width    int
	quitting bool
}

// NewProgressModel creates a progress model for the given page slug.
func NewProgressModel(slug string) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = WarningStyle
	return ProgressModel{
		slug: slug,
		spin: s,
		update: render.ProgressUpdate{
			SessionStatus: types.SessionInitializing,
		},
	}
}

// Init implements tea.Model.
func (m ProgressModel) Init() tea.Cmd {
	return m.spin.Tick
}

// Update implements tea.Model.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case progressMsg:
		m.update = render.ProgressUpdate(msg)
		return m, nil

	case doneMsg:
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model.
func (m ProgressModel) View() string {
	if m.quitting && m.result == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Generating " + types.DiscoverPrefix + m.slug))
	b.WriteString("\n\n")

	status := string(m.update.SessionStatus)
	line := StatusStyle(status).Render(status)
	if m.result == nil {
		line = m.spin.View() + " " + line
	}
	b.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render("Status:"), line))

	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Blocks:"),
		ValueStyle.Render(blockBar(m.update.BlocksDone, m.update.BlocksTotal))))

	if m.update.ImagesTotal > 0 {
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Images:"),
			ValueStyle.Render(fmt.Sprintf("%d/%d ready", m.update.ImagesReady, m.update.ImagesTotal))))
	}

	if m.update.Reconnects > 0 {
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Reconnects:"),
			WarningStyle.Render(fmt.Sprintf("%d", m.update.Reconnects))))
	}

	if m.update.Message != "" {
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Last:"),
			ValueStyle.Render(m.update.Message)))
	}

	if m.result != nil {
		outcome := string(m.result.Outcome)
		style := ErrorStyle
		if m.result.Outcome == render.OutcomeComplete {
			style = SuccessStyle
		}
		b.WriteString(fmt.Sprintf("\n%s %s (%s)\n",
			LabelStyle.Render("Outcome:"),
			style.Render(outcome),
			m.result.Duration))
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return BoxStyle.Render(b.String()) + "\n" + help
}

// blockBar renders block completion as a compact bar plus counts.
func blockBar(done, total int) string {
	if total == 0 {
		return "waiting for layout"
	}
	var b strings.Builder
	for i := 0; i < total; i++ {
		if i < done {
			b.WriteString("█")
		} else {
			b.WriteString("░")
		}
	}
	return fmt.Sprintf("%s %d/%d", b.String(), done, total)
}

// Run executes the renderer under a live progress view.
//
// Quitting the view mid-session cancels the renderer; the snapshot persisted
// on cancellation makes a later --resume pick up where this left off.
func Run(ctx context.Context, cfg render.Config, slug string) (*render.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewProgressModel(slug))
	cfg.Progress = func(u render.ProgressUpdate) {
		p.Send(progressMsg(u))
	}

	r, err := render.NewRenderer(cfg)
	if err != nil {
		return nil, err
	}

	resCh := make(chan doneMsg, 1)
	go func() {
		result, runErr := r.Run(ctx)
		d := doneMsg{result: result, err: runErr}
		resCh <- d
		p.Send(d)
	}()

	final, err := p.Run()
	if err != nil {
		cancel()
		<-resCh
		return nil, err
	}

	m, ok := final.(ProgressModel)
	if ok && m.result != nil {
		return m.result, m.err
	}

	// User quit before the session finished: cancel and collect the
	// renderer's cancellation result.
	cancel()
	d := <-resCh
	return d.result, d.err
}
