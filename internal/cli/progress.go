package cli

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/HunRotation/umato/pkg/observability"
	"github.com/HunRotation/umato/pkg/pipeline"
)

// =============================================================================
// Live Progress TUI
// =============================================================================

// Messages fed into the progress model. Optimizer hooks run on the optimizer
// goroutine; bubbletea's Send is the synchronization boundary.
type (
	localEpochMsg struct {
		epoch, total int
		alpha        float64
	}
	globalIterMsg struct {
		iter, total int
		cost        float64
	}
	pipelineDoneMsg struct {
		result *pipeline.Result
		err    error
	}
)

// progressModel renders one progress bar per pipeline stage.
type progressModel struct {
	hasGlobal bool

	localEpoch, localTotal int
	alpha                  float64

	globalIter, globalTotal int
	cost                    float64
	haveCost                bool

	done bool
}

func newProgressModel(hasGlobal bool) progressModel {
	return progressModel{hasGlobal: hasGlobal}
}

func (m progressModel) Init() tea.Cmd { return nil }

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Interrupt
		}
	case localEpochMsg:
		m.localEpoch, m.localTotal, m.alpha = msg.epoch, msg.total, msg.alpha
	case globalIterMsg:
		m.globalIter, m.globalTotal = msg.iter, msg.total
		if !math.IsNaN(msg.cost) {
			m.cost, m.haveCost = msg.cost, true
		}
	case pipelineDoneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("umato") + StyleDim.Render(" · optimizing embedding") + "\n\n")

	b.WriteString(stageLine("local ", m.localEpoch, m.localTotal))
	if m.localEpoch > 0 {
		b.WriteString(StyleDim.Render(fmt.Sprintf("  alpha %.4f", m.alpha)))
	}
	b.WriteString("\n")

	if m.hasGlobal {
		b.WriteString(stageLine("global", m.globalIter, m.globalTotal))
		if m.haveCost {
			b.WriteString(StyleDim.Render(fmt.Sprintf("  cost %.6f", m.cost)))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + StyleDim.Render("ctrl+c to cancel") + "\n")
	return b.String()
}

// stageLine renders "name [████░░░░] 12/50".
func stageLine(name string, current, total int) string {
	const width = 30
	filled := 0
	if total > 0 {
		filled = current * width / total
	}
	bar := StyleHighlight.Render(strings.Repeat("█", filled)) +
		StyleDim.Render(strings.Repeat("░", width-filled))
	counter := StyleDim.Render("waiting")
	if total > 0 {
		counter = StyleNumber.Render(fmt.Sprintf("%d", current)) + StyleDim.Render(fmt.Sprintf("/%d", total))
	}
	return fmt.Sprintf("  %s %s %s", StyleValue.Render(name), bar, counter)
}

// teaOptimizerHooks forwards optimizer events into the running TUI program.
type teaOptimizerHooks struct {
	program *tea.Program
}

func (h *teaOptimizerHooks) OnLocalEpoch(_ context.Context, epoch, total int, alpha float64) {
	h.program.Send(localEpochMsg{epoch: epoch, total: total, alpha: alpha})
}

func (h *teaOptimizerHooks) OnGlobalIteration(_ context.Context, iter, total int, cost float64) {
	h.program.Send(globalIterMsg{iter: iter, total: total, cost: cost})
}

func (h *teaOptimizerHooks) OnSnapshotError(context.Context, string, error) {}

// runWithProgressTUI executes the pipeline while a bubbletea program renders
// per-epoch progress. Ctrl+C cancels the optimization through the context.
func runWithProgressTUI(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(opts.P != nil),
		tea.WithContext(ctx),
		tea.WithOutput(os.Stderr))

	observability.SetOptimizerHooks(&teaOptimizerHooks{program: p})
	defer observability.SetOptimizerHooks(observability.NoopOptimizerHooks{})

	resCh := make(chan pipelineDoneMsg, 1)
	go func() {
		result, err := runner.Execute(ctx, opts)
		msg := pipelineDoneMsg{result: result, err: err}
		resCh <- msg
		p.Send(msg)
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-resCh
		if errors.Is(err, tea.ErrInterrupted) || errors.Is(err, tea.ErrProgramKilled) {
			return nil, context.Canceled
		}
		return nil, err
	}

	msg := <-resCh
	return msg.result, msg.err
}
