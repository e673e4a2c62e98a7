package tui

import (
	"log/slog"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Delivery carries a dispatcher outcome into Update, where it runs
type Delivery struct {
	run func()
}

// Relay posts dispatcher outcomes into a running Bubble Tea program, making
// the program's Update loop the interaction context.
type Relay struct {
	mu      sync.RWMutex
	program *tea.Program
	logger  *slog.Logger
}

func NewRelay(logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{logger: logger}
}

// Attach binds the relay to p. Call it before p.Run.
func (r *Relay) Attach(p *tea.Program) {
	r.mu.Lock()
	r.program = p
	r.mu.Unlock()
}

// Post implements task.Poster. Send blocks until the program accepts the
// message and returns immediately once the program has exited.
func (r *Relay) Post(fn func()) {
	r.mu.RLock()
	p := r.program
	r.mu.RUnlock()

	if p == nil {
		r.logger.Warn("delivery dropped, no program attached")
		return
	}
	p.Send(Delivery{run: fn})
}
