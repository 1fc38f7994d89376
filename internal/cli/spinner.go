package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/landscape/pkg/observability"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner shows the running pipeline stage with its elapsed time. It
// implements [observability.PipelineHooks] so the runner drives the stage
// text, and stops when its context is cancelled.
type Spinner struct {
	w       io.Writer
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
	started bool

	mu         sync.Mutex
	message    string
	stage      string
	stageStart time.Time
	width      int // widest line drawn, for clearing
}

// newSpinner creates a spinner writing to w that stops when ctx is done.
func newSpinner(ctx context.Context, w io.Writer, message string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		w:       w,
		ctx:     spinnerCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		message: message,
	}
}

// Start begins the animation.
func (s *Spinner) Start() {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.done:
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

// Stop halts the animation and clears the line. It is safe to call twice.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if started {
			<-s.stopped
		}
		s.clearLine()
	})
}

// StopWithError stops the spinner and prints msg as an error.
func (s *Spinner) StopWithError(msg string) {
	s.Stop()
	printError("%s", msg)
}

// Cancelled reports whether the parent context ended the spinner.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}

// Close releases the spinner's context.
func (s *Spinner) Close() {
	s.Stop()
	s.cancel()
}

// OnStageStart implements [observability.PipelineHooks].
func (s *Spinner) OnStageStart(_ context.Context, stage string, _ int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stage = stage
	s.stageStart = time.Now()
}

// OnStageComplete implements [observability.PipelineHooks].
func (s *Spinner) OnStageComplete(context.Context, string, time.Duration, error) {}

// line renders the status text without the frame.
func (s *Spinner) line() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage == "" {
		return s.message
	}
	elapsed := time.Since(s.stageStart).Truncate(100 * time.Millisecond)
	return fmt.Sprintf("%s %s %s", s.message, s.stage, elapsed)
}

func (s *Spinner) draw(frame string) {
	text := s.line()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = max(s.width, lipgloss.Width(text)+2)
	fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(text))
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width == 0 {
		return
	}
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
}

var _ observability.PipelineHooks = (*Spinner)(nil)
