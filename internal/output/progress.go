package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// writerIsTTY reports whether w has an Fd() (e.g. *os.File) that is a
// terminal. Plain writers such as *bytes.Buffer are never terminals.
func writerIsTTY(w io.Writer) bool {
	type fder interface {
		Fd() uintptr
	}
	if f, ok := w.(fder); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}

// ProgressBar draws a bar such as
//
//	[=========>          ]  45% Backing up keys
//
// On a terminal it redraws in place. Elsewhere it prints a single line when
// the bar completes.
type ProgressBar struct {
	mu      sync.Mutex
	w       io.Writer
	tty     bool
	total   int
	current int
	width   int
	label   string
}

// NewProgress creates a 40-column progress bar for total steps.
func NewProgress(w io.Writer, total int, label string) *ProgressBar {
	return &ProgressBar{w: w, tty: writerIsTTY(w), total: total, width: 40, label: label}
}

// Increment advances the bar by one, never past total.
func (p *ProgressBar) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current < p.total {
		p.current++
	}
	p.draw()
}

// Finish fills the bar and ends its line.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	wasDone := p.current == p.total
	p.current = p.total
	switch {
	case p.tty:
		p.draw()
		fmt.Fprintln(p.w)
	case !wasDone:
		// The last Increment already printed the completed line otherwise.
		p.draw()
	}
}

func (p *ProgressBar) line() string {
	if p.total <= 0 {
		return fmt.Sprintf("[%s]   0%% %s", strings.Repeat(" ", p.width), p.label)
	}

	filled := p.current * p.width / p.total
	bar := strings.Repeat(" ", p.width)
	if filled > 0 {
		bar = strings.Repeat("=", filled-1) + ">" + strings.Repeat(" ", p.width-filled)
	}
	return fmt.Sprintf("[%s] %3d%% %s", bar, p.current*100/p.total, p.label)
}

// draw must be called with p.mu held.
func (p *ProgressBar) draw() {
	if p.tty {
		fmt.Fprintf(p.w, "\r%s", p.line())
	} else if p.current == p.total {
		fmt.Fprintln(p.w, p.line())
	}
}

const spinnerFrames = `|/-\`

// Spinner animates a message while a registry scan or restore runs. On a
// non-terminal writer the message is printed once and nothing animates.
type Spinner struct {
	mu      sync.Mutex
	w       io.Writer
	tty     bool
	message string
	running bool
	stop    chan struct{}
	stopped chan struct{}
}

func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{w: w, tty: writerIsTTY(w), message: message}
}

// Start begins the animation. Calling Start on a running spinner is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true

	if !s.tty {
		fmt.Fprintf(s.w, "%s...\n", s.message)
		return
	}

	s.stop = make(chan struct{})
	s.stopped = make(chan struct{})
	go s.spin()
}

func (s *Spinner) spin() {
	defer close(s.stopped)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			fmt.Fprintf(s.w, "\r%c  %s", spinnerFrames[i%len(spinnerFrames)], s.message)
			s.mu.Unlock()
		}
	}
}

// Stop halts the animation and clears its line. Stopping twice is a no-op.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, stopped := s.stop, s.stopped
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-stopped
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len(s.message)+3))
}

// StopWithMessage stops the spinner and prints message on its own line.
func (s *Spinner) StopWithMessage(message string) {
	s.Stop()
	fmt.Fprintln(s.w, message)
}
