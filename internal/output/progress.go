package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// isTerminalWriter reports whether w is backed by a terminal. Buffers and
// pipes report false, which switches both widgets to line-oriented output
// so piped runs stay readable.
func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && isatty.IsTerminal(f.Fd())
}

// ProgressBar tracks a loop over a known number of items, one bump per
// item: package upgrades, PyPI queries. On a terminal it redraws in place;
// elsewhere it prints a single line once the loop completes.
type ProgressBar struct {
	mu          sync.Mutex
	w           io.Writer
	interactive bool
	completed   bool

	total       int
	done        int
	width       int
	description string
}

// NewProgress creates a progress bar over total items, writing to stdout.
func NewProgress(total int, description string) *ProgressBar {
	return &ProgressBar{
		w:           os.Stdout,
		interactive: isTerminalWriter(os.Stdout),
		total:       total,
		width:       40,
		description: description,
	}
}

// SetWriter redirects the bar, mainly for tests.
func (p *ProgressBar) SetWriter(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.w = w
	p.interactive = isTerminalWriter(w)
}

// Increment advances the bar by one item.
func (p *ProgressBar) Increment() {
	p.IncrementBy(1)
}

// IncrementBy advances the bar by n items, clamping at the total.
func (p *ProgressBar) IncrementBy(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = min(p.done+n, p.total)
	p.draw()
}

// Finish forces the bar to 100% and ends the line.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = p.total
	p.draw()
	if p.interactive {
		fmt.Fprintln(p.w)
	}
}

// draw renders the current state. Caller holds the lock. A terminal gets a
// carriage-return redraw on every bump; anything else gets the completed
// bar exactly once.
func (p *ProgressBar) draw() {
	if p.interactive {
		fmt.Fprintf(p.w, "\r%s", p.line())
		return
	}
	if p.done == p.total && !p.completed {
		p.completed = true
		fmt.Fprintln(p.w, p.line())
	}
}

func (p *ProgressBar) line() string {
	pct, fill := 0, 0
	if p.total > 0 {
		pct = p.done * 100 / p.total
		fill = p.done * p.width / p.total
	}
	bar := strings.Repeat("=", max(fill-1, 0))
	if fill > 0 {
		bar += ">"
	}
	return fmt.Sprintf("[%-*s] %3d%% %s", p.width, bar, pct, p.description)
}

// Spinner marks a wait of unknown length, such as a subprocess reading a
// package index. On a terminal it animates; elsewhere Start prints the
// message once and the animation is skipped entirely.
type Spinner struct {
	mu          sync.Mutex
	w           io.Writer
	interactive bool
	message     string
	frames      []string
	stop        chan struct{} // nil when not running
}

// NewSpinner creates a spinner writing to stdout. Call Start to run it.
func NewSpinner(message string) *Spinner {
	return &Spinner{
		w:           os.Stdout,
		interactive: isTerminalWriter(os.Stdout),
		message:     message,
		frames:      []string{"|", "/", "-", "\\"},
	}
}

// SetWriter redirects the spinner, mainly for tests.
func (s *Spinner) SetWriter(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = w
	s.interactive = isTerminalWriter(w)
}

// Start begins the animation. Starting a running spinner is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	if !s.interactive {
		fmt.Fprintf(s.w, "%s...\n", s.message)
		return
	}
	go s.spin(s.stop)
}

func (s *Spinner) spin(stop chan struct{}) {
	tick := time.NewTicker(120 * time.Millisecond)
	defer tick.Stop()

	for i := 0; ; i++ {
		select {
		case <-stop:
			return
		case <-tick.C:
		}

		s.mu.Lock()
		select {
		case <-stop:
			// Stop won the race while this tick waited for the lock;
			// the line is already cleared, do not repaint it.
			s.mu.Unlock()
			return
		default:
		}
		fmt.Fprintf(s.w, "\r%s %s", s.frames[i%len(s.frames)], s.message)
		s.mu.Unlock()
	}
}

// UpdateMessage swaps the displayed message while the spinner runs.
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// Stop halts the animation and clears the spinner line. Stopping a stopped
// spinner is a no-op.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.stop = nil
	if s.interactive {
		fmt.Fprintf(s.w, "\r%*s\r", len(s.message)+3, "")
	}
}

// StopWithMessage halts the spinner and leaves a final line in its place,
// typically the result of whatever the wait was for.
func (s *Spinner) StopWithMessage(message string) {
	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, message)
}
