package progress

import (
	"strings"
	"sync"
	"time"
)

type Spinner struct {
	mu      sync.Mutex
	message string

	parts []string
	value int

	ticker  *time.Ticker
	stopped bool
}

func NewSpinner(message string) *Spinner {
	s := &Spinner{
		message: message,
		parts: []string{
			"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏",
		},
	}
	go s.start()
	return s
}

// SetMessage swaps the label while the spinner keeps turning, so one spinner
// can follow the pipeline from parsing through rendering.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.message = message
}

func (s *Spinner) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sb strings.Builder
	if s.message != "" {
		sb.WriteString(strings.TrimSpace(s.message))
		sb.WriteString(" ")
	}

	if !s.stopped {
		sb.WriteString(s.parts[s.value])
		sb.WriteString(" ")
	}

	return sb.String()
}

func (s *Spinner) start() {
	s.mu.Lock()
	s.ticker = time.NewTicker(100 * time.Millisecond)
	ticker := s.ticker
	s.mu.Unlock()

	for range ticker.C {
		s.mu.Lock()
		s.value = (s.value + 1) % len(s.parts)
		stopped := s.stopped
		s.mu.Unlock()

		if stopped {
			ticker.Stop()
			return
		}
	}
}

func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
}
