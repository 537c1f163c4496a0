// Package clipboard puts generated links on the system clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

// ErrUnavailable is returned when the system clipboard cannot be initialized,
// e.g. on a headless host without a display server.
var ErrUnavailable = errors.New("system clipboard unavailable")

// Writer copies text somewhere the user can paste it from.
type Writer interface {
	WriteText(text string) error
}

// System writes to the OS clipboard.
type System struct {
	once    sync.Once
	initErr error
}

// NewSystem returns a Writer backed by the OS clipboard. Initialization is
// deferred until the first write.
func NewSystem() *System {
	return &System{}
}

// WriteText implements Writer.
func (s *System) WriteText(text string) error {
	s.once.Do(func() {
		err := clipboard.Init()
		if err != nil {
			s.initErr = fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
	})

	if s.initErr != nil {
		return s.initErr
	}

	clipboard.Write(clipboard.FmtText, []byte(text))

	return nil
}

// Memory records writes. Useful in tests and with --copy on headless hosts.
type Memory struct {
	mu   sync.Mutex
	last string
	n    int
}

// WriteText implements Writer.
func (m *Memory) WriteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.last = text
	m.n++

	return nil
}

// Text returns the most recent write.
func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.last
}

// Writes returns how many writes happened.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.n
}
