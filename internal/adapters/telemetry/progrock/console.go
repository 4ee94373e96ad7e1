package progrock

import (
	"fmt"
	"io"
	"sync"

	"github.com/vito/progrock"
	"go.trai.ch/zel/internal/ui/style"
)

// Console is a progrock.Writer that prints one line per completed vertex.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	printed map[string]struct{}
}

// NewConsole creates a Console writing to w. A nil writer discards output.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = io.Discard
	}
	return &Console{
		out:     w,
		printed: make(map[string]struct{}),
	}
}

// SetOutput redirects subsequent lines to w.
func (c *Console) SetOutput(w io.Writer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if w == nil {
		w = io.Discard
	}
	c.out = w
}

// WriteStatus prints every vertex that completed in this update and was not printed before.
func (c *Console) WriteStatus(status *progrock.StatusUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, v := range status.GetVertexes() {
		if v.GetCompleted() == nil {
			continue
		}
		if _, seen := c.printed[v.GetId()]; seen {
			continue
		}
		c.printed[v.GetId()] = struct{}{}

		if _, err := fmt.Fprintln(c.out, formatVertex(v.GetName(), v.GetCached(), v.GetError())); err != nil {
			return err
		}
	}
	return nil
}

// Close does nothing; lines are written as they complete.
func (c *Console) Close() error {
	return nil
}

func formatVertex(name string, cached bool, errMsg string) string {
	switch {
	case errMsg != "":
		return fmt.Sprintf("%s %s: %s", style.Cross, name, errMsg)
	case cached:
		return fmt.Sprintf("%s %s (cached)", style.Tilde, name)
	default:
		return fmt.Sprintf("%s %s", style.Check, name)
	}
}
