package executor

import (
	"bytes"
	"fmt"

	"github.com/Cyclone1070/agentcore/internal/tool/text"
)

// capture keeps the first and last halves of a stream within limit bytes,
// so both the start of a command's output and its final errors survive.
// Streams with a NUL byte near the start are treated as binary and dropped.
type capture struct {
	limit   int
	head    []byte
	tail    []byte
	dropped int
	sniffed int
	binary  bool
}

func newCapture(limit int) *capture {
	return &capture{limit: limit}
}

func (c *capture) Write(p []byte) (int, error) {
	n := len(p)
	if c.binary {
		return n, nil
	}
	if c.sniffed < text.SniffLen {
		window := p[:min(len(p), text.SniffLen-c.sniffed)]
		if bytes.IndexByte(window, 0) >= 0 {
			c.binary = true
			c.head, c.tail = nil, nil
			return n, nil
		}
		c.sniffed += len(window)
	}

	headCap := c.limit - c.limit/2
	if room := headCap - len(c.head); room > 0 {
		k := min(room, len(p))
		c.head = append(c.head, p[:k]...)
		p = p[k:]
	}
	if len(p) == 0 {
		return n, nil
	}

	c.tail = append(c.tail, p...)
	if over := len(c.tail) - c.limit/2; over > 0 {
		c.dropped += over
		c.tail = append(c.tail[:0], c.tail[over:]...)
	}
	return n, nil
}

func (c *capture) String() string {
	switch {
	case c.binary:
		return "[binary output omitted]"
	case c.dropped > 0:
		return fmt.Sprintf("%s\n...[%d bytes omitted]...\n%s", c.head, c.dropped, c.tail)
	default:
		return string(c.head) + string(c.tail)
	}
}

func (c *capture) Truncated() bool {
	return c.binary || c.dropped > 0
}
