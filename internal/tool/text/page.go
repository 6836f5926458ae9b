package text

import "fmt"

// Window describes where a page sits in the full result set.
type Window struct {
	Offset int
	Shown  int
	Total  int
}

// More reports whether results remain past the page.
func (w Window) More() bool {
	return w.Offset+w.Shown < w.Total
}

// Page returns items[offset:offset+limit], clamped to the slice.
func Page[T any](items []T, offset, limit int) ([]T, Window) {
	start := min(max(offset, 0), len(items))
	end := min(start+max(limit, 0), len(items))
	return items[start:end], Window{Offset: offset, Shown: end - start, Total: len(items)}
}

// Footer is appended to a paged listing. It names the cap when the
// collection stopped early, otherwise the next offset when more remain.
// It is empty when the page is the whole result.
func (w Window) Footer(noun string, capped bool, capAt int) string {
	switch {
	case capped:
		return fmt.Sprintf("\n[results capped at %d %s]", capAt, noun)
	case w.More():
		next := w.Offset + w.Shown
		return fmt.Sprintf("\n[showing %d-%d of %d %s; more at offset %d]", w.Offset+1, next, w.Total, noun, next)
	}
	return ""
}
