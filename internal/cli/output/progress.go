package output

import (
	"fmt"
	"io"
	"sync"
)

// Progress prints a running count of scan rounds and items on one line,
// for long scans and purges on a terminal.
type Progress struct {
	w     io.Writer
	title string

	mu     sync.Mutex
	rounds int
	items  int
}

// NewProgress creates a progress line. A nil writer discards output.
func NewProgress(w io.Writer, title string) *Progress {
	if w == nil {
		w = io.Discard
	}
	return &Progress{w: w, title: title}
}

// Round records one round that yielded n items.
func (p *Progress) Round(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rounds++
	p.items += n
	fmt.Fprintf(p.w, "\r%s: %d rounds, %d items", p.title, p.rounds, p.items)
}

// Counts returns the totals so far.
func (p *Progress) Counts() (rounds, items int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rounds, p.items
}

// Finish ends the line.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rounds > 0 {
		fmt.Fprintln(p.w)
	}
}
