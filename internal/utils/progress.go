package utils

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// Progress is a single mpb progress bar on stderr. It is a no-op when
// disabled or when stderr is not a terminal.
type Progress struct {
	container *mpb.Progress
	bar       *mpb.Bar

	mu          sync.Mutex
	description string
}

var descLength = 24

// NewProgress creates a progress bar counting up to total
func NewProgress(total int, label string, enabled bool) *Progress {
	p := &Progress{}
	if !enabled || total <= 0 || !isTerminal() {
		return p
	}

	fmt.Fprintln(os.Stderr)

	p.container = mpb.New(
		mpb.WithOutput(os.Stderr),
		mpb.WithWidth(64),
		mpb.WithRefreshRate(100*time.Millisecond),
	)
	p.bar = p.container.New(int64(total),
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Name(label, decor.WC{C: decor.DindentRight | decor.DextraSpace}),
			decor.Any(func(decor.Statistics) string {
				return p.currentDescription()
			}, decor.WC{W: descLength, C: decor.DindentRight}),
			decor.CountersNoUnit("%d/%d", decor.WC{C: decor.DindentRight}),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
		),
	)
	return p
}

// Update sets the bar to current and shows description next to it
func (p *Progress) Update(current int, description string) {
	if p.bar == nil {
		return
	}

	p.mu.Lock()
	p.description = description
	p.mu.Unlock()

	p.bar.SetCurrent(int64(current))
}

// Callback adapts the bar to the progress callbacks of the ingest, export
// and database packages
func (p *Progress) Callback() func(current int, total int, description string) {
	return func(current int, _ int, description string) {
		p.Update(current, description)
	}
}

// Finish completes the bar and waits for the final render
func (p *Progress) Finish() {
	if p.container == nil {
		return
	}

	// abort without drop so an interrupted run leaves the bar where it stopped
	if !p.bar.Completed() {
		p.bar.Abort(false)
	}
	p.container.Wait()
	fmt.Fprintln(os.Stderr)
}

func (p *Progress) currentDescription() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.description) > descLength {
		return ".." + p.description[len(p.description)-descLength+2:]
	}
	return p.description
}

// isTerminal checks if stderr is a terminal (TTY)
func isTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
