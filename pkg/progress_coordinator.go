package pkg

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-kit/kit/log/term"
	"github.com/gosuri/uiprogress"
	"github.com/gosuri/uiprogress/util/strutil"
	"github.com/leads-project/leads-cluster/pkg/clustermanager"
)

// CompletedEvent marks a progress as done
const CompletedEvent = "complete!"

// ProgressCoordinator renders per-node progress, as bars on a terminal or as
// one line per event otherwise. It is safe for concurrent use.
type ProgressCoordinator struct {
	mutex      sync.Mutex
	progresses map[string]*Progress
	progress   *uiprogress.Progress
	ui         bool
	started    bool
	out        io.Writer
}

var _ clustermanager.EventService = &ProgressCoordinator{}

// NewProgressCoordinator returns a coordinator writing to stdout. Bars are
// only drawn when renderBars is set and stdout is a terminal.
func NewProgressCoordinator(renderBars bool) *ProgressCoordinator {
	return newProgressCoordinator(renderBars && term.IsTerminal(os.Stdout), os.Stdout)
}

func newProgressCoordinator(ui bool, out io.Writer) *ProgressCoordinator {
	return &ProgressCoordinator{
		progresses: make(map[string]*Progress),
		progress:   uiprogress.New(),
		ui:         ui,
		out:        out,
	}
}

func shortLeftPadRight(s string, padWidth int) string {
	if len(s) > padWidth {
		l := len(s)
		return "..." + s[(l-(padWidth-3)):]
	}
	return strutil.PadRight(s, padWidth, ' ')
}

// StartProgress registers a node expected to go through roughly steps events
func (c *ProgressCoordinator) StartProgress(name string, steps int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// rendering starts with the first bar so prompts before it stay readable
	if c.ui && !c.started {
		c.progress.Start()
		c.started = true
	}

	progress := &Progress{
		Bar:   c.progress.AddBar(steps),
		State: "starting",
		Name:  name,
	}
	progress.Bar.Width = 16
	progress.Bar.PrependFunc(func(b *uiprogress.Bar) string {
		percent := strutil.PadLeft(fmt.Sprintf("%.01f%%", b.CompletedPercent()), 6, ' ')
		return fmt.Sprintf("%s : %s  %s",
			shortLeftPadRight(name, 20),
			shortLeftPadRight(progress.State, 32),
			percent,
		)
	})
	c.progresses[name] = progress
}

// AddEvent records an event for a node. Events of unknown nodes are printed as is.
func (c *ProgressCoordinator) AddEvent(progressName string, eventName string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	progress, isPresent := c.progresses[progressName]
	if !isPresent {
		if !c.ui {
			fmt.Fprintf(c.out, "%s: %s\n", progressName, eventName)
		}
		return
	}

	progress.SetText(eventName)
	var step int
	if eventName == CompletedEvent {
		progress.complete()
		step = progress.steps
	} else {
		step = progress.advance()
	}

	if !c.ui {
		fmt.Fprintf(c.out, "%s: %s (%d)\n", progress.Name, eventName, step)
	}
}

// CompleteAll marks every registered progress as done
func (c *ProgressCoordinator) CompleteAll() {
	c.mutex.Lock()
	names := make([]string, 0, len(c.progresses))
	for name := range c.progresses {
		names = append(names, name)
	}
	c.mutex.Unlock()

	for _, name := range names {
		c.AddEvent(name, CompletedEvent)
	}
}

// Wait stops rendering
func (c *ProgressCoordinator) Wait() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.started {
		c.progress.Stop()
		c.started = false
	}
}
