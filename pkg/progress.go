package pkg

import "github.com/gosuri/uiprogress"

// ProgressCompleted indicate the value for progress bar when completed
const ProgressCompleted = 100

// Progress tracks the steps of one node
type Progress struct {
	Name  string
	Bar   *uiprogress.Bar
	State string
	steps int
}

// SetText define text to display during progress
func (progress *Progress) SetText(text string) {
	if text != "" {
		progress.State = text
	}
}

// advance counts a step, keeping the last one for completion
func (progress *Progress) advance() int {
	if progress.steps < progress.Bar.Total-1 {
		progress.steps++
		progress.Bar.Set(progress.steps)
	}
	return progress.steps
}

func (progress *Progress) complete() {
	progress.steps = progress.Bar.Total
	progress.Bar.Set(progress.Bar.Total)
}
