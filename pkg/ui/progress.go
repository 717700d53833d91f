package ui

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	barWidth      = 20
)

// PassTracker renders collection progress, one line per pass
type PassTracker struct {
	out       io.Writer
	StartTime time.Time

	Pass      int
	MaxPasses int
	Seen      int
	Unique    int
}

// NewPassTracker creates a tracker writing to the terminal output
func NewPassTracker() *PassTracker {
	return NewPassTrackerWithWriter(nil)
}

// NewPassTrackerWithWriter creates a tracker writing to w. A nil w follows
// the terminal output set with SetOutput.
func NewPassTrackerWithWriter(w io.Writer) *PassTracker {
	return &PassTracker{
		out:       w,
		StartTime: time.Now(),
	}
}

// OnPass records a finished pass and prints it
func (pt *PassTracker) OnPass(pass, maxPasses, seen, added, unique int) {
	pt.Pass = pass
	pt.MaxPasses = maxPasses
	pt.Seen += seen
	pt.Unique = unique

	if IsQuiet() {
		return
	}
	fmt.Fprintf(pt.writer(), "%s %s %s | %s\n",
		Magenta(fmt.Sprintf("[PASS %d/%d]", pass, maxPasses)),
		Dim(pt.GetPassProgress()),
		Green(fmt.Sprintf("+%d new", added)),
		Yellow(fmt.Sprintf("%d unique", unique)))
}

// GetPassProgress returns a bar of passes done out of the maximum
func (pt *PassTracker) GetPassProgress() string {
	filled := 0
	if pt.MaxPasses > 0 {
		filled = pt.Pass * barWidth / pt.MaxPasses
	}
	if filled > barWidth {
		filled = barWidth
	}

	return "[" + strings.Repeat(ProgressBar, filled) + strings.Repeat(ProgressEmpty, barWidth-filled) + "]"
}

// GetElapsedTime returns the elapsed time since tracking started
func (pt *PassTracker) GetElapsedTime() time.Duration {
	return time.Since(pt.StartTime)
}

// GetPassRate returns the average number of passes per minute
func (pt *PassTracker) GetPassRate() float64 {
	elapsed := pt.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(pt.Pass) / elapsed
}

// PrintSummary prints the totals of the run
func (pt *PassTracker) PrintSummary() {
	if IsQuiet() {
		return
	}
	fmt.Fprintf(pt.writer(), "%s %d passes | %d elements scanned | %d unique titles | %s\n",
		Green("[COMPLETE]"),
		pt.Pass,
		pt.Seen,
		pt.Unique,
		pt.GetElapsedTime().Round(time.Millisecond))
}

func (pt *PassTracker) writer() io.Writer {
	if pt.out != nil {
		return pt.out
	}
	return Output()
}
