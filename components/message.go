package components

import (
	"image/color"

	"github.com/yohamta/donburi"
)

// FeedLine is one entry of the event feed.
type FeedLine struct {
	Text      string
	Color     color.RGBA
	Remaining float64 // Seconds left on screen
}

// FeedData is a singleton holding recent relic and score events.
type FeedData struct {
	Lines []FeedLine
}

// Push adds a line, dropping the oldest beyond limit.
func (f *FeedData) Push(line FeedLine, limit int) {
	f.Lines = append(f.Lines, line)
	if over := len(f.Lines) - limit; limit > 0 && over > 0 {
		f.Lines = f.Lines[over:]
	}
}

// Age counts every line down by dt and drops expired ones.
func (f *FeedData) Age(dt float64) {
	kept := f.Lines[:0]
	for _, l := range f.Lines {
		l.Remaining -= dt
		if l.Remaining > 0 {
			kept = append(kept, l)
		}
	}
	f.Lines = kept
}

var Feed = donburi.NewComponentType[FeedData]()
