package cropdetect

import "fmt"

// Geometry is the crop rectangle detected for one file: a WxH region with its
// top-left corner at (X, Y) inside the source frame. It is intentionally a
// mutable value scoped to a single file's analysis; trims shrink it in place
// and never move an edge outward.
type Geometry struct {
	W int `json:"w"`
	H int `json:"h"`
	X int `json:"x"`
	Y int `json:"y"`
}

// TrimHorizontal shrinks the rectangle by amount pixels from each of the left
// and right edges. Width never goes below zero.
func (g *Geometry) TrimHorizontal(amount int) {
	if amount <= 0 {
		return
	}
	g.W -= 2 * amount
	g.X += amount
	if g.W < 0 {
		g.W = 0
	}
}

// TrimVertical shrinks the rectangle by amount pixels from each of the top
// and bottom edges. Height never goes below zero.
func (g *Geometry) TrimVertical(amount int) {
	if amount <= 0 {
		return
	}
	g.H -= 2 * amount
	g.Y += amount
	if g.H < 0 {
		g.H = 0
	}
}

// FilterExpression renders the current rectangle as an ffmpeg crop filter
// specification. It always reflects the latest trims.
func (g *Geometry) FilterExpression() string {
	return fmt.Sprintf("crop=%d:%d:%d:%d", g.W, g.H, g.X, g.Y)
}
