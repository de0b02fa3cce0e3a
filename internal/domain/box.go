package domain

// Box is an axis-aligned rectangle (x1,y1,x2,y2) with the origin in the
// upper-left corner of the image.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Width returns the horizontal extent of the box.
func (b Box) Width() float64 { return b.X2 - b.X1 }

// Height returns the vertical extent of the box.
func (b Box) Height() float64 { return b.Y2 - b.Y1 }

// Area returns the box area; degenerate boxes have zero area.
func (b Box) Area() float64 {
	if b.X2 <= b.X1 || b.Y2 <= b.Y1 {
		return 0
	}
	return (b.X2 - b.X1) * (b.Y2 - b.Y1)
}

// Center returns the box midpoint.
func (b Box) Center() (float64, float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// Contains reports whether the point (x, y) lies inside the box.
func (b Box) Contains(x, y float64) bool {
	return x >= b.X1 && x <= b.X2 && y >= b.Y1 && y <= b.Y2
}

// Scale multiplies the coordinates by per-axis factors. Scaling by
// (sx, sy) and then by (1/sx, 1/sy) restores the original box exactly.
func (b Box) Scale(sx, sy float64) Box {
	return Box{X1: b.X1 * sx, Y1: b.Y1 * sy, X2: b.X2 * sx, Y2: b.Y2 * sy}
}

// Clamp restricts the box to [0,w] x [0,h].
func (b Box) Clamp(w, h float64) Box {
	return Box{
		X1: clamp(b.X1, 0, w),
		Y1: clamp(b.Y1, 0, h),
		X2: clamp(b.X2, 0, w),
		Y2: clamp(b.Y2, 0, h),
	}
}

// Pad grows the box by p on every side.
func (b Box) Pad(p float64) Box {
	return Box{X1: b.X1 - p, Y1: b.Y1 - p, X2: b.X2 + p, Y2: b.Y2 + p}
}

// Union returns the smallest box covering both boxes.
func (b Box) Union(o Box) Box {
	return Box{
		X1: min(b.X1, o.X1),
		Y1: min(b.Y1, o.Y1),
		X2: max(b.X2, o.X2),
		Y2: max(b.Y2, o.Y2),
	}
}

// Intersection returns the overlapping region, or a zero-area box when the
// boxes are disjoint.
func (b Box) Intersection(o Box) Box {
	r := Box{
		X1: max(b.X1, o.X1),
		Y1: max(b.Y1, o.Y1),
		X2: min(b.X2, o.X2),
		Y2: min(b.Y2, o.Y2),
	}
	if r.X2 <= r.X1 || r.Y2 <= r.Y1 {
		return Box{}
	}
	return r
}

// IoU returns the intersection-over-union ratio in [0, 1].
func (b Box) IoU(o Box) float64 {
	inter := b.Intersection(o).Area()
	if inter == 0 {
		return 0
	}
	return inter / (b.Area() + o.Area() - inter)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
