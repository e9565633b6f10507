package mode

import "github.com/inamate/sketchboard/internal/document"

// smoothIterations is how many Chaikin passes a pen stroke gets.
const smoothIterations = 3

// chaikin applies corner cutting: every segment is replaced by its 1/4 and
// 3/4 points, keeping both endpoints. Pressure is interpolated with the
// coordinates. Fewer than three points are returned unchanged.
func chaikin(pts []document.Point, iterations int) []document.Point {
	if len(pts) < 3 {
		return pts
	}
	out := pts
	for range iterations {
		next := make([]document.Point, 0, 2*len(out))
		next = append(next, out[0])
		for j := 0; j+1 < len(out); j++ {
			p, q := out[j], out[j+1]
			next = append(next, lerp(p, q, 0.25), lerp(p, q, 0.75))
		}
		next = append(next, out[len(out)-1])
		out = next
	}
	return out
}

func lerp(p, q document.Point, t float64) document.Point {
	return document.Point{
		X:        p.X + (q.X-p.X)*t,
		Y:        p.Y + (q.Y-p.Y)*t,
		Pressure: p.Pressure + (q.Pressure-p.Pressure)*t,
	}
}
