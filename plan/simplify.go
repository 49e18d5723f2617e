package plan

import "math"

// sharpTurnRadians is the turn angle above which a segment is
// considered a meaningful corner during topology-preserving
// simplification (45 degrees).
const sharpTurnRadians = math.Pi / 4

// Simplify reduces points with the recursive Douglas-Peucker algorithm:
// find the point of maximum perpendicular distance from the chord
// between the endpoints; if it exceeds epsilon, recurse on both halves,
// otherwise collapse the run to the two endpoints.
//
// With preserveTopology set, a run that would collapse but contains a
// turn sharper than 45° is re-simplified at half epsilon so sharp,
// meaningful corners survive.
func Simplify(points []Point, epsilon float64, preserveTopology bool) []Point {
	if len(points) < 3 || epsilon <= 0 {
		return points
	}
	return simplifyRec(points, epsilon, preserveTopology)
}

func simplifyRec(points []Point, epsilon float64, preserveTopology bool) []Point {
	if len(points) < 3 {
		return points
	}

	dmax := 0.0
	index := 0
	end := len(points) - 1
	for i := 1; i < end; i++ {
		d := perpendicularDistance(points[i], points[0], points[end])
		if d > dmax {
			dmax = d
			index = i
		}
	}

	if dmax > epsilon {
		left := simplifyRec(points[:index+1], epsilon, preserveTopology)
		right := simplifyRec(points[index:], epsilon, preserveTopology)
		return append(left[:len(left)-1], right...)
	}

	if preserveTopology && maxTurnAngle(points) > sharpTurnRadians {
		half := epsilon / 2
		if half >= 0.25 {
			if index == 0 {
				index = end / 2
			}
			left := simplifyRec(points[:index+1], half, preserveTopology)
			right := simplifyRec(points[index:], half, preserveTopology)
			return append(left[:len(left)-1], right...)
		}
	}

	return []Point{points[0], points[end]}
}

// maxTurnAngle returns the largest direction change between consecutive
// segments of the run.
func maxTurnAngle(points []Point) float64 {
	maxAngle := 0.0
	for i := 1; i < len(points)-1; i++ {
		a := points[i-1]
		b := points[i]
		c := points[i+1]

		v1x, v1y := b.X-a.X, b.Y-a.Y
		v2x, v2y := c.X-b.X, c.Y-b.Y
		m1 := math.Hypot(v1x, v1y)
		m2 := math.Hypot(v2x, v2y)
		if m1 == 0 || m2 == 0 {
			continue
		}

		cos := (v1x*v2x + v1y*v2y) / (m1 * m2)
		cos = math.Max(-1, math.Min(1, cos))
		if angle := math.Acos(cos); angle > maxAngle {
			maxAngle = angle
		}
	}
	return maxAngle
}

// perpendicularDistance returns the distance from pt to the infinite
// line through lineStart and lineEnd. When the line degenerates to a
// point it returns the plain point distance.
func perpendicularDistance(pt, lineStart, lineEnd Point) float64 {
	dx := lineEnd.X - lineStart.X
	dy := lineEnd.Y - lineStart.Y

	mag := math.Hypot(dx, dy)
	if mag == 0 {
		return pt.Dist(lineStart)
	}

	dx /= mag
	dy /= mag
	return math.Abs(dy*(pt.X-lineStart.X) - dx*(pt.Y-lineStart.Y))
}
