// Package downsample implements spec §4.7's visualization data path: a
// Largest-Triangle-Three-Buckets reduction of a (time, value) series to a
// bounded point budget while preserving the envelope a human would see on
// a plotted line.
package downsample

import "math"

// Point is one (time, value) sample. Absent marks a record with no
// sample at this time, e.g. a gap in a computed channel or a channel an
// AiM merge never sampled at this timestamp; absent points are never
// candidates for selection and never counted as zero.
type Point struct {
	T      float64
	V      float64
	Absent bool
}

// LTTB reduces points to at most budget points, preserving time order and
// the first and last finite points of the input. If len(points) <= budget
// the input is returned verbatim. The result is deterministic: the same
// input and budget always produce the same output.
func LTTB(points []Point, budget int) []Point {
	n := len(points)
	if n == 0 || budget <= 0 {
		return nil
	}
	if n <= budget {
		return points
	}

	firstIdx, ok := firstFinite(points)
	if !ok {
		return nil // every point is absent: nothing to plot
	}
	lastIdx, _ := lastFinite(points)

	if budget == 1 {
		return []Point{points[firstIdx]}
	}
	if budget == 2 {
		return []Point{points[firstIdx], points[lastIdx]}
	}

	bucketCount := budget - 2
	interiorStart, interiorEnd := 1, n-1 // [1, n-1), per §4.7
	bucketWidth := float64(interiorEnd-interiorStart) / float64(bucketCount)

	out := make([]Point, 0, budget)
	out = append(out, points[firstIdx])
	prev := points[firstIdx]

	for i := 0; i < bucketCount; i++ {
		start := interiorStart + int(math.Floor(float64(i)*bucketWidth))
		end := interiorStart + int(math.Floor(float64(i+1)*bucketWidth))
		if end > interiorEnd {
			end = interiorEnd
		}
		if start >= end {
			continue
		}

		nextStart, nextEnd := end, interiorStart+int(math.Floor(float64(i+2)*bucketWidth))
		if i == bucketCount-1 {
			nextStart, nextEnd = lastIdx, lastIdx+1
		}
		if nextEnd > n {
			nextEnd = n
		}
		anchorT, anchorV, ok := averageFinite(points[nextStart:nextEnd])
		if !ok {
			// the lookahead bucket is all-absent: fall back to the series'
			// last finite point so the triangle area still has a direction.
			anchorT, anchorV = points[lastIdx].T, points[lastIdx].V
		}

		bestArea, bestIdx := -1.0, -1
		for j := start; j < end; j++ {
			p := points[j]
			if p.Absent {
				continue
			}
			area := triangleArea(prev.T, prev.V, p.T, p.V, anchorT, anchorV)
			if area > bestArea {
				bestArea, bestIdx = area, j
			}
		}
		if bestIdx == -1 {
			continue // this bucket held only absent points
		}
		out = append(out, points[bestIdx])
		prev = points[bestIdx]
	}

	if lastIdx != firstIdx {
		out = append(out, points[lastIdx])
	}
	return out
}

func firstFinite(points []Point) (int, bool) {
	for i, p := range points {
		if !p.Absent {
			return i, true
		}
	}
	return 0, false
}

func lastFinite(points []Point) (int, bool) {
	for i := len(points) - 1; i >= 0; i-- {
		if !points[i].Absent {
			return i, true
		}
	}
	return 0, false
}

// averageFinite returns the mean (t, v) of every non-absent point in
// points, skipping absent ones entirely rather than treating them as zero.
func averageFinite(points []Point) (t, v float64, ok bool) {
	var sumT, sumV float64
	var count int
	for _, p := range points {
		if p.Absent {
			continue
		}
		sumT += p.T
		sumV += p.V
		count++
	}
	if count == 0 {
		return 0, 0, false
	}
	return sumT / float64(count), sumV / float64(count), true
}

// triangleArea returns (twice) the area of the triangle formed by three
// points; the constant factor of two is dropped since only the relative
// ordering of areas across candidates matters.
func triangleArea(ax, ay, bx, by, cx, cy float64) float64 {
	return math.Abs((ax-cx)*(by-ay) - (ax-bx)*(cy-ay))
}
