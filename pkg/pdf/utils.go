package pdf

import (
	"math"
	"sort"
)

// FloatTolerance is the distance under which two coordinates are equal
const FloatTolerance = 0.1

// orient returns the segment with X0 <= X1 and Y0 <= Y1
func orient(l LineObject) LineObject {
	if l.X0 > l.X1 {
		l.X0, l.X1 = l.X1, l.X0
	}
	if l.Y0 > l.Y1 {
		l.Y0, l.Y1 = l.Y1, l.Y0
	}
	return l
}

// DeduplicateLines removes segments drawn more than once
func DeduplicateLines(lines []LineObject) []LineObject {
	if len(lines) == 0 {
		return lines
	}
	oriented := make([]LineObject, len(lines))
	for i, l := range lines {
		oriented[i] = orient(l)
	}
	sort.Slice(oriented, func(i, j int) bool {
		a, b := oriented[i], oriented[j]
		if math.Abs(a.Y0-b.Y0) > FloatTolerance {
			return a.Y0 < b.Y0
		}
		if math.Abs(a.X0-b.X0) > FloatTolerance {
			return a.X0 < b.X0
		}
		if math.Abs(a.Y1-b.Y1) > FloatTolerance {
			return a.Y1 < b.Y1
		}
		return a.X1 < b.X1
	})

	result := []LineObject{oriented[0]}
	for _, curr := range oriented[1:] {
		if !linesEqual(result[len(result)-1], curr) {
			result = append(result, curr)
		}
	}
	return result
}

func linesEqual(a, b LineObject) bool {
	return math.Abs(a.X0-b.X0) < FloatTolerance &&
		math.Abs(a.Y0-b.Y0) < FloatTolerance &&
		math.Abs(a.X1-b.X1) < FloatTolerance &&
		math.Abs(a.Y1-b.Y1) < FloatTolerance
}

// FilterPageBorderLines drops segments lying on the page edge, which are
// frames around the whole page rather than table rules
func FilterPageBorderLines(lines []LineObject, pageWidth, pageHeight float64) []LineObject {
	result := make([]LineObject, 0, len(lines))
	for _, line := range lines {
		atLeftEdge := math.Abs(line.X0) < 1 && math.Abs(line.X1) < 1
		atRightEdge := math.Abs(line.X0-pageWidth) < 1 && math.Abs(line.X1-pageWidth) < 1
		atTopEdge := math.Abs(line.Y0) < 1 && math.Abs(line.Y1) < 1
		atBottomEdge := math.Abs(line.Y0-pageHeight) < 1 && math.Abs(line.Y1-pageHeight) < 1
		if !atLeftEdge && !atRightEdge && !atTopEdge && !atBottomEdge {
			result = append(result, line)
		}
	}
	return result
}

// ConsolidateTableLines splits segments into horizontal and vertical sets
// and merges collinear pieces that overlap or touch. Diagonals are dropped.
func ConsolidateTableLines(lines []LineObject, tolerance float64) (horizontal, vertical []LineObject) {
	for _, line := range lines {
		line = orient(line)
		switch {
		case line.Horizontal(tolerance):
			y := (line.Y0 + line.Y1) / 2
			line.Y0, line.Y1 = y, y
			horizontal = append(horizontal, line)
		case line.Vertical(tolerance):
			x := (line.X0 + line.X1) / 2
			line.X0, line.X1 = x, x
			vertical = append(vertical, line)
		}
	}
	return mergeCollinear(horizontal, tolerance, true), mergeCollinear(vertical, tolerance, false)
}

// mergeCollinear joins segments on the same row (horizontal) or column
// (vertical) whose extents overlap or come within tolerance of each other
func mergeCollinear(lines []LineObject, tolerance float64, horizontal bool) []LineObject {
	if len(lines) == 0 {
		return lines
	}
	across := func(l LineObject) float64 {
		if horizontal {
			return l.Y0
		}
		return l.X0
	}
	from := func(l LineObject) float64 {
		if horizontal {
			return l.X0
		}
		return l.Y0
	}
	to := func(l LineObject) float64 {
		if horizontal {
			return l.X1
		}
		return l.Y1
	}

	sort.Slice(lines, func(i, j int) bool {
		if math.Abs(across(lines[i])-across(lines[j])) > tolerance {
			return across(lines[i]) < across(lines[j])
		}
		return from(lines[i]) < from(lines[j])
	})

	result := []LineObject{}
	current := lines[0]
	for _, line := range lines[1:] {
		if math.Abs(across(line)-across(current)) <= tolerance &&
			from(line) <= to(current)+tolerance {
			if horizontal {
				current.X1 = math.Max(current.X1, line.X1)
			} else {
				current.Y1 = math.Max(current.Y1, line.Y1)
			}
			current.Width = math.Max(current.Width, line.Width)
			continue
		}
		result = append(result, current)
		current = line
	}
	return append(result, current)
}

// clusterPositions sorts positions and collapses runs closer than
// tolerance into their mean
func clusterPositions(positions []float64, tolerance float64) []float64 {
	if len(positions) == 0 {
		return nil
	}
	sorted := append([]float64(nil), positions...)
	sort.Float64s(sorted)

	var result []float64
	sum, count := sorted[0], 1
	for _, p := range sorted[1:] {
		if p-sum/float64(count) <= tolerance {
			sum += p
			count++
			continue
		}
		result = append(result, sum/float64(count))
		sum, count = p, 1
	}
	return append(result, sum/float64(count))
}
