package waterflow

import "math"

// sink represents a depression over segments [start, end] spanning the
// elevation band [bottom, top). The landscape is analyzed into a tree of
// sinks: children hold the water of the underlying depressions below this
// sink's bottom, and leaf sinks sit on plain terrain with nothing beneath.
type sink struct {
	// weight is the fraction of the parent's inflow directed into this sink.
	// Sibling weights sum to 1.
	weight   float64
	start    int
	end      int
	top      uint32
	bottom   uint32
	capacity float64
	// totalCapacity is capacity plus the total capacity of all children.
	totalCapacity float64
	water         float64
	children      []*sink
}

func newSink(weight float64, start, end int, top, bottom uint32, children []*sink) *sink {
	width := float64(end - start + 1)
	capacity := width * float64(top-bottom)
	totalCapacity := capacity
	for _, child := range children {
		totalCapacity += child.totalCapacity
	}

	return &sink{
		weight:        weight,
		start:         start,
		end:           end,
		top:           top,
		bottom:        bottom,
		capacity:      capacity,
		totalCapacity: totalCapacity,
		children:      children,
	}
}

func (s *sink) full() bool {
	return s.water >= s.capacity
}

func (s *sink) width() float64 {
	return float64(s.end - s.start + 1)
}

// totalWater returns the water held by this sink and all its descendants.
func (s *sink) totalWater() float64 {
	total := s.water
	for _, child := range s.children {
		total += child.totalWater()
	}
	return total
}

// fill pushes an amount of water into the sink: first downstream into the
// children according to their weights, then laterally across siblings that
// still have headroom, and finally into the sink's own level band. It
// returns the amount actually absorbed, which never exceeds amount.
func (s *sink) fill(amount float64) float64 {
	excess := make([]float64, len(s.children))

	childrenAmount, totalExcess := s.fillDownstream(amount, excess)
	childrenAmount += s.spillExcess(excess, totalExcess)

	remaining := amount - childrenAmount
	sinkAmount := math.Min(s.capacity-s.water, remaining)
	s.water += sinkAmount

	return childrenAmount + sinkAmount
}

// fillDownstream distributes amount across the non-full children by quota.
// The residual between amount and the sum of all quotas is injected into the
// first child processed, to keep the total volume constant under floating
// point error. It returns the total absorbed and records each child's
// unabsorbed excess.
func (s *sink) fillDownstream(amount float64, excess []float64) (totalFilled, totalExcess float64) {
	var totalQuota float64
	for _, child := range s.children {
		totalQuota += amount * child.weight
	}
	quotaError := amount - totalQuota

	for i, child := range s.children {
		if child.full() {
			continue
		}
		quota := amount*child.weight + quotaError
		quotaError = 0
		filled := child.fill(quota)
		excess[i] = quota - filled
		totalExcess += excess[i]
		totalFilled += filled
	}

	return totalFilled, totalExcess
}

// spillExcess redistributes the unabsorbed excess of each child to its
// siblings with remaining headroom, returning the total amount spilled.
func (s *sink) spillExcess(excess []float64, totalExcess float64) float64 {
	if totalExcess <= 0 || len(s.children) < 2 {
		return 0
	}

	var totalSpilled float64
	for index := range excess {
		if excess[index] <= 0 {
			continue
		}
		leftCapacity := findSpillCapacity(s.children, index, -1)
		rightCapacity := findSpillCapacity(s.children, index, 1)
		if leftCapacity+rightCapacity <= 0 {
			continue
		}
		leftWater, rightWater := spilledAmount(excess[index], leftCapacity, rightCapacity)
		spilled := spillWater(s.children, index, -1, leftWater) +
			spillWater(s.children, index, 1, rightWater)
		excess[index] -= spilled
		totalSpilled += spilled
	}

	return totalSpilled
}

// findSpillCapacity sums the remaining headroom of the contiguous siblings
// of sinks[index] in the given direction.
func findSpillCapacity(sinks []*sink, index, direction int) float64 {
	var capacity float64
	for i := index + direction; i >= 0 && i < len(sinks); i += direction {
		capacity += sinks[i].totalCapacity - sinks[i].totalWater()
	}
	return capacity
}

// spilledAmount splits an excess between the two directions in proportion to
// the capacities available on each side. The proportions are treated as a 2D
// vector and normalized, so the split favors the side that can take more
// without overshooting the excess itself.
func spilledAmount(excess, leftCapacity, rightCapacity float64) (left, right float64) {
	leftProportion := math.Min(excess, leftCapacity) / excess
	rightProportion := math.Min(excess, rightCapacity) / excess
	modulo := math.Sqrt(leftProportion*leftProportion + rightProportion*rightProportion)
	left = excess * leftProportion / modulo
	right = excess * rightProportion / modulo
	return left, right
}

// spillWater walks the siblings of sinks[index] in the given direction,
// pouring water into each one that has headroom until the amount is
// exhausted. A sink with children is entered from the side facing the
// spiller, so the water crosses it the way it would physically.
func spillWater(sinks []*sink, index, direction int, amount float64) float64 {
	var totalSpilled float64

	for i := index + direction; amount > 0 && i >= 0 && i < len(sinks); i += direction {
		s := sinks[i]
		if s.totalCapacity-s.totalWater() <= 0 {
			continue
		}

		var spilled float64
		if len(s.children) == 0 {
			spilled = s.fill(amount)
		} else {
			entry := -1
			if direction == -1 {
				entry = len(s.children)
			}
			childrenAmount := spillWater(s.children, entry, direction, amount)
			spilled = s.fill(amount-childrenAmount) + childrenAmount
		}

		totalSpilled += spilled
		amount -= spilled
	}

	return totalSpilled
}

// flood empties the water held by the sink tree onto the landscape,
// recursing into children first. Each sink spreads its water evenly over its
// segments; any residual left by the per-segment subtraction is deposited on
// the segment with the lowest resulting level, so the total volume stays
// constant. Sinks are left empty so the next rain starts from scratch.
func (s *sink) flood(landscape []uint32, water []float64) {
	for _, child := range s.children {
		child.flood(landscape, water)
	}

	if s.water <= 0 {
		return
	}

	segmentAmount := s.water / s.width()
	remaining := s.water
	s.water = 0

	lowerLevel := math.MaxFloat64
	lowerIndex := s.start
	for i := s.start; i <= s.end; i++ {
		water[i] += segmentAmount
		remaining -= segmentAmount
		level := float64(landscape[i]) + water[i]
		if level < lowerLevel {
			lowerLevel = level
			lowerIndex = i
		}
	}

	if remaining > 0 {
		water[lowerIndex] += remaining
	}
}
