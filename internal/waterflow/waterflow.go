// Package waterflow computes the steady-state distribution of rain water
// over a one-dimensional landscape.
//
// The landscape is analyzed once into a hierarchy of sinks: nested
// depressions bounded by higher terrain. Raining pours the total volume into
// the root of that hierarchy, which distributes it downstream by weight,
// spills the excess of full depressions laterally into their siblings, and
// finally floods the settled water back onto the landscape segments.
package waterflow

import "math"

// WaterFlow holds the sink hierarchy built from a landscape and the water
// column computed for it by the last call to Rain.
type WaterFlow struct {
	landscape []uint32
	water     []float64
	root      *sink
}

// New builds the hierarchy of sinks for the landscape and returns a
// WaterFlow ready to rain on. The landscape is copied; it stays immutable
// for the life of the instance.
func New(landscape []uint32) *WaterFlow {
	w := &WaterFlow{
		landscape: append([]uint32(nil), landscape...),
		water:     make([]float64, len(landscape)),
	}

	if len(landscape) > 0 {
		end := len(landscape) - 1
		bottom := maxLevel(landscape)
		children := buildHierarchy(landscape, 0, end, bottom)
		w.root = newSink(1.0, 0, end, math.MaxUint32, bottom, children)
	}

	return w
}

// Rain computes the water distribution after the given hours of rainfall,
// one unit of water per segment per hour. The operation is not accumulative:
// the water vector is recomputed from scratch, so calling Rain twice with
// the same hours yields the same result.
func (w *WaterFlow) Rain(hours float64) {
	if w.root == nil {
		return
	}

	total := float64(len(w.landscape)) * hours
	w.root.fill(total)

	for i := range w.water {
		w.water[i] = 0
	}
	w.root.flood(w.landscape, w.water)
}

// TotalLevels returns terrain plus water level per segment.
func (w *WaterFlow) TotalLevels() []float64 {
	levels := make([]float64, len(w.landscape))
	for i, segmentLevel := range w.landscape {
		levels[i] = float64(segmentLevel) + w.water[i]
	}
	return levels
}

// buildHierarchy builds the sinks for landscape[start..end] under the given
// ceiling level, recursing on each sink's own bottom for the depressions
// nested below it.
func buildHierarchy(landscape []uint32, start, end int, level uint32) []*sink {
	areas := scanAreas(landscape, start, end, level)
	totalWidth := float64(end - start + 1)

	sinks := make([]*sink, 0, (end-start+3)/2)
	var totalWeight float64
	for index := 1; index < len(areas)-1; index++ {
		a := areas[index]
		if a.kind != areaSink {
			continue
		}
		weight := sinkWeight(areas, index, totalWidth)
		totalWeight += weight
		children := buildHierarchy(landscape, a.start, a.end, a.bottom)
		sinks = append(sinks, newSink(weight, a.start, a.end, level, a.bottom, children))
	}

	// Compensate floating point error so sibling weights sum to 1.
	if len(sinks) > 0 && totalWeight < 1.0 {
		sinks[0].weight += 1.0 - totalWeight
	}

	return sinks
}

func maxLevel(landscape []uint32) uint32 {
	var max uint32
	for _, level := range landscape {
		if level > max {
			max = level
		}
	}
	return max
}
