package waterflow

// areaKind discriminates the kinds of areas found while scanning a slice of
// the landscape at a fixed level.
type areaKind int

const (
	// areaBoundary is the sentinel at both extremes of a scanned region.
	areaBoundary areaKind = iota
	// areaPlain is a run of segments sitting exactly at the scan level.
	areaPlain
	// areaSink is a run of segments strictly below the scan level.
	areaSink
)

// area is a transient value produced while scanning the landscape at a given
// horizontal slice. Plains spill their rain into the sinks they border, so a
// plain tracks how many sinks are adjacent to it.
type area struct {
	kind   areaKind
	start  int
	end    int    // sinks only
	length int    // plains only
	sinks  int    // plains only: number of adjacent sinks
	bottom uint32 // sinks only: highest elevation inside the run
}

// width returns the effective width of the area for weight computation.
// A plain splits its width across the sinks it borders.
func (a area) width() float64 {
	switch a.kind {
	case areaPlain:
		return float64(a.length) / float64(a.sinks)
	case areaSink:
		return float64(a.end - a.start + 1)
	default:
		return 0
	}
}

// scanAreas walks landscape[start..end] and classifies it into areas with
// respect to the given level, bracketed by boundary sentinels.
func scanAreas(landscape []uint32, start, end int, level uint32) []area {
	areas := make([]area, 0, end-start+3)
	areas = append(areas, area{kind: areaBoundary})

	index := start
	for index <= end {
		var a area
		if landscape[index] == level {
			a = scanPlain(landscape, &index, end, level)
		} else {
			a = scanSink(landscape, &index, end, level)
		}
		areas = pushArea(areas, a)
	}

	return append(areas, area{kind: areaBoundary})
}

// scanPlain consumes contiguous segments equal to level.
func scanPlain(landscape []uint32, index *int, end int, level uint32) area {
	start := *index
	for *index <= end && landscape[*index] == level {
		*index++
	}
	length := *index - start

	if length == 0 {
		return area{kind: areaBoundary}
	}
	return area{kind: areaPlain, start: start, length: length}
}

// scanSink consumes contiguous segments strictly below level, recording the
// highest elevation within the run as the sink bottom.
func scanSink(landscape []uint32, index *int, end int, level uint32) area {
	start := *index
	var bottom uint32
	for *index <= end && landscape[*index] < level {
		if landscape[*index] > bottom {
			bottom = landscape[*index]
		}
		*index++
	}

	if start == *index {
		return area{kind: areaBoundary}
	}
	return area{kind: areaSink, start: start, end: *index - 1, bottom: bottom}
}

// pushArea appends a scanned area, maintaining the plain/sink adjacency
// counters: a sink pushed after a plain increments that plain's sink count,
// and a plain pushed after a sink starts out bordering that one sink.
func pushArea(areas []area, a area) []area {
	last := &areas[len(areas)-1]

	switch {
	case a.kind == areaBoundary:
		// Boundaries next to anything do not alter the list.
	case last.kind == areaBoundary:
		areas = append(areas, a)
	case last.kind == areaPlain && a.kind == areaSink:
		last.sinks++
		areas = append(areas, a)
	case last.kind == areaSink && a.kind == areaPlain:
		a.sinks = 1
		areas = append(areas, a)
	}

	return areas
}

// sinkWeight computes the fraction of inflow claimed by the sink at index:
// its own width plus the widths contributed by the flanking areas, relative
// to the total width of the scanned region.
func sinkWeight(areas []area, index int, totalWidth float64) float64 {
	width := areas[index].width() + areas[index-1].width() + areas[index+1].width()
	return width / totalWidth
}
