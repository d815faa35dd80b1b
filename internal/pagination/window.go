// Package pagination computes the page-number strip shown around a result list.
package pagination

import "strconv"

// DefaultMaxVisible is the number of page slots shown when the caller does not
// configure one.
const DefaultMaxVisible = 5

// Descriptor is one slot in a page strip: either a concrete page or an
// ellipsis marker standing for a run of hidden pages.
type Descriptor struct {
	Page     int
	Ellipsis bool
}

// PageAt returns a descriptor for a concrete page.
func PageAt(page int) Descriptor { return Descriptor{Page: page} }

// Gap returns an ellipsis descriptor.
func Gap() Descriptor { return Descriptor{Ellipsis: true} }

// Selectable reports whether the slot can be used to navigate.
func (d Descriptor) Selectable() bool { return !d.Ellipsis && d.Page > 0 }

func (d Descriptor) String() string {
	if d.Ellipsis {
		return "..."
	}
	return strconv.Itoa(d.Page)
}

// Window returns the ordered slots for the strip. Inputs are expected to be
// validated by the caller (1 <= current <= total); a maxVisible below 3 falls
// back to DefaultMaxVisible.
func Window(current, total, maxVisible int) []Descriptor {
	if maxVisible < 3 {
		maxVisible = DefaultMaxVisible
	}
	if total < 1 {
		total = 1
	}
	half := maxVisible / 2

	var out []Descriptor
	switch {
	case total <= maxVisible:
		out = appendRange(out, 1, total)
	case current <= half:
		out = appendRange(out, 1, maxVisible-1)
		out = append(out, Gap(), PageAt(total))
	case current >= total-half:
		out = append(out, PageAt(1), Gap())
		out = appendRange(out, total-(maxVisible-2), total)
	default:
		// Clipping only matters for maxVisible == 3, where the neighbours of
		// current can touch the first or last page.
		out = append(out, PageAt(1), Gap())
		out = appendRange(out, max(current-1, 2), min(current+1, total-1))
		out = append(out, Gap(), PageAt(total))
	}
	return out
}

func appendRange(dst []Descriptor, start, end int) []Descriptor {
	for p := start; p <= end; p++ {
		dst = append(dst, PageAt(p))
	}
	return dst
}
