package pagination

// Strip is everything a view needs to draw one page-number control: the
// slots plus the enablement of the first/prev/next/last buttons.
type Strip struct {
	Current int
	Total   int
	Pages   []Descriptor

	FirstEnabled bool
	PrevEnabled  bool
	NextEnabled  bool
	LastEnabled  bool
}

// NewStrip builds the strip for the given position. Every view of the same
// state must be rendered from the same Strip so duplicated controls never
// disagree.
func NewStrip(current, total, maxVisible int) Strip {
	if total < 1 {
		total = 1
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}
	return Strip{
		Current:      current,
		Total:        total,
		Pages:        Window(current, total, maxVisible),
		FirstEnabled: current != 1,
		PrevEnabled:  current != 1,
		NextEnabled:  current != total,
		LastEnabled:  current != total,
	}
}

// Contains reports whether page is shown as a selectable slot.
func (s Strip) Contains(page int) bool {
	for _, d := range s.Pages {
		if d.Selectable() && d.Page == page {
			return true
		}
	}
	return false
}

// Equal compares two strips slot by slot.
func (s Strip) Equal(o Strip) bool {
	if s.Current != o.Current || s.Total != o.Total ||
		s.FirstEnabled != o.FirstEnabled || s.PrevEnabled != o.PrevEnabled ||
		s.NextEnabled != o.NextEnabled || s.LastEnabled != o.LastEnabled ||
		len(s.Pages) != len(o.Pages) {
		return false
	}
	for i := range s.Pages {
		if s.Pages[i] != o.Pages[i] {
			return false
		}
	}
	return true
}
