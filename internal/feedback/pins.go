package feedback

// Pins returns the items that carry a position, in list order.
func Pins(items []Item) []Item {
	var pins []Item
	for _, it := range items {
		if it.IsPin() && !it.IsReply() {
			pins = append(pins, it)
		}
	}
	return pins
}

// Navigator tracks the highlighted pin for next/previous navigation. It
// holds only a transient index and never mutates items.
type Navigator struct {
	current string
}

// Current returns the highlighted pin and its index within pins.
func (n *Navigator) Current(pins []Item) (Item, int, bool) {
	for i, p := range pins {
		if p.ID == n.current {
			return p, i, true
		}
	}
	return Item{}, -1, false
}

// Next highlights the pin after the current one, wrapping around.
func (n *Navigator) Next(pins []Item) (Item, bool) {
	return n.step(pins, 1)
}

// Prev highlights the pin before the current one, wrapping around.
func (n *Navigator) Prev(pins []Item) (Item, bool) {
	return n.step(pins, -1)
}

func (n *Navigator) step(pins []Item, delta int) (Item, bool) {
	if len(pins) == 0 {
		n.current = ""
		return Item{}, false
	}
	_, i, ok := n.Current(pins)
	switch {
	case !ok && delta > 0:
		i = 0
	case !ok:
		i = len(pins) - 1
	default:
		i = (i + delta + len(pins)) % len(pins)
	}
	n.current = pins[i].ID
	return pins[i], true
}

// Select highlights id directly, e.g. after a click on a pin.
func (n *Navigator) Select(id string) { n.current = id }

// Rename follows an item whose temporary id was replaced on commit.
func (n *Navigator) Rename(from, to string) {
	if n.current == from {
		n.current = to
	}
}

// Clear removes the highlight.
func (n *Navigator) Clear() { n.current = "" }

// CurrentID returns the highlighted item id, if any.
func (n *Navigator) CurrentID() string { return n.current }
