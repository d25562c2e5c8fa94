package domain

// DisplayState is how a route's rendering should look.
type DisplayState string

const (
	StateNormal      DisplayState = "normal"
	StateHighlighted DisplayState = "highlighted"
	StateDimmed      DisplayState = "dimmed"
)

// Highlighter tracks hover and sticky selection across routes. Routes are
// addressed by original index. The zero value has nothing hovered or selected.
type Highlighter struct {
	hovered  int
	selected int
	hasHover bool
	hasSel   bool
}

// Hover highlights route i exclusively.
func (h *Highlighter) Hover(i int) {
	h.hovered, h.hasHover = i, true
}

// Leave ends the hover on route i. A selected route stays highlighted.
func (h *Highlighter) Leave(i int) {
	if h.hasHover && h.hovered == i {
		h.hasHover = false
	}
}

// Select makes route i the sticky selection until another route is selected.
func (h *Highlighter) Select(i int) {
	h.selected, h.hasSel = i, true
	h.hasHover = false
}

// Selected returns the selected original index, if any.
func (h *Highlighter) Selected() (int, bool) {
	return h.selected, h.hasSel
}

// States returns the display state for routes 0..n-1 by original index.
// The hovered route wins the highlight; with no hover the selected route is
// highlighted. While a selection exists every route without the highlight is
// dimmed; without one they render normally.
func (h *Highlighter) States(n int) []DisplayState {
	states := make([]DisplayState, n)
	focus, hasFocus := h.focus()
	for i := range states {
		switch {
		case hasFocus && i == focus:
			states[i] = StateHighlighted
		case h.hasSel:
			states[i] = StateDimmed
		default:
			states[i] = StateNormal
		}
	}
	return states
}

func (h *Highlighter) focus() (int, bool) {
	if h.hasHover {
		return h.hovered, true
	}
	if h.hasSel {
		return h.selected, true
	}
	return 0, false
}
