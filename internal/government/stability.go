// Stability updates and the confidence-crisis signal.
package government

// PoliticalEvent is an external shock to the government's standing.
// Magnitude is the signed rating delta; the engine never generates these
// itself.
type PoliticalEvent struct {
	Name      string  `json:"name"`
	Magnitude float64 `json:"magnitude"`
}

// ApplyEvent folds one political event into the stability rating and
// reports the new rating plus whether a confidence crisis was raised by
// this event. The crisis signal is edge-triggered: it fires once when the
// rating crosses below the threshold and re-arms only after recovery —
// never once per tick while the rating stays low.
func (g *Government) ApplyEvent(ev PoliticalEvent) (float64, bool) {
	g.Stability = clamp(g.Stability + ev.Magnitude)

	if g.Stability >= g.cfg.CrisisThreshold {
		g.inCrisis = false
		return g.Stability, false
	}

	if g.inCrisis {
		return g.Stability, false
	}
	g.inCrisis = true
	return g.Stability, true
}

// InCrisis reports whether the government currently sits below the
// confidence threshold.
func (g *Government) InCrisis() bool {
	return g.inCrisis
}

// Collapsed reports whether stability has fallen past the point of no
// return. The caller decides what follows: reformation from the remaining
// candidates or fresh elections.
func (g *Government) Collapsed() bool {
	return g.Stability < g.cfg.CollapseThreshold
}
