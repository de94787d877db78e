package source

import "github.com/ModernMube/ownaudio/effect"

// WithEffects is a transparent decorator that wraps inner so that every
// ReadSamples call is followed by running chain over the result, in
// insertion order. Every other Source method delegates straight through
// to inner, so a wrapped source is otherwise indistinguishable from its
// unwrapped form to a mixer holding a Source handle.
type WithEffects struct {
	Source
	chain *effect.Chain
}

// WrapWithEffects returns a Source that plays inner through chain. chain
// must already be Initialize'd for the engine's Config before the first
// Process call.
func WrapWithEffects(inner Source, chain *effect.Chain) *WithEffects {
	return &WithEffects{Source: inner, chain: chain}
}

// Chain returns the wrapped effect chain, so callers can Add/Remove nodes
// on a live, playing source.
func (w *WithEffects) Chain() *effect.Chain { return w.chain }

func (w *WithEffects) ReadSamples(out []float32) int {
	n := w.Source.ReadSamples(out)
	if n > 0 {
		w.chain.Process(out, n)
	}
	return n
}
