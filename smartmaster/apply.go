package smartmaster

// ApplyCorrection derives a new Preset from base and a completed
// measurement Result. It never mutates base or writes anything to disk -
// the caller decides whether and under what name to SavePreset the result,
// per the "never auto-applied" contract.
func ApplyCorrection(base Preset, r Result) Preset {
	next := base
	next.LastMeasurement = &r

	for band, dev := range r.BandsDB {
		lo, hi := -12.0, 12.0
		if band <= 4 {
			hi = 3
		}
		gain := -dev // correction counteracts the measured deviation
		if gain < lo {
			gain = lo
		}
		if gain > hi {
			gain = hi
		}
		next.GraphicEQGains[band] = gain
	}

	next.SubharmonicEnabled = r.SubDB < -40
	if next.SubharmonicEnabled && next.SubharmonicMix == 0 {
		next.SubharmonicMix = 0.2
	}

	// Phase-align parameters (TimeDelays/PhaseInvert) are carried through
	// from base unchanged: this measurement pass characterizes level and
	// spectrum only, not inter-driver timing.
	return next
}
