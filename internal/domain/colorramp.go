package domain

// RGB is a color ramp stop color.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// RampStop anchors a color at a normalized position in [0,1].
type RampStop struct {
	Position float64 `json:"position"`
	Color    RGB     `json:"color"`
}

// ColorRamp is an ordered list of stops. The first stop sits at 0, the
// last at 1, positions are non-decreasing.
type ColorRamp struct {
	Name  string     `json:"name"`
	Stops []RampStop `json:"stops"`
}

// Interpolate maps a normalized value to a color. t is clamped to [0,1];
// values between two stops blend each channel linearly.
func (r ColorRamp) Interpolate(t float64) RGB {
	if len(r.Stops) == 0 {
		return RGB{}
	}
	if t <= 0 {
		return r.Stops[0].Color
	}
	last := len(r.Stops) - 1
	if t >= 1 {
		return r.Stops[last].Color
	}

	for i := 1; i <= last; i++ {
		lo, hi := r.Stops[i-1], r.Stops[i]
		if t > hi.Position {
			continue
		}
		span := hi.Position - lo.Position
		if span <= 0 {
			return hi.Color
		}
		f := (t - lo.Position) / span
		return RGB{
			R: lerpChannel(lo.Color.R, hi.Color.R, f),
			G: lerpChannel(lo.Color.G, hi.Color.G, f),
			B: lerpChannel(lo.Color.B, hi.Color.B, f),
		}
	}
	return r.Stops[last].Color
}

// Midpoint returns the ramp color at t=0.5, used by the degraded renderer.
func (r ColorRamp) Midpoint() RGB {
	return r.Interpolate(0.5)
}

func lerpChannel(a, b uint8, f float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*f + 0.5)
}
