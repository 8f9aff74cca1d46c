package domain

// Layer category constants. Categories drive default bounds, ramps and
// value ranges at catalog time.
const (
	CategoryRisk       = "risk"
	CategoryHazard     = "hazard"
	CategoryExposition = "exposition"
	CategoryRelevance  = "relevance"
	CategoryClusters   = "clusters"
	CategoryUnknown    = "unknown"
)

// europeBounds covers the EU coastal datasets this service was built for.
var europeBounds = Bounds{West: -25, South: 34, East: 45, North: 72}

// globeBounds is the fallback for layers of unknown provenance.
var globeBounds = Bounds{West: -180, South: -90, East: 180, North: 90}

// defaultRamps keys a color ramp per category.
var defaultRamps = map[string]ColorRamp{
	CategoryRisk: {
		Name: "risk",
		Stops: []RampStop{
			{Position: 0, Color: RGB{R: 255, G: 255, B: 204}},
			{Position: 0.5, Color: RGB{R: 253, G: 141, B: 60}},
			{Position: 1, Color: RGB{R: 189, G: 0, B: 38}},
		},
	},
	CategoryHazard: {
		Name: "hazard",
		Stops: []RampStop{
			{Position: 0, Color: RGB{R: 240, G: 249, B: 255}},
			{Position: 0.5, Color: RGB{R: 107, G: 174, B: 214}},
			{Position: 1, Color: RGB{R: 8, G: 48, B: 107}},
		},
	},
	CategoryExposition: {
		Name: "exposition",
		Stops: []RampStop{
			{Position: 0, Color: RGB{R: 247, G: 252, B: 245}},
			{Position: 0.5, Color: RGB{R: 116, G: 196, B: 118}},
			{Position: 1, Color: RGB{R: 0, G: 68, B: 27}},
		},
	},
	CategoryRelevance: {
		Name: "relevance",
		Stops: []RampStop{
			{Position: 0, Color: RGB{R: 252, G: 251, B: 253}},
			{Position: 0.5, Color: RGB{R: 128, G: 125, B: 186}},
			{Position: 1, Color: RGB{R: 63, G: 0, B: 125}},
		},
	},
	CategoryClusters: {
		Name: "clusters",
		Stops: []RampStop{
			{Position: 0, Color: RGB{R: 255, G: 245, B: 235}},
			{Position: 0.5, Color: RGB{R: 253, G: 141, B: 60}},
			{Position: 1, Color: RGB{R: 127, G: 39, B: 4}},
		},
	},
}

// defaultRamp is used for layers with no recognized category.
var defaultRamp = ColorRamp{
	Name: "viridis",
	Stops: []RampStop{
		{Position: 0, Color: RGB{R: 68, G: 1, B: 84}},
		{Position: 0.5, Color: RGB{R: 33, G: 145, B: 140}},
		{Position: 1, Color: RGB{R: 253, G: 231, B: 37}},
	},
}

// defaultValueRanges keys the expected data interval per category.
var defaultValueRanges = map[string]ValueRange{
	CategoryRisk:       {Min: 0, Max: 100},
	CategoryHazard:     {Min: 0, Max: 100},
	CategoryExposition: {Min: 0, Max: 100},
	CategoryRelevance:  {Min: 0, Max: 100},
	CategoryClusters:   {Min: 1, Max: 5},
}

// CategoryOf extracts the category from a derived layer id by its leading
// token.
func CategoryOf(layerID string) string {
	for _, cat := range []string{
		CategoryClusters,
		CategoryRisk,
		CategoryHazard,
		CategoryExposition,
		CategoryRelevance,
	} {
		if hasTokenPrefix(layerID, cat) {
			return cat
		}
	}
	return CategoryUnknown
}

// DefaultBounds returns a fixed regional box for known categories and the
// full globe otherwise.
func DefaultBounds(category string) Bounds {
	if category == CategoryUnknown {
		return globeBounds
	}
	return europeBounds
}

// DefaultRamp returns the category ramp, falling back to the neutral one.
func DefaultRamp(category string) ColorRamp {
	if ramp, ok := defaultRamps[category]; ok {
		return ramp
	}
	return defaultRamp
}

// DefaultValueRange returns the category value range; unknown layers map
// the full 8-bit intensity interval.
func DefaultValueRange(category string) ValueRange {
	if vr, ok := defaultValueRanges[category]; ok {
		return vr
	}
	return ValueRange{Min: 0, Max: 255}
}

func hasTokenPrefix(id, token string) bool {
	if len(id) < len(token) {
		return false
	}
	if id[:len(token)] != token {
		return false
	}
	return len(id) == len(token) || id[len(token)] == '-' || id[len(token)] == '_'
}
