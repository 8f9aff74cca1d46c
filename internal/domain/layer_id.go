package domain

import (
	"path/filepath"
	"regexp"
	"strings"
)

// clusterPattern matches cluster-style filenames of the form
// clusters_SLR-<n>-<Scenario>_<Indicator>.
var clusterPattern = regexp.MustCompile(`^clusters_SLR-(\d+)-([A-Za-z0-9]+)_(.+)$`)

// timestampPrefix matches an upload timestamp token at the start of a name.
var timestampPrefix = regexp.MustCompile(`^\d{10,}_`)

// DeriveLayerID turns a stored object name into the stable layer id.
// Precedence: cluster pattern > stripped name verbatim. The upload
// timestamp prefix and the optimizer's "_optimized" suffix are never part
// of the identity.
func DeriveLayerID(fileName string) string {
	name := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	name = timestampPrefix.ReplaceAllString(name, "")
	name = strings.TrimSuffix(name, "_optimized")

	if m := clusterPattern.FindStringSubmatch(name); m != nil {
		scenario := strings.ToLower(m[2])
		indicator := strings.ToLower(m[3])
		return "clusters-slr-" + scenario + "-" + strings.ReplaceAll(indicator, "_", "-")
	}
	return name
}

// SlugifyLayerName normalizes a user-supplied layer name into a storable
// base name: lower-cased, whitespace collapsed to underscores, anything
// outside [a-z0-9_-] dropped.
func SlugifyLayerName(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		case r == ' ' || r == '\t' || r == '_':
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// DisplayNameOf builds a human-readable name from a layer id.
func DisplayNameOf(layerID string) string {
	words := strings.FieldsFunc(layerID, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Classification is the filename-driven type decision for one stored object.
type Classification struct {
	DataType string
	Format   string
}

// Classify decides data type and storage format from the file name alone.
// For the combined tiled container, recognized category prefixes take
// priority over the generic content guess. Returns false for extensions the
// catalog does not serve.
func Classify(fileName string) (Classification, bool) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".mbtiles":
		if CategoryOf(DeriveLayerID(fileName)) == CategoryClusters {
			return Classification{DataType: DataTypeVector, Format: FormatTiledVector}, true
		}
		// Generic guess: tiled containers hold raster pyramids unless
		// the name says otherwise.
		return Classification{DataType: DataTypeRaster, Format: FormatTiledRaster}, true
	case ".tif", ".tiff", ".png":
		return Classification{DataType: DataTypeRaster, Format: FormatSingleFileRaster}, true
	case ".geojson", ".json":
		return Classification{DataType: DataTypeVector, Format: FormatSingleFileVector}, true
	default:
		return Classification{}, false
	}
}
