package domain

import "time"

// Layer data types
const (
	DataTypeRaster = "raster"
	DataTypeVector = "vector"
)

// Layer storage formats
const (
	FormatTiledRaster      = "tiled-raster"
	FormatTiledVector      = "tiled-vector"
	FormatSingleFileRaster = "single-file-raster"
	FormatSingleFileVector = "single-file-vector"
)

// Bounds is a geographic bounding box in degrees.
type Bounds struct {
	West  float64 `json:"west" db:"west"`
	South float64 `json:"south" db:"south"`
	East  float64 `json:"east" db:"east"`
	North float64 `json:"north" db:"north"`
}

// ValueRange is the expected data value interval of a layer, used to
// normalize pixel values before color mapping.
type ValueRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Layer is the serving-time view of one stored artifact. It is derived
// from the artifact's filename and category defaults; immutable once built.
type Layer struct {
	ID            string     `json:"id"`
	DisplayName   string     `json:"display_name"`
	DataType      string     `json:"data_type"`
	Format        string     `json:"format"`
	Bounds        Bounds     `json:"bounds"`
	ColorRamp     ColorRamp  `json:"color_ramp"`
	ValueRange    ValueRange `json:"value_range"`
	FileSizeBytes int64      `json:"file_size_bytes"`
	UploadedAt    time.Time  `json:"uploaded_at"`
}

// LayerRecord is the relational bookkeeping row written at ingestion time.
// Version increments on every re-upload and keys cache entries.
type LayerRecord struct {
	ID               string    `json:"id" db:"id"`
	FileName         string    `json:"file_name" db:"file_name"`
	Version          int       `json:"version" db:"version"`
	OriginalBytes    int64     `json:"original_bytes" db:"original_bytes"`
	OptimizedBytes   int64     `json:"optimized_bytes" db:"optimized_bytes"`
	CompressionRatio int       `json:"compression_ratio" db:"compression_ratio"`
	UploadedAt       time.Time `json:"uploaded_at" db:"uploaded_at"`
}

// OptimizedArtifact describes the single artifact the optimizer emits.
// ByteSize is always the accepted rendition, never a rejected intermediate.
type OptimizedArtifact struct {
	Key              string `json:"key"`
	ByteSize         int64  `json:"byte_size"`
	OriginalByteSize int64  `json:"original_byte_size"`
	CompressionRatio int    `json:"compression_ratio"`
}
