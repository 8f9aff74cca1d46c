package errors

import "net/http"

var (
	ErrUnsupportedFormat = New(
		"UNSUPPORTED_FORMAT",
		"Unsupported file format",
		http.StatusBadRequest,
	)

	ErrConversionFailed = New(
		"CONVERSION_FAILED",
		"File conversion failed",
		http.StatusInternalServerError,
	)

	ErrUploadFailed = New(
		"UPLOAD_FAILED",
		"Failed to upload artifact to object store",
		http.StatusInternalServerError,
	)

	ErrSourceNotFound = New(
		"SOURCE_NOT_FOUND",
		"No stored source found for layer",
		http.StatusNotFound,
	)

	ErrLayerNotFound = New(
		"LAYER_NOT_FOUND",
		"Layer not found",
		http.StatusNotFound,
	)

	ErrInvalidTileIndex = New(
		"INVALID_TILE_INDEX",
		"Invalid tile index",
		http.StatusBadRequest,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
