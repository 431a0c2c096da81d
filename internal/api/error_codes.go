// internal/api/error_codes.go
package api

// API error code constants.
const (
	// Generic
	ErrorBadRequest    = "BAD_REQUEST"
	ErrorNotFound      = "NOT_FOUND"
	ErrorInternalError = "INTERNAL_ERROR"
	ErrorConflict      = "CONFLICT"

	// Segmentation
	ErrorScriptEmpty = "SCRIPT_EMPTY"

	// Character resolution
	ErrorRosterInvalid = "ROSTER_INVALID"

	// Asset store
	ErrorAssetNotFound       = "ASSET_NOT_FOUND"
	ErrorGenerationInFlight  = "GENERATION_IN_FLIGHT"
	ErrorGenerationFailed    = "GENERATION_FAILED"
	ErrorKeyAssetRequired    = "KEY_ASSET_REQUIRED"
	ErrorKeyAssetNotEligible = "KEY_ASSET_NOT_ELIGIBLE"
	ErrorOrderInvalid        = "ORDER_INVALID"
	ErrorScopeRequired       = "SCOPE_REQUIRED"
)
