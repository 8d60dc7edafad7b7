package constant

// Domain service error codes
const (
	// Form service - Validation errors (0xx)
	ErrCodeEmptySessionID = "SVC001"
	ErrCodeUnknownFormat  = "SVC002"
	ErrCodeColorRejected  = "SVC003"

	// Form service - Storage errors (1xx)
	ErrCodeStorageFailure = "SVC101"
	ErrCodeHistoryFailure = "SVC102"

	// Form service - Retrieval errors (2xx)
	ErrCodeSessionNotFound = "SVC201"

	// Form service - Generation errors (3xx)
	ErrCodeGenerationBusy      = "SVC301"
	ErrCodeGenerationAbandoned = "SVC302"
	ErrCodeRenderFailure       = "SVC303"

	// Form service - Export errors (4xx)
	ErrCodeExportFailure = "SVC401"
)

// Database error codes
const (
	// General DB errors (5xx)
	ErrCodeDBGeneral = "DB500"

	// Connection errors (0xx)
	ErrCodeDBOpen    = "DB001"
	ErrCodeDBMigrate = "DB002"

	// SaveSession operation errors (1xx)
	ErrCodeDBSave = "DB101"

	// FindSession operation errors (2xx)
	ErrCodeDBLookup = "DB201"

	// DeleteSession operation errors (3xx)
	ErrCodeDBDelete = "DB301"

	// Generation history errors (4xx)
	ErrCodeDBAppendGeneration = "DB401"
	ErrCodeDBListGenerations  = "DB402"

	// Close operation errors (6xx)
	ErrCodeDBClose = "DB601"
)

// QR rendering error codes
const (
	ErrCodeQREncode = "QR001"
	ErrCodeQRRaster = "QR002"
)

// Error types for categorization
const (
	// Domain error types
	ErrTypeValidation = "validation"
	ErrTypeStorage    = "storage"
	ErrTypeRetrieval  = "retrieval"
	ErrTypeGeneration = "generation"
	ErrTypeExport     = "export"

	// Infrastructure error types
	ErrTypeDB     = "db"
	ErrTypeRender = "render"
)
