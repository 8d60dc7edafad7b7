package constant

// Request context keys
type contextKey string

const (
	RequestIDKey contextKey = "request_id"
)

// HTTP header names
const (
	HeaderRequestID          = "X-Request-ID"
	HeaderContentType        = "Content-Type"
	HeaderContentDisposition = "Content-Disposition"
	HeaderCacheControl       = "Cache-Control"
)

// Function/Context names
const (
	// Domain context names
	CtxDomain        = "domain"
	CtxCreateSession = "CreateSession"
	CtxGetSession    = "GetSession"
	CtxDeleteSession = "DeleteSession"
	CtxSetInput      = "SetInput"
	CtxSetFormat     = "SetFormat"
	CtxSetColor      = "SetColor"
	CtxSetViewport   = "SetViewport"
	CtxGenerate      = "Generate"
	CtxComplete      = "CompleteGeneration"
	CtxSymbol        = "Symbol"
	CtxExport        = "Export"
	CtxHistory       = "History"

	// Infrastructure context names
	CtxDB               = "db"
	CtxSaveSession      = "SaveSession"
	CtxFindSession      = "FindSession"
	CtxDeleteSessionDB  = "DeleteSessionRecord"
	CtxAppendGeneration = "AppendGeneration"
	CtxListGenerations  = "ListGenerations"
	CtxClose            = "Close"
	CtxRender           = "Render"
	CtxAPI              = "api"

	// General context names
	CtxRouter = "Router"
	CtxMain   = "Main"
)

// Data field keys
const (
	// Service data fields
	DataService    = "service"
	DataSessionID  = "session_id"
	DataInput      = "input"
	DataTaggedURL  = "tagged_url"
	DataReference  = "reference"
	DataCounter    = "counter"
	DataGeneration = "generation"
	DataFormat     = "format"
	DataColor      = "color"
	DataCommit     = "commit"
	DataAccepted   = "accepted"
	DataWidth      = "width"
	DataQRSize     = "qr_size"
	DataState      = "state"
	DataFilename   = "filename"
	DataBytes      = "bytes"
	DataDelay      = "delay"
	DataScheme     = "scheme"

	// Database data fields
	DataPath         = "path"
	DataElapsed      = "elapsed"
	DataRows         = "rows"
	DataSQL          = "sql"
	DataData         = "data"
	DataRowsAffected = "rows_affected"

	// API data fields
	DataMethod      = "method"
	DataStatus      = "status"
	DataLatency     = "latency"
	DataSize        = "size"
	DataRemoteAddr  = "remote_addr"
	DataUserAgent   = "user_agent"
	DataPort        = "port"
	DataDBPath      = "db_path"
	DataEnvironment = "environment"
)

// Error message constants
const (
	ErrEmptySessionID       = "session id cannot be empty"
	ErrSessionNotFound      = "session not found"
	ErrGenerationInProgress = "generation already in progress"
	ErrUnknownFormat        = "unknown export format"
	ErrEmptyPayload         = "payload cannot be empty"
	ErrInvalidSize          = "symbol size must be positive"
)

// Error codes
const (
	ErrCodeAPIDecodeRequest  = "API001"
	ErrCodeAPIServiceError   = "API002"
	ErrCodeAPIWriteResponse  = "API003"
	ErrCodeAppDBInit         = "APP001"
	ErrCodeAppServerStart    = "APP002"
	ErrCodeAppServerShutdown = "APP003"
	ErrCodeAppDrain          = "APP004"
)

// Error types
const (
	ErrTypeDomain = "domain"
	ErrTypeAPI    = "api"
	ErrTypeApp    = "application"
)

// API routes
const (
	RouteSessions    = "/api/sessions"
	RouteSession     = "/api/sessions/{sessionID}"
	RouteInput       = "/api/sessions/{sessionID}/input"
	RouteFormat      = "/api/sessions/{sessionID}/format"
	RouteColor       = "/api/sessions/{sessionID}/color"
	RouteViewport    = "/api/sessions/{sessionID}/viewport"
	RouteGenerate    = "/api/sessions/{sessionID}/generate"
	RouteSymbol      = "/api/sessions/{sessionID}/symbol"
	RouteExport      = "/api/sessions/{sessionID}/export"
	RouteGenerations = "/api/sessions/{sessionID}/generations"
	RouteHealthcheck = "/health"

	ParamSessionID = "sessionID"
	QueryFormat    = "format"
	FormatText     = "text"
)

// Log keys
const (
	LogTimeKey         = "time"
	LogLevelKey        = "level"
	LogNameKey         = "logger"
	LogCallerKey       = "caller"
	LogMessageKey      = "msg"
	LogStacktraceKey   = "stacktrace"
	LogRequestIDKey    = "request_id"
	LogFunctionKey     = "function"
	LogErrorCodeKey    = "error_code"
	LogErrorTypeKey    = "error_type"
	LogErrorMessageKey = "error_message"
	LogEncodingJSON    = "json"
	LogEncodingConsole = "console"
	LogOutputStdout    = "stdout"
	LogOutputStderr    = "stderr"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Message constants for application
const (
	MsgApplicationStarting = "Application starting"
	MsgFailedToInitDB      = "Failed to initialize database"
	MsgServerStarting      = "Server starting"
	MsgServerFailedToStart = "Server failed to start"
	MsgServerShuttingDown  = "Server shutting down"
	MsgServerShutdownError = "Error during server shutdown"
	MsgServerStopped       = "Server stopped"
	MsgDrainError          = "Pending generations did not finish"
	MsgRequestReceived     = "Request received"
	MsgRequestCompleted    = "Request completed"
	MsgSettingUpRoutes     = "Setting up API routes"
	MsgHealthcheckRequest  = "Handling healthcheck request"
	MsgHealthy             = "Healthy"
)

// Cache Namespace
const (
	SessionNamespace = "SESSION"
)
