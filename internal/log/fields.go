package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldDurationHuman = "duration_human"
	FieldUserAgent     = "user_agent"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldErrorType     = "error_type"
	FieldOperation     = "operation"
	FieldUserID        = "user_id"
	FieldMonthKey      = "month_key"
	FieldWindow        = "window"
	FieldCategoryID    = "category_id"
	FieldView          = "view"
	FieldCacheHit      = "cache_hit"
	FieldRecords       = "records"
	FieldAmountCents   = "amount_cents"
	FieldChannel       = "channel"
	FieldMessageID     = "message_id"
	FieldRoutingKey    = "routing_key"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAnalytics = "analytics"
	ComponentExpense   = "expense"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentIngest    = "ingest"
	ComponentDigest    = "digest"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpThirds    = "thirds"
	OpPace      = "pace"
	OpEvolution = "evolution"
	OpDashboard = "dashboard"
	OpCreate    = "create"
	OpList      = "list"
	OpIngest    = "ingest"
	OpDigest    = "digest"
	OpPublish   = "publish"
	OpValidate  = "validate"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeConflict      = "conflict_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

// WithError adds the error text and its category.
func (f LogFields) WithError(err error, errType string) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
		f[FieldErrorType] = errType
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithAnalytics adds the fields identifying one analytics computation.
func (f LogFields) WithAnalytics(userID, view, monthKey string) LogFields {
	f[FieldUserID] = userID
	f[FieldView] = view
	if monthKey != "" {
		f[FieldMonthKey] = monthKey
	}
	return f
}

// WithExpense adds expense-related fields
func (f LogFields) WithExpense(userID string, amountCents int64, categoryID, channel string) LogFields {
	f[FieldUserID] = userID
	f[FieldAmountCents] = amountCents
	f[FieldCategoryID] = categoryID
	f[FieldChannel] = channel
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
