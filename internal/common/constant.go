package common

const (
	// AuthorizationHeaderName carries the bearer access token on outbound
	// API requests.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the access token in the Authorization header.
	BearerPrefix = "Bearer "

	// RequestIDHeaderName is attached to every API request for log correlation.
	RequestIDHeaderName = "X-Request-ID"

	// DateLayout is the calendar day format used by the meals date filter.
	DateLayout = "2006-01-02"

	// DefaultDatabaseFile is the local SQLite file holding credentials and snapshots.
	DefaultDatabaseFile = "mealkeeper.db"
)
