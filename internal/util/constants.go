package util

const (
	TimeFormat = "2006-01-02 15:04:05"
)

// Event types published on the events exchange.
const (
	EventTestGenerated = "test.generated"
	EventTestGraded    = "test.graded"
)

// Request-scoped keys set by middleware.
const (
	RequestIDKey    = "request_id"
	RequestIDHeader = "X-Request-ID"
)
