package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor, same keys the auth middleware stores in the gin context.
	FieldUserID   = "user_id"
	FieldUsername = "username"

	// Chat
	FieldConnID    = "conn_id"
	FieldMessageID = "message_id"
	FieldGroupID   = "group_id"
	FieldEvent     = "event"

	FieldApp = "app"

	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
