package common

// UserAgent is sent on every outbound HTTP request.
const UserAgent = "DataProcessor/1.1"

// RequestIDHeaderName carries a per-call identifier on outbound requests.
const RequestIDHeaderName = "X-Request-ID"
