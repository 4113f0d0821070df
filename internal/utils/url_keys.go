package utils

const (
	// IdParamKey is the key for the entity id used in routing parameters.
	IdParamKey = "id"

	// FileFormKey is the multipart form field carrying an uploaded import file.
	FileFormKey = "file"

	// TraceIdHeader is the response header carrying the request's trace id.
	TraceIdHeader = "X-Trace-Id"

	ForwardedForHeader = "X-Forwarded-For"
	RealIPHeader       = "X-Real-IP"
)
