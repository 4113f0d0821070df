package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"diagram-hub/internal/managers"
	"diagram-hub/internal/schemas"
	"diagram-hub/internal/utils"
	"diagram-hub/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

const (
	redacted        = "***REDACTED***"
	maxLoggedBody   = 1 << 20
	activityRetries = 3
)

// sensitiveFields are replaced before a request body is logged.
var sensitiveFields = map[string]struct{}{
	"password":        {},
	"oldPassword":     {},
	"newPassword":     {},
	"confirmPassword": {},
	"token":           {},
	"refreshToken":    {},
	"accessToken":     {},
	"otp":             {},
}

// ActivityLog records every request as an activity-log entry once the handler has answered.
// Entries are queued as background tasks; a failure to queue is logged and never changes the response.
func ActivityLog(distributor worker.TaskDistributor) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		body := captureBody(c)

		c.Next()

		entry := &schemas.CreateActivityLogRequest{
			Method:       c.Request.Method,
			URL:          c.Request.URL.Path,
			StatusCode:   c.Writer.Status(),
			IPAddress:    clientIP(c.Request),
			RequestBody:  redact(body),
			QueryParams:  queryParams(c.Request),
			ResponseTime: time.Since(start).Milliseconds(),
		}
		if claims, ok := managers.ClaimsFromContext(c); ok {
			entry.UserID = claims.UserID
			entry.UserEmail = claims.Email
		}
		if entry.StatusCode >= http.StatusBadRequest {
			entry.ErrorMessage = c.GetString(utils.ErrorMessageKey.String())
			if entry.ErrorMessage == "" {
				entry.ErrorMessage = http.StatusText(entry.StatusCode)
			}
		}

		traceId := utils.TraceIdFromContext(c)
		ctx := utils.WithTraceId(c.Request.Context(), traceId)
		err := distributor.DistributeTaskCreateActivityLog(ctx, &worker.CreateActivityLogPayload{
			TraceID: traceId,
			Log:     *entry,
		}, asynq.MaxRetry(activityRetries))
		if err != nil {
			utils.LogMessageWithFields(c, "error", "Failed to queue activity log: "+err.Error())
		}
	}
}

// captureBody reads a JSON body and puts it back for the handlers.
func captureBody(c *gin.Context) map[string]interface{} {
	if c.Request.Body == nil || !strings.HasPrefix(c.ContentType(), gin.MIMEJSON) {
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxLoggedBody))
	if err != nil {
		return nil
	}
	c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), c.Request.Body))

	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil
	}
	return body
}

// redact replaces sensitive values, including those of nested objects.
func redact(body map[string]interface{}) map[string]interface{} {
	if body == nil {
		return nil
	}
	for key, value := range body {
		if _, ok := sensitiveFields[key]; ok {
			body[key] = redacted
			continue
		}
		switch nested := value.(type) {
		case map[string]interface{}:
			body[key] = redact(nested)
		case []interface{}:
			for i, item := range nested {
				if object, ok := item.(map[string]interface{}); ok {
					nested[i] = redact(object)
				}
			}
		}
	}
	return body
}

// clientIP prefers the first X-Forwarded-For entry, then X-Real-IP, then the peer address.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get(utils.ForwardedForHeader); forwarded != "" {
		if first := strings.TrimSpace(strings.Split(forwarded, ",")[0]); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get(utils.RealIPHeader)); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func queryParams(r *http.Request) map[string]string {
	values := r.URL.Query()
	if len(values) == 0 {
		return nil
	}
	params := make(map[string]string, len(values))
	for key := range values {
		params[key] = values.Get(key)
	}
	return params
}
