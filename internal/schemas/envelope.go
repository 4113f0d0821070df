package schemas

import (
	"encoding/json"
	"net/http"
)

const (
	SuccessMessage             = "Success"
	BadRequestMessage          = "Bad request"
	NotFoundMessage            = "Not found"
	UnauthorizedMessage        = "Unauthorized"
	InternalServerErrorMessage = "Internal server error"
)

// Envelope is the uniform response every service operation returns.
type Envelope struct {
	StatusCode int          `json:"statusCode"`
	Message    string       `json:"message"`
	Data       interface{}  `json:"data,omitempty"`
	Errors     *CustomError `json:"errors,omitempty"`
}

// ReplyEnvelope is the envelope as the gateway receives it: the data stays raw so it can be
// relayed without a decode/encode round trip.
type ReplyEnvelope struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data,omitempty"`
	Errors     *CustomError    `json:"errors,omitempty"`
}

// Success wraps data in an envelope with the given status.
func Success(statusCode int, data interface{}) *Envelope {
	return &Envelope{StatusCode: statusCode, Message: SuccessMessage, Data: data}
}

// Failure converts err into an error envelope. Errors outside the taxonomy become 500s.
func Failure(err error) *Envelope {
	customErr := AsCustomError(err)
	return &Envelope{
		StatusCode: customErr.StatusCode(),
		Message:    customErr.Message,
		Errors:     customErr,
	}
}

// IsSuccess reports whether the envelope carries a 2xx status.
func (e *Envelope) IsSuccess() bool {
	return e.StatusCode >= http.StatusOK && e.StatusCode < http.StatusMultipleChoices
}

// NewInternalReply is the envelope the gateway answers with when a service could not be reached.
func NewInternalReply() *ReplyEnvelope {
	return &ReplyEnvelope{
		StatusCode: http.StatusInternalServerError,
		Message:    InternalServerErrorMessage,
		Errors:     &CustomError{Kind: KindInternal, Message: InternalServerErrorMessage},
	}
}
