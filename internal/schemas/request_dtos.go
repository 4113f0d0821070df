// Package schemas defines the request structures for various operations in the application.
package schemas

import "time"

// PageQuery carries the common listing parameters. Meta=false returns every match without
// page metadata.
type PageQuery struct {
	Search    string     `json:"search,omitempty" form:"search" validate:"max=100"`
	Offset    int        `json:"offset,omitempty" form:"offset" validate:"min=0"`
	Limit     int        `json:"limit,omitempty" form:"limit" validate:"min=0,max=100"`
	StartDate *time.Time `json:"startDate,omitempty" form:"startDate" time_format:"2006-01-02"`
	EndDate   *time.Time `json:"endDate,omitempty" form:"endDate" time_format:"2006-01-02"`
	Meta      bool       `json:"meta,omitempty" form:"meta"`
}

// SignUpRequest is a struct that represents a registration request
// Password must contain upper and lower case letters, a number and a special character
type SignUpRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	PhoneNumber string `json:"phoneNumber" validate:"required,max=20"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,password_validation" sanitize:"-"`
	Status      Status `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

type LogInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required" sanitize:"-"`
}

// EmailRequest identifies a user by email, used for OTP generation and logout.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPasswordRequest resets a password with a previously generated OTP
type ForgotPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,numeric,len=4"`
	NewPassword string `json:"newPassword" validate:"required,min=8,password_validation" sanitize:"-"`
}

// ChangePasswordRequest is a struct that represents a PasswordChange request
// Email is taken from the caller's token, never from the body
type ChangePasswordRequest struct {
	Email           string `json:"email" validate:"omitempty,email"`
	OldPassword     string `json:"oldPassword" validate:"required" sanitize:"-"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,password_validation" sanitize:"-"`
	ConfirmPassword string `json:"confirmPassword" validate:"required" sanitize:"-"`
}

type ProfileRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type GetUsersRequest struct {
	PageQuery
	Email  string `json:"email,omitempty" form:"email" validate:"omitempty,email"`
	Status Status `json:"status,omitempty" form:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

// CreateDiagramRequest is a struct that represents a create diagram request
// Slugs must be URL safe; uniqueness within the list is checked by the diagram service
type CreateDiagramRequest struct {
	Name      string   `json:"name" validate:"required,max=100"`
	URL       string   `json:"url" validate:"required,url" sanitize:"-"`
	Slugs     []string `json:"slugs" validate:"required,min=1,dive,required,slug_validation"`
	Status    Status   `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE INACTIVE"`
	ShortCode string   `json:"shortCode" validate:"required,max=20"`
	UserID    string   `json:"userId,omitempty"`
}

// UpdateDiagramRequest is a partial update; nil fields are left untouched.
// ID is filled from the path after the body has been validated.
type UpdateDiagramRequest struct {
	ID        string   `json:"id"`
	Name      *string  `json:"name,omitempty" validate:"omitempty,max=100"`
	URL       *string  `json:"url,omitempty" validate:"omitempty,url" sanitize:"-"`
	Slugs     []string `json:"slugs,omitempty" validate:"omitempty,dive,required,slug_validation"`
	Status    *Status  `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE INACTIVE"`
	ShortCode *string  `json:"shortCode,omitempty" validate:"omitempty,max=20"`
}

type IDRequest struct {
	ID string `json:"id" validate:"required"`
}

type GetDiagramsRequest struct {
	PageQuery
	Status Status `json:"status,omitempty" form:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
	UserID string `json:"userId,omitempty" form:"userId"`
}

// ImportSlugsRequest carries the rows parsed from an uploaded CSV or XLSX file, keyed by header.
type ImportSlugsRequest struct {
	ID   string              `json:"id" validate:"required"`
	Rows []map[string]string `json:"rows"`
}

type CreateActivityLogRequest struct {
	Method       string                 `json:"method" validate:"required"`
	URL          string                 `json:"url" validate:"required"`
	StatusCode   int                    `json:"statusCode" validate:"required"`
	UserID       string                 `json:"userId,omitempty"`
	UserEmail    string                 `json:"userEmail,omitempty"`
	IPAddress    string                 `json:"ipAddress"`
	RequestBody  map[string]interface{} `json:"requestBody,omitempty"`
	QueryParams  map[string]string      `json:"queryParams,omitempty"`
	ResponseTime int64                  `json:"responseTime"`
	ErrorMessage string                 `json:"errorMessage,omitempty"`
}

type CreateActivityLogsRequest struct {
	Logs []CreateActivityLogRequest `json:"logs" validate:"required,min=1,dive"`
}

type GetActivityLogsRequest struct {
	PageQuery
	Method     string `json:"method,omitempty" form:"method"`
	StatusCode int    `json:"statusCode,omitempty" form:"statusCode"`
	URL        string `json:"url,omitempty" form:"url"`
}

// MostVisitedRequest limits the ranking size and optionally narrows it to a date range.
type MostVisitedRequest struct {
	Limit     int        `json:"limit,omitempty" form:"limit" validate:"min=0,max=100"`
	StartDate *time.Time `json:"startDate,omitempty" form:"startDate" time_format:"2006-01-02"`
	EndDate   *time.Time `json:"endDate,omitempty" form:"endDate" time_format:"2006-01-02"`
}
