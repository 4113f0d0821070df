// Package schemas defines the data structures
package schemas

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	UsersCollection        = "users"
	DiagramsCollection     = "diagrams"
	ActivityLogsCollection = "activity_logs"
)

// Status is the two-value lifecycle flag shared by users and diagrams.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Document is implemented by every persisted entity so the repository can assign
// identifiers and timestamps without knowing the concrete type.
type Document interface {
	GetID() primitive.ObjectID
	SetID(id primitive.ObjectID)
	SetTimestamps(createdAt, updatedAt time.Time)
}

// BaseDocument holds the fields common to all collections.
type BaseDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (d *BaseDocument) GetID() primitive.ObjectID {
	return d.ID
}

func (d *BaseDocument) SetID(id primitive.ObjectID) {
	d.ID = id
}

func (d *BaseDocument) SetTimestamps(createdAt, updatedAt time.Time) {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = createdAt
	}
	d.UpdatedAt = updatedAt
}

// User represents the data model for a user in the system.
type User struct {
	BaseDocument    `bson:",inline"`
	Name            string `bson:"name" json:"name"`
	PhoneNumber     string `bson:"phoneNumber" json:"phoneNumber"`
	Email           string `bson:"email" json:"email"`
	Password        string `bson:"password" json:"-"`
	Status          Status `bson:"status" json:"status"`
	OTP             string `bson:"otp,omitempty" json:"-"`
	OTPGenerateTime int64  `bson:"otpGenerateTime,omitempty" json:"-"` // unix millis
	AccessToken     string `bson:"accessToken,omitempty" json:"-"`     // SHA-256 of the issued token
	RefreshToken    string `bson:"refreshToken,omitempty" json:"-"`    // SHA-256 of the issued token
}

// UserSearchFields are matched by free-text search on user listings.
var UserSearchFields = []string{"name"}

// UserSummary is the creator projection joined onto diagrams.
type UserSummary struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	PhoneNumber string             `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
}

// Diagram represents a diagram with its unique name, url and short code.
type Diagram struct {
	BaseDocument `bson:",inline"`
	Name         string       `bson:"name" json:"name"`
	URL          string       `bson:"url" json:"url"`
	Slugs        []string     `bson:"slugs" json:"slugs"`
	Status       Status       `bson:"status" json:"status"`
	ShortCode    string       `bson:"shortCode" json:"shortCode"`
	CreatedBy    string       `bson:"createdBy" json:"createdBy"`
	Creator      *UserSummary `bson:"creator,omitempty" json:"creator,omitempty"` // only populated by lookups
}

var DiagramSearchFields = []string{"name"}

// ActivityLog is one recorded HTTP request. Append-only.
type ActivityLog struct {
	BaseDocument `bson:",inline"`
	Method       string                 `bson:"method" json:"method"`
	URL          string                 `bson:"url" json:"url"`
	StatusCode   int                    `bson:"statusCode" json:"statusCode"`
	UserID       string                 `bson:"userId,omitempty" json:"userId,omitempty"`
	UserEmail    string                 `bson:"userEmail,omitempty" json:"userEmail,omitempty"`
	IPAddress    string                 `bson:"ipAddress" json:"ipAddress"`
	RequestBody  map[string]interface{} `bson:"requestBody,omitempty" json:"requestBody,omitempty"`
	QueryParams  map[string]string      `bson:"queryParams,omitempty" json:"queryParams,omitempty"`
	ResponseTime int64                  `bson:"responseTime" json:"responseTime"` // milliseconds
	ErrorMessage string                 `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
}

var ActivityLogSearchFields = []string{"method", "url"}

// VisitedAPI is one row of the most-visited endpoint aggregation.
type VisitedAPI struct {
	URL        string `bson:"url" json:"url"`
	Method     string `bson:"method" json:"method"`
	Count      int64  `bson:"count" json:"count"`
	StatusCode int    `bson:"statusCode" json:"statusCode"`
}

// VisitedUser is one row of the most-active user aggregation.
type VisitedUser struct {
	UserID    string `bson:"userId,omitempty" json:"userId,omitempty"`
	UserEmail string `bson:"userEmail,omitempty" json:"userEmail,omitempty"`
	Count     int64  `bson:"count" json:"count"`
	IPAddress string `bson:"ipAddress,omitempty" json:"ipAddress,omitempty"`
}
