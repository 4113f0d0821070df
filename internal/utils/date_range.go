package utils

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// BuildDateRangeFilter turns optional start and end dates into an inclusive range predicate.
// The start is moved to the beginning of its day and the end to the last millisecond of its day,
// both in the local zone. It returns nil when neither bound is given so callers can omit the field.
func BuildDateRangeFilter(start, end *time.Time) bson.M {
	if start == nil && end == nil {
		return nil
	}

	dateRange := bson.M{}
	if start != nil {
		dateRange["$gte"] = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.Local)
	}
	if end != nil {
		dateRange["$lte"] = time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, int(999*time.Millisecond), time.Local)
	}
	return dateRange
}
