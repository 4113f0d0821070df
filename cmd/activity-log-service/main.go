// Package main is the entry point of the activity-log service.
// It calls InitActivityLogService from the internal package.
package main

import (
	"diagram-hub/internal"
)

func main() {
	internal.InitActivityLogService()
}
