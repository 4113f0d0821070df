// Package main is the entry point of the user service.
// It calls InitUserService from the internal package.
package main

import (
	"diagram-hub/internal"
)

func main() {
	internal.InitUserService()
}
