// Package main is the entry point of the HTTP gateway.
// It calls InitGateway from the internal package.
package main

import (
	"diagram-hub/internal"
)

func main() {
	internal.InitGateway()
}
