// Package main is the entry point of the diagram service.
// It calls InitDiagramService from the internal package.
package main

import (
	"diagram-hub/internal"
)

func main() {
	internal.InitDiagramService()
}
