package stormidb

import "github.com/maruel/ksid"

// IDGenerator mints new document identifiers. Document identifier
// *generation* is an external collaborator by design — callers that
// already mint monotonic lexicographically-sortable ids upstream should
// pass one to Create directly rather than relying on the default.
type IDGenerator interface {
	NewID() string
}

// ksidGenerator is the default IDGenerator, wired to the same sortable-id
// package other document-oriented stores in this neighborhood use.
type ksidGenerator struct{}

func (ksidGenerator) NewID() string {
	return ksid.NewID().String()
}

// DefaultIDGenerator is used by Engine when no IDGenerator is configured
// and a caller invokes Create without an explicit id.
var DefaultIDGenerator IDGenerator = ksidGenerator{}
