package game

import "github.com/google/uuid"

// NewID returns a short random id that is easy to type on the command line.
func NewID() string {
	return uuid.New().String()[:8]
}
