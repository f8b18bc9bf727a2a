package core

import "github.com/google/uuid"

// NewID generates a new unique identifier for records, requests and plans.
func NewID() string { return uuid.NewString() }
