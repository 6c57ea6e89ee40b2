package query

import (
	"errors"
)

var (
	ErrRowNotFound    = errors.New("row not found")
	ErrNotInitialized = errors.New("seat chart is not initialized")
)
