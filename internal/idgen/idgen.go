// Package idgen generates short booking references backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

const (
	BookingPrefix = "bk-"

	alphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	length   = 10
)

// Booking returns a new booking reference such as "bk-7fQa2LmZpX".
func Booking() (string, error) {
	id, err := nanoid.Generate(alphabet, length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return BookingPrefix + id, nil
}
