// Package ident generates identifiers for new subscriber items.
package ident

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// Generator returns a new globally unique identifier on every call.
type Generator func() string

const (
	SchemeUUID  = "uuid"
	SchemeKSUID = "ksuid"
)

// NewUUID generates a random (version 4) UUID string.
func NewUUID() string {
	return uuid.New().String()
}

// NewKSUID generates a KSUID string. KSUIDs sort by creation time.
func NewKSUID() string {
	return ksuid.New().String()
}

// ForScheme returns the Generator for the named scheme. An empty name selects UUIDs.
func ForScheme(scheme string) (Generator, error) {
	switch scheme {
	case "", SchemeUUID:
		return NewUUID, nil
	case SchemeKSUID:
		return NewKSUID, nil
	default:
		return nil, fmt.Errorf("unknown id scheme %q", scheme)
	}
}
