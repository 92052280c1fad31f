package domain

import "errors"

var (
	// ErrCoordinateOutOfRange is returned for latitudes outside [-90, 90] or
	// longitudes outside [-180, 180].
	ErrCoordinateOutOfRange = errors.New("coordinate out of range")

	// ErrNoFix means no location has been received yet.
	ErrNoFix = errors.New("no location fix yet")

	// ErrConsentRequired means the projection needs network access the user
	// has not granted. It is an expected state, not a failure.
	ErrConsentRequired = errors.New("network access not granted for projection")

	ErrUnknownProjection = errors.New("unknown projection")

	// ErrLookupFailed wraps failed or unsuccessful three-word-address lookups.
	ErrLookupFailed = errors.New("three-word address lookup failed")
)
