package domain

import "errors"

// Error kinds surfaced by chart computation. Adapters wrap their own failures
// with one of these so callers can classify with errors.Is.
var (
	ErrLocationNotFound = errors.New("location not found")
	ErrTimezoneNotFound = errors.New("timezone not found")
	ErrEphemerisFailure = errors.New("ephemeris computation failed")
	ErrInvalidInput     = errors.New("invalid input")

	// ErrGeocoderUnavailable means the place lookup itself failed (network,
	// upstream 5xx, bad payload), as opposed to finding no match.
	ErrGeocoderUnavailable = errors.New("geocoding service unavailable")
)

// IsTransient reports whether err came from an upstream dependency that may
// succeed on retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrEphemerisFailure) || errors.Is(err, ErrGeocoderUnavailable)
}
