package arbor

import "errors"

var (
	// ErrNoRenderer is returned by NewScene when no renderer plugin is configured.
	ErrNoRenderer = errors.New("arbor: no renderer plugin configured")

	// ErrInvalidTrackingMode is returned when a tracking mode is set on a
	// camera whose type does not support tracking.
	ErrInvalidTrackingMode = errors.New("arbor: tracking mode requires a tracking camera")

	// ErrUnknownAttribute is returned by SetAttribute for names it does not handle.
	ErrUnknownAttribute = errors.New("arbor: unknown attribute")

	// ErrAttributeType is returned by SetAttribute when the value has the wrong type.
	ErrAttributeType = errors.New("arbor: attribute value has wrong type")
)
