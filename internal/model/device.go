package model

import (
	"errors"
	"strings"
	"time"
)

// DefaultDeviceType is stored when a device is created without a type.
const DefaultDeviceType = "Unknown"

// TimestampLayout is the text form of Device.CreatedAt in the database and in
// exports: ISO 8601, UTC, second precision, no zone suffix.
const TimestampLayout = "2006-01-02T15:04:05"

// ErrValidation is matched by every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a create request that was rejected before anything
// was written. Its message is safe to show to the user.
type ValidationError struct {
	// Fields lists the form fields that failed, in form order.
	Fields []string

	// Message is the human-readable notice.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Device is one tracked surplus item.
type Device struct {
	// ID is assigned by the database on insertion. Zero means not yet stored.
	ID int64 `json:"id"`

	// SerialNumber is the manufacturer serial. Never empty once stored.
	SerialNumber string `json:"serial_number"`

	// TagNumber is the local asset tag. Never empty once stored.
	TagNumber string `json:"tag_number"`

	// DeviceType is free text; DefaultDeviceType when not supplied.
	DeviceType string `json:"device_type"`

	// CreatedAt is the UTC insertion time truncated to whole seconds.
	CreatedAt time.Time `json:"created_at"`

	// StoredCreatedAt is the created_at column exactly as the database holds
	// it. Rows written by older tools may not match TimestampLayout, and
	// CreatedAt is then only a best-effort parse of this text.
	StoredCreatedAt string `json:"-"`
}

// NewDevice builds a Device ready for insertion.
//
// All inputs are trimmed of surrounding whitespace. Serial and tag are required;
// when either is empty after trimming a *ValidationError is returned. A blank
// device type becomes DefaultDeviceType. The device type is never validated.
func NewDevice(serial, tag, deviceType string, now time.Time) (*Device, error) {
	serial = strings.TrimSpace(serial)
	tag = strings.TrimSpace(tag)
	deviceType = strings.TrimSpace(deviceType)

	var missing []string
	if serial == "" {
		missing = append(missing, "serial_number")
	}
	if tag == "" {
		missing = append(missing, "tag_number")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{
			Fields:  missing,
			Message: "Both Serial Number and Tag Number are required.",
		}
	}

	if deviceType == "" {
		deviceType = DefaultDeviceType
	}

	return &Device{
		SerialNumber: serial,
		TagNumber:    tag,
		DeviceType:   deviceType,
		CreatedAt:    now.UTC().Truncate(time.Second),
	}, nil
}

// CreatedAtText returns the creation time as shown to users and in exports:
// the stored text when the device was read from the database, otherwise
// CreatedAt in TimestampLayout.
func (d *Device) CreatedAtText() string {
	if d.StoredCreatedAt != "" {
		return d.StoredCreatedAt
	}
	return FormatTimestamp(d.CreatedAt)
}

// FormatTimestamp renders t in TimestampLayout after converting to UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// timestampFormats contains the timestamp formats a stored created_at may use.
// Rows written by older tools may carry a zone suffix or fractional seconds.
var timestampFormats = []string{
	TimestampLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
}

// ParseTimestamp parses a stored created_at value. It returns the zero time
// when no known format matches.
func ParseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
