package model

import (
	"errors"
	"testing"
	"time"
)

// TestNewDevice tests device construction and validation.
func TestNewDevice(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 19, 8, 30, 15, 999, time.FixedZone("JST", 9*60*60))

	tests := []struct {
		name       string
		serial     string
		tag        string
		deviceType string
		wantErr    bool
		wantFields []string
		wantSerial string
		wantTag    string
		wantType   string
	}{
		{
			name:       "all fields present",
			serial:     "SN001",
			tag:        "TAG01",
			deviceType: "Laptop",
			wantSerial: "SN001",
			wantTag:    "TAG01",
			wantType:   "Laptop",
		},
		{
			name:       "device type omitted defaults to Unknown",
			serial:     "SN001",
			tag:        "TAG01",
			wantSerial: "SN001",
			wantTag:    "TAG01",
			wantType:   DefaultDeviceType,
		},
		{
			name:       "whitespace-only device type defaults to Unknown",
			serial:     "SN001",
			tag:        "TAG01",
			deviceType: "   ",
			wantSerial: "SN001",
			wantTag:    "TAG01",
			wantType:   DefaultDeviceType,
		},
		{
			name:       "surrounding whitespace is trimmed",
			serial:     "  SN001\t",
			tag:        "\nTAG01 ",
			deviceType: " Monitor ",
			wantSerial: "SN001",
			wantTag:    "TAG01",
			wantType:   "Monitor",
		},
		{
			name:       "empty serial is rejected",
			serial:     "",
			tag:        "TAG01",
			wantErr:    true,
			wantFields: []string{"serial_number"},
		},
		{
			name:       "whitespace-only tag is rejected",
			serial:     "SN001",
			tag:        "   ",
			wantErr:    true,
			wantFields: []string{"tag_number"},
		},
		{
			name:       "both missing are reported together",
			serial:     " ",
			tag:        "",
			deviceType: "Laptop",
			wantErr:    true,
			wantFields: []string{"serial_number", "tag_number"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			device, err := NewDevice(tt.serial, tt.tag, tt.deviceType, now)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected validation error, got nil")
				}
				if !errors.Is(err, ErrValidation) {
					t.Errorf("expected errors.Is(err, ErrValidation), got %v", err)
				}
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected *ValidationError, got %T", err)
				}
				if len(verr.Fields) != len(tt.wantFields) {
					t.Fatalf("expected fields %v, got %v", tt.wantFields, verr.Fields)
				}
				for i := range tt.wantFields {
					if verr.Fields[i] != tt.wantFields[i] {
						t.Errorf("field %d: expected %q, got %q", i, tt.wantFields[i], verr.Fields[i])
					}
				}
				if device != nil {
					t.Error("expected nil device on validation failure")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if device.SerialNumber != tt.wantSerial {
				t.Errorf("expected serial %q, got %q", tt.wantSerial, device.SerialNumber)
			}
			if device.TagNumber != tt.wantTag {
				t.Errorf("expected tag %q, got %q", tt.wantTag, device.TagNumber)
			}
			if device.DeviceType != tt.wantType {
				t.Errorf("expected type %q, got %q", tt.wantType, device.DeviceType)
			}
			if device.ID != 0 {
				t.Errorf("expected unassigned ID, got %d", device.ID)
			}
		})
	}
}

// TestNewDevice_CreatedAt tests that the timestamp is UTC with second precision.
func TestNewDevice_CreatedAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 19, 8, 30, 15, 999_000_000, time.FixedZone("JST", 9*60*60))

	device, err := NewDevice("SN001", "TAG01", "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if device.CreatedAt.Location() != time.UTC {
		t.Errorf("expected UTC location, got %v", device.CreatedAt.Location())
	}
	if device.CreatedAt.Nanosecond() != 0 {
		t.Errorf("expected whole seconds, got %d ns", device.CreatedAt.Nanosecond())
	}
	if got, want := device.CreatedAtText(), "2026-10-18T23:30:15"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

// TestValidationError_Message tests the user-visible notice text.
func TestValidationError_Message(t *testing.T) {
	t.Parallel()

	_, err := NewDevice("", "", "", time.Now())
	if err == nil {
		t.Fatal("expected error")
	}

	want := "Both Serial Number and Tag Number are required."
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

// TestParseTimestamp tests parsing of the stored timestamp formats.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	want := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{name: "canonical layout", input: "2026-01-02T03:04:05", want: want},
		{name: "sqlite datetime", input: "2026-01-02 03:04:05", want: want},
		{name: "Z suffix", input: "2026-01-02T03:04:05Z", want: want},
		{name: "offset", input: "2026-01-02T12:04:05+09:00", want: want},
		{name: "garbage", input: "yesterday", want: time.Time{}},
		{name: "empty", input: "", want: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ParseTimestamp(tt.input)
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// TestFormatTimestamp_RoundTrip tests that formatting and parsing agree.
func TestFormatTimestamp_RoundTrip(t *testing.T) {
	t.Parallel()

	in := time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)
	if got := ParseTimestamp(FormatTimestamp(in)); !got.Equal(in) {
		t.Errorf("round trip mismatch: got %v, want %v", got, in)
	}
}

// TestDevice_CreatedAtText tests that stored text wins over the parsed time.
func TestDevice_CreatedAtText(t *testing.T) {
	t.Parallel()

	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		device Device
		want   string
	}{
		{
			name:   "new device formats CreatedAt",
			device: Device{CreatedAt: created},
			want:   "2025-03-01T10:00:00",
		},
		{
			name:   "fractional seconds are kept",
			device: Device{CreatedAt: created, StoredCreatedAt: "2025-03-01T10:00:00.123456"},
			want:   "2025-03-01T10:00:00.123456",
		},
		{
			name:   "unparseable text is kept",
			device: Device{StoredCreatedAt: "03/01/2025 10:00"},
			want:   "03/01/2025 10:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.device.CreatedAtText(); got != tt.want {
				t.Errorf("CreatedAtText() = %q, want %q", got, tt.want)
			}
		})
	}
}
