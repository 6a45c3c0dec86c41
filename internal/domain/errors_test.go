package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      *ValidationError
		wantKind ErrorKind
		want     string
	}{
		{
			name:     "Unknown tool",
			err:      NewUnknownToolError("cancel_booking"),
			wantKind: KindUnknownTool,
			want:     "Unknown tool: cancel_booking",
		},
		{
			name:     "Missing field",
			err:      NewMissingFieldError("check_availability", "date"),
			wantKind: KindMissingRequiredField,
			want:     `Missing required field "date" for tool check_availability`,
		},
		{
			name:     "Type mismatch",
			err:      NewTypeMismatchError("check_availability", "partySize", FieldTypeNumber, "string"),
			wantKind: KindTypeMismatch,
			want:     `Invalid type for field "partySize" of tool check_availability: expected number, got string`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.wantKind)
			}
			if tt.err.Error() != tt.want {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.want)
			}
			if KindOf(tt.err) != tt.wantKind {
				t.Errorf("KindOf() = %v, want %v", KindOf(tt.err), tt.wantKind)
			}
		})
	}
}

func TestKindOfWrappedErrors(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"configuration", NewConfigurationError("webhook base URL is not configured"), KindConfiguration},
		{"network", fmt.Errorf("wrapped: %w", NewNetworkError("create_booking", cause)), KindNetwork},
		{"decode", NewUpstreamDecodeError("create_booking", cause), KindUpstreamDecode},
		{"internal", NewInternalError("create_booking", cause), KindInternal},
		{"upstream", &UpstreamError{Status: 503, Body: "down"}, KindUpstream},
		{"plain", cause, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNetworkErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: lookup n8n: no such host")
	err := NewNetworkError("check_availability", cause)

	if !errors.Is(err, cause) {
		t.Error("expected network error to wrap its cause")
	}
	if err.Error() != "Error calling check_availability: dial tcp: lookup n8n: no such host" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestUpstreamErrorMessage(t *testing.T) {
	withBody := &UpstreamError{Status: 503, Body: "Service Unavailable"}
	if withBody.Error() != "webhook failed (503): Service Unavailable" {
		t.Errorf("unexpected message: %s", withBody.Error())
	}

	withoutBody := &UpstreamError{Status: 500}
	if withoutBody.Error() != "webhook failed (500)" {
		t.Errorf("unexpected message: %s", withoutBody.Error())
	}
}

func TestResultFromError(t *testing.T) {
	result := ResultFromError(NewConfigurationError("webhook base URL is not configured"))

	if !result.IsError {
		t.Error("expected error result")
	}
	if result.Message != "Error: webhook base URL is not configured" {
		t.Errorf("unexpected message: %s", result.Message)
	}
	if result.Payload != nil {
		t.Error("expected no payload on error result")
	}
}
