package shared

import (
	"encoding/json"
	"testing"
)

func TestJSONRPCRequestUnmarshal(t *testing.T) {
	jsonData := `{
		"jsonrpc": "2.0",
		"id": 1,
		"method": "tools/call",
		"params": {"name": "check_availability", "arguments": {"partySize": 4}}
	}`

	var req JSONRPCRequest
	if err := json.Unmarshal([]byte(jsonData), &req); err != nil {
		t.Fatalf("Failed to unmarshal request: %v", err)
	}

	if req.JSONRPC != "2.0" {
		t.Errorf("Expected JSONRPC to be '2.0', got '%s'", req.JSONRPC)
	}
	if string(req.ID) != "1" {
		t.Errorf("Expected ID to be 1, got '%s'", req.ID)
	}
	if req.IsNotification() {
		t.Error("Request with an id must not be a notification")
	}

	var params CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		t.Fatalf("Failed to unmarshal params: %v", err)
	}
	if params.Name != "check_availability" {
		t.Errorf("Expected name 'check_availability', got '%s'", params.Name)
	}
	if params.Arguments["partySize"] != float64(4) {
		t.Errorf("Expected partySize 4, got %v", params.Arguments["partySize"])
	}
}

func TestJSONRPCNotification(t *testing.T) {
	var req JSONRPCRequest
	if err := json.Unmarshal([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`), &req); err != nil {
		t.Fatalf("Failed to unmarshal notification: %v", err)
	}
	if !req.IsNotification() {
		t.Error("Message without id should be a notification")
	}
}

func TestResponseIDRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		id   json.RawMessage
		want string
	}{
		{"numeric id", json.RawMessage(`7`), `{"jsonrpc":"2.0","id":7,"result":{}}`},
		{"string id", json.RawMessage(`"abc"`), `{"jsonrpc":"2.0","id":"abc","result":{}}`},
		{"missing id", nil, `{"jsonrpc":"2.0","id":null,"result":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(NewResponse(tt.id, struct{}{}))
			if err != nil {
				t.Fatalf("Failed to marshal response: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal() = %s, want %s", data, tt.want)
			}
		})
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(nil, ServerError, "Method not allowed.")

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal error response: %v", err)
	}

	want := `{"jsonrpc":"2.0","id":null,"error":{"code":-32000,"message":"Method not allowed."}}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	defaulted := NewErrorResponse(json.RawMessage(`1`), MethodNotFound, "")
	if defaulted.Error.Message != "Method not found" {
		t.Errorf("Expected default message, got %q", defaulted.Error.Message)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{ParseError, "Parse error"},
		{InvalidRequest, "Invalid request"},
		{MethodNotFound, "Method not found"},
		{InvalidParams, "Invalid params"},
		{InternalError, "Internal error"},
		{ServerError, "Server error"},
		{ErrorCode(1), "Unknown error"},
	}

	for _, tt := range tests {
		if got := ErrorMessage(tt.code); got != tt.want {
			t.Errorf("ErrorMessage(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestCallToolResultOmitsIsErrorOnSuccess(t *testing.T) {
	data, err := json.Marshal(CallToolResult{Content: []TextContent{NewTextContent("ok")}})
	if err != nil {
		t.Fatalf("Failed to marshal result: %v", err)
	}
	if string(data) != `{"content":[{"type":"text","text":"ok"}]}` {
		t.Errorf("unexpected JSON: %s", data)
	}
}
