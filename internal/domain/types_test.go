package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTool() ToolDefinition {
	return ToolDefinition{
		Name:        "check_availability",
		Description: "Check availability for a reservation date and time",
		InputSchema: []SchemaField{
			{Name: "date", Type: FieldTypeString, Required: true},
			{Name: "time", Type: FieldTypeString, Required: true},
			{Name: "partySize", Type: FieldTypeNumber, Required: true},
			{Name: "duration", Type: FieldTypeNumber},
		},
		TargetPath: "/webhook/impasto48/checkAvailablity",
	}
}

func TestFieldTypeValid(t *testing.T) {
	assert.True(t, FieldTypeString.Valid())
	assert.True(t, FieldTypeNumber.Valid())
	assert.True(t, FieldTypeBoolean.Valid())
	assert.False(t, FieldType("array").Valid())
	assert.False(t, FieldType("").Valid())
}

func TestToolDefinitionFields(t *testing.T) {
	tool := testTool()

	assert.Equal(t, []string{"date", "time", "partySize"}, tool.RequiredFields())

	field, ok := tool.Field("duration")
	require.True(t, ok)
	assert.Equal(t, FieldTypeNumber, field.Type)
	assert.False(t, field.Required)

	_, ok = tool.Field("comment")
	assert.False(t, ok)
}

func TestToolDefinitionClone(t *testing.T) {
	tool := testTool()
	clone := tool.Clone()

	clone.InputSchema[0].Name = "mutated"

	assert.Equal(t, "date", tool.InputSchema[0].Name)
}

func TestNewSession(t *testing.T) {
	session := NewSession(TransportStdio)

	_, err := uuid.Parse(session.ID)
	require.NoError(t, err)
	assert.Equal(t, TransportStdio, session.Transport)
	assert.Equal(t, SessionUninitialized, session.State())
}

func TestSessionStateMachine(t *testing.T) {
	session := NewSession(TransportSSE)

	assert.False(t, session.BeginDispatch(), "dispatch must not start before connect")

	require.True(t, session.Connect())
	assert.Equal(t, SessionReady, session.State())

	require.True(t, session.BeginDispatch())
	assert.Equal(t, SessionDispatching, session.State())

	session.EndDispatch()
	assert.Equal(t, SessionReady, session.State())

	assert.True(t, session.Close())
	assert.False(t, session.Close(), "second close must be a no-op")
	assert.Equal(t, SessionClosed, session.State())
	assert.True(t, session.Closed())

	assert.False(t, session.BeginDispatch())
	assert.False(t, session.Connect())
}

func TestSessionClosedWhileDispatching(t *testing.T) {
	session := NewSession(TransportStateless)
	require.True(t, session.Connect())
	require.True(t, session.BeginDispatch())

	session.Close()
	assert.Equal(t, SessionClosed, session.State())

	session.EndDispatch()
	assert.Equal(t, SessionClosed, session.State())
}
