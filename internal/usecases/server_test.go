package usecases

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FreePeak/reservation-mcp/internal/domain"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/logging"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/metrics"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/registry"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/validation"
	mocks "github.com/FreePeak/reservation-mcp/internal/testutil"
)

func newService(t *testing.T, invoker domain.Invoker, m *metrics.Metrics) *ServerService {
	t.Helper()
	reg := registry.Default()
	validator, err := validation.NewSchemaValidator(reg)
	require.NoError(t, err)

	return NewServerService(ServerConfig{
		Name:      "reservation-mcp",
		Version:   "1.0.0",
		ToolRepo:  reg,
		Validator: validator,
		Invoker:   invoker,
		Logger:    logging.NewNop(),
		Metrics:   m,
	})
}

func TestServerInfo(t *testing.T) {
	s := newService(t, &mocks.MockInvoker{}, nil)

	name, version, instructions := s.ServerInfo()
	assert.Equal(t, "reservation-mcp", name)
	assert.Equal(t, "1.0.0", version)
	assert.Empty(t, instructions)
}

func TestListToolsIsIdempotent(t *testing.T) {
	s := newService(t, &mocks.MockInvoker{}, nil)
	ctx := context.Background()

	first := s.ListTools(ctx)
	require.Len(t, first, 2)
	assert.Equal(t, first, s.ListTools(ctx))
	assert.Equal(t, registry.CheckAvailability, first[0].Name)

	tool, ok := s.GetTool(ctx, registry.CreateBooking)
	require.True(t, ok)
	assert.Equal(t, registry.CreateBooking, tool.Name)
}

func TestCallToolForwardsValidArguments(t *testing.T) {
	invoker := &mocks.MockInvoker{Result: domain.NewSuccessResult(map[string]interface{}{"available": true}, "{}")}
	m := metrics.New()
	s := newService(t, invoker, m)

	result := s.CallTool(context.Background(), domain.ToolInvocationRequest{
		ToolName:  registry.CheckAvailability,
		Arguments: map[string]interface{}{"date": "2025-06-01", "time": "19:00", "partySize": float64(4)},
		Session:   domain.NewSession(domain.TransportStdio),
	})

	assert.False(t, result.IsError)
	assert.Equal(t, 1, invoker.Calls())
	assert.Equal(t, "2025-06-01", invoker.LastArguments()["date"])
	count, err := testutil.GatherAndCount(m.Registry(), "reservation_mcp_tool_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCallToolUnknownTool(t *testing.T) {
	invoker := &mocks.MockInvoker{}
	s := newService(t, invoker, nil)

	result := s.CallTool(context.Background(), domain.ToolInvocationRequest{ToolName: "cancel_booking"})

	assert.True(t, result.IsError)
	assert.Equal(t, domain.KindUnknownTool, result.Kind)
	assert.Contains(t, result.Message, "cancel_booking")
	assert.Zero(t, invoker.Calls())
}

func TestUnknownToolNamesShareOneSeries(t *testing.T) {
	m := metrics.New()
	s := newService(t, &mocks.MockInvoker{}, m)

	for i := 0; i < 200; i++ {
		result := s.CallTool(context.Background(), domain.ToolInvocationRequest{ToolName: fmt.Sprintf("bogus_%d", i)})
		require.Equal(t, domain.KindUnknownTool, result.Kind)
	}

	count, err := testutil.GatherAndCount(m.Registry(), "reservation_mcp_tool_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCallToolValidationFailureSkipsInvoker(t *testing.T) {
	invoker := &mocks.MockInvoker{}
	s := newService(t, invoker, nil)

	result := s.CallTool(context.Background(), domain.ToolInvocationRequest{
		ToolName:  registry.CheckAvailability,
		Arguments: map[string]interface{}{"date": "2025-06-01", "time": "19:00"},
	})

	assert.True(t, result.IsError)
	assert.Equal(t, domain.KindMissingRequiredField, result.Kind)
	assert.Contains(t, result.Message, "partySize")
	assert.Zero(t, invoker.Calls())
}

func TestCallToolPropagatesInvokerError(t *testing.T) {
	invoker := &mocks.MockInvoker{Result: domain.ResultFromError(domain.NewConfigurationError("N8N_BASE_URL environment variable is not set"))}
	s := newService(t, invoker, nil)

	result := s.CallTool(context.Background(), domain.ToolInvocationRequest{
		ToolName: registry.CreateBooking,
		Arguments: map[string]interface{}{
			"full_name":    "Ada Lovelace",
			"table":        "T4",
			"phone_number": "+353861234567",
			"people":       float64(2),
			"date":         "2025-06-01",
			"time":         "19:00",
		},
	})

	assert.True(t, result.IsError)
	assert.Equal(t, domain.KindConfiguration, result.Kind)
	assert.Equal(t, 1, invoker.Calls())
}
