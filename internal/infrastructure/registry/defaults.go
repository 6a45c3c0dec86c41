package registry

import (
	"github.com/FreePeak/reservation-mcp/internal/domain"
	"github.com/FreePeak/reservation-mcp/pkg/tools"
)

// Tool names of the reservation system.
const (
	CheckAvailability = "check_availability"
	CreateBooking     = "create_booking"
)

// DefaultTools returns the reservation tools served when no tools file is configured.
func DefaultTools() []domain.ToolDefinition {
	return []domain.ToolDefinition{
		tools.NewTool(CheckAvailability,
			tools.WithDescription("Check availability for a reservation date and time"),
			tools.WithTargetPath("/webhook/impasto48/checkAvailablity"),
			tools.WithString("date", tools.Required(), tools.Description("Reservation date (YYYY-MM-DD format)")),
			tools.WithString("time", tools.Required(), tools.Description("Reservation time (HH:MM format, 24-hour)")),
			tools.WithNumber("partySize", tools.Required(), tools.Description("Number of people in the party")),
			tools.WithNumber("duration", tools.Description("Duration in minutes (optional, defaults to 120)")),
		),
		tools.NewTool(CreateBooking,
			tools.WithDescription("Create a new restaurant booking/reservation"),
			tools.WithTargetPath("/webhook/impasto48/createBooking"),
			tools.WithString("full_name", tools.Required(), tools.Description("Customer's full name")),
			tools.WithString("table", tools.Required(), tools.Description("Table ID")),
			tools.WithString("phone_number", tools.Required(), tools.Description("Customer's phone number (e.g. +353861234567)")),
			tools.WithNumber("people", tools.Required(), tools.Description("Number of people in the party")),
			tools.WithString("date", tools.Required(), tools.Description("Reservation date (YYYY-MM-DD format)")),
			tools.WithString("time", tools.Required(), tools.Description("Reservation time (HH:MM format, 24-hour)")),
			tools.WithString("comment", tools.Description("Special requests or comments (optional)")),
		),
	}
}

// Default builds the registry of the reservation tools.
func Default() *StaticRegistry {
	r, err := New(DefaultTools()...)
	if err != nil {
		panic("registry: invalid default tools: " + err.Error())
	}
	return r
}
