package temporal

import (
	"time"

	"github.com/craftday/craftday-api/internal/models"
)

// TaskQueueName is the Temporal task queue for booking workflows.
const TaskQueueName = "CRAFTDAY_BOOKING"

// SeriesWorkflowIDPrefix prefixes recurring-booking workflow IDs.
const SeriesWorkflowIDPrefix = "craftday-series-"

// DefaultActivityTimeout bounds booking activities.
const DefaultActivityTimeout = 2 * time.Minute

// SeriesParams is the input to RecurringBookingWorkflow. Occurrences are
// expanded before the workflow starts so the workflow itself stays
// deterministic.
type SeriesParams struct {
	TenantID      string
	ServiceID     string
	CustomerName  string
	CustomerEmail string
	Pattern       models.RecurrencePattern
	GroupID       string
	EndDate       time.Time
	Occurrences   []time.Time
}

// CreateSeriesResult holds the output of the row-materialization
// activity.
type CreateSeriesResult struct {
	FirstAppointmentID string
	Occurrences        int
}

// SeriesResult is the workflow's final result, handed back to the
// booking handler.
type SeriesResult struct {
	CheckoutURL        string
	GroupID            string
	FirstAppointmentID string
	Occurrences        int
}
