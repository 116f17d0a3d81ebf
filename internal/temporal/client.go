package temporal

import (
	"context"

	tc "go.temporal.io/sdk/client"
)

// SeriesWorkflowName is the registered name of the recurring booking
// workflow. Referenced by name to keep this package free of a workflows
// import cycle.
const SeriesWorkflowName = "RecurringBookingWorkflow"

// SeriesRunner launches a recurring booking workflow and blocks until it
// completes. The booking handler depends on this rather than the raw
// Temporal client so it can be exercised without a running cluster.
type SeriesRunner interface {
	RunSeries(ctx context.Context, params SeriesParams) (SeriesResult, error)
}

type seriesRunner struct {
	client tc.Client
}

func NewSeriesRunner(client tc.Client) SeriesRunner {
	return &seriesRunner{client: client}
}

func (r *seriesRunner) RunSeries(ctx context.Context, params SeriesParams) (SeriesResult, error) {
	options := tc.StartWorkflowOptions{
		ID:        SeriesWorkflowIDPrefix + params.GroupID,
		TaskQueue: TaskQueueName,
	}
	run, err := r.client.ExecuteWorkflow(ctx, options, SeriesWorkflowName, params)
	if err != nil {
		return SeriesResult{}, err
	}
	var result SeriesResult
	if err := run.Get(ctx, &result); err != nil {
		return SeriesResult{}, err
	}
	return result, nil
}
