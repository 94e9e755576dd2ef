package relay

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type relayMetrics struct {
	joins   metric.Int64Counter
	laps    metric.Int64Counter
	skipped metric.Int64Counter
	players metric.Int64UpDownCounter
}

// newMetrics uses the global meter provider, a no-op unless an SDK is set.
func newMetrics() (*relayMetrics, error) {
	meter := otel.GetMeterProvider().Meter("unicycle.relay")
	m := &relayMetrics{}
	var err error

	if m.joins, err = meter.Int64Counter("unicycle.relay.joins",
		metric.WithDescription("Players that joined"),
		metric.WithUnit("{player}")); err != nil {
		return nil, fmt.Errorf("creating joins counter: %w", err)
	}
	if m.laps, err = meter.Int64Counter("unicycle.relay.laps",
		metric.WithDescription("Completed laps"),
		metric.WithUnit("{lap}")); err != nil {
		return nil, fmt.Errorf("creating laps counter: %w", err)
	}
	if m.skipped, err = meter.Int64Counter("unicycle.relay.skipped",
		metric.WithDescription("Messages not delivered because an outbox was full"),
		metric.WithUnit("{message}")); err != nil {
		return nil, fmt.Errorf("creating skipped counter: %w", err)
	}
	if m.players, err = meter.Int64UpDownCounter("unicycle.relay.players",
		metric.WithDescription("Players currently joined"),
		metric.WithUnit("{player}")); err != nil {
		return nil, fmt.Errorf("creating players counter: %w", err)
	}
	return m, nil
}
