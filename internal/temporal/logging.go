package temporal

import (
	"github.com/rs/zerolog"
	"go.temporal.io/sdk/log"
)

// TemporalAdapter bridges the Temporal SDK's keyval logger onto zerolog.
type TemporalAdapter struct {
	logger zerolog.Logger
}

func NewTemporalAdapter(logger zerolog.Logger) log.Logger {
	return &TemporalAdapter{
		logger: logger.With().Str("component", "temporal-sdk").Logger(),
	}
}

func (a *TemporalAdapter) withKeyvals(event *zerolog.Event, keyvals ...interface{}) *zerolog.Event {
	if len(keyvals) == 0 {
		return event
	}
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "MISSING_VALUE")
	}
	for i := 0; i < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = "INVALID_KEY"
		}
		event = event.Interface(key, keyvals[i+1])
	}
	return event
}

func (a *TemporalAdapter) Debug(msg string, keyvals ...interface{}) {
	a.withKeyvals(a.logger.Debug(), keyvals...).Msg(msg)
}

func (a *TemporalAdapter) Info(msg string, keyvals ...interface{}) {
	a.withKeyvals(a.logger.Info(), keyvals...).Msg(msg)
}

func (a *TemporalAdapter) Warn(msg string, keyvals ...interface{}) {
	a.withKeyvals(a.logger.Warn(), keyvals...).Msg(msg)
}

func (a *TemporalAdapter) Error(msg string, keyvals ...interface{}) {
	a.withKeyvals(a.logger.Error(), keyvals...).Msg(msg)
}
