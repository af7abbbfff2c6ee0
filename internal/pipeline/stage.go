package pipeline

import (
	"context"
	"errors"
	"time"

	"luna_companion/internal/metrics"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"
)

// ErrInvalidRequest is returned before any stage runs
var ErrInvalidRequest = errors.New("invalid request")

// state is a request record that merges the partial update U
type state[S any, U any] interface {
	Apply(U) S
}

// runTrace keeps the first stage error of one invocation with its wrap chain intact
type runTrace struct {
	stage string
	err   error
}

type traceKey struct{}

func withTrace(ctx context.Context) (context.Context, *runTrace) {
	trace := &runTrace{}
	return context.WithValue(ctx, traceKey{}, trace), trace
}

// unwrapRunError prefers the error the stage returned over the graph's wrapper
func unwrapRunError(trace *runTrace, err error) error {
	if trace.err != nil {
		return trace.err
	}
	return err
}

// stageLambda adapts a stage to a graph node: it runs the stage, merges the
// update into the state and records timing.
func stageLambda[S state[S, U], U any](pipeline, stage string, log zerolog.Logger, run func(context.Context, S) (U, error)) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in S) (S, error) {
		start := time.Now()
		update, err := run(ctx, in)
		elapsed := time.Since(start)
		metrics.RecordStage(pipeline, stage, elapsed.Seconds())

		if err != nil {
			if trace, ok := ctx.Value(traceKey{}).(*runTrace); ok && trace.err == nil {
				trace.stage = stage
				trace.err = err
			}
			log.Error().Err(err).Str("stage", stage).Dur("elapsed", elapsed).Msg("stage failed")
			return in, err
		}

		log.Debug().Str("stage", stage).Dur("elapsed", elapsed).Msg("stage completed")
		return in.Apply(update), nil
	})
}
