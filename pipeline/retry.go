package pipeline

import (
	"context"
	"errors"
	"log"
	"time"
)

// ErrGaveUp is returned when the retry loop stops without a successful run.
var ErrGaveUp = errors.New("video generation did not succeed")

// RetryPolicy drives RunUntilSuccess. The interval is constant across
// attempts; the exponential backoff lives inside the clip-synthesis client,
// not here.
type RetryPolicy struct {
	// Interval is the fixed wait between attempts.
	Interval time.Duration
	// MaxAttempts caps the loop; 0 means retry until the context ends.
	MaxAttempts int
	// RetryAllFailures makes the loop retry non-rate-limit failures too,
	// instead of stopping after the first one.
	RetryAllFailures bool
}

// RunUntilSuccess runs the pipeline repeatedly until a run succeeds.
// Rate-limited failures always wait out the interval and try again. Other
// failures stop the loop unless RetryAllFailures is set. The last report is
// returned either way.
func RunUntilSuccess(ctx context.Context, g *Generator, topic, category string, publish bool, policy RetryPolicy) (*Report, error) {
	attempt := 0
	for {
		attempt++
		log.Printf("━━━ ATTEMPT #%d ━━━", attempt)

		report := g.Run(ctx, topic, category, publish)
		if report.Success {
			return report, nil
		}

		// Classify only the aborting failure. Optional-stage warnings may
		// contain quota phrases of their own and must not make an unrelated
		// deterministic failure look retryable.
		failure := report.FailureError()
		if failure == nil {
			failure = errors.New(report.FlattenedErrors())
		}

		if IsRateLimited(failure) {
			log.Printf("⏳ Attempt #%d hit a rate limit, retrying in %s", attempt, policy.Interval)
		} else if policy.RetryAllFailures {
			log.Printf("❌ Attempt #%d failed (%s), retrying in %s anyway", attempt, report.FlattenedErrors(), policy.Interval)
		} else {
			log.Printf("❌ Attempt #%d failed with a non-retryable error: %s", attempt, report.FlattenedErrors())
			return report, ErrGaveUp
		}

		if policy.MaxAttempts > 0 && attempt >= policy.MaxAttempts {
			return report, ErrGaveUp
		}

		select {
		case <-ctx.Done():
			return report, ctx.Err()
		case <-time.After(policy.Interval):
		}
	}
}
