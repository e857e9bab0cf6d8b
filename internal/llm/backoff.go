package llm

import (
	"math/rand"
	"time"
)

// BackoffMode selects the retry delay strategy.
type BackoffMode string

const (
	// BackoffFixed waits a constant delay between attempts.
	BackoffFixed BackoffMode = "fixed"
	// BackoffExponential doubles the delay each attempt and adds bounded
	// random jitter so repeated failures don't hammer the single local
	// model process in lockstep.
	BackoffExponential BackoffMode = "exponential"
)

// Delay computes the sleep before retry attempt number attempt (1-based:
// attempt 1 is the delay after the first failure). Pure apart from the
// jitter source, which defaults to math/rand.
func Delay(attempt int, base time.Duration, mode BackoffMode) time.Duration {
	return delayWithJitter(attempt, base, mode, rand.Float64)
}

// delayWithJitter is the testable core: jitter in [0, 0.5) of base is added
// only in exponential mode.
func delayWithJitter(attempt int, base time.Duration, mode BackoffMode, jitter func() float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	switch mode {
	case BackoffExponential:
		d := base
		for i := 1; i < attempt; i++ {
			d *= 2
		}
		return d + time.Duration(jitter()*0.5*float64(base))
	default:
		return base
	}
}
