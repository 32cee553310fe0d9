package script

import (
	"fmt"
	"sync"
	"time"
)

// runOutcome is the internal type used to pass run results through channels.
type runOutcome struct {
	result *Result
	errors []EvalError
	err    error
}

// waitWithTimeout waits for an outcome from ch, but returns a timeout
// error if the evaluation exceeds limit. It uses a generation counter
// to discard stale results from previous evaluations.
//
// On timeout, the goroutine may still be running; the generation check
// ensures its result is discarded when it eventually completes.
func waitWithTimeout(
	ch <-chan runOutcome,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
	limit time.Duration,
) (*Result, []EvalError, error) {
	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			// A newer evaluation was started; discard this result.
			return nil, nil, fmt.Errorf("evaluation superseded by newer request")
		}

		return res.result, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("evaluation timed out after %s", limit)
	}
}
