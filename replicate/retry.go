// Copyright 2025 Coursehound Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package replicate

import (
	"context"
	"math/rand/v2"
	"time"
)

// Backoff is the retry policy for remote catalog and embedding calls:
// a bounded number of attempts with exponentially growing, jittered
// waits between them.
type Backoff struct {
	Attempts int           // total attempts, including the first
	Base     time.Duration // wait before the second attempt
}

// Do runs op until it succeeds, the attempt budget is spent, or ctx
// ends. The wait doubles after each failure, widened by up to half
// again in random jitter so replicas retrying in lockstep spread out.
// When the budget runs out the last attempt's error is returned.
func (b Backoff) Do(ctx context.Context, op func(context.Context) error) error {
	if b.Attempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	wait := b.Base
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		if attempt == b.Attempts {
			return err
		}

		if sleepErr := sleepCtx(ctx, jitter(wait)); sleepErr != nil {
			return sleepErr
		}
		wait *= 2
	}
}

// jitter widens a wait by up to 50%.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	return d + rand.N(d/2+1)
}
