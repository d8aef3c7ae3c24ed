/*
Package resilience provides a circuit breaker for external suggestion
providers.

# Overview

When a model endpoint keeps failing, repairs for the rest of the run should
degrade to "no suggestion" immediately instead of waiting out one timeout
per selector. The breaker tracks failures and short-circuits calls while
open.

# Usage

	breaker := resilience.New("suggest-openai", resilience.Settings{
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
	})

	err := breaker.Do(ctx, func(ctx context.Context) error {
		_, err := client.R().SetContext(ctx).Post(url)
		return err
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                          Open

Calls that end because the caller's context was cancelled do not count.
*/
package resilience
