/*
Package resilience provides a circuit breaker for remote scheme backends.

The HTTP scheme consults a Breaker before each fetch. After Threshold
consecutive failures the breaker opens and fetches fail fast; once the
cooldown elapses a single probe is let through.

# Usage

	breaker := resilience.New("http", resilience.Settings{
		Threshold: 5,
		Cooldown:  30 * time.Second,
	})

	if err := breaker.Allow(); err != nil {
		return err
	}
	resp, err := client.Get(url)
	breaker.Record(err == nil)

# States

	Closed --[failures]-> Open --[cooldown]-> Half-Open --[success]-> Closed
	                                             |
	                                         [failure]
	                                             v
	                                            Open
*/
package resilience
