/*
Package monitoring provides Prometheus metrics for the executive.

# Overview

Collectors cover trap dispatch (by class, IRQ line, EOI controller,
system call number, exception vector), the session (requests by scheme
and outcome, delivered completions, live transfer handles, idle loop
iterations) and the monitor API.

Every Metrics owns a private registry; expose it with:

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))

A nil *Metrics is valid and records nothing.
*/
package monitoring
