/*
Package monitor exposes a running kernel to the host.

HTTP routes (gin):

	GET  /health          liveness plus boot state
	GET  /session         snapshot of items, focus, modules and background
	GET  /console         retained diagnostic lines
	GET  /console/stream  websocket carrying every new diagnostic line
	GET  /metrics         Prometheus exposition
	POST /irq/:line       raise a hardware interrupt line (rate limited)

A gRPC health service reports NOT_SERVING until the boot vector has
finished and SERVING afterwards.

Every read of session state goes through Kernel.Exclusive, so handlers
never observe the session while a trap is running.
*/
package monitor
