// Package middleware provides the HTTP middleware for the kernel monitor.
//
//   - CORS: cross-origin access for browser dashboards
//   - RateLimit: per-IP token bucket limiting
//   - GlobalRateLimit: one bucket for every client, used in front of
//     interrupt injection so the idle loop cannot be flooded
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.POST("/irq/:line", middleware.GlobalRateLimit(cfg), handler)
package middleware
