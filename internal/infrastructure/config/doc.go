// Package config provides 12-factor configuration for the executive.
//
// Configuration is loaded from environment variables with defaults that
// boot the simulated machine against ./rootfs. CLI flags in cmd/kernel
// override individual values.
//
// Configuration Sections:
//   - Kernel: serial port, arena, timer, display, boot program
//   - Schemes: file root, HTTP client limits, random seed
//   - Logging: level and output format
//   - Monitor: HTTP and gRPC listener addresses
//
// Environment Variables:
//   - SERIAL_PORT, SERIAL_IRQ, BACKGROUND_URL, ARENA_BASE, ARENA_SIZE
//   - TIMER_INTERVAL, DISPLAY_WIDTH, DISPLAY_HEIGHT, PROGRAM
//   - FILE_ROOT, HTTP_TIMEOUT, HTTP_RETRIES, HTTP_RPS, HTTP_SANITIZE, RANDOM_SEED
//   - LOG_LEVEL, LOG_DEV
//   - MONITOR_ENABLED, MONITOR_ADDR, GRPC_ADDR, MONITOR_IRQ_RPS
package config
