// Package main runs the executive on the simulated machine.
//
// Startup:
//   - Load configuration from the environment (12-factor), then apply
//     CLI flag overrides
//   - Build the machine: PCI devices, periodic timer, stdin wired to the
//     serial port
//   - Create the kernel with the default boot sequence and raise the boot
//     vector
//   - Serve the monitor (HTTP + gRPC health) when enabled
//
// Usage:
//
//	# Boot with the rootfs in ./rootfs and run a script
//	./kernel -root ./rootfs -program file:///init.js
//
//	# Development mode (colored logs, debug level)
//	./kernel -dev
//
// Signals:
//   - SIGINT, SIGTERM: stop the idle loop and shut the monitor down
package main
