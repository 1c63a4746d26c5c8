// Package schemes holds the scheme modules a session resolves resource
// identifiers through, and the Base they share.
//
// A scheme module starts work in Fetch and queues the finished response
// with Complete; the response reaches the requester on the next idle-loop
// poll. A failed fetch is logged and never completed.
//
// Built-in schemes:
//   - file: files, directory listings and globs under a root directory
//   - http, https: remote documents through a rate-limited client
//   - memory: allocator statistics
//   - pci: devices found on the configuration bus
//   - random: samples from common distributions
package schemes
