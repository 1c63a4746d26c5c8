// Package module defines the driver/scheme objects the session registers at
// boot and the ordered registry that holds them.
//
// A module is polymorphic over three optional roles:
//   - IRQHandler: claims hardware interrupt lines
//   - SchemeResolver: claims a resource scheme and fetches identifiers
//   - Poller: advances asynchronous work from the idle loop
//
// Ownership queries (HandlesIRQ, OwnsScheme) must be idempotent and free of
// side effects; the registry calls them on every dispatch.
package module
