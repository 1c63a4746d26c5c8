// Package session holds the executive's single session: the ordered item
// list, the module registry, the focused item and the display.
//
// Session does no locking of its own. Every call happens inside the
// kernel's exclusive context, either from a trap handler or through
// Kernel.Exclusive.
//
// Dispatch:
//   - OnIRQ fans a hardware line out to the IRQ modules claiming it
//   - OnPoll advances every polling module; completed fetches are
//     delivered here
//   - Request routes a resource identifier to the first scheme module
//     owning its scheme, on behalf of the focused item
//
// Example Usage:
//
//	s := session.New(display.New(1024, 768), session.WithLogger(log))
//	_ = s.Modules().Register(fileScheme)
//	_ = s.Insert(0, programs.NewFileManager())
//	s.Focus(0)
//	s.Request(ctx, resource.MustParse("file:///background.bmp"), fn)
package session
