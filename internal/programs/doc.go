// Package programs provides the items a session can hold.
//
// FileManager is the permanent item at index 0. Executor is a running
// program: it receives responses to its resource requests through
// single-use continuations, and may be driven by a JavaScript source
// evaluated with goja. Scripts reach the kernel only through the
// request(url, fn) binding, which issues the Session Request system call.
//
// Script globals:
//   - request(url, fn): fetch url; fn(response) runs once on completion
//   - console.log/info/warn/error: lines on the debug console
package programs
