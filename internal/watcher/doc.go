// Package watcher provides debounced, recursive filesystem change
// notifications for docserve's watch mode.
//
// This package is internal to docserve. It wraps fsnotify, which only
// watches single directories, and adds:
//
//   - recursive registration, including directories created later
//   - filtering of hidden files, editor swap files, ignored path components
//     and excluded directories (such as the documentation output)
//   - debouncing: raw notifications are collected until the tree has been
//     quiet for the debounce window, then emitted as one [Event]
//   - coalescing: while the consumer is busy, further bursts are merged into
//     the single pending Event instead of being queued or dropped
//
// The Events channel is closed only when the watcher is closed or the
// underlying notification subsystem fails; [Watcher.Err] reports which.
package watcher
