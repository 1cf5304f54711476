// Package reactive implements the fine-grained dependency-tracking state
// engine: reactive containers (Object, Array), dependency nodes (Dep),
// computation nodes (Watcher), and the batching scheduler.
//
// Reads performed while a Watcher evaluates subscribe it to the deps they
// touch; a mutation notifies exactly the watchers whose last evaluation
// read the mutated state. Async watchers are deduplicated and flushed in
// creation order at the tick boundary (the end of the outermost Batch, or
// an explicit Flush by the host's event loop).
//
// Known limitation, by contract: a key added to an observed Object after
// creation is reactive only when added through the package-level Set,
// which defines the binder and notifies the container's own dep. Plain
// writes to missing keys are stored untracked.
package reactive
