// Package otapatch holds process-wide plumbing shared by the otapatch
// command: an interruptible top-level context and an at-exit hook registry.
// The actual update engine lives under internal/.
package otapatch
