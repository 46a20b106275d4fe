// Package observe provides entity lifecycle observers: a zap logger that records every
// transition and a prometheus collector that counts them per store.
//
// Both implement entity.Observer and are attached with ir.Options.Observers or
// Module.Subscribe.
package observe
