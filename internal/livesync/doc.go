// Package livesync keeps a set of resolved slots, an external target and a
// persistence adapter consistent.
//
// A Controller hydrates every slot once per (registry, target) pair, applying
// each value to the target as soon as it resolves, then accepts live updates
// which are applied immediately and written to storage in call order.
// Hydration runs are cancelled by generation: teardown bumps the generation
// and every mutation re-checks it under the controller lock, so a discarded
// run never touches the target or the value store.
package livesync
