// Package slots resolves declarative slot configuration into an immutable
// Registry.
//
// A slot is one independently persisted setting (a color, a font role, a
// spacing token). Each slot names the target property it drives, its default
// value and, optionally, the storage key it is persisted under. Slots come
// from two inputs:
//
//   - a baseline map of key -> default value, from which definitions are
//     derived through a naming Convention (primaryColor -> --primary-color);
//   - explicit slot configuration, which takes precedence over derived
//     entries with the same key.
//
// Storage keys are namespace/category/key. Without a namespace every derived
// slot is ephemeral: it hydrates to its default and is never written.
//
// Invalid slots are rejected one by one and reported through
// Registry.Warnings; resolution itself never fails.
package slots
