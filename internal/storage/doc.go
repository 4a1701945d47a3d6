// Package storage provides the persistence adapters consumed by the sync
// core: an in-memory store, a device-local JSON file store, and a TTL
// read-through cache that can front any adapter (typically the remote HTTP
// client in package remote).
package storage
