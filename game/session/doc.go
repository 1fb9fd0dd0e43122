// Package session provides session management for the Tic-Tac-Two server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session persistence to disk or Redis
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Each session owns its own engine instance and metadata such as the preset
// it was created from, creation and last access times, and the turn deadline.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs for easy reference. Lookups are
// case-insensitive and generated IDs never collide with a live or persisted
// session.
//
// Persistence:
//
// FilePersistence writes one JSON document per session into a directory.
// RedisPersistence stores the same document under a key prefix, optionally
// with a TTL. Restoring a session validates the stored game state before the
// engine accepts it.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("sessions", configManager)
//	manager := session.NewManagerWithPersistence(persistence, logger)
//
//	sess, err := manager.Create("", "classic", configManager.GetDefault())
//	sess, err = manager.Get(sess.ID)
//
// Cleanup:
//
// CleanupExpiredSessions evicts idle sessions from memory only; persisted
// copies are reloaded on the next access. Delete removes both.
package session
