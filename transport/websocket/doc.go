// Package websocket pushes live Tic-Tac-Two session updates to browsers.
//
// A central Hub owns every connection. Each client is subscribed to exactly
// one session and receives:
//   - state_update messages carrying the full GameState after each change
//   - game_events messages carrying the events an action produced
//   - session_deleted when the session goes away
//
// Clients never act over the socket; moves go through the REST API and the
// resulting state is fanned out here.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	hub.ServeWS(w, r, sessionID, initialState)
//	hub.BroadcastToSession(sessionID, state)
//
// Broadcasts are queued and never block the caller. A client whose send
// buffer is full is disconnected.
package websocket
