// Package api provides the HTTP REST API for the Tic-Tac-Two server.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session ({"config_id": "vs-ai"}, empty body for classic)
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/unified - Several sessions at once (?sessionIds=a,b or ?configName=x)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current game state
//   - POST /api/sessions/{id}/actions - Submit an action for the side to move
//   - POST /api/sessions/{id}/ai-move - Let the AI play the side to move
//   - POST /api/sessions/{id}/reset - Start a new match in the session
//   - GET /api/sessions/{id}/history - Move history (?page=1&limit=20&order=desc)
//
// Configuration:
//   - GET /api/configs - List match presets
//   - GET /api/configs/{name} - Get a preset
//   - POST /api/configs - Save a preset ({"config_id": "quick", "name": ..., "ai_players": ["O"]})
//
// Other:
//   - GET /api/health - Liveness and session counts
//   - GET /ws?session={id} - WebSocket stream of state updates
//
// Actions are sent as JSON:
//
//	{"type": "place", "x": 2, "y": 2}
//	{"type": "toggle_window_mode"}
//	{"type": "relocate_window", "x": 2, "y": 1}
//	{"type": "toggle_piece_mode"}
//	{"type": "select_piece", "x": 1, "y": 1}
//	{"type": "relocate_piece", "from": {"x": 1, "y": 1}, "x": 3, "y": 2}
//	{"type": "ai_move"}
//
// Error Handling:
//
// Errors are returned as {"error": "message"}. Unknown sessions and presets
// answer 404, malformed requests and unknown action types 400. An action the
// rules refuse answers 422 with the reason code and the unchanged state:
//
//	{
//	  "error": "cell already has a piece in it",
//	  "reason": "cell_occupied",
//	  "game_state": {...}
//	}
package api
