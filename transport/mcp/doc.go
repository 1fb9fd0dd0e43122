// Package mcp exposes Tic-Tac-Two to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a request against the
// REST API, and the answer is rendered as text an agent can read, including
// the board with the active window bracketed:
//
//	    0  1  2  3  4
//	0   .  .  .  .  .
//	1   . [X][.][.] .
//	2   . [.][O][.] .
//	3   . [.][.][.] .
//	4   .  .  .  .  .
//
// MCP Tools:
//   - create_session, list_sessions, get_session
//   - game_state, describe_cell
//   - place_piece, move_window, move_piece, ai_move
//   - reset_game, move_history
//   - list_configs, game_instructions
//
// Moves the rules refuse come back as tool errors carrying the reason code
// and the unchanged board.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//
//	// Stdio mode
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP mode
//	router.Handle("/mcp", client.HTTPHandler())
package mcp
