package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/tic-tac-two/game/engine"
	"github.com/wricardo/tic-tac-two/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Tic-Tac-Two",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Tic-Tac-Two - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Get three of your pieces in a row inside the 3x3 active window of a 5x5 board.

AVAILABLE TOOLS:
- create_session: Create new game session
- list_sessions / get_session: Inspect sessions
- game_state: Board, window, turn and inventories
- place_piece: Place a piece inside the window
- move_window: Shift the window one step (after placing 3 pieces)
- move_piece: Move one of your pieces inside the window (after placing 3 pieces)
- ai_move: Let the built-in AI play the side to move
- reset_game: Start a new match in the session
- move_history: View past moves
- list_configs: List match presets
- describe_cell: Inspect one cell
- game_instructions: Full rules

NOTE: The 'intent' parameter on move tools serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func coordinateProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"minimum":     0,
		"maximum":     engine.BoardSize - 1,
		"description": description,
	}
}

func intentProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Brief explanation of the intent behind this move (serves as a rubber duck to help explain your reasoning)",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional preset selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Preset to use, e.g. classic, vs-ai, blitz (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, window, turn and piece inventories",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "place_piece",
		Description: "Place one of your pieces on an empty cell inside the active window",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"x":          coordinateProperty("Column of the target cell (0-based)"),
				"y":          coordinateProperty("Row of the target cell (0-based)"),
				"intent":     intentProperty(),
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handlePlacePiece)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_window",
		Description: "Move the active window's top-left corner one step in any of 8 directions. Available once you have placed at least 3 pieces.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"x":          coordinateProperty("New top-left column (0-2)"),
				"y":          coordinateProperty("New top-left row (0-2)"),
				"intent":     intentProperty(),
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handleMoveWindow)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_piece",
		Description: "Move one of your pieces inside the active window to an empty cell inside the window. Available once you have placed at least 3 pieces.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"from_x":     coordinateProperty("Column of your piece"),
				"from_y":     coordinateProperty("Row of your piece"),
				"to_x":       coordinateProperty("Column of the destination"),
				"to_y":       coordinateProperty("Row of the destination"),
				"intent":     intentProperty(),
			},
			Required: []string{"session_id", "from_x", "from_y", "to_x", "to_y"},
		},
	}, c.handleMovePiece)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "ai_move",
		Description: "Let the built-in AI play one move for the side to move",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleAIMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Start a new match in the session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get move history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available match presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Get the owner of a cell and whether it lies inside the active window",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"x":          coordinateProperty("Column of the cell (0-based)"),
				"y":          coordinateProperty("Row of the cell (0-based)"),
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// HTTPHandler answers single JSON-RPC messages posted to it
func (c *Client) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := c.mcpServer.HandleMessage(r.Context(), body)
		if response == nil {
			// Notifications have no response
			w.WriteHeader(http.StatusAccepted)
			return
		}

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	})
}

// apiError is a non-2xx answer from the REST API
type apiError struct {
	Status    int
	Message   string
	Reason    engine.Reason
	GameState *engine.GameState
}

func (e *apiError) Error() string {
	return e.Message
}

// Helper methods for API calls
func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error     string            `json:"error"`
			Reason    engine.Reason     `json:"reason"`
			GameState *engine.GameState `json:"game_state"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		apiErr := &apiError{
			Status:    resp.StatusCode,
			Message:   errResp.Error,
			Reason:    errResp.Reason,
			GameState: errResp.GameState,
		}
		if apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("API error: %d", resp.StatusCode)
		}
		return apiErr
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func stringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

// intArg accepts JSON numbers, which arrive as float64
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	default:
		return 0, false
	}
}

func requireInts(args map[string]interface{}, keys ...string) ([]int, error) {
	values := make([]int, 0, len(keys))
	for _, key := range keys {
		v, ok := intArg(args, key)
		if !ok {
			return nil, fmt.Errorf("missing or invalid integer argument %q", key)
		}
		values = append(values, v)
	}
	return values, nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	body := map[string]string{}
	if configID := stringArg(args, "config_id"); configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		outcome := engine.OutcomeOngoing
		if s.GameState != nil {
			outcome = s.GameState.Outcome
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Outcome: %s, Created: %s)\n",
			s.ID, s.ConfigName, outcome, s.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handlePlacePiece(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	coords, err := requireInts(args, "x", "y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return c.act(ctx, stringArg(args, "session_id"), service.Action{
		Type: service.ActionPlace,
		X:    coords[0],
		Y:    coords[1],
	})
}

func (c *Client) handleMoveWindow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	coords, err := requireInts(args, "x", "y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return c.act(ctx, stringArg(args, "session_id"), service.Action{
		Type: service.ActionMove,
		Move: &engine.Move{
			Kind: engine.MoveRelocateWindow,
			To:   engine.Position{X: coords[0], Y: coords[1]},
		},
	})
}

func (c *Client) handleMovePiece(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	coords, err := requireInts(args, "from_x", "from_y", "to_x", "to_y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return c.act(ctx, stringArg(args, "session_id"), service.Action{
		Type: service.ActionMove,
		Move: &engine.Move{
			Kind: engine.MoveRelocatePiece,
			From: &engine.Position{X: coords[0], Y: coords[1]},
			To:   engine.Position{X: coords[2], Y: coords[3]},
		},
	})
}

func (c *Client) handleAIMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.act(ctx, stringArg(request.GetArguments(), "session_id"), service.Action{Type: service.ActionAIMove})
}

// act submits an action and renders either the result or the rejection
func (c *Client) act(ctx context.Context, sessionID string, action service.Action) (*mcp.CallToolResult, error) {
	var result service.ActionResult
	err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/actions"), action, &result)

	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnprocessableEntity {
		return mcp.NewToolResultError(formatRejection(apiErr)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := stringArg(args, "session_id")

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  AI plays: %s", config.Name, config.ConfigID, config.Description, formatPlayers(config.AIPlayers))
		if config.TurnTimeLimitSeconds > 0 {
			fmt.Fprintf(&b, ", Turn limit: %ds", config.TurnTimeLimitSeconds)
		}
		b.WriteString("\n\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameInstructions), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	coords, err := requireInts(args, "x", "y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pos := engine.Position{X: coords[0], Y: coords[1]}

	if !pos.OnBoard() {
		return mcp.NewToolResultError(fmt.Sprintf("Coordinates (%d, %d) are out of bounds. The board is %dx%d (0-%d for both x and y)",
			pos.X, pos.Y, engine.BoardSize, engine.BoardSize, engine.BoardSize-1)), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(stringArg(args, "session_id"), "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(describeCell(&state, pos)), nil
}

const gameInstructions = `🎮 Tic-Tac-Two - Complete Instructions

GAME OBJECTIVE:
Line up three of your pieces (horizontal, vertical or diagonal) inside the active 3x3 window.

THE BOARD:
• 5x5 board, coordinates (x, y) with x the column and y the row, both 0-4
• The active window is a 3x3 region identified by its top-left corner (0-2, 0-2)
• The window starts at (1,1), covering the centre of the board
• Only lines fully inside the window count

PIECES:
• X moves first, then turns alternate
• Each player has 5 pieces

ON YOUR TURN, DO ONE OF:
1. place_piece - put a piece on an empty cell inside the window
2. move_window - shift the window's corner one step in any of 8 directions (stays on the board)
3. move_piece - move one of your pieces inside the window to an empty cell inside the window

Options 2 and 3 unlock once you have placed at least 3 pieces (2 or fewer left).

WINNING:
• After every move the window is checked for three in a row
• If only one player has a line, that player wins
• If both players have a line at once (possible after moving the window), the game is a tie
• Once the game is decided, only reset_game starts a new match

BOARD LEGEND (game_state):
• X / O - pieces
• .     - empty cell
• [ ]   - cells inside the active window

STRATEGY TIPS:
• Placing inside the window blocks the same cells your opponent wants
• Moving the window can reveal a line you built outside it, or hide the opponent's
• Watch for window moves that complete lines for both sides at once: that is a tie

Good luck!`

func formatPlayers(players []engine.Player) string {
	if len(players) == 0 {
		return "nobody"
	}
	names := make([]string, 0, len(players))
	for _, p := range players {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

func formatSessionInfo(session *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\nConfig: %s\nCreated: %s\nLast accessed: %s\n",
		session.ID, session.ConfigName,
		session.CreatedAt.Format(time.RFC3339), session.LastAccessedAt.Format(time.RFC3339))
	if session.MatchConfig != nil {
		fmt.Fprintf(&b, "AI plays: %s\n", formatPlayers(session.MatchConfig.AIPlayers))
	}
	if session.TurnDeadline != nil {
		fmt.Fprintf(&b, "Turn deadline: %s\n", session.TurnDeadline.Format(time.RFC3339))
	}
	b.WriteString("\n")
	b.WriteString(formatGameState(session.GameState))
	return b.String()
}

// formatBoard draws the board row by row with the active window bracketed
func formatBoard(state *engine.GameState) string {
	var b strings.Builder
	b.WriteString("   ")
	for x := 0; x < engine.BoardSize; x++ {
		fmt.Fprintf(&b, " %d ", x)
	}
	b.WriteString("\n")

	for y := 0; y < engine.BoardSize; y++ {
		fmt.Fprintf(&b, "%d  ", y)
		for x := 0; x < engine.BoardSize; x++ {
			pos := engine.Position{X: x, Y: y}
			mark := "."
			if p := state.Board.At(pos); p != engine.NoPlayer {
				mark = string(p)
			}
			if state.InWindow(pos) {
				fmt.Fprintf(&b, "[%s]", mark)
			} else {
				fmt.Fprintf(&b, " %s ", mark)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	switch state.Outcome {
	case engine.OutcomeXWins:
		b.WriteString("🎉 X WINS!\n")
	case engine.OutcomeOWins:
		b.WriteString("🎉 O WINS!\n")
	case engine.OutcomeTie:
		b.WriteString("🤝 TIE!\n")
	default:
		fmt.Fprintf(&b, "Turn: %s\n", state.CurrentPlayer)
	}

	fmt.Fprintf(&b, "Mode: %s\n", state.Mode)
	fmt.Fprintf(&b, "Window: (%d,%d)\n", state.Window.X, state.Window.Y)
	fmt.Fprintf(&b, "Pieces left: X=%d O=%d\n", state.XPiecesRemaining, state.OPiecesRemaining)
	if state.SelectedOrigin != nil {
		fmt.Fprintf(&b, "Selected piece: (%d,%d)\n", state.SelectedOrigin.X, state.SelectedOrigin.Y)
	}
	if !state.Outcome.IsTerminal() && state.PiecesRemaining(state.CurrentPlayer) <= engine.RelocationThreshold {
		b.WriteString("Relocation unlocked: move_window and move_piece are available\n")
	}
	b.WriteString("\n")
	b.WriteString(formatBoard(state))
	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s\n", state.Message)
	}
	return b.String()
}

func formatMove(move engine.Move) string {
	switch move.Kind {
	case engine.MovePlace:
		return fmt.Sprintf("placed at (%d,%d)", move.To.X, move.To.Y)
	case engine.MoveRelocateWindow:
		return fmt.Sprintf("moved the window to (%d,%d)", move.To.X, move.To.Y)
	default:
		if move.From != nil {
			return fmt.Sprintf("moved a piece (%d,%d) → (%d,%d)", move.From.X, move.From.Y, move.To.X, move.To.Y)
		}
		return fmt.Sprintf("moved a piece to (%d,%d)", move.To.X, move.To.Y)
	}
}

func formatActionResult(result *service.ActionResult) string {
	var b strings.Builder
	b.WriteString("✓ Move accepted\n")
	if result.Message != "" {
		fmt.Fprintf(&b, "%s\n", result.Message)
	}
	for _, move := range result.AIMoves {
		fmt.Fprintf(&b, "AI replied: %s\n", formatMove(move))
	}
	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatRejection(err *apiError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✗ Move rejected (%s): %s\n", err.Reason, err.Message)
	if err.GameState != nil {
		b.WriteString("\n")
		b.WriteString(formatGameState(err.GameState))
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (page %d/%d, %d total moves):\n\n", history.Page, history.TotalPages, history.TotalMoves)
	for _, entry := range history.Moves {
		move := engine.Move{Kind: entry.Action, From: entry.From, To: entry.To}
		fmt.Fprintf(&b, "#%d %s %s", entry.MoveNumber, entry.Player, formatMove(move))
		if entry.Outcome.IsTerminal() {
			fmt.Fprintf(&b, " [%s]", entry.Outcome)
		}
		b.WriteString("\n")
	}
	if history.HasNext {
		fmt.Fprintf(&b, "\nMore moves on page %d\n", history.Page+1)
	}
	return b.String()
}

func describeCell(state *engine.GameState, pos engine.Position) string {
	owner := "empty"
	if p := state.Board.At(pos); p != engine.NoPlayer {
		owner = string(p)
	}

	inWindow := state.InWindow(pos)
	var b strings.Builder
	fmt.Fprintf(&b, "Cell (%d,%d)\nOwner: %s\nInside active window: %t\n", pos.X, pos.Y, owner, inWindow)

	switch {
	case state.Outcome.IsTerminal():
		b.WriteString("The game is over; reset to play again\n")
	case !inWindow:
		b.WriteString("Not playable until the window covers it\n")
	case owner == "empty":
		b.WriteString("Available for place_piece or as a move_piece destination\n")
	case owner == string(state.CurrentPlayer):
		b.WriteString("Your piece; it can be moved once relocation is unlocked\n")
	default:
		b.WriteString("Opponent's piece\n")
	}
	return b.String()
}
