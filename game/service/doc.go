// Package service provides the business logic layer for the Tic-Tac-Two server.
//
// The service package implements:
//   - Multi-session game management
//   - Match presets (human vs human, vs AI, AI vs AI)
//   - Action dispatch and automatic AI replies
//   - Turn clocks that expire into AI moves
//   - Paginated move history
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages match preset loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session owns its own engine instance; the service
// serializes access to them and persists sessions after every change.
//
// Usage:
//
//	sessionMgr := session.NewManager(logger)
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr, logger)
//
//	info, err := gameService.CreateSession(ctx, "vs-ai")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Act(ctx, info.ID, service.Action{Type: service.ActionPlace, X: 2, Y: 2})
//	if !result.Success {
//		log.Printf("rejected: %s", result.Reason)
//	}
//
// Rule violations are reported through ActionResult.Reason; only missing
// sessions, unknown actions and storage failures surface as errors.
package service
