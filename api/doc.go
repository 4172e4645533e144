// Package api provides the HTTP surface of the lost-and-found game server.
//
// The api package implements:
//   - The /api/v1 REST tree (maps, join, players, state, action, tick, records)
//   - Bearer-token authentication for the game endpoints
//   - Static file serving for every path outside /api
//
// Endpoints:
//
// Maps:
//   - GET /api/v1/maps - List map ids and names
//   - GET /api/v1/maps/{id} - Full map description with loot types
//
// Game:
//   - POST /api/v1/game/join - Enter the game, returns an auth token
//   - GET /api/v1/game/players - Names of players sharing the session
//   - GET /api/v1/game/state - Positions, bags, scores and lost objects
//   - POST /api/v1/game/player/action - Set or clear movement direction
//   - POST /api/v1/game/tick - Advance simulated time (testing mode only)
//
// Leaderboard:
//   - GET /api/v1/game/records - Retired player results, best first
//
// Request/Response Format:
//
// All API endpoints speak JSON. Errors carry {"code", "message"} bodies;
// game endpoints require "Authorization: Bearer <token>" where the token is
// the 32-hex string issued by join. Every response except the map listings
// sets Cache-Control: no-cache.
//
// All world-mutating work is funneled through a single strand, so handlers
// never race the tick pipeline.
package api
