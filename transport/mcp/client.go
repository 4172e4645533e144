package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
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
		baseURL: baseURL,
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
		"Lost and Found Game",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Lost and Found Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Your dog runs along the roads of a map, picks up lost objects and delivers
them to lost-and-found offices for points. A dog that stands still too long
retires and lands on the leaderboard.

AVAILABLE TOOLS:
- list_maps: List the available maps
- get_map: Full description of one map (roads, offices, loot types)
- join_game: Enter the game, returns your auth token
- list_players: Names of players sharing your session
- game_state: Positions, bags and scores in your session
- move: Set your dog's direction (U/D/L/R) or stop it
- tick: Advance game time (only when the server runs without auto-tick)
- records: The retirement leaderboard

Keep the auth token returned by join_game; every session tool needs it.`),
	)

	// Register all tools
	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_maps",
		Description: "List the available game maps",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListMaps)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_map",
		Description: "Get the full description of one map",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"map_id": map[string]interface{}{
					"type":        "string",
					"description": "Map id from list_maps",
				},
			},
			Required: []string{"map_id"},
		},
	}, c.handleGetMap)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "join_game",
		Description: "Join the game on a map and receive an auth token",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"user_name": map[string]interface{}{
					"type":        "string",
					"description": "Display name for your dog",
				},
				"map_id": map[string]interface{}{
					"type":        "string",
					"description": "Map id from list_maps",
				},
			},
			Required: []string{"user_name", "map_id"},
		},
	}, c.handleJoinGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_players",
		Description: "List the players in your session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"token": map[string]interface{}{
					"type":        "string",
					"description": "Auth token from join_game",
				},
			},
			Required: []string{"token"},
		},
	}, c.handleListPlayers)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get positions, bags, scores and lost objects in your session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"token": map[string]interface{}{
					"type":        "string",
					"description": "Auth token from join_game",
				},
			},
			Required: []string{"token"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Set your dog's direction or stop it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"token": map[string]interface{}{
					"type":        "string",
					"description": "Auth token from join_game",
				},
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"U", "D", "L", "R", ""},
					"description": "U, D, L, R, or empty string to stop",
				},
			},
			Required: []string{"token"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "tick",
		Description: "Advance game time by a number of milliseconds (testing mode only)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"time_delta_ms": map[string]interface{}{
					"type":        "number",
					"description": "Milliseconds of game time to simulate",
				},
			},
			Required: []string{"time_delta_ms"},
		},
	}, c.handleTick)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "records",
		Description: "Get the retirement leaderboard",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"start": map[string]interface{}{
					"type":        "number",
					"description": "Offset into the leaderboard (default 0)",
				},
				"max_items": map[string]interface{}{
					"type":        "number",
					"description": "Page size, at most 100 (default 100)",
				},
			},
		},
	}, c.handleRecords)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path, token string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["message"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

// Tool handlers

func (c *Client) handleListMaps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var maps []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := c.apiCall("GET", "/api/v1/maps", "", nil, &maps); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available maps:\n")
	for _, m := range maps {
		fmt.Fprintf(&b, "• %s: %s\n", m.ID, m.Name)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetMap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	mapID, _ := args["map_id"].(string)

	var payload map[string]interface{}
	if err := c.apiCall("GET", "/api/v1/maps/"+mapID, "", nil, &payload); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (c *Client) handleJoinGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	userName, _ := args["user_name"].(string)
	mapID, _ := args["map_id"].(string)

	var resp struct {
		AuthToken string `json:"authToken"`
		PlayerID  uint64 `json:"playerId"`
	}
	body := map[string]interface{}{"userName": userName, "mapId": mapID}
	if err := c.apiCall("POST", "/api/v1/game/join", "", body, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Joined map %s as player %d.\nAuth token: %s\nKeep the token for the session tools.",
		mapID, resp.PlayerID, resp.AuthToken)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListPlayers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	token, _ := args["token"].(string)

	var resp map[string]struct {
		Name string `json:"name"`
	}
	if err := c.apiCall("GET", "/api/v1/game/players", token, nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ids := make([]string, 0, len(resp))
	for id := range resp {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString("Players in your session:\n")
	for _, id := range ids {
		fmt.Fprintf(&b, "• #%s %s\n", id, resp[id].Name)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	token, _ := args["token"].(string)

	var resp struct {
		Players map[string]struct {
			Pos   []float64        `json:"pos"`
			Speed []float64        `json:"speed"`
			Dir   string           `json:"dir"`
			Bag   []map[string]int `json:"bag"`
			Score int              `json:"score"`
		} `json:"players"`
		LostObjects map[string]struct {
			Type int       `json:"type"`
			Pos  []float64 `json:"pos"`
		} `json:"lostObjects"`
	}
	if err := c.apiCall("GET", "/api/v1/game/state", token, nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Game state:\n\nPlayers:\n")
	playerIDs := make([]string, 0, len(resp.Players))
	for id := range resp.Players {
		playerIDs = append(playerIDs, id)
	}
	sort.Strings(playerIDs)
	for _, id := range playerIDs {
		p := resp.Players[id]
		fmt.Fprintf(&b, "• #%s at (%.2f, %.2f) dir=%s speed=(%.1f, %.1f) score=%d bag=%d items\n",
			id, p.Pos[0], p.Pos[1], p.Dir, p.Speed[0], p.Speed[1], p.Score, len(p.Bag))
	}

	b.WriteString("\nLost objects:\n")
	objectIDs := make([]string, 0, len(resp.LostObjects))
	for id := range resp.LostObjects {
		objectIDs = append(objectIDs, id)
	}
	sort.Strings(objectIDs)
	for _, id := range objectIDs {
		o := resp.LostObjects[id]
		fmt.Fprintf(&b, "• #%s type=%d at (%.2f, %.2f)\n", id, o.Type, o.Pos[0], o.Pos[1])
	}
	if len(resp.LostObjects) == 0 {
		b.WriteString("• none\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	token, _ := args["token"].(string)
	direction, _ := args["direction"].(string)

	body := map[string]interface{}{"move": direction}
	if err := c.apiCall("POST", "/api/v1/game/player/action", token, body, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if direction == "" {
		return mcp.NewToolResultText("Dog stopped."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Moving %s.", direction)), nil
}

func (c *Client) handleTick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	delta, _ := args["time_delta_ms"].(float64)

	body := map[string]interface{}{"timeDelta": int64(delta)}
	if err := c.apiCall("POST", "/api/v1/game/tick", "", body, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Advanced game time by %d ms.", int64(delta))), nil
}

func (c *Client) handleRecords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	params := ""
	if start, ok := args["start"].(float64); ok {
		params += fmt.Sprintf("start=%d&", int(start))
	}
	if maxItems, ok := args["max_items"].(float64); ok {
		params += fmt.Sprintf("maxItems=%d&", int(maxItems))
	}
	if params != "" {
		params = "?" + strings.TrimSuffix(params, "&")
	}

	var resp []struct {
		Name     string `json:"name"`
		Score    int    `json:"score"`
		PlayTime int64  `json:"playTime"`
	}
	if err := c.apiCall("GET", "/api/v1/game/records"+params, "", nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Retirement leaderboard:\n")
	for i, rec := range resp {
		fmt.Fprintf(&b, "%d. %s: %d points, %ds played\n", i+1, rec.Name, rec.Score, rec.PlayTime)
	}
	if len(resp) == 0 {
		b.WriteString("No retired players yet.\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}
