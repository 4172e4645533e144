package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/fetchworks/lostandfound/game/app"
	"github.com/fetchworks/lostandfound/game/config"
	"github.com/fetchworks/lostandfound/game/model"
	"github.com/fetchworks/lostandfound/game/players"
	"github.com/fetchworks/lostandfound/game/records"
	"github.com/fetchworks/lostandfound/game/strand"
)

// Wire error codes.
const (
	codeBadRequest      = "badRequest"
	codeInvalidArgument = "invalidArgument"
	codeMapNotFound     = "mapNotFound"
	codeInvalidToken    = "invalidToken"
	codeUnknownToken    = "unknownToken"
	codeInvalidMethod   = "invalidMethod"
)

// RecordReader serves leaderboard pages.
type RecordReader interface {
	PlayersScore(ctx context.Context, start, maxItems int) ([]records.Record, error)
}

// Server is the HTTP front of the game: the /api/v1 tree plus static file
// serving for everything else.
type Server struct {
	app     *app.Application
	strand  *strand.Strand
	records RecordReader
	config  *config.Config
	router  *mux.Router
}

// NewServer wires the API routes. records may be nil when no database is
// configured; the records endpoint then serves an empty leaderboard.
func NewServer(a *app.Application, st *strand.Strand, rec RecordReader, cfg *config.Config, wwwRoot string) *Server {
	s := &Server{
		app:     a,
		strand:  st,
		records: rec,
		config:  cfg,
		router:  mux.NewRouter(),
	}
	s.setupRoutes(wwwRoot)
	return s
}

// setupRoutes configures the API tree and the static fallback.
func (s *Server) setupRoutes(wwwRoot string) {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/maps", s.handleMaps)
	api.HandleFunc("/maps/{id}", s.handleMap)
	api.HandleFunc("/game/join", s.handleJoin)
	api.HandleFunc("/game/players", s.handlePlayers)
	api.HandleFunc("/game/state", s.handleState)
	api.HandleFunc("/game/player/action", s.handleAction)
	api.HandleFunc("/game/tick", s.handleTick)
	api.HandleFunc("/game/records", s.handleRecords)

	// Anything else under the API prefix is a malformed request, not a
	// static path.
	api.PathPrefix("/").HandlerFunc(s.handleBadRequest)

	if wwwRoot != "" {
		s.router.PathPrefix("/").Handler(newStaticHandler(wwwRoot))
	} else {
		s.router.NotFoundHandler = http.HandlerFunc(s.handleBadRequest)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	lw := &loggingResponseWriter{ResponseWriter: w, status: http.StatusOK}
	s.router.ServeHTTP(lw, r)
	log.Printf("%s %s -> %d (%s)", r.Method, r.URL.Path, lw.status, time.Since(start))
}

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *loggingResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Response helpers

// respondJSON writes a JSON body. Every API response except the map
// listings carries Cache-Control: no-cache.
func respondJSON(w http.ResponseWriter, status int, data interface{}, cacheable bool) {
	w.Header().Set("Content-Type", "application/json")
	if !cacheable {
		w.Header().Set("Cache-Control", "no-cache")
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	}, false)
}

// allowMethods validates the request method, answering 405 with an Allow
// header otherwise. HEAD piggybacks on GET; net/http drops the body.
func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
		if m == http.MethodGet && r.Method == http.MethodHead {
			return true
		}
	}
	allow := strings.Join(methods, ", ")
	if methods[0] == http.MethodGet {
		allow = "GET, HEAD"
	}
	w.Header().Set("Allow", allow)
	respondError(w, http.StatusMethodNotAllowed, codeInvalidMethod,
		fmt.Sprintf("method %s is not allowed", r.Method))
	return false
}

func (s *Server) handleBadRequest(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusBadRequest, codeBadRequest, "Bad request")
}

// authorize parses the Authorization header, answering 401 itself when the
// header is missing or malformed. The token still has to be resolved to a
// player on the strand.
func authorize(w http.ResponseWriter, r *http.Request) (players.Token, bool) {
	token, ok := players.ParseBearerToken(r.Header.Get("Authorization"))
	if !ok {
		respondError(w, http.StatusUnauthorized, codeInvalidToken,
			"Authorization header is missing or malformed")
		return "", false
	}
	return token, true
}

// onStrand runs fn on the application strand, answering 503 when the
// request context expires before fn gets its turn.
func (s *Server) onStrand(w http.ResponseWriter, r *http.Request, fn func()) bool {
	if err := s.strand.Do(r.Context(), fn); err != nil {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrEmptyName):
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Invalid name")
	case errors.Is(err, app.ErrMapNotFound):
		respondError(w, http.StatusNotFound, codeMapNotFound, "Map not found")
	case errors.Is(err, app.ErrUnknownToken):
		respondError(w, http.StatusUnauthorized, codeUnknownToken, "Player token has not been found")
	case errors.Is(err, app.ErrInvalidDirection):
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Failed to parse action")
	case errors.Is(err, app.ErrInvalidTime):
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Failed to parse tick request JSON")
	case errors.Is(err, app.ErrExternalTicksDisabled):
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Invalid endpoint")
	default:
		respondError(w, http.StatusInternalServerError, codeBadRequest, err.Error())
	}
}

// Map Handlers

func (s *Server) handleMaps(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	type mapInfo struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	list := make([]mapInfo, 0)
	for _, m := range s.app.Maps() {
		list = append(list, mapInfo{ID: m.ID(), Name: m.Name()})
	}
	respondJSON(w, http.StatusOK, list, true)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	m := s.app.FindMap(mux.Vars(r)["id"])
	if m == nil {
		respondError(w, http.StatusNotFound, codeMapNotFound, "Map not found")
		return
	}
	respondJSON(w, http.StatusOK, s.mapPayload(m), true)
}

func (s *Server) mapPayload(m *model.Map) map[string]interface{} {
	roads := make([]map[string]int, 0, len(m.Roads()))
	for _, road := range m.Roads() {
		entry := map[string]int{"x0": road.Start().X, "y0": road.Start().Y}
		if road.IsHorizontal() {
			entry["x1"] = road.End().X
		} else {
			entry["y1"] = road.End().Y
		}
		roads = append(roads, entry)
	}

	buildings := make([]map[string]int, 0, len(m.Buildings()))
	for _, b := range m.Buildings() {
		buildings = append(buildings, map[string]int{
			"x": b.Bounds.Position.X,
			"y": b.Bounds.Position.Y,
			"w": b.Bounds.Size.Width,
			"h": b.Bounds.Size.Height,
		})
	}

	offices := make([]map[string]interface{}, 0, len(m.Offices()))
	for _, o := range m.Offices() {
		offices = append(offices, map[string]interface{}{
			"id":      o.ID,
			"x":       o.Position.X,
			"y":       o.Position.Y,
			"offsetX": o.Offset.DX,
			"offsetY": o.Offset.DY,
		})
	}

	payload := map[string]interface{}{
		"id":        m.ID(),
		"name":      m.Name(),
		"roads":     roads,
		"buildings": buildings,
		"offices":   offices,
	}
	if raw := s.config.LootTypes(m.ID()); raw != nil {
		payload["lootTypes"] = json.RawMessage(raw)
	}
	return payload
}

// Game Handlers

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	var req struct {
		UserName string `json:"userName"`
		MapID    string `json:"mapId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Join game request parse error")
		return
	}

	var res app.JoinResult
	var appErr error
	if !s.onStrand(w, r, func() {
		res, appErr = s.app.Join(req.UserName, req.MapID)
	}) {
		return
	}
	if appErr != nil {
		s.writeAppError(w, appErr)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"authToken": string(res.Token),
		"playerId":  res.PlayerID,
	}, false)
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	token, ok := authorize(w, r)
	if !ok {
		return
	}

	resp := make(map[string]interface{})
	var appErr error
	if !s.onStrand(w, r, func() {
		p, err := s.app.Authorize(token)
		if err != nil {
			appErr = err
			return
		}
		for _, sp := range s.app.SessionPlayers(p) {
			resp[strconv.FormatUint(sp.ID(), 10)] = map[string]string{
				"name": sp.Dog().Name(),
			}
		}
	}) {
		return
	}
	if appErr != nil {
		s.writeAppError(w, appErr)
		return
	}
	respondJSON(w, http.StatusOK, resp, false)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	token, ok := authorize(w, r)
	if !ok {
		return
	}

	playersState := make(map[string]interface{})
	objectsState := make(map[string]interface{})
	var appErr error
	if !s.onStrand(w, r, func() {
		p, err := s.app.Authorize(token)
		if err != nil {
			appErr = err
			return
		}
		for _, sp := range s.app.SessionPlayers(p) {
			dog := sp.Dog()
			bag := make([]map[string]int, 0, dog.BagCapacity())
			for _, item := range dog.BagItems() {
				bag = append(bag, map[string]int{"id": item.ID, "type": item.Type})
			}
			playersState[strconv.FormatUint(sp.ID(), 10)] = map[string]interface{}{
				"pos":   [2]float64{dog.Position().X, dog.Position().Y},
				"speed": [2]float64{dog.Speed().X, dog.Speed().Y},
				"dir":   dog.Direction().String(),
				"bag":   bag,
				"score": sp.Score(),
			}
		}
		for _, obj := range s.app.LostObjects(p) {
			objectsState[strconv.Itoa(obj.ID)] = map[string]interface{}{
				"type": obj.Type,
				"pos":  [2]float64{obj.Pos.X, obj.Pos.Y},
			}
		}
	}) {
		return
	}
	if appErr != nil {
		s.writeAppError(w, appErr)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"players":     playersState,
		"lostObjects": objectsState,
	}, false)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Invalid content type")
		return
	}
	token, ok := authorize(w, r)
	if !ok {
		return
	}
	var req struct {
		Move *string `json:"move"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Move == nil {
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Failed to parse action")
		return
	}

	var appErr error
	if !s.onStrand(w, r, func() {
		p, err := s.app.Authorize(token)
		if err != nil {
			appErr = err
			return
		}
		appErr = s.app.Action(p, *req.Move)
	}) {
		return
	}
	if appErr != nil {
		s.writeAppError(w, appErr)
		return
	}
	respondJSON(w, http.StatusOK, struct{}{}, false)
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	var req struct {
		TimeDelta *int64 `json:"timeDelta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TimeDelta == nil {
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Failed to parse tick request JSON")
		return
	}

	var appErr error
	if !s.onStrand(w, r, func() {
		appErr = s.app.ExternalTick(time.Duration(*req.TimeDelta) * time.Millisecond)
	}) {
		return
	}
	if appErr != nil {
		s.writeAppError(w, appErr)
		return
	}
	respondJSON(w, http.StatusOK, struct{}{}, false)
}

// Records Handler

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	start, maxItems, err := recordsPage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidArgument, err.Error())
		return
	}

	type recordInfo struct {
		Name     string `json:"name"`
		Score    int    `json:"score"`
		PlayTime int64  `json:"playTime"`
	}
	list := make([]recordInfo, 0)
	if s.records != nil {
		rows, err := s.records.PlayersScore(r.Context(), start, maxItems)
		if err != nil {
			switch {
			case errors.Is(err, records.ErrInvalidStart), errors.Is(err, records.ErrInvalidMaxItems):
				respondError(w, http.StatusBadRequest, codeInvalidArgument, err.Error())
			default:
				respondError(w, http.StatusInternalServerError, codeBadRequest, "records unavailable")
			}
			return
		}
		for _, row := range rows {
			list = append(list, recordInfo{
				Name:     row.Name,
				Score:    row.Score,
				PlayTime: int64(row.PlayTime.Seconds()),
			})
		}
	}
	respondJSON(w, http.StatusOK, list, false)
}

func recordsPage(r *http.Request) (start, maxItems int, err error) {
	start, maxItems = 0, records.DefaultMaxItems
	query := r.URL.Query()
	if v := query.Get("start"); v != "" {
		start, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid start value %q", v)
		}
	}
	if v := query.Get("maxItems"); v != "" {
		maxItems, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid maxItems value %q", v)
		}
	}
	if start < 0 {
		return 0, 0, fmt.Errorf("invalid start value %d", start)
	}
	if maxItems < 0 || maxItems > records.MaxItemsLimit {
		return 0, 0, fmt.Errorf("invalid maxItems value %d", maxItems)
	}
	return start, maxItems, nil
}
