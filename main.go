// Command lostandfound starts the Lost and Found game server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing the REST API, static
//     frontend files, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API
//     if none is available
//
// Flags control host/port, the world config file, the tick period, state
// snapshots, and optional ngrok tunneling for easy external access during
// development.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/fetchworks/lostandfound/api"
	"github.com/fetchworks/lostandfound/game/app"
	"github.com/fetchworks/lostandfound/game/config"
	"github.com/fetchworks/lostandfound/game/records"
	"github.com/fetchworks/lostandfound/game/state"
	"github.com/fetchworks/lostandfound/game/strand"
	"github.com/fetchworks/lostandfound/transport/mcp"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Lost and Found Game Server"
)

// Configuration flags control how the server starts and which services are enabled.
var (
	port            = flag.Int("port", 8080, "HTTP server port")
	host            = flag.String("host", "localhost", "HTTP server host")
	configFile      = flag.String("config-file", getConfigFileDefault(), "Path to the world configuration JSON")
	wwwRoot         = flag.String("www-root", "", "Directory with static frontend files (empty disables)")
	tickPeriod      = flag.Int64("tick-period", 0, "Automatic tick period in milliseconds (0 enables the /game/tick endpoint instead)")
	randomizeSpawns = flag.Bool("randomize-spawn-points", false, "Spawn dogs at random road positions instead of the first road start")
	stateFile       = flag.String("state-file", "", "Path for world state snapshots (empty disables persistence)")
	savePeriod      = flag.Int64("save-state-period", 0, "Snapshot period in milliseconds (0 saves only on shutdown)")
	debug           = flag.Bool("debug", false, "Enable debug logging")
	version         = flag.Bool("version", false, "Show version information")
	ngrokEnabled    = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth       = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain     = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

// getConfigFileDefault returns the default world configuration path.
// It first honors the CONFIG_FILE environment variable, then falls back to
// "data/config.json".
func getConfigFileDefault() string {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return path
	}
	return "data/config.json"
}

// getDatabaseDSN returns the leaderboard database location, honoring the
// GAME_DB_URL environment variable.
func getDatabaseDSN() string {
	if dsn := os.Getenv("GAME_DB_URL"); dsn != "" {
		return dsn
	}
	return "records.db"
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, static files, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio        Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "  mcp              Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                  # Run HTTP server on default port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -tick-period 100                 # Run with a 100 ms internal clock\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -state-file game.state           # Persist the world across restarts\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp                        # Run MCP stdio server\n", os.Args[0])
	}
}

// services holds the wired game stack shared by both run modes.
type services struct {
	cfg    *config.Config
	app    *app.Application
	strand *strand.Strand
	saver  *state.Saver // nil when persistence is disabled
	repo   *records.Repository
}

// main parses flags, initializes services, and starts the selected mode.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	flag.Parse()

	// Show version if requested
	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	// Setup logging
	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	// Determine mode from command
	args := flag.Args()
	mode := "server" // default
	if len(args) > 0 {
		mode = args[0]
	}

	log.Printf("Starting %s v%s (mode: %s)", AppName, Version, mode)

	svc, err := initializeServices()
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		runStdioMCPWithInternalServer(svc)

	case "server", "http":
		runHTTPServer(svc)

	default:
		log.Fatalf("Unknown mode: %s. Use 'server' (default) or 'stdio-mcp'", mode)
	}
}

// initializeServices loads the world configuration, opens the leaderboard
// database, assembles the application, and restores a saved snapshot when
// one is configured.
func initializeServices() (*services, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", *configFile, err)
	}

	game, err := cfg.BuildGame()
	if err != nil {
		return nil, fmt.Errorf("failed to build game world: %w", err)
	}

	repo, err := records.Open(getDatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open records database: %w", err)
	}

	application := app.New(app.Options{
		Game:            game,
		Records:         repo,
		LootPeriod:      cfg.LootPeriod,
		LootProbability: cfg.LootProbability,
		RetirementTime:  cfg.DogRetirementTime,
		RandomizeSpawn:  *randomizeSpawns,
		AutoTick:        *tickPeriod > 0,
	})

	svc := &services{
		cfg:    cfg,
		app:    application,
		strand: strand.New(),
		repo:   repo,
	}

	if *stateFile != "" {
		period := time.Duration(*savePeriod) * time.Millisecond
		svc.saver = state.NewSaver(application, *stateFile, period)
		if err := svc.saver.Restore(); err != nil {
			return nil, fmt.Errorf("failed to restore state from %s: %w", *stateFile, err)
		}
		if period > 0 {
			application.OnTick(svc.saver.HandleTick)
		}
	}

	return svc, nil
}

// shutdown persists the world and releases the game stack. It must run after
// all HTTP traffic has drained.
func (svc *services) shutdown() {
	if svc.saver != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.strand.Do(ctx, func() {
			if err := svc.saver.Save(); err != nil {
				log.Printf("Failed to save final state: %v", err)
			}
		})
		if err != nil {
			log.Printf("Failed to schedule final state save: %v", err)
		}
	}
	svc.strand.Close()
	if err := svc.repo.Close(); err != nil {
		log.Printf("Failed to close records database: %v", err)
	}
}

// runTicker drives the simulation clock. Each firing measures the real
// elapsed time and posts a tick onto the strand, so wall-clock hiccups never
// desynchronize the world.
func runTicker(ctx context.Context, svc *services, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			delta := now.Sub(last)
			last = now
			err := svc.strand.Post(func() {
				if err := svc.app.Tick(delta); err != nil {
					log.Printf("Tick failed: %v", err)
				}
			})
			if err != nil {
				return
			}
		}
	}
}

// runHTTPServer starts the HTTP server with the REST API, static files, and
// an /mcp proxy endpoint. If ngrok is enabled (via flag or environment), it
// also provisions a public tunnel.
func runHTTPServer(svc *services) {
	apiServer := api.NewServer(svc.app, svc.strand, svc.repo, svc.cfg, *wwwRoot)

	// Setup HTTP server address
	addr := fmt.Sprintf("%s:%d", *host, *port)

	// Create MCP client for /mcp endpoint
	baseURL := fmt.Sprintf("http://%s", addr)
	mcpClient := mcp.NewClient(baseURL)

	// Create main router that combines API and MCP
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Setup graceful shutdown context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	// Start the internal clock when configured
	if *tickPeriod > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runTicker(ctx, svc, time.Duration(*tickPeriod)*time.Millisecond)
		}()
		log.Printf("Internal clock running every %d ms", *tickPeriod)
	} else {
		log.Printf("Testing mode: advance time via POST /api/v1/game/tick")
	}

	// Start regular HTTP server
	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api/v1", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Check if ngrok should be enabled (from flag or environment)
	ngrokShouldRun := *ngrokEnabled
	if !ngrokShouldRun {
		if envEnabled := os.Getenv("NGROK_ENABLED"); envEnabled == "true" || envEnabled == "1" {
			ngrokShouldRun = true
		}
	}

	// Start ngrok tunnel if enabled
	if ngrokShouldRun {
		wg.Add(1)
		go func() {
			defer wg.Done()

			authToken := *ngrokAuth
			if authToken == "" {
				authToken = os.Getenv("NGROK_AUTHTOKEN")
			}
			if authToken == "" {
				log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN env var)")
				return
			}

			log.Println("Starting ngrok tunnel...")

			domain := *ngrokDomain
			if domain == "" {
				domain = os.Getenv("NGROK_DOMAIN")
			}

			var tunnel ngrokConfig.Tunnel
			if domain != "" {
				tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
				log.Printf("Using custom ngrok domain: %s", domain)
			} else {
				tunnel = ngrokConfig.HTTPEndpoint()
			}

			tun, err := ngrok.Listen(ctx,
				tunnel,
				ngrok.WithAuthtoken(authToken),
			)
			if err != nil {
				log.Printf("Failed to start ngrok tunnel: %v", err)
				return
			}
			defer func() {
				if err := tun.Close(); err != nil {
					log.Printf("Failed to close ngrok tunnel: %v", err)
				}
			}()

			ngrokURL := tun.URL()
			log.Printf("Ngrok tunnel established: %s", ngrokURL)
			log.Printf("  REST API (ngrok): %s/api/v1", ngrokURL)
			log.Printf("  Game UI (ngrok): %s/", ngrokURL)

			if err := http.Serve(tun, mainRouter); err != nil && err != http.ErrServerClosed {
				log.Printf("Ngrok server error: %v", err)
			}
			log.Println("Ngrok tunnel closed")
		}()
	}

	// Wait for shutdown signal
	sig := <-stop
	log.Printf("Received signal: %v. Shutting down...", sig)
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Wait for all goroutines to finish
	wg.Wait()

	svc.shutdown()
	log.Println("Server stopped")
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at http://localhost:8080; if unavailable,
// it starts a minimal internal HTTP API bound to a random loopback port and
// targets that.
func runStdioMCPWithInternalServer(svc *services) {
	var baseURL string

	// First, try to connect to external API server at localhost:8080
	externalURL := "http://localhost:8080"
	log.Printf("Checking for external API server at %s...", externalURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/v1/maps")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Printf("External API server found at %s, using it for MCP", externalURL)
		baseURL = externalURL
	} else {
		// No external server found, start internal one
		log.Printf("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			log.Fatalf("Failed to get available port: %v", err)
		}

		internalPort := listener.Addr().(*net.TCPAddr).Port
		internalAddr := fmt.Sprintf("127.0.0.1:%d", internalPort)

		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		apiServer := api.NewServer(svc.app, svc.strand, svc.repo, svc.cfg, *wwwRoot)
		httpServer := &http.Server{
			Handler: apiServer,
		}

		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()

		if *tickPeriod > 0 {
			go runTicker(context.Background(), svc, time.Duration(*tickPeriod)*time.Millisecond)
		}

		// Wait a moment for the server to be ready
		time.Sleep(100 * time.Millisecond)

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	// Create MCP client pointing to the selected server
	mcpClient := mcp.NewClient(baseURL)

	if baseURL == externalURL {
		log.Println("MCP stdio server ready (using external HTTP server)")
	} else {
		log.Println("MCP stdio server ready (using internal HTTP server)")
	}

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		log.Fatalf("MCP stdio server error: %v", err)
	}
}
