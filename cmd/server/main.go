package main

import (
	"log"
	"net/http"
	"os"
	"strconv"

	"smartdrive/internal/files"
	"smartdrive/internal/rules"
	"smartdrive/internal/storage"
	"smartdrive/internal/thumbs"
	ws "smartdrive/internal/websocket"
)

// defaultMaxBytes is the advisory storage quota reported by /stats. It is
// never enforced.
const defaultMaxBytes = 10 << 30 // 10 GiB

// App is the main application struct
type App struct {
	files    *files.Service
	rules    *rules.Store
	db       *storage.DB
	hub      *ws.Hub
	maxBytes int64
}

func newApp(root, rulesPath, dbPath string, maxBytes int64) (*App, error) {
	ruleStore := rules.NewStore(rulesPath)

	svc, err := files.NewService(root, ruleStore, thumbs.NewGenerator())
	if err != nil {
		return nil, err
	}

	db, err := storage.InitDB(dbPath)
	if err != nil {
		return nil, err
	}

	hub := ws.NewHub()
	go hub.Run()

	return &App{
		files:    svc,
		rules:    ruleStore,
		db:       db,
		hub:      hub,
		maxBytes: maxBytes,
	}, nil
}

func (app *App) routes(mux *http.ServeMux) {
	mux.HandleFunc("/health", app.handleHealth)
	mux.HandleFunc("/upload", app.handleUpload)
	mux.HandleFunc("/files", app.handleFiles)
	mux.HandleFunc("/stats", app.handleStats)
	mux.HandleFunc("/view", app.handleView)
	mux.HandleFunc("/download", app.handleDownload)
	mux.HandleFunc("/download_folder", app.handleDownloadFolder)
	mux.HandleFunc("/delete", app.handleDelete)
	mux.HandleFunc("/rules", app.handleRules)
	mux.HandleFunc("/activity", app.handleActivity)
	mux.HandleFunc("/ws", app.handleWebSocket)
}

// withCORS allows the web UI to be served from a different origin, matching
// the permissive CORS the service has always exposed.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, HEAD, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	root := envOr("STORAGE_ROOT", "storage")
	rulesPath := envOr("RULES_PATH", "rules.json")
	dbPath := envOr("SMARTDRIVE_DB", "smartdrive.db")
	port := envOr("PORT", "8080")

	maxBytes := int64(defaultMaxBytes)
	if v := os.Getenv("MAX_STORAGE_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			log.Fatalf("Invalid MAX_STORAGE_BYTES %q", v)
		}
		maxBytes = n
	}

	app, err := newApp(root, rulesPath, dbPath, maxBytes)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer app.db.Close()

	mux := http.NewServeMux()
	app.routes(mux)

	log.Printf("SmartDrive server starting on http://localhost:%s (storage root %s)", port, app.files.Root)
	log.Fatal(http.ListenAndServe(":"+port, withCORS(mux)))
}
