package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"smartdrive/internal/files"
	"smartdrive/internal/models"
	"smartdrive/internal/rules"
	ws "smartdrive/internal/websocket"
)

const maxUploadMemory = 64 << 20

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // service is open by design, like the rest of the API
	},
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeErr(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (app *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "SmartDrive backend running!",
	})
}

func (app *App) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeErr(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	var uploads []*multipart.FileHeader
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["file"] {
			if fh.Filename != "" {
				uploads = append(uploads, fh)
			}
		}
	}
	if len(uploads) == 0 {
		writeErr(w, http.StatusBadRequest, "No file found")
		return
	}

	paths := make([]string, 0, len(uploads))
	failed := 0
	for _, fh := range uploads {
		f, err := fh.Open()
		if err != nil {
			log.Printf("Failed to open upload %s: %v", fh.Filename, err)
			failed++
			continue
		}
		info, err := app.files.Store(fh.Filename, f)
		f.Close()
		if err != nil {
			// One bad file must not abort its siblings.
			log.Printf("Failed to store %s: %v", fh.Filename, err)
			failed++
			continue
		}

		paths = append(paths, info.RelativePath)
		if err := app.db.LogActivity(models.ActionUpload, info.RelativePath, info.SizeBytes, clientIP(r)); err != nil {
			log.Printf("Failed to log upload: %v", err)
		}
		app.hub.Notify(ws.MSG_FILE_UPLOADED, info.RelativePath, info.Category)
	}

	if len(paths) == 0 {
		writeErr(w, http.StatusInternalServerError, "Failed to store file(s)")
		return
	}

	message := fmt.Sprintf("Uploaded %d file(s)", len(paths))
	if failed > 0 {
		message += fmt.Sprintf(", %d failed", failed)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": message,
		"paths":   paths,
	})
}

func (app *App) handleFiles(w http.ResponseWriter, r *http.Request) {
	infos, err := app.files.List()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "Failed to list files")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"files": infos})
}

func (app *App) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := app.files.Stats(app.maxBytes)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// resolveFile maps the "path" query parameter to an absolute path of an
// existing regular file, writing the error response itself when that fails.
func (app *App) resolveFile(w http.ResponseWriter, r *http.Request) (abs, rel string, ok bool) {
	rel = r.URL.Query().Get("path")
	if rel == "" {
		writeErr(w, http.StatusBadRequest, "Missing path")
		return "", "", false
	}

	abs, err := app.files.Resolve(rel)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "Invalid path")
		return "", "", false
	}

	fi, err := os.Stat(abs)
	if err != nil || !fi.Mode().IsRegular() {
		writeErr(w, http.StatusNotFound, "File not found")
		return "", "", false
	}
	return abs, rel, true
}

func (app *App) handleView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeErr(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	abs, _, ok := app.resolveFile(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filepath.Base(abs)))
	http.ServeFile(w, r, abs)
}

func (app *App) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeErr(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	abs, rel, ok := app.resolveFile(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet {
		fi, _ := os.Stat(abs)
		var size int64
		if fi != nil {
			size = fi.Size()
		}
		if err := app.db.LogActivity(models.ActionDownload, path.Clean(filepath.ToSlash(rel)), size, clientIP(r)); err != nil {
			log.Printf("Failed to log download: %v", err)
		}
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(abs)))
	http.ServeFile(w, r, abs)
}

func (app *App) handleDownloadFolder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	folder := r.URL.Query().Get("folder")
	if folder == "" {
		writeErr(w, http.StatusBadRequest, "Missing folder")
		return
	}
	if strings.ContainsAny(folder, `/\`) || folder == files.ThumbDirName {
		writeErr(w, http.StatusBadRequest, "Invalid folder")
		return
	}

	abs, err := app.files.Resolve(folder)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "Invalid folder")
		return
	}
	if fi, err := os.Stat(abs); err != nil || !fi.IsDir() {
		writeErr(w, http.StatusNotFound, "Folder not found")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", folder+".zip"))
	if err := app.files.WriteZip(w, folder); err != nil {
		// Headers are gone already; all we can do is log.
		log.Printf("Zip export of %s failed: %v", folder, err)
		return
	}

	if err := app.db.LogActivity(models.ActionDownload, folder+"/", 0, clientIP(r)); err != nil {
		log.Printf("Failed to log folder download: %v", err)
	}
}

func (app *App) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeErr(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	rel := r.URL.Query().Get("path")
	if rel == "" {
		writeErr(w, http.StatusBadRequest, "Missing path")
		return
	}

	err := app.files.Delete(rel)
	switch {
	case errors.Is(err, files.ErrInvalidPath):
		writeErr(w, http.StatusBadRequest, "Invalid path")
		return
	case errors.Is(err, files.ErrNotFound):
		writeErr(w, http.StatusNotFound, "File not found")
		return
	case err != nil:
		writeErr(w, http.StatusInternalServerError, "Failed to delete file")
		return
	}

	cleaned := path.Clean(strings.TrimLeft(filepath.ToSlash(rel), "/"))
	category := files.UncategorizedFolder
	if i := strings.Index(cleaned, "/"); i > 0 {
		category = cleaned[:i]
	}

	if err := app.db.LogActivity(models.ActionDelete, cleaned, 0, clientIP(r)); err != nil {
		log.Printf("Failed to log delete: %v", err)
	}
	app.hub.Notify(ws.MSG_FILE_DELETED, cleaned, category)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "File deleted",
	})
}

func (app *App) handleRules(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"custom_rules": app.rules.Load(),
		})

	case http.MethodPost:
		var req struct {
			Folder     string   `json:"folder"`
			Extensions []string `json:"extensions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, "Invalid payload")
			return
		}

		folder := strings.TrimSpace(req.Folder)
		if !rules.ValidFolder(folder) {
			writeErr(w, http.StatusBadRequest, "Invalid folder name")
			return
		}

		exts := make([]string, 0, len(req.Extensions))
		for _, e := range req.Extensions {
			if n := rules.NormalizeExt(e); n != "" {
				exts = append(exts, n)
			}
		}
		if len(exts) == 0 {
			writeErr(w, http.StatusBadRequest, "No valid extensions")
			return
		}

		rs := app.rules.Upsert(folder, exts)
		app.hub.Notify(ws.MSG_RULES_UPDATED, "", folder)

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":      true,
			"custom_rules": rs,
		})

	default:
		writeErr(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (app *App) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeErr(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	entries, err := app.db.RecentActivity(limit)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "Failed to read activity log")
		return
	}
	if entries == nil {
		entries = []*models.Activity{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"activity": entries})
}

func (app *App) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &ws.Client{Hub: app.hub, Conn: conn, Send: make(chan []byte, 256)}
	app.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
