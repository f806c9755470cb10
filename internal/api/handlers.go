package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kdimtricp/facewatch/internal/database"
	"github.com/kdimtricp/facewatch/internal/detect"
	"github.com/kdimtricp/facewatch/internal/protocol"
	"github.com/kdimtricp/facewatch/internal/storage"
)

// App holds the HTTP surface's collaborators. The engine is shared across
// requests; its implementation serializes access internally.
type App struct {
	Repo          *database.SessionRepo
	Engine        detect.Engine
	Storage       storage.Storage
	MaxUploadSize int64
}

type detectResponse struct {
	Success   bool            `json:"success"`
	Results   []detect.Report `json:"results"`
	Count     int             `json:"count"`
	SessionID string          `json:"session_id,omitempty"`
}

// DetectHandler runs batch detection over a JSON list of server-local image
// paths. The request body is the same document the CLI reads from stdin.
func (app *App) DetectHandler(w http.ResponseWriter, r *http.Request) {
	req, mode, err := protocol.Parse(r.Body)
	if err != nil {
		var fatal *protocol.FatalInputError
		if errors.As(err, &fatal) {
			writeJSONError(w, http.StatusBadRequest, fatal.Msg)
			return
		}
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if mode != protocol.ModeBatch {
		writeJSONError(w, http.StatusBadRequest, "watch mode is not available over HTTP; use the CLI")
		return
	}

	sessionID := ""
	if app.Repo != nil {
		rec := &database.SessionRecord{Mode: "batch", Source: "http", ConfThreshold: req.Conf()}
		if err := app.Repo.CreateSession(r.Context(), rec); err != nil {
			log.Printf("Failed to create session record: %v", err)
		} else {
			sessionID = rec.ID
		}
	}

	results := detect.RunBatch(r.Context(), app.Engine, req.ImagePaths, detect.BatchOptions{
		ConfThreshold: req.Conf(),
	})

	if app.Repo != nil && sessionID != "" {
		for i, report := range results {
			if err := app.Repo.RecordFrame(r.Context(), sessionID, i, report); err != nil {
				log.Printf("Failed to record frame %d: %v", i, err)
			}
		}
		if err := app.Repo.FinishSession(r.Context(), sessionID, len(results)); err != nil {
			log.Printf("Failed to finish session %s: %v", sessionID, err)
		}
	}

	writeJSON(w, http.StatusOK, detectResponse{
		Success:   true,
		Results:   results,
		Count:     len(results),
		SessionID: sessionID,
	})
}

// DetectUploadHandler runs detection on a single uploaded image. The file
// is staged to local storage for the engine exchange and removed afterwards.
func (app *App) DetectUploadHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, app.MaxUploadSize)
	if err := r.ParseMultipartForm(app.MaxUploadSize); err != nil {
		writeJSONError(w, http.StatusBadRequest, "file too large")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to get image file")
		return
	}
	defer file.Close()

	filename, err := app.Storage.SaveFile(file, storage.FileInfo{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	})
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to save image")
		return
	}
	defer func() {
		if err := app.Storage.DeleteFile(filename); err != nil {
			log.Printf("Failed to delete uploaded image %s: %v", filename, err)
		}
	}()

	path, err := app.Storage.Path(filename)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to resolve image path")
		return
	}

	report := detect.ProcessImage(r.Context(), app.Engine, path, confFromQuery(r))
	writeJSON(w, http.StatusOK, report)
}

func (app *App) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	sessions, err := app.Repo.ListSessions(r.Context(), 0)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []*database.SessionRecord{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (app *App) SessionFramesHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	session, err := app.Repo.GetSession(r.Context(), id)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if session == nil {
		writeJSONError(w, http.StatusNotFound, "session not found")
		return
	}

	frames, err := app.Repo.GetFrames(r.Context(), id)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to load frame results")
		return
	}
	if frames == nil {
		frames = []*database.FrameRecord{}
	}

	writeJSON(w, http.StatusOK, struct {
		Session *database.SessionRecord `json:"session"`
		Frames  []*database.FrameRecord `json:"frames"`
	}{session, frames})
}

func confFromQuery(r *http.Request) float64 {
	conf := detect.DefaultConfThreshold
	if v := r.URL.Query().Get("conf_thresh"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 && parsed <= 1 {
			conf = parsed
		}
	}
	return conf
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
