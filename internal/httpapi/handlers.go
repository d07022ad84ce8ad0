package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/dbd-character-picker/internal/config"
	"github.com/DoyleJ11/dbd-character-picker/internal/engine"
	"github.com/DoyleJ11/dbd-character-picker/internal/hub"
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// for tests, stub this to force code collisions
var generateCode = GenerateCode

type createSessionRequest struct {
	Team     string `json:"team"`
	Strategy string `json:"strategy"`
}

type sessionResponse struct {
	Code       string      `json:"code"`
	Version    int         `json:"version"`
	NumClients int         `json:"num_clients"`
	State      engine.View `json:"state"`
}

// CreateSession starts a session with its own engine built from settings.
// The optional body overrides the starting team and strategy.
func CreateSession(h *hub.Hub, settings config.Settings, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}

		cfg := settings.EngineConfig()
		if req.Team != "" {
			team, err := engine.ParseTeam(req.Team)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			cfg.ActiveTeam = team
		}
		if req.Strategy != "" {
			s, err := engine.ParseStrategy(req.Strategy)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			cfg.Strategy = s
		}

		eng, err := engine.New(cfg)
		if err != nil {
			logger.Error("building engine", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "invalid roster configuration")
			return
		}

		var code string
		for {
			c, err := generateCode()
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to generate code")
				return
			}
			lb, created := h.Create(c, eng)
			if lb == nil {
				writeError(w, http.StatusInternalServerError, "failed to create session")
				return
			}
			if created {
				code = c
				break
			}
			logger.Debug("collision on code, regenerating", zap.String("code", c))
		}

		writeJSON(w, http.StatusCreated, struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

func GetSession(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		lb := h.Get(code)
		if lb == nil {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		view, ok := lb.State(r.Context())
		if !ok {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{
			Code:       code,
			Version:    view.Version,
			NumClients: view.NumClients,
			State:      view.State,
		})
	}
}

func DeleteSession(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.Remove(chi.URLParam(r, "code")) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{Error: msg})
}
