package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/dbd-character-picker/internal/engine"
	"github.com/DoyleJ11/dbd-character-picker/internal/hub"
	"github.com/DoyleJ11/dbd-character-picker/internal/lobby"
	"github.com/DoyleJ11/dbd-character-picker/internal/types"
)

const (
	writeTimeout = 3 * time.Second
	readTimeout  = 5 * time.Minute
)

var errUnknownType = errors.New("unknown type")

func Handler(h *hub.Hub, logger *zap.Logger) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		lb := h.Get(code)
		if lb == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			logger.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		log := logger.With(zap.String("session", code), zap.String("client", clientID))

		out := make(chan lobby.Snapshot, 8)
		if !lb.Send(lobby.Join{ClientID: clientID, Outbox: out}) {
			conn.Close(websocket.StatusGoingAway, "session closed")
			return
		}
		defer lb.Send(lobby.Leave{ClientID: clientID})
		log.Debug("client joined")

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for snap := range out {
				if err := writeJSON(writeCtx, conn, toServerMessage(snap)); err != nil {
					log.Debug("write failed", zap.Error(err))
				}
			}
			// The session closed our outbox: it ended or dropped us.
			conn.Close(websocket.StatusGoingAway, "session closed")
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("read ended", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = writeJSON(r.Context(), conn, types.ServerMessage{Type: types.TypeError, Error: "bad json"})
				continue
			}

			cmd, err := toEngineCommand(cm)
			if err != nil {
				_ = writeJSON(r.Context(), conn, types.ServerMessage{Type: types.TypeError, Error: err.Error()})
				continue
			}

			if !lb.Send(lobby.FromClient{ClientID: clientID, Cmd: cmd}) {
				return
			}
		}
	}
}

func writeJSON(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}

func toServerMessage(snap lobby.Snapshot) types.ServerMessage {
	if snap.Err != nil {
		return types.ServerMessage{Type: types.TypeError, Version: snap.Version, State: &snap.State, Error: snap.Err.Error()}
	}
	return types.ServerMessage{Type: types.TypeStateSnapshot, Version: snap.Version, State: &snap.State, Events: snap.Events}
}

func toEngineCommand(m types.ClientMessage) (engine.Command, error) {
	var team engine.Team
	if m.Team != "" {
		t, err := engine.ParseTeam(m.Team)
		if err != nil {
			return engine.Command{}, err
		}
		team = t
	}

	switch engine.CommandType(m.Type) {
	case engine.CmdPick, engine.CmdToggleStrategy, engine.CmdClearExclusions:
		return engine.Command{Type: engine.CommandType(m.Type), Team: team}, nil
	case engine.CmdSetStrategy:
		s, err := engine.ParseStrategy(m.Strategy)
		if err != nil {
			return engine.Command{}, err
		}
		return engine.Command{Type: engine.CmdSetStrategy, Strategy: s}, nil
	case engine.CmdExclude, engine.CmdInclude:
		return engine.Command{Type: engine.CommandType(m.Type), Team: team, Name: m.Name, Index: m.Index}, nil
	default:
		return engine.Command{}, errUnknownType
	}
}
