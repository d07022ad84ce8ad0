package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/dbd-character-picker/internal/engine"
	"github.com/DoyleJ11/dbd-character-picker/internal/lobby"
	"github.com/DoyleJ11/dbd-character-picker/internal/metrics"
)

type HubMsg interface{ isHubMsg() }

// CreateLobby registers a session for Code. Engine must be a fresh instance;
// the session takes ownership of it. If Code is taken, the existing session
// is returned with Created false and Engine is discarded.
type CreateLobby struct {
	Code   string
	Engine *engine.Engine
	Reply  chan Created
}

type Created struct {
	Lobby   *lobby.Lobby
	Created bool
}

type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

// RemoveLobby stops and forgets a session. Reply, if set, reports whether
// it existed.
type RemoveLobby struct {
	Code  string
	Reply chan bool
}

type ShutdownHub struct{}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func (CreateLobby) isHubMsg() {}
func (GetLobby) isHubMsg()    {}
func (RemoveLobby) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

func NewHub(parent context.Context, logger *zap.Logger, m *metrics.Metrics) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		logger:  logger,
		metrics: m,
	}
	go h.loop()
	return h
}

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				if lb := h.lobbies[msg.Code]; lb != nil {
					msg.Reply <- Created{Lobby: lb}
					break
				}
				lb := lobby.NewLobby(h.ctx, msg.Engine,
					lobby.WithLogger(h.logger.With(zap.String("session", msg.Code))),
					lobby.WithMetrics(h.metrics))
				h.lobbies[msg.Code] = lb
				h.metrics.SessionOpened()
				h.logger.Info("session created", zap.String("session", msg.Code))
				msg.Reply <- Created{Lobby: lb, Created: true}

			case GetLobby:
				msg.Reply <- h.lobbies[msg.Code] // May be nil

			case RemoveLobby:
				lb, ok := h.lobbies[msg.Code]
				if ok {
					lb.Send(lobby.Shutdown{})
					delete(h.lobbies, msg.Code)
					h.metrics.SessionClosed()
					h.logger.Info("session removed", zap.String("session", msg.Code))
				}
				if msg.Reply != nil {
					msg.Reply <- ok
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for code, lb := range h.lobbies {
		lb.Send(lobby.Shutdown{})
		<-lb.Done()
		h.metrics.SessionClosed()
		delete(h.lobbies, code)
	}
	h.cancel()
}

// Send delivers m to the hub. It reports false once the hub has stopped.
func (h *Hub) Send(m HubMsg) bool {
	// A stopped loop leaves buffer room in inbox, so done must win.
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.inbox <- m:
		return true
	case <-h.done:
		return false
	}
}

// Get returns the session for code, or nil.
func (h *Hub) Get(code string) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	if !h.Send(GetLobby{Code: code, Reply: reply}) {
		return nil
	}
	select {
	case lb := <-reply:
		return lb
	case <-h.done:
		return nil
	}
}

// Create registers a session for code owning eng. created is false when
// code was already taken; the returned session is then the existing one.
func (h *Hub) Create(code string, eng *engine.Engine) (lb *lobby.Lobby, created bool) {
	reply := make(chan Created, 1)
	if !h.Send(CreateLobby{Code: code, Engine: eng, Reply: reply}) {
		return nil, false
	}
	select {
	case res := <-reply:
		return res.Lobby, res.Created
	case <-h.done:
		return nil, false
	}
}

// Remove stops the session for code and reports whether it existed.
func (h *Hub) Remove(code string) bool {
	reply := make(chan bool, 1)
	if !h.Send(RemoveLobby{Code: code, Reply: reply}) {
		return false
	}
	select {
	case ok := <-reply:
		return ok
	case <-h.done:
		return false
	}
}

// Done is closed once the hub and all of its sessions have stopped.
func (h *Hub) Done() <-chan struct{} { return h.done }
