package lobby

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/dbd-character-picker/internal/engine"
	"github.com/DoyleJ11/dbd-character-picker/internal/metrics"
)

type Msg interface{ isLobbyMsg() }

type FromClient struct {
	ClientID string // errors are reported to this client only
	Cmd      engine.Command
}

func (FromClient) isLobbyMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

// Snapshot is what clients receive. A snapshot with Err set is only sent to
// the client whose command failed; its State is the unchanged state.
type Snapshot struct {
	Version int
	State   engine.View
	Events  []engine.Event
	Err     error
}

type View struct {
	Version    int
	NumClients int
	State      engine.View
}

// Lobby is one picker session. Its engine is only touched by the loop
// goroutine.
type Lobby struct {
	inbox   chan Msg
	eng     *engine.Engine
	version int
	clients map[string]chan Snapshot
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	logger  *zap.Logger
	metrics *metrics.Metrics
}

type Option func(*Lobby)

func WithLogger(logger *zap.Logger) Option {
	return func(l *Lobby) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Lobby) { l.metrics = m }
}

// NewLobby starts a session that takes ownership of eng.
func NewLobby(parent context.Context, eng *engine.Engine, opts ...Option) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	l := &Lobby{
		inbox:   make(chan Msg, 64), // Small buffer
		eng:     eng,
		version: 0,
		clients: make(map[string]chan Snapshot),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				// Register client + send current snapshot immediately
				l.clients[msg.ClientID] = msg.Outbox
				l.metrics.ClientJoined()
				msg.Outbox <- Snapshot{Version: l.version, State: l.eng.View()}

			case Leave:
				if ch, ok := l.clients[msg.ClientID]; ok {
					close(ch)
					delete(l.clients, msg.ClientID)
					l.metrics.ClientLeft()
				}

			case FromClient:
				events, err := engine.Apply(l.eng, msg.Cmd)
				if err != nil {
					l.logger.Info("command refused",
						zap.String("client", msg.ClientID),
						zap.String("command", string(msg.Cmd.Type)),
						zap.Error(err))
					l.metrics.ObserveError(string(msg.Cmd.Type))
					l.reply(msg.ClientID, Snapshot{Version: l.version, State: l.eng.View(), Err: err})
					break
				}
				for _, ev := range events {
					if ev.Type == engine.EvtCharacterPicked {
						l.metrics.ObservePick(string(ev.Team), string(ev.Strategy))
						l.logger.Debug("picked", zap.String("team", string(ev.Team)), zap.String("name", ev.Name))
					}
				}
				if len(events) == 0 {
					// nothing changed, e.g. setting the current strategy
					break
				}
				l.version++
				l.broadcast(Snapshot{Version: l.version, State: l.eng.View(), Events: events})

			case GetState:
				msg.Reply <- View{
					Version:    l.version,
					NumClients: len(l.clients),
					State:      l.eng.View(),
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) shutdown() {
	for id, ch := range l.clients {
		close(ch) // Tell client no more snapshots
		delete(l.clients, id)
		l.metrics.ClientLeft()
	}
	l.cancel()
}

func (l *Lobby) reply(clientID string, snap Snapshot) {
	ch, ok := l.clients[clientID]
	if !ok {
		return
	}
	select {
	case ch <- snap:
	default:
		l.drop(clientID, ch)
	}
}

func (l *Lobby) broadcast(snap Snapshot) {
	for id, ch := range l.clients {
		select {
		case ch <- snap:
			//ok
		default:
			l.drop(id, ch)
		}
	}
}

// drop disconnects a client whose outbox is full.
func (l *Lobby) drop(id string, ch chan Snapshot) {
	l.logger.Info("dropping slow client", zap.String("client", id))
	close(ch)
	delete(l.clients, id)
	l.metrics.ClientLeft()
}

// Send delivers m to the session. It reports false once the session has
// stopped.
func (l *Lobby) Send(m Msg) bool {
	// A stopped loop leaves buffer room in inbox, so done must win.
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.inbox <- m:
		return true
	case <-l.done:
		return false
	}
}

// State fetches the current view, or false if the session has stopped.
func (l *Lobby) State(ctx context.Context) (View, bool) {
	reply := make(chan View, 1)
	if !l.Send(GetState{Reply: reply}) {
		return View{}, false
	}
	select {
	case v := <-reply:
		return v, true
	case <-l.done:
		return View{}, false
	case <-ctx.Done():
		return View{}, false
	}
}

// Done is closed when the session loop has exited.
func (l *Lobby) Done() <-chan struct{} { return l.done }
