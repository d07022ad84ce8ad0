package hub

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/DoyleJ11/dbd-character-picker/internal/engine"
	"github.com/DoyleJ11/dbd-character-picker/internal/lobby"
	"github.com/DoyleJ11/dbd-character-picker/internal/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.New(engine.Config{
		ActiveTeam: engine.TeamKiller,
		Strategy:   engine.StrategyRandom,
		Killers:    []string{"Hag", "Nurse", "Pig"},
		Survivors:  []string{"Dwight", "Jake", "Meg"},
	})
	require.NoError(t, err)
	return e
}

func waitDone(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for shutdown")
	}
}

func TestHub_Create_Get_SamePointer(t *testing.T) {
	h := NewHub(context.Background(), nil, nil)
	defer func() {
		h.Send(ShutdownHub{})
		waitDone(t, h.Done())
	}()

	lb1, created := h.Create("ZED123", newEngine(t))
	require.True(t, created)
	lb2 := h.Get("ZED123")
	require.NotNil(t, lb1)
	assert.Same(t, lb1, lb2)

	again, created := h.Create("ZED123", newEngine(t))
	assert.False(t, created, "a taken code is reported")
	assert.Same(t, lb1, again, "existing session is kept")
	assert.Nil(t, h.Get("NOPE00"))
}

func TestHub_Remove(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	h := NewHub(context.Background(), nil, m)
	defer func() {
		h.Send(ShutdownHub{})
		waitDone(t, h.Done())
	}()

	lb, _ := h.Create("ABC123", newEngine(t))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))

	assert.True(t, h.Remove("ABC123"))
	waitDone(t, lb.Done())
	assert.Nil(t, h.Get("ABC123"))
	assert.False(t, h.Remove("ABC123"))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveSessions))
}

func TestHub_ShutdownStopsSessions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(ctx, nil, nil)

	a, _ := h.Create("AAAAAA", newEngine(t))
	b, _ := h.Create("BBBBBB", newEngine(t))
	cancel()

	waitDone(t, h.Done())
	waitDone(t, a.Done())
	waitDone(t, b.Done())
	assert.Nil(t, h.Get("AAAAAA"))
}

func TestHub_SendAfterStopAlwaysRefused(t *testing.T) {
	for i := 0; i < 200; i++ {
		h := NewHub(context.Background(), nil, nil)
		h.Send(ShutdownHub{})
		waitDone(t, h.Done())
		require.False(t, h.Send(GetLobby{Code: "ABC123", Reply: make(chan *lobby.Lobby, 1)}), "send %d accepted by a stopped hub", i)
	}
}
