package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"chinampa/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// gatedTransport blocks each Ask until its text is released.
type gatedTransport struct {
	mu    sync.Mutex
	gates map[string]chan string
}

func newGated() *gatedTransport { return &gatedTransport{gates: make(map[string]chan string)} }

func (g *gatedTransport) gate(text string) chan string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[text]
	if !ok {
		ch = make(chan string, 1)
		g.gates[text] = ch
	}
	return ch
}

func (g *gatedTransport) release(text, reply string) { g.gate(text) <- reply }

func (g *gatedTransport) Ask(ctx context.Context, text string) (string, error) {
	select {
	case r := <-g.gate(text):
		return r, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func echo() Transport {
	return TransportFunc(func(_ context.Context, text string) (string, error) {
		return "eco: " + text, nil
	})
}

func fakeClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 10, 5, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func waitSettled(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
}

func TestSend_BlankIsNoop(t *testing.T) {
	s := NewSession(echo(), Options{Logger: zaptest.NewLogger(t)})
	defer s.Close()

	for _, text := range []string{"", "   ", "\n\t"} {
		s.SetInput(text)
		_, err := s.SendInput()
		assert.ErrorIs(t, err, ErrEmptyMessage)
		assert.Equal(t, 0, s.Len())
		assert.Equal(t, text, s.Input(), "input buffer is left as typed")
	}
}

func TestSend_OptimisticEchoThenReply(t *testing.T) {
	g := newGated()
	s := NewSession(g, Options{Logger: zaptest.NewLogger(t)})
	defer s.Close()

	s.SetInput("hello")
	msg, err := s.SendInput()
	require.NoError(t, err)

	assert.Equal(t, 1, s.Len(), "user message is visible before the reply")
	assert.Equal(t, "", s.Input(), "input buffer cleared")
	assert.Equal(t, models.SenderUser, msg.Sender)
	assert.Equal(t, "hello", msg.Text)
	assert.NotEmpty(t, msg.ID)

	g.release("hello", "hola")
	waitSettled(t, s)

	got := s.Messages()
	require.Len(t, got, 2)
	assert.Equal(t, models.SenderAI, got[1].Sender)
	assert.Equal(t, "hola", got[1].Text)
	assert.Equal(t, msg.ID, got[1].ReplyTo)
}

func TestSend_RepliesLandInTheirSlot(t *testing.T) {
	g := newGated()
	s := NewSession(g, Options{Logger: zaptest.NewLogger(t)})
	defer s.Close()

	first, err := s.Send("uno")
	require.NoError(t, err)
	second, err := s.Send("dos")
	require.NoError(t, err)

	// The second reply arrives first.
	g.release("dos", "respuesta dos")
	require.Eventually(t, func() bool { return s.Len() == 3 }, 5*time.Second, time.Millisecond)
	texts := func() []string {
		var out []string
		for _, m := range s.Messages() {
			out = append(out, m.Text)
		}
		return out
	}
	assert.Equal(t, []string{"uno", "dos", "respuesta dos"}, texts())

	g.release("uno", "respuesta uno")
	waitSettled(t, s)
	assert.Equal(t, []string{"uno", "respuesta uno", "dos", "respuesta dos"}, texts())

	msgs := s.Messages()
	assert.Equal(t, first.ID, msgs[1].ReplyTo)
	assert.Equal(t, second.ID, msgs[3].ReplyTo)
}

func TestSend_SequentialTimestampsNonDecreasing(t *testing.T) {
	s := NewSession(echo(), Options{Logger: zaptest.NewLogger(t), Now: fakeClock()})
	defer s.Close()

	for i := 0; i < 10; i++ {
		_, err := s.Send(fmt.Sprintf("mensaje %d", i))
		require.NoError(t, err)
		waitSettled(t, s)
	}

	msgs := s.Messages()
	require.Len(t, msgs, 20)
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].Timestamp.Before(msgs[i-1].Timestamp), "timestamp %d went backwards", i)
	}
}

func TestSend_TransportFailure(t *testing.T) {
	boom := errors.New("connection refused")
	s := NewSession(TransportFunc(func(context.Context, string) (string, error) { return "", boom }),
		Options{Logger: zaptest.NewLogger(t)})
	defer s.Close()

	events, stop := s.Subscribe(4)
	defer stop()

	msg, err := s.Send("¿regar hoy?")
	require.NoError(t, err)

	ev := <-events
	assert.Equal(t, Appended, ev.Kind)
	assert.Equal(t, 0, ev.ScrollTo)

	ev = <-events
	assert.Equal(t, Failed, ev.Kind)
	var serr *SendError
	require.True(t, errors.As(ev.Err, &serr))
	assert.Equal(t, msg.ID, serr.MessageID)
	assert.ErrorIs(t, ev.Err, boom)
	assert.Equal(t, "No se pudo obtener respuesta del asistente.", serr.Message())

	waitSettled(t, s)
	assert.Equal(t, 1, s.Len(), "no reply appended on failure")
}

func TestSubscribe_ScrollTarget(t *testing.T) {
	s := NewSession(echo(), Options{Logger: zaptest.NewLogger(t)})
	defer s.Close()

	events, stop := s.Subscribe(8)
	defer stop()

	_, err := s.Send("hola")
	require.NoError(t, err)

	first := <-events
	second := <-events
	assert.Equal(t, 1, first.Len)
	assert.Equal(t, 0, first.ScrollTo)
	assert.Equal(t, 2, second.Len)
	assert.Equal(t, 1, second.ScrollTo)
	assert.Equal(t, 1, second.Index)
	assert.Equal(t, models.SenderAI, second.Message.Sender)
}

func TestSubscribe_SlowReaderLosesNothing(t *testing.T) {
	s := NewSession(echo(), Options{Logger: zaptest.NewLogger(t)})
	events, stop := s.Subscribe(1)
	defer stop()

	const n = 200
	for i := 0; i < n; i++ {
		_, err := s.Send(fmt.Sprintf("mensaje %d", i))
		require.NoError(t, err)
	}
	waitSettled(t, s)
	s.Close()

	users, replies, lastLen := 0, 0, 0
	for ev := range events {
		require.Equal(t, Appended, ev.Kind)
		assert.Greater(t, ev.Len, lastLen, "events arrive in order")
		lastLen = ev.Len
		if ev.Message.Sender == models.SenderUser {
			users++
		} else {
			replies++
		}
	}
	assert.Equal(t, n, users)
	assert.Equal(t, n, replies)
	assert.Equal(t, 2*n, lastLen)
}

func TestWait_ExpiredContextLeavesNothingRunning(t *testing.T) {
	g := newGated()
	s := NewSession(g, Options{Logger: zaptest.NewLogger(t)})

	_, err := s.Send("lento")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Wait(ctx), context.DeadlineExceeded)

	s.Close()
	assert.NoError(t, s.Wait(context.Background()), "closed session has nothing in flight")
}

func TestClose_CancelsInFlight(t *testing.T) {
	g := newGated()
	s := NewSession(g, Options{Logger: zaptest.NewLogger(t)})
	events, _ := s.Subscribe(4)

	_, err := s.Send("pendiente")
	require.NoError(t, err)
	<-events

	s.Close()
	assert.Equal(t, 1, s.Len())

	_, ok := <-events
	assert.False(t, ok, "subscription closed")

	_, err = s.Send("otra")
	assert.ErrorIs(t, err, ErrClosed)
	s.Close()
}

func TestHTTPTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/askAI", r.URL.Path)
		var in models.AskReq
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		if in.Message == "fail" {
			http.Error(w, `{"detail":"llm down"}`, http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(models.AskResp{Response: "respuesta a " + in.Message})
	}))
	defer srv.Close()

	tr := NewHTTPTransport(srv.URL)
	defer tr.Client.CloseIdleConnections()
	out, err := tr.Ask(context.Background(), "hola")
	require.NoError(t, err)
	assert.Equal(t, "respuesta a hola", out)

	_, err = tr.Ask(context.Background(), "fail")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.Status)
}
