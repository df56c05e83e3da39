package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"chinampa/layout"
	"chinampa/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventKind says what changed in the transcript.
type EventKind int

const (
	// Appended: Message was inserted at Index.
	Appended EventKind = iota
	// Failed: no reply could be obtained for the message Err names.
	Failed
)

// Event is delivered to subscribers after every transcript change.
// ScrollTo is the index of the newest message; viewers scroll there.
type Event struct {
	Kind     EventKind
	Message  models.ChatMessage
	Index    int
	Len      int
	ScrollTo int
	Err      error
}

// exchange is one user message and the slot reserved for its reply.
type exchange struct {
	user  models.ChatMessage
	reply *models.ChatMessage
}

// Options tune a Session. Zero values are fine.
type Options struct {
	Logger *zap.Logger
	Now    func() time.Time
	NewID  func() string
}

// Session holds one page's transcript and input buffer.
//
// Replies are correlated with the message that asked for them and shown
// directly after it, whatever order the replies arrive in. Close cancels
// every reply still in flight.
type Session struct {
	transport Transport
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	exchanges []*exchange
	byID      map[string]*exchange
	count     int
	input     string
	pending   int
	idle      chan struct{} // closed while no reply is in flight
	subs      map[int]*subscriber
	nextSub   int
	closed    bool
}

func NewSession(t Transport, opts Options) *Session {
	s := &Session{
		transport: t,
		logger:    opts.Logger,
		now:       opts.Now,
		newID:     opts.NewID,
		byID:      make(map[string]*exchange),
		idle:      make(chan struct{}),
		subs:      make(map[int]*subscriber),
	}
	close(s.idle)
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// SetInput replaces the input buffer.
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
}

// Input returns the input buffer.
func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// SendInput sends the current input buffer.
func (s *Session) SendInput() (models.ChatMessage, error) {
	return s.Send(s.Input())
}

// Send appends text as a user message, clears the input buffer and asks
// the transport for a reply in the background. Whitespace-only text is a
// no-op reported as ErrEmptyMessage.
func (s *Session) Send(text string) (models.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return models.ChatMessage{}, ErrClosed
	}
	msg := models.ChatMessage{
		ID:        s.newID(),
		Text:      text,
		Sender:    models.SenderUser,
		Timestamp: s.now(),
	}
	ex := &exchange{user: msg}
	s.exchanges = append(s.exchanges, ex)
	s.byID[msg.ID] = ex
	s.count++
	s.input = ""
	idx := s.indexOfLocked(ex, false)
	s.publishLocked(Event{Kind: Appended, Message: msg, Index: idx})
	if s.pending == 0 {
		s.idle = make(chan struct{})
	}
	s.pending++
	s.wg.Add(1)
	s.mu.Unlock()

	go s.awaitReply(msg)
	return msg, nil
}

func (s *Session) awaitReply(msg models.ChatMessage) {
	defer s.wg.Done()

	text, err := s.transport.Ask(s.ctx, msg.Text)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.settleLocked()

	if s.closed {
		s.logger.Debug("reply abandoned", zap.String("message_id", msg.ID), zap.Error(err))
		return
	}
	if err != nil {
		serr := &SendError{MessageID: msg.ID, Err: err}
		s.logger.Error("assistant reply failed", zap.String("message_id", msg.ID), zap.Error(err))
		s.publishLocked(Event{Kind: Failed, Message: msg, Index: s.indexOfLocked(s.byID[msg.ID], false), Err: serr})
		return
	}

	ex := s.byID[msg.ID]
	reply := models.ChatMessage{
		ID:        s.newID(),
		Text:      text,
		Sender:    models.SenderAI,
		Timestamp: s.now(),
		ReplyTo:   msg.ID,
	}
	ex.reply = &reply
	s.count++
	s.publishLocked(Event{Kind: Appended, Message: reply, Index: s.indexOfLocked(ex, true)})
}

// indexOfLocked returns the flattened position of ex's user message or reply.
func (s *Session) indexOfLocked(target *exchange, reply bool) int {
	i := 0
	for _, ex := range s.exchanges {
		if ex == target {
			if reply {
				return i + 1
			}
			return i
		}
		i++
		if ex.reply != nil {
			i++
		}
	}
	return -1
}

func (s *Session) settleLocked() {
	s.pending--
	if s.pending == 0 {
		close(s.idle)
	}
}

func (s *Session) publishLocked(ev Event) {
	ev.Len = s.count
	ev.ScrollTo = layout.ScrollTarget(s.count)
	for _, sub := range s.subs {
		sub.push(ev)
	}
}

// Messages returns the transcript in display order.
func (s *Session) Messages() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatMessage, 0, s.count)
	for _, ex := range s.exchanges {
		out = append(out, ex.user)
		if ex.reply != nil {
			out = append(out, *ex.reply)
		}
	}
	return out
}

// Len returns the number of messages in the transcript.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Subscribe returns a channel of transcript events and a function to stop
// receiving them. Every event is delivered, in order; buffer only sizes the
// channel. After Close the remaining events are delivered and the channel is
// closed. Unsubscribing closes it at once and drops anything still queued.
func (s *Session) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}
	sub := newSubscriber(buffer)
	id := s.nextSub
	s.nextSub++
	s.subs[id] = sub
	s.mu.Unlock()

	var once sync.Once
	return sub.out, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(sub.stop)
		})
	}
}

// Wait blocks until no reply is in flight or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels pending replies, waits for them and closes subscriptions.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	s.mu.Lock()
	for id, sub := range s.subs {
		delete(s.subs, id)
		sub.finish()
	}
	s.mu.Unlock()
}
