package chat

import "sync"

// subscriber queues events without bound and feeds them to out from its
// own goroutine, so a slow reader delays its events but never loses them.
type subscriber struct {
	out  chan Event
	wake chan struct{}
	stop chan struct{} // closed on unsubscribe: queued events are dropped

	mu      sync.Mutex
	queue   []Event
	closing bool // session closed: deliver what is queued, then close out
}

func newSubscriber(buffer int) *subscriber {
	sub := &subscriber{
		out:  make(chan Event, buffer),
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}
	go sub.run()
	return sub
}

func (sub *subscriber) push(ev Event) {
	sub.mu.Lock()
	sub.queue = append(sub.queue, ev)
	sub.mu.Unlock()
	sub.signal()
}

func (sub *subscriber) finish() {
	sub.mu.Lock()
	sub.closing = true
	sub.mu.Unlock()
	sub.signal()
}

func (sub *subscriber) signal() {
	select {
	case sub.wake <- struct{}{}:
	default:
	}
}

func (sub *subscriber) run() {
	defer close(sub.out)
	for {
		sub.mu.Lock()
		if len(sub.queue) == 0 {
			closing := sub.closing
			sub.mu.Unlock()
			if closing {
				return
			}
			select {
			case <-sub.wake:
				continue
			case <-sub.stop:
				return
			}
		}
		ev := sub.queue[0]
		sub.queue[0] = Event{}
		sub.queue = sub.queue[1:]
		sub.mu.Unlock()

		select {
		case sub.out <- ev:
		case <-sub.stop:
			return
		}
	}
}
