package clipboard

import (
	"clipcat/pkg/types"
	"errors"
	"log/slog"
	"sync"
)

var (
	ErrInboxFull    = errors.New("capture inbox is full")
	ErrInboxStopped = errors.New("capture inbox is not running")
)

// DefaultInboxSize bounds the captures waiting to be handled
const DefaultInboxSize = 64

// Inbox is a Monitor fed by Push. Captures are delivered to the handler in
// push order on a single goroutine.
type Inbox struct {
	handler  func(types.ClipItem)
	queue    chan types.ClipItem
	stopChan chan struct{}
	done     chan struct{}
	running  bool
	mutex    sync.RWMutex
}

var _ Monitor = (*Inbox)(nil)

func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = DefaultInboxSize
	}
	return &Inbox{queue: make(chan types.ClipItem, size)}
}

func (in *Inbox) OnChange(handler func(types.ClipItem)) {
	in.mutex.Lock()
	defer in.mutex.Unlock()
	in.handler = handler
}

func (in *Inbox) Start() error {
	in.mutex.Lock()
	defer in.mutex.Unlock()
	if in.running {
		return nil
	}
	in.running = true
	in.stopChan = make(chan struct{})
	in.done = make(chan struct{})

	go in.loop(in.stopChan, in.done)
	return nil
}

// Stop drains the captures already accepted, then returns.
func (in *Inbox) Stop() error {
	in.mutex.Lock()
	if !in.running {
		in.mutex.Unlock()
		return nil
	}
	in.running = false
	close(in.stopChan)
	done := in.done
	in.mutex.Unlock()

	<-done
	return nil
}

// Push queues a capture without blocking.
func (in *Inbox) Push(item types.ClipItem) error {
	in.mutex.RLock()
	defer in.mutex.RUnlock()
	if !in.running {
		return ErrInboxStopped
	}
	select {
	case in.queue <- item:
		return nil
	default:
		return ErrInboxFull
	}
}

func (in *Inbox) loop(stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case item := <-in.queue:
			in.deliver(item)
		case <-stop:
			for {
				select {
				case item := <-in.queue:
					in.deliver(item)
				default:
					return
				}
			}
		}
	}
}

func (in *Inbox) deliver(item types.ClipItem) {
	in.mutex.RLock()
	handler := in.handler
	in.mutex.RUnlock()

	if handler == nil {
		slog.Warn("dropping capture without handler", "id", item.ID)
		return
	}
	handler(item)
}
