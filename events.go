package sharedref

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// EventType classifies control block lifecycle transitions.
type EventType uint8

const (
	// EventCreated fires when a control block is allocated, with its
	// strong count already at 1.
	EventCreated EventType = iota
	// EventDestroyed fires when the managed value is destroyed (strong
	// count reached zero). The block may still be alive for weak handles.
	EventDestroyed
	// EventFreed fires when the block itself is deallocated (both counts
	// reached zero).
	EventFreed
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDestroyed:
		return "destroyed"
	case EventFreed:
		return "freed"
	default:
		return "unknown"
	}
}

// Event describes one lifecycle transition of a control block. Block is a
// process-unique serial number, useful for correlating the three events of
// one block in logs and tests.
type Event struct {
	Block uint64
	Type  EventType
}

// Observer receives control block lifecycle events. Observers run inline
// on the goroutine performing the release and must not create or release
// handles themselves.
type Observer interface {
	OnHandleEvent(Event)
}

var (
	liveBlocks atomic.Int64
	liveValues atomic.Int64

	obsMu     sync.RWMutex
	observers []Observer
)

// LiveBlocks reports the number of control blocks not yet freed. Leak
// tests compare it before and after a workload.
func LiveBlocks() int64 { return liveBlocks.Load() }

// LiveValues reports the number of managed values not yet destroyed.
func LiveValues() int64 { return liveValues.Load() }

// Subscribe adds an observer for lifecycle events.
func Subscribe(o Observer) {
	obsMu.Lock()
	defer obsMu.Unlock()
	observers = append(observers, o)
}

// Unsubscribe removes an observer.
func Unsubscribe(o Observer) {
	obsMu.Lock()
	defer obsMu.Unlock()
	for i, obs := range observers {
		if obs == o {
			observers = append(observers[:i], observers[i+1:]...)
			return
		}
	}
}

func registerBlock(id uint64) {
	liveBlocks.Add(1)
	liveValues.Add(1)
	notify(Event{Block: id, Type: EventCreated})
}

func notify(e Event) {
	obsMu.RLock()
	for _, o := range observers {
		o.OnHandleEvent(e)
	}
	obsMu.RUnlock()

	if ce := Logger().Check(zap.DebugLevel, "handle lifecycle"); ce != nil {
		ce.Write(zap.Uint64("block", e.Block), zap.Stringer("event", e.Type))
	}
}
