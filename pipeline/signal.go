package pipeline

// signal is a typed observer list keyed by connection id.
//
// Signals are confined to the pipeline's control loop: connect, disconnect,
// and emit all happen there, so no locking is needed. Handlers run
// synchronously in connection order; emit iterates over a snapshot so a
// handler may connect or disconnect without corrupting the walk.
type signal[T any] struct {
	nextID   int
	handlers []signalHandler[T]
}

type signalHandler[T any] struct {
	id int
	fn func(T)
}

func (s *signal[T]) connect(fn func(T)) int {
	s.nextID++
	s.handlers = append(s.handlers, signalHandler[T]{id: s.nextID, fn: fn})
	return s.nextID
}

func (s *signal[T]) disconnect(id int) {
	for i, h := range s.handlers {
		if h.id == id {
			s.handlers = append(s.handlers[:i], s.handlers[i+1:]...)
			return
		}
	}
}

func (s *signal[T]) emit(v T) {
	snapshot := make([]signalHandler[T], len(s.handlers))
	copy(snapshot, s.handlers)
	for _, h := range snapshot {
		h.fn(v)
	}
}
