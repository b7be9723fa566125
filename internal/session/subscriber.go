package session

import "sync"

// subscriber delivers every state, in order, without blocking the service.
type subscriber struct {
	mu    sync.Mutex
	queue []State
	wake  chan struct{}
	out   chan State
	quit  chan struct{}
	once  sync.Once
}

func newSubscriber() *subscriber {
	sub := &subscriber{
		wake: make(chan struct{}, 1),
		out:  make(chan State),
		quit: make(chan struct{}),
	}
	go sub.run()
	return sub
}

func (s *subscriber) push(st State) {
	s.mu.Lock()
	s.queue = append(s.queue, st)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.quit) })
}

func (s *subscriber) run() {
	defer close(s.out)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.quit:
				return
			}
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- next:
		case <-s.quit:
			return
		}
	}
}
