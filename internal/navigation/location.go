// Package navigation models the application's current location.
//
// Replace swaps the current URL without adding a history entry. Push is an
// in-app route change. Assign is a hard navigation: everything held in
// memory is considered discarded and the target is loaded fresh.
package navigation

import (
	"fmt"
	"net/url"
	"sync"
)

// Navigator is the part of Location that components redirect through.
type Navigator interface {
	// Replace changes the current URL without a history entry.
	Replace(target string)
	// Assign performs a hard navigation to target.
	Assign(target string)
}

// Location is the in-process equivalent of the browser location and history.
type Location struct {
	mu          sync.RWMutex
	current     *url.URL
	history     []string
	assigned    []string
	subscribers map[int]func(*url.URL)
	nextID      int
}

// NewLocation starts at raw, which must be an absolute URL.
func NewLocation(raw string) (*Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid location %q: %w", raw, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("location %q must be absolute", raw)
	}
	return &Location{
		current:     u,
		history:     []string{u.String()},
		subscribers: make(map[int]func(*url.URL)),
	}, nil
}

// URL returns a copy of the current URL.
func (l *Location) URL() *url.URL {
	l.mu.RLock()
	defer l.mu.RUnlock()
	u := *l.current
	return &u
}

// String returns the current URL as text.
func (l *Location) String() string {
	return l.URL().String()
}

// Query returns the current query parameters.
func (l *Location) Query() url.Values {
	return l.URL().Query()
}

// History returns the visited URLs, oldest first.
func (l *Location) History() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.history...)
}

// HardNavigations returns every target passed to Assign.
func (l *Location) HardNavigations() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.assigned...)
}

// Replace swaps the current URL in place.
func (l *Location) Replace(target string) {
	l.navigate(target, false, false)
}

// Push navigates within the app, appending to history.
func (l *Location) Push(target string) {
	l.navigate(target, true, false)
}

// Assign performs a hard navigation.
func (l *Location) Assign(target string) {
	l.navigate(target, true, true)
}

// Subscribe registers fn for route changes made through Push and Assign.
// The returned function removes the subscription.
func (l *Location) Subscribe(fn func(*url.URL)) func() {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.subscribers[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.subscribers, id)
		l.mu.Unlock()
	}
}

func (l *Location) navigate(target string, appendHistory, hard bool) {
	l.mu.Lock()
	ref, err := url.Parse(target)
	if err != nil {
		l.mu.Unlock()
		return
	}
	next := l.current.ResolveReference(ref)
	l.current = next

	if appendHistory {
		l.history = append(l.history, next.String())
	} else if len(l.history) > 0 {
		l.history[len(l.history)-1] = next.String()
	}
	if hard {
		l.assigned = append(l.assigned, next.String())
	}

	var notify []func(*url.URL)
	if appendHistory {
		for _, fn := range l.subscribers {
			notify = append(notify, fn)
		}
	}
	l.mu.Unlock()

	for _, fn := range notify {
		u := *next
		fn(&u)
	}
}

// WithoutParam returns u's path, query and fragment with name removed from
// the query, suitable for Replace.
func WithoutParam(u *url.URL, name string) string {
	stripped := *u
	q := stripped.Query()
	q.Del(name)
	stripped.RawQuery = q.Encode()
	stripped.Scheme = ""
	stripped.Host = ""
	stripped.User = nil
	if stripped.Path == "" {
		stripped.Path = "/"
	}
	return stripped.String()
}
