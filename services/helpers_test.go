package services

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/BanhTuanKiet/ProjectManagement-sub001/models"
	"github.com/BanhTuanKiet/ProjectManagement-sub001/utils"
)

func testLogger() *utils.Logger {
	return &utils.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// fakeConn records everything sent to it.
type fakeConn struct {
	id string

	mu     sync.Mutex
	events []models.Event
	closed bool
	full   bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(event models.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.full {
		return false
	}
	c.events = append(c.events, event)
	return true
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) eventsOfType(t models.EventType) []models.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	matched := make([]models.Event, 0)
	for _, ev := range c.events {
		if ev.Type == t {
			matched = append(matched, ev)
		}
	}
	return matched
}

// fakeMembers serves membership snapshots from a map, or fails.
type fakeMembers struct {
	mu       sync.Mutex
	projects map[string][]string
	err      error
	calls    int
}

func (s *fakeMembers) ListProjectIDsForUser(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.projects[userID], nil
}

func identity(userID, name string) models.ConnectionIdentity {
	return models.ConnectionIdentity{UserID: userID, DisplayName: name}
}
