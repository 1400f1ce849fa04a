package models

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Connection is a named service/environment pair the gateway dispatches to.
type Connection struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ServiceCode string `json:"service_code"`
	Environment string `json:"environment"`
}

// Validate reports the first missing field, or "" when the connection is usable.
func (c *Connection) Validate() string {
	switch {
	case c.Name == "":
		return "name is required"
	case c.ServiceCode == "":
		return "service_code is required"
	case c.Environment == "":
		return "environment is required"
	}
	return ""
}

// Connection store errors.
var (
	ErrConnectionNotFound = errors.New("connection not found")
	ErrDuplicateName      = errors.New("connection name already in use")
)

// ConnectionStore is an in-memory thread-safe store for connections.
type ConnectionStore struct {
	mu    sync.RWMutex
	conns map[string]*Connection
}

// NewConnectionStore creates an empty connection store.
func NewConnectionStore() *ConnectionStore {
	return &ConnectionStore{conns: make(map[string]*Connection)}
}

// Create adds a new connection, assigning it a UUID. Names are unique.
func (s *ConnectionStore) Create(c *Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(c.Name, "") {
		return ErrDuplicateName
	}
	c.ID = uuid.New().String()
	s.conns[c.ID] = c
	return nil
}

// Get returns a connection by ID, or nil if not found.
func (s *ConnectionStore) Get(id string) *Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conns[id]
}

// FindByName returns the first connection with the given name, or nil.
func (s *ConnectionStore) FindByName(name string) *Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.conns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// List returns all connections sorted by name.
func (s *ConnectionStore) List() []*Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Connection, 0, len(s.conns))
	for _, c := range s.conns {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Update replaces an existing connection's settings. Renaming onto a name
// held by another connection fails with ErrDuplicateName.
func (s *ConnectionStore) Update(c *Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conns[c.ID]; !ok {
		return ErrConnectionNotFound
	}
	if s.nameTaken(c.Name, c.ID) {
		return ErrDuplicateName
	}
	s.conns[c.ID] = c
	return nil
}

// Delete removes a connection by ID.
func (s *ConnectionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conns[id]; !ok {
		return false
	}
	delete(s.conns, id)
	return true
}

// nameTaken reports whether a connection other than exceptID uses name.
// Callers hold s.mu.
func (s *ConnectionStore) nameTaken(name, exceptID string) bool {
	for id, c := range s.conns {
		if id != exceptID && c.Name == name {
			return true
		}
	}
	return false
}
