// Package storetest provides an in-memory comments table for handler tests.
package storetest

import (
	"context"
	"sync"

	"github.com/UKHomeOffice/comments/internal/comment"
	"github.com/UKHomeOffice/comments/internal/store"
)

// Memory mirrors store.Table semantics, conditions included
type Memory struct {
	mu    sync.Mutex
	Items map[string]comment.Comment
	// Err, when set, is returned by every call
	Err error
}

// NewMemory returns a table holding cs
func NewMemory(cs ...comment.Comment) *Memory {
	m := &Memory{Items: make(map[string]comment.Comment)}
	for _, c := range cs {
		m.Items[c.ID] = c
	}
	return m
}

// Get implements store.Table.Get
func (m *Memory) Get(ctx context.Context, id string) (comment.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return comment.Comment{}, m.Err
	}
	c, ok := m.Items[id]
	if !ok {
		return comment.Comment{}, store.ErrNotFound
	}
	return c, nil
}

// List implements store.Table.List
func (m *Memory) List(ctx context.Context) ([]comment.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]comment.Comment, 0, len(m.Items))
	for _, c := range m.Items {
		out = append(out, c)
	}
	store.SortOldestFirst(out)
	return out, nil
}

// Create implements store.Table.Create
func (m *Memory) Create(ctx context.Context, c comment.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Items[c.ID]; ok {
		return store.ErrConditionFailed
	}
	m.Items[c.ID] = c
	return nil
}

// Patch implements store.Table.Patch
func (m *Memory) Patch(ctx context.Context, id string, p store.Patch) (comment.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return comment.Comment{}, m.Err
	}
	c, ok := m.Items[id]
	if !ok {
		return comment.Comment{}, store.ErrNotFound
	}
	if p.Content != nil {
		c.Content = *p.Content
	}
	if p.Author != nil {
		c.Author = *p.Author
	}
	c.UpdatedAt = p.UpdatedAt
	m.Items[id] = c
	return c, nil
}

// UpdateContent implements store.Table.UpdateContent
func (m *Memory) UpdateContent(ctx context.Context, id, userID, content, updatedAt string) (comment.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return comment.Comment{}, m.Err
	}
	c, ok := m.Items[id]
	if !ok || c.UserID != userID {
		return comment.Comment{}, store.ErrConditionFailed
	}
	c.Content = content
	c.UpdatedAt = updatedAt
	m.Items[id] = c
	return c, nil
}

// Delete implements store.Table.Delete
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.Items, id)
	return nil
}

// DeleteOwned implements store.Table.DeleteOwned
func (m *Memory) DeleteOwned(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	c, ok := m.Items[id]
	if !ok || c.UserID != userID {
		return store.ErrConditionFailed
	}
	delete(m.Items, id)
	return nil
}
