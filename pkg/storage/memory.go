package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/coinsurf-com/affiliate/pkg"
	"github.com/pkg/errors"
)

// Memory is a process local document store used by tests and local runs.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string]*memoryCollection)}
}

func (m *Memory) Name() string {
	return "memory"
}

func (m *Memory) Collection(name string) pkg.Collection {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[name]
	if !ok {
		c = &memoryCollection{name: name, docs: make(map[string][]byte)}
		m.collections[name] = c
	}

	return c
}

type memoryCollection struct {
	mu    sync.RWMutex
	name  string
	order []string
	docs  map[string][]byte
}

func (c *memoryCollection) Insert(_ context.Context, id string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "marshal document")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.docs[id]; ok {
		return errors.Errorf("insert %s/%s: duplicate id", c.name, id)
	}

	c.docs[id] = body
	c.order = append(c.order, id)
	return nil
}

func (c *memoryCollection) FindByID(_ context.Context, id string, out interface{}) error {
	c.mu.RLock()
	body, ok := c.docs[id]
	c.mu.RUnlock()

	if !ok {
		return pkg.ErrNotFound
	}

	return json.Unmarshal(body, out)
}

func (c *memoryCollection) FindByField(_ context.Context, field string, value interface{}, out interface{}) error {
	want := fmt.Sprint(value)
	matched := make([]json.RawMessage, 0)

	c.mu.RLock()
	for _, id := range c.order {
		var doc map[string]interface{}
		if err := json.Unmarshal(c.docs[id], &doc); err != nil {
			c.mu.RUnlock()
			return errors.Wrapf(err, "decode %s/%s", c.name, id)
		}

		if v, ok := doc[field]; ok && v != nil && fmt.Sprint(v) == want {
			matched = append(matched, c.docs[id])
		}
	}
	c.mu.RUnlock()

	body, err := json.Marshal(matched)
	if err != nil {
		return err
	}

	return json.Unmarshal(body, out)
}

func (c *memoryCollection) UpdateByID(_ context.Context, id string, fields map[string]interface{}) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return errors.Wrap(err, "marshal patch")
	}

	var normalized map[string]interface{}
	if err = json.Unmarshal(patch, &normalized); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	body, ok := c.docs[id]
	if !ok {
		return pkg.ErrNotFound
	}

	var doc map[string]interface{}
	if err = json.Unmarshal(body, &doc); err != nil {
		return errors.Wrapf(err, "decode %s/%s", c.name, id)
	}

	for k, v := range normalized {
		doc[k] = v
	}

	c.docs[id], err = json.Marshal(doc)
	return err
}

func (c *memoryCollection) Count(ctx context.Context, field string, value interface{}) (int64, error) {
	var docs []json.RawMessage
	if err := c.FindByField(ctx, field, value, &docs); err != nil {
		return 0, err
	}

	return int64(len(docs)), nil
}
