package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory keeps documents in process. Change callbacks run synchronously after
// each write, outside the lock.
type Memory struct {
	mu     sync.RWMutex
	colls  map[string]*memColl
	subs   map[string]map[int]func()
	nextID int
}

type memColl struct {
	order []string
	docs  map[string]map[string]any
}

func NewMemory() *Memory {
	return &Memory{colls: map[string]*memColl{}, subs: map[string]map[int]func(){}}
}

func (m *Memory) coll(name string) *memColl {
	c, ok := m.colls[name]
	if !ok {
		c = &memColl{docs: map[string]map[string]any{}}
		m.colls[name] = c
	}
	return c
}

func (m *Memory) GetAll(ctx context.Context, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.colls[collection]
	if !ok {
		return []Document{}, nil
	}
	out := make([]Document, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, Document{ID: id, Data: copyMap(c.docs[id])})
	}
	return out, nil
}

func (m *Memory) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.colls[collection]; ok {
		if data, ok := c.docs[id]; ok {
			return Document{ID: id, Data: copyMap(data)}, nil
		}
	}
	return Document{}, ErrNotFound
}

func (m *Memory) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	m.mu.Lock()
	c := m.coll(collection)
	c.order = append(c.order, id)
	c.docs[id] = copyMap(fields)
	m.mu.Unlock()
	m.notify(collection)
	return id, nil
}

// Put stores a document under a caller-chosen id, replacing any existing one.
func (m *Memory) Put(collection, id string, fields map[string]any) {
	m.mu.Lock()
	c := m.coll(collection)
	if _, ok := c.docs[id]; !ok {
		c.order = append(c.order, id)
	}
	c.docs[id] = copyMap(fields)
	m.mu.Unlock()
	m.notify(collection)
}

func (m *Memory) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	c, ok := m.colls[collection]
	var data map[string]any
	if ok {
		data, ok = c.docs[id]
	}
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	for k, v := range copyMap(fields) {
		data[k] = v
	}
	m.mu.Unlock()
	m.notify(collection)
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	c, ok := m.colls[collection]
	if ok {
		_, ok = c.docs[id]
	}
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(c.docs, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	m.mu.Unlock()
	m.notify(collection)
	return nil
}

func (m *Memory) OnChange(ctx context.Context, collection string, fn func()) error {
	m.mu.Lock()
	if m.subs[collection] == nil {
		m.subs[collection] = map[int]func(){}
	}
	key := m.nextID
	m.nextID++
	m.subs[collection][key] = fn
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subs[collection], key)
		m.mu.Unlock()
	}()
	return nil
}

func (m *Memory) notify(collection string) {
	m.mu.RLock()
	fns := make([]func(), 0, len(m.subs[collection]))
	for _, fn := range m.subs[collection] {
		fns = append(fns, fn)
	}
	m.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}

func copyMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = copyValue(v)
	}
	return dst
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
