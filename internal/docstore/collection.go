package docstore

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/bytedance/sonic"
)

// Collection is typed access to one collection. T is converted through its
// json tags; the "id" field is filled from the document id and never stored.
type Collection[T any] struct {
	backend   Backend
	name      string
	writeOnly []string
}

// NewCollection binds T to a collection. writeOnly names json fields that are
// accepted on input but never persisted (e.g. passwords).
func NewCollection[T any](b Backend, name string, writeOnly ...string) *Collection[T] {
	return &Collection[T]{backend: b, name: name, writeOnly: writeOnly}
}

func (c *Collection[T]) Name() string { return c.name }

func (c *Collection[T]) GetAll(ctx context.Context) ([]T, error) {
	docs, err := c.backend.GetAll(ctx, c.name)
	if err != nil {
		return nil, fmt.Errorf("%s: list: %w", c.name, err)
	}
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := decode[T](d)
		if err != nil {
			return nil, fmt.Errorf("%s/%s: %w", c.name, d.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	d, err := c.backend.Get(ctx, c.name, id)
	if err != nil {
		return zero, fmt.Errorf("%s/%s: %w", c.name, id, err)
	}
	return decode[T](d)
}

func (c *Collection[T]) Create(ctx context.Context, v T) (string, error) {
	fields, err := c.encode(v)
	if err != nil {
		return "", err
	}
	id, err := c.backend.Create(ctx, c.name, fields)
	if err != nil {
		return "", fmt.Errorf("%s: create: %w", c.name, err)
	}
	return id, nil
}

// Update merges fields into the stored document.
func (c *Collection[T]) Update(ctx context.Context, id string, fields map[string]any) error {
	for _, k := range append(c.writeOnly, "id") {
		delete(fields, k)
	}
	if err := c.backend.Update(ctx, c.name, id, fields); err != nil {
		return fmt.Errorf("%s/%s: update: %w", c.name, id, err)
	}
	return nil
}

// Replace overwrites every field of the stored document with v's. Fields
// dropped by omitempty are written as null so they read back empty.
func (c *Collection[T]) Replace(ctx context.Context, id string, v T) error {
	fields, err := c.encode(v)
	if err != nil {
		return err
	}
	for _, k := range jsonFields(reflect.TypeFor[T]()) {
		if _, ok := fields[k]; !ok {
			fields[k] = nil
		}
	}
	return c.Update(ctx, id, fields)
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := c.backend.Delete(ctx, c.name, id); err != nil {
		return fmt.Errorf("%s/%s: delete: %w", c.name, id, err)
	}
	return nil
}

func (c *Collection[T]) OnChange(ctx context.Context, fn func()) error {
	return c.backend.OnChange(ctx, c.name, fn)
}

func (c *Collection[T]) encode(v T) (map[string]any, error) {
	fields, err := ToFields(v)
	if err != nil {
		return nil, fmt.Errorf("%s: encode: %w", c.name, err)
	}
	for _, k := range append(c.writeOnly, "id") {
		delete(fields, k)
	}
	return fields, nil
}

// ToFields converts a value into a field map using its json tags.
func ToFields(v any) (map[string]any, error) {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]any)
	if err := sonic.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// jsonFields lists the top-level json names of a struct type.
func jsonFields(t reflect.Type) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		names = append(names, name)
	}
	return names
}

func decode[T any](d Document) (T, error) {
	var v T
	data := make(map[string]any, len(d.Data)+1)
	for k, val := range d.Data {
		data[k] = val
	}
	data["id"] = d.ID
	raw, err := sonic.Marshal(data)
	if err != nil {
		return v, err
	}
	if err := sonic.Unmarshal(raw, &v); err != nil {
		return v, err
	}
	return v, nil
}
