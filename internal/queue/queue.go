package queue

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// Message types.
const (
	TypeProfessorDeleted = "professor.deleted"
)

// Message represents work to be processed.
type Message struct {
	Type string
	Body []byte
}

// ProfessorDeleted asks the worker to remove what hung off a deleted
// professor: its evaluation questions and its profile image.
type ProfessorDeleted struct {
	ProfessorID string `json:"professorId"`
	Name        string `json:"name"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// NewProfessorDeleted encodes a cascade job.
func NewProfessorDeleted(p ProfessorDeleted) (Message, error) {
	body, err := sonic.Marshal(p)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: TypeProfessorDeleted, Body: body}, nil
}

// DecodeProfessorDeleted reads a professor.deleted body.
func DecodeProfessorDeleted(msg Message) (ProfessorDeleted, error) {
	var p ProfessorDeleted
	if msg.Type != TypeProfessorDeleted {
		return p, errors.New("queue: not a professor.deleted message")
	}
	err := sonic.Unmarshal(msg.Body, &p)
	return p, err
}

// Queue is the abstraction over different backends.
type Queue interface {
	Publish(ctx context.Context, msg Message) error
	Consume(ctx context.Context) (<-chan Message, error)
}

// InMemory is a minimal channel-backed queue for dev/testing.
type InMemory struct {
	ch chan Message
}

// NewInMemory creates a bounded in-memory queue.
func NewInMemory(size int) *InMemory {
	return &InMemory{ch: make(chan Message, size)}
}

// Publish enqueues a message.
func (q *InMemory) Publish(ctx context.Context, msg Message) error {
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns a channel for workers.
func (q *InMemory) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			select {
			case msg := <-q.ch:
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue implements a simple Redis list-backed queue.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue builds a queue using LPUSH/BRPOP semantics.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = "evaladmin:jobs"
	}
	return &RedisQueue{client: client, key: key}
}

// Publish enqueues a message.
func (q *RedisQueue) Publish(ctx context.Context, msg Message) error {
	return q.client.LPush(ctx, q.key, serialize(msg)).Err()
}

// Consume streams messages using BRPOP.
func (q *RedisQueue) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if len(res) == 2 {
				if msg, err := deserialize(res[1]); err == nil {
					select {
					case out <- msg:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return out, nil
}

// serialize is a tiny helper to store messages as Type|Body.
func serialize(msg Message) string {
	return msg.Type + "|" + string(msg.Body)
}

func deserialize(s string) (Message, error) {
	typ, body, ok := strings.Cut(s, "|")
	if !ok {
		return Message{Body: []byte(s)}, nil
	}
	return Message{Type: typ, Body: []byte(body)}, nil
}
