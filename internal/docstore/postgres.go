package docstore

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	data JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (collection, id)
)`

// Postgres keeps every collection in one JSONB table. Writes made through
// this process notify listeners at once; writes from other processes are
// picked up by polling.
type Postgres struct {
	db   *sql.DB
	log  *zap.Logger
	poll time.Duration

	mu     sync.Mutex
	subs   map[string]map[int]func()
	nextID int
}

func NewPostgres(db *sql.DB, poll time.Duration, log *zap.Logger) *Postgres {
	if poll <= 0 {
		poll = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Postgres{db: db, log: log, poll: poll, subs: map[string]map[int]func(){}}
}

// Migrate creates the documents table when missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	return err
}

func (p *Postgres) GetAll(ctx context.Context, collection string) ([]Document, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, data FROM documents
		WHERE collection = $1
		ORDER BY created_at, id
	`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Document{}
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		data := map[string]any{}
		if err := sonic.Unmarshal(raw, &data); err != nil {
			return nil, err
		}
		out = append(out, Document{ID: id, Data: data})
	}
	return out, rows.Err()
}

func (p *Postgres) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw []byte
	err := p.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE collection = $1 AND id = $2`, collection, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	data := map[string]any{}
	if err := sonic.Unmarshal(raw, &data); err != nil {
		return Document{}, err
	}
	return Document{ID: id, Data: data}, nil
}

func (p *Postgres) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	raw, err := sonic.Marshal(fields)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	if _, err := p.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3::jsonb)
	`, collection, id, string(raw)); err != nil {
		return "", err
	}
	p.notify(collection)
	return id, nil
}

func (p *Postgres) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	raw, err := sonic.Marshal(fields)
	if err != nil {
		return err
	}
	res, err := p.db.ExecContext(ctx, `
		UPDATE documents SET data = data || $3::jsonb, updated_at = NOW()
		WHERE collection = $1 AND id = $2
	`, collection, id, string(raw))
	if err != nil {
		return err
	}
	if err := affected(res); err != nil {
		return err
	}
	p.notify(collection)
	return nil
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return err
	}
	if err := affected(res); err != nil {
		return err
	}
	p.notify(collection)
	return nil
}

func (p *Postgres) OnChange(ctx context.Context, collection string, fn func()) error {
	last, err := p.fingerprint(ctx, collection)
	if err != nil {
		return err
	}
	unsubscribe := p.subscribe(collection, fn)
	go func() {
		defer unsubscribe()
		ticker := time.NewTicker(p.poll)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cur, err := p.fingerprint(ctx, collection)
				if err != nil {
					if ctx.Err() == nil {
						p.log.Warn("change poll failed", zap.String("collection", collection), zap.Error(err))
					}
					continue
				}
				if cur != last {
					last = cur
					fn()
				}
			}
		}
	}()
	return nil
}

func (p *Postgres) subscribe(collection string, fn func()) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.subs[collection] == nil {
		p.subs[collection] = map[int]func(){}
	}
	key := p.nextID
	p.nextID++
	p.subs[collection][key] = fn
	return func() {
		p.mu.Lock()
		delete(p.subs[collection], key)
		p.mu.Unlock()
	}
}

type fingerprint struct {
	count   int64
	updated time.Time
}

func (p *Postgres) fingerprint(ctx context.Context, collection string) (fingerprint, error) {
	var fp fingerprint
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(MAX(updated_at), 'epoch'::timestamptz)
		FROM documents WHERE collection = $1
	`, collection).Scan(&fp.count, &fp.updated)
	return fp, err
}

func (p *Postgres) notify(collection string) {
	p.mu.Lock()
	fns := make([]func(), 0, len(p.subs[collection]))
	for _, fn := range p.subs[collection] {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
