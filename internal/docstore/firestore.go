package docstore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore stores each collection as a Firestore collection.
type Firestore struct {
	client *firestore.Client
	log    *zap.Logger
}

func NewFirestore(client *firestore.Client, log *zap.Logger) *Firestore {
	return &Firestore{client: client, log: log}
}

func (f *Firestore) GetAll(ctx context.Context, collection string) ([]Document, error) {
	iter := f.client.Collection(collection).Documents(ctx)
	defer iter.Stop()
	var out []Document
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return out, nil
}

func (f *Firestore) Get(ctx context.Context, collection, id string) (Document, error) {
	snap, err := f.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return Document{}, mapErr(err)
	}
	return Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (f *Firestore) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	ref, _, err := f.client.Collection(collection).Add(ctx, fields)
	if err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (f *Firestore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: v})
	}
	_, err := f.client.Collection(collection).Doc(id).Update(ctx, updates)
	return mapErr(err)
}

func (f *Firestore) Delete(ctx context.Context, collection, id string) error {
	_, err := f.client.Collection(collection).Doc(id).Delete(ctx)
	return mapErr(err)
}

// OnChange listens on a query snapshot stream. The first snapshot is the
// current state and does not trigger fn.
func (f *Firestore) OnChange(ctx context.Context, collection string, fn func()) error {
	it := f.client.Collection(collection).Snapshots(ctx)
	go func() {
		defer it.Stop()
		first := true
		for {
			_, err := it.Next()
			if err != nil {
				if ctx.Err() == nil && status.Code(err) != codes.Canceled {
					f.log.Warn("snapshot listener stopped", zap.String("collection", collection), zap.Error(err))
				}
				return
			}
			if first {
				first = false
				continue
			}
			fn()
		}
	}()
	return nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.NotFound {
		return errors.Join(ErrNotFound, err)
	}
	return err
}
