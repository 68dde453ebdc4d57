package docstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore is the production secondary store.
type FirestoreStore struct {
	client *firestore.Client
}

func OpenFirestore(ctx context.Context, projectID, credentialsFile string) (*FirestoreStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("open firestore: %w", err)
	}
	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) Collection(name string) Collection {
	return &fsCollection{client: s.client, ref: s.client.Collection(name)}
}

type fsCollection struct {
	client *firestore.Client
	ref    *firestore.CollectionRef
}

func (c *fsCollection) Get(ctx context.Context, key string) (*Document, error) {
	snap, err := c.ref.Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Document{Key: snap.Ref.ID, Data: snap.Data()}, nil
}

func (c *fsCollection) Select(ctx context.Context, q Query) ([]Document, error) {
	query := c.ref.Query
	if q.Field != "" {
		query = query.Where(q.Field, "==", q.Value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Desc {
			dir = firestore.Desc
		}
		query = query.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	return drain(query.Documents(ctx))
}

func (c *fsCollection) All(ctx context.Context) ([]Document, error) {
	return drain(c.ref.Documents(ctx))
}

func (c *fsCollection) Add(ctx context.Context, data map[string]interface{}) (string, error) {
	ref, _, err := c.ref.Add(ctx, resolveSentinels(data))
	if err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (c *fsCollection) Update(ctx context.Context, key string, fields map[string]interface{}) error {
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range resolveSentinels(fields) {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	_, err := c.ref.Doc(key).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}

func (c *fsCollection) SetMerge(ctx context.Context, key string, data map[string]interface{}) error {
	_, err := c.ref.Doc(key).Set(ctx, resolveSentinels(data), firestore.MergeAll)
	return err
}

func (c *fsCollection) Delete(ctx context.Context, key string) error {
	_, err := c.ref.Doc(key).Delete(ctx)
	return err
}

func (c *fsCollection) CommitBatch(ctx context.Context, ops []BatchOp) error {
	if len(ops) > HardBatchLimit {
		return fmt.Errorf("docstore: batch of %d exceeds hard limit %d", len(ops), HardBatchLimit)
	}
	batch := c.client.Batch()
	for _, op := range ops {
		ref := c.ref.Doc(op.Key)
		switch op.Kind {
		case OpDelete:
			batch.Delete(ref)
		default:
			if op.Merge {
				batch.Set(ref, resolveSentinels(op.Data), firestore.MergeAll)
			} else {
				batch.Set(ref, resolveSentinels(op.Data))
			}
		}
	}
	_, err := batch.Commit(ctx)
	return err
}

func drain(iter *firestore.DocumentIterator) ([]Document, error) {
	defer iter.Stop()
	var docs []Document
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{Key: snap.Ref.ID, Data: snap.Data()})
	}
}

func resolveSentinels(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		if _, ok := v.(serverTimestamp); ok {
			out[k] = firestore.ServerTimestamp
			continue
		}
		out[k] = v
	}
	return out
}
