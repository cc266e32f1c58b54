/*
Package datastore defines the document-store gateway consumed by the dyndata core.

The main interface is Store, a minimal CRUD+index protocol:

	type Store interface {
	    Find(ctx context.Context, collection string, filter Filter, proj *Projection) ([]model.Document, error)
	    UpsertOne(ctx context.Context, collection string, filter Filter, doc model.Document) error
	    InsertIfAbsent(ctx context.Context, collection string, filter Filter, doc model.Document) error
	    DeleteOne(ctx context.Context, collection string, filter Filter) error
	    IncrementOne(ctx context.Context, collection string, filter Filter, field string) (int64, error)
	    EnsureUniqueIndex(ctx context.Context, collection string, fields []string) error
	}

InsertIfAbsent and IncrementOne exist because "query then write" sequences are
racy under concurrent callers; both must be a single atomic store operation.

Implementations:
  - mongo: MongoDB implementation, the default backend
  - ddb: DynamoDB implementation using a single-table layout
  - mock: in-memory implementation for testing
*/
package datastore
