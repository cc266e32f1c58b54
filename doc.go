/*
Package dyndata lets operators define entities at runtime (a name, a set of
typed fields, a composite key, an optional auto-incrementing field) and get
generic CRUD access to instances of those entities, stored as documents in a
document-oriented store.

The package wires the core components over a datastore.Store gateway:

	store, _ := mongo.New(ctx, mongo.Config{URL: "localhost", Port: 27017, Database: "dyndata"})
	svc := dyndata.New(store)
	_ = svc.Bootstrap(ctx)

	// Register an entity.
	_ = svc.Schema.CreateEntity(ctx, map[string]any{
	    "uriName":    "invoice",
	    "entityName": "Invoice",
	    "keys":       []any{"id"},
	    "sequenceField": "id",
	    "fields": []any{
	        map[string]any{"fieldName": "id", "fieldType": "Integer"},
	        map[string]any{"fieldName": "total", "fieldType": "Decimal"},
	    },
	})

	// Create an instance; "id" is assigned from the entity's sequence.
	_ = svc.Data.Create(ctx, "invoice", map[string]any{"total": "99.90"})

Components:
  - codec: kind registry and the coercion/validation engine
  - schema: entity descriptor registration and lookup
  - ops: key filters, projections and document operations
  - dynamic: list/get/create/update/delete over instances
  - sequence: per-entity monotonic integers
  - datastore: the store gateway, with mongo, ddb and mock backends
*/
package dyndata
