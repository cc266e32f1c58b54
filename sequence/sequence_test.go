/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sequence

import (
	"context"
	"testing"

	"github.com/suparena/dyndata/datastore"
	"github.com/suparena/dyndata/datastore/mock"
	"github.com/suparena/dyndata/errors"
	"github.com/suparena/dyndata/model"
)

func TestNext(t *testing.T) {
	ctx := context.Background()
	store := mock.New()
	gen := New(store)

	t.Run("starts at one", func(t *testing.T) {
		n, err := gen.Next(ctx, "person")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 1 {
			t.Errorf("got %d, want 1", n)
		}
	})

	t.Run("monotonic per entity", func(t *testing.T) {
		for want := int64(2); want <= 5; want++ {
			n, err := gen.Next(ctx, "person")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n != want {
				t.Errorf("got %d, want %d", n, want)
			}
		}
	})

	t.Run("independent counters per entity", func(t *testing.T) {
		n, err := gen.Next(ctx, "invoice")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 1 {
			t.Errorf("got %d, want a fresh counter at 1", n)
		}
	})

	t.Run("counter record layout", func(t *testing.T) {
		docs, err := store.Find(ctx, model.SequenceCollection, datastore.Eq(model.URINameField, "person"), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(docs) != 1 {
			t.Fatalf("got %d counter records, want 1", len(docs))
		}
		if docs[0][model.SequenceLastIDField] != int64(5) {
			t.Errorf("got %v, want lastId 5", docs[0][model.SequenceLastIDField])
		}
	})

	t.Run("store failure propagates", func(t *testing.T) {
		broken := mock.New().WithIncrementError(errors.NewValidationError("down"))
		if _, err := New(broken).Next(ctx, "person"); err == nil {
			t.Error("expected the store error to propagate")
		}
	})
}
