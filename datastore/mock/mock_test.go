/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"context"
	"sync"
	"testing"

	"github.com/suparena/dyndata/datastore"
	"github.com/suparena/dyndata/errors"
	"github.com/suparena/dyndata/model"
)

func TestFindMatching(t *testing.T) {
	ctx := context.Background()
	s := New()

	docs := []model.Document{
		{"id": int64(1), "name": "Ada"},
		{"id": int64(2), "name": "Grace"},
		{"id": int64(3)},
	}
	for _, doc := range docs {
		if err := s.UpsertOne(ctx, "people", datastore.Eq("id", doc["id"]), doc); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	t.Run("equality", func(t *testing.T) {
		got, err := s.Find(ctx, "people", datastore.Eq("name", "Ada"), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0]["id"] != int64(1) {
			t.Errorf("got %v, want the Ada document", got)
		}
	})

	t.Run("null matches missing field", func(t *testing.T) {
		got, err := s.Find(ctx, "people", datastore.Eq("name", nil), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0]["id"] != int64(3) {
			t.Errorf("got %v, want only the nameless document", got)
		}
	})

	t.Run("empty filter matches everything", func(t *testing.T) {
		got, err := s.Find(ctx, "people", nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 3 {
			t.Errorf("got %d documents, want 3", len(got))
		}
	})

	t.Run("projection shapes the result", func(t *testing.T) {
		proj := &datastore.Projection{Include: []string{"name"}}
		got, err := s.Find(ctx, "people", datastore.Eq("id", int64(1)), proj)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("got %d documents, want 1", len(got))
		}
		if _, present := got[0]["id"]; present {
			t.Error("projected-out field is present")
		}
		if got[0]["name"] != "Ada" {
			t.Errorf("got %v, want the name", got[0])
		}
	})

	t.Run("results are copies", func(t *testing.T) {
		got, _ := s.Find(ctx, "people", datastore.Eq("id", int64(1)), nil)
		got[0]["name"] = "mutated"
		again, _ := s.Find(ctx, "people", datastore.Eq("id", int64(1)), nil)
		if again[0]["name"] != "Ada" {
			t.Error("mutating a result leaked into the store")
		}
	})
}

func TestUpsertOne(t *testing.T) {
	ctx := context.Background()
	s := New()

	doc := model.Document{"id": int64(1), "name": "Ada"}
	if err := s.UpsertOne(ctx, "people", datastore.Eq("id", int64(1)), doc); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.UpsertOne(ctx, "people", datastore.Eq("id", int64(1)), model.Document{"id": int64(1), "name": "Lovelace"}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if s.Count("people") != 1 {
		t.Errorf("got %d documents, want 1", s.Count("people"))
	}
	got, _ := s.Find(ctx, "people", datastore.Eq("id", int64(1)), nil)
	if got[0]["name"] != "Lovelace" {
		t.Errorf("got %v, want the replacement", got[0])
	}
}

func TestInsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := New()

	filter := datastore.Eq("id", int64(1))
	if err := s.InsertIfAbsent(ctx, "people", filter, model.Document{"id": int64(1)}); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := s.InsertIfAbsent(ctx, "people", filter, model.Document{"id": int64(1)})
	if !errors.IsAlreadyExists(err) {
		t.Errorf("got %v, want already exists", err)
	}
	if s.Count("people") != 1 {
		t.Errorf("got %d documents, want 1", s.Count("people"))
	}
}

func TestDeleteOne(t *testing.T) {
	ctx := context.Background()
	s := New()

	_ = s.UpsertOne(ctx, "people", datastore.Eq("id", int64(1)), model.Document{"id": int64(1)})

	if err := s.DeleteOne(ctx, "people", datastore.Eq("id", int64(1))); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Count("people") != 0 {
		t.Errorf("got %d documents, want 0", s.Count("people"))
	}

	// Deleting an absent document is not an error.
	if err := s.DeleteOne(ctx, "people", datastore.Eq("id", int64(9))); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestIncrementOne(t *testing.T) {
	ctx := context.Background()
	s := New()
	filter := datastore.Eq("uriName", "person")

	t.Run("creates the record at one", func(t *testing.T) {
		n, err := s.IncrementOne(ctx, "seq.collections", filter, "lastId")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 1 {
			t.Errorf("got %d, want 1", n)
		}
	})

	t.Run("increments the existing record", func(t *testing.T) {
		n, err := s.IncrementOne(ctx, "seq.collections", filter, "lastId")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 2 {
			t.Errorf("got %d, want 2", n)
		}
		if s.Count("seq.collections") != 1 {
			t.Errorf("got %d records, want 1", s.Count("seq.collections"))
		}
	})

	t.Run("concurrent increments never repeat", func(t *testing.T) {
		s := New()
		const workers = 20
		seen := make(chan int64, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				n, err := s.IncrementOne(ctx, "seq.collections", filter, "lastId")
				if err != nil {
					t.Error(err)
					return
				}
				seen <- n
			}()
		}
		wg.Wait()
		close(seen)

		got := map[int64]bool{}
		for n := range seen {
			if got[n] {
				t.Errorf("value %d handed out twice", n)
			}
			got[n] = true
		}
		if len(got) != workers {
			t.Errorf("got %d distinct values, want %d", len(got), workers)
		}
	})
}

func TestUniqueIndexEnforcement(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.EnsureUniqueIndex(ctx, "people", []string{"email"}); err != nil {
		t.Fatalf("ensure index: %v", err)
	}

	first := model.Document{"id": int64(1), "email": "ada@example.com"}
	if err := s.UpsertOne(ctx, "people", datastore.Eq("id", int64(1)), first); err != nil {
		t.Fatalf("insert: %v", err)
	}

	t.Run("duplicate insert rejected", func(t *testing.T) {
		dup := model.Document{"id": int64(2), "email": "ada@example.com"}
		err := s.InsertIfAbsent(ctx, "people", datastore.Eq("id", int64(2)), dup)
		if !errors.IsAlreadyExists(err) {
			t.Errorf("got %v, want already exists", err)
		}
	})

	t.Run("replacing the same document passes", func(t *testing.T) {
		replacement := model.Document{"id": int64(1), "email": "ada@example.com", "name": "Ada"}
		if err := s.UpsertOne(ctx, "people", datastore.Eq("id", int64(1)), replacement); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestInjectedErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.NewValidationError("boom")
	s := New().
		WithFindError(boom).
		WithUpsertError(boom).
		WithInsertError(boom).
		WithDeleteError(boom).
		WithIncrementError(boom)

	if _, err := s.Find(ctx, "c", nil, nil); err != boom {
		t.Errorf("Find: got %v", err)
	}
	if err := s.UpsertOne(ctx, "c", nil, model.Document{}); err != boom {
		t.Errorf("UpsertOne: got %v", err)
	}
	if err := s.InsertIfAbsent(ctx, "c", nil, model.Document{}); err != boom {
		t.Errorf("InsertIfAbsent: got %v", err)
	}
	if err := s.DeleteOne(ctx, "c", nil); err != boom {
		t.Errorf("DeleteOne: got %v", err)
	}
	if _, err := s.IncrementOne(ctx, "c", nil, "f"); err != boom {
		t.Errorf("IncrementOne: got %v", err)
	}
}
