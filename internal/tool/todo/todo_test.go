package todo

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTodoTools(t *testing.T) {
	ctx := context.Background()

	t.Run("write then read", func(t *testing.T) {
		tools := New(NewMemoryStore())

		res, err := tools.ReadTodos().Execute(ctx, map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, "(no todos)", res.Content)

		res, err = tools.WriteTodos().Execute(ctx, map[string]any{
			"todos": []any{
				map[string]any{"description": "Read the code", "status": "completed"},
				map[string]any{"description": "Fix the bug", "status": "in_progress"},
				map[string]any{"description": "Add a test", "status": "pending"},
			},
		})
		require.NoError(t, err)
		assert.Contains(t, res.Content, "Saved 3 todos.")

		res, err = tools.ReadTodos().Execute(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, "[x] Read the code\n[~] Fix the bug\n[ ] Add a test", res.Content)
	})

	t.Run("write replaces the list", func(t *testing.T) {
		store := NewMemoryStore()
		tools := New(store)

		_, err := tools.WriteTodos().Execute(ctx, map[string]any{
			"todos": []any{map[string]any{"description": "A", "status": "pending"}},
		})
		require.NoError(t, err)
		_, err = tools.WriteTodos().Execute(ctx, map[string]any{
			"todos": []any{map[string]any{"description": "B", "status": "cancelled"}},
		})
		require.NoError(t, err)

		assert.Equal(t, []Todo{{Description: "B", Status: StatusCancelled}}, store.Read())
	})

	t.Run("empty list clears", func(t *testing.T) {
		store := NewMemoryStore()
		store.Write([]Todo{{Description: "A", Status: StatusPending}})

		_, err := New(store).WriteTodos().Execute(ctx, map[string]any{"todos": []any{}})
		require.NoError(t, err)
		assert.Empty(t, store.Read())
	})
}

func TestWriteTodosValidation(t *testing.T) {
	tests := []struct {
		name    string
		todos   []any
		wantErr error
	}{
		{
			name:    "unknown status",
			todos:   []any{map[string]any{"description": "A", "status": "done"}},
			wantErr: ErrInvalidStatus,
		},
		{
			name:    "empty description",
			todos:   []any{map[string]any{"description": "", "status": "pending"}},
			wantErr: ErrEmptyDescription,
		},
		{
			name: "two in progress",
			todos: []any{
				map[string]any{"description": "A", "status": "in_progress"},
				map[string]any{"description": "B", "status": "in_progress"},
			},
			wantErr: ErrMultipleInProgress,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			_, err := New(store).WriteTodos().Execute(context.Background(), map[string]any{"todos": tt.todos})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, store.Read())
		})
	}
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := NewMemoryStore()
	in := []Todo{{Description: "A", Status: StatusPending}}
	store.Write(in)
	in[0].Description = "changed"

	out := store.Read()
	assert.Equal(t, "A", out[0].Description)
	out[0].Description = "changed"
	assert.Equal(t, "A", store.Read()[0].Description)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				store.Write([]Todo{{Description: "x", Status: StatusPending}})
			} else {
				_ = store.Read()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, store.Read(), 1)
}

func TestNew_PanicsWithoutStore(t *testing.T) {
	assert.PanicsWithValue(t, "store is required", func() { New(nil) })
}
