package routes

import (
	"context"
	"net/http"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/vserver/mux"
	"github.com/vitalvas/vserver/store"
)

var uuidV7Re = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func newUsersRouter(t *testing.T) (*mux.Router, *store.MemoryBackend) {
	t.Helper()

	def, err := Parse([]byte(usersYAML))
	require.NoError(t, err)

	backend := store.NewMemoryBackend()
	r := mux.NewRouter(mux.WithStore(store.New(backend)))
	require.NoError(t, def.Register(r))
	return r, backend
}

func dispatch(t *testing.T, r *mux.Router, method, url string, body any) *mux.Result {
	t.Helper()

	res, err := r.Dispatch(context.Background(), method, url, body)
	require.NoError(t, err)
	return res
}

func TestListHandler(t *testing.T) {
	t.Run("lists all items", func(t *testing.T) {
		r, _ := newUsersRouter(t)

		res := dispatch(t, r, "GET", "/users", nil)
		assert.Equal(t, http.StatusOK, res.Status)
		assert.Len(t, res.Data, 2)
	})

	t.Run("filters by query", func(t *testing.T) {
		r, _ := newUsersRouter(t)

		res := dispatch(t, r, "GET", "/users?role=admin", nil)
		items := res.Data.([]any)
		require.Len(t, items, 1)
		assert.Equal(t, "Alice", items[0].(map[string]any)["name"])

		res = dispatch(t, r, "GET", "/users?id=1", nil)
		assert.Len(t, res.Data, 1)

		res = dispatch(t, r, "GET", "/users?role=nobody", nil)
		assert.Equal(t, []any{}, res.Data)
	})

	t.Run("missing collection is empty", func(t *testing.T) {
		r := mux.NewRouter()
		r.Get("/things", listHandler("things"))

		res := dispatch(t, r, "GET", "/things", nil)
		assert.Equal(t, []any{}, res.Data)
	})

	t.Run("persists once", func(t *testing.T) {
		r, backend := newUsersRouter(t)

		dispatch(t, r, "GET", "/users", nil)
		assert.Equal(t, 1, backend.Writes())
	})
}

func TestGetHandler(t *testing.T) {
	r, _ := newUsersRouter(t)

	t.Run("numeric id", func(t *testing.T) {
		res := dispatch(t, r, "GET", "/users/1", nil)
		assert.Equal(t, http.StatusOK, res.Status)
		assert.Equal(t, "Alice", res.Data.(map[string]any)["name"])
	})

	t.Run("string id", func(t *testing.T) {
		res := dispatch(t, r, "GET", "/users/2", nil)
		assert.Equal(t, "Bob", res.Data.(map[string]any)["name"])
	})

	t.Run("not found", func(t *testing.T) {
		res := dispatch(t, r, "GET", "/users/99", nil)
		assert.Equal(t, http.StatusNotFound, res.Status)
		assert.False(t, res.OK)
		assert.Equal(t, map[string]any{"error": "not found"}, res.Data)
	})

	t.Run("result is a copy", func(t *testing.T) {
		res := dispatch(t, r, "GET", "/users/1", nil)
		res.Data.(map[string]any)["name"] = "changed"

		res = dispatch(t, r, "GET", "/users/1", nil)
		assert.Equal(t, "Alice", res.Data.(map[string]any)["name"])
	})
}

func TestCreateHandler(t *testing.T) {
	t.Run("assigns id", func(t *testing.T) {
		r, _ := newUsersRouter(t)

		res := dispatch(t, r, "POST", "/users", `{"name":"Carol"}`)
		assert.Equal(t, http.StatusCreated, res.Status)
		assert.True(t, res.OK)

		item := res.Data.(map[string]any)
		assert.Equal(t, "Carol", item["name"])
		assert.Regexp(t, uuidV7Re, item["id"])

		users := r.Store().Collection("users")
		require.Len(t, users, 3)
		assert.Equal(t, item["id"], users[2].(map[string]any)["id"])
	})

	t.Run("keeps given id", func(t *testing.T) {
		r, _ := newUsersRouter(t)

		res := dispatch(t, r, "POST", "/users", map[string]any{"id": "abc", "name": "Dan"})
		assert.Equal(t, "abc", res.Data.(map[string]any)["id"])

		res = dispatch(t, r, "GET", "/users/abc", nil)
		assert.Equal(t, "Dan", res.Data.(map[string]any)["name"])
	})

	t.Run("creates collection", func(t *testing.T) {
		r := mux.NewRouter()
		r.Post("/notes", createHandler("notes"))

		dispatch(t, r, "POST", "/notes", `{"text":"hi"}`)
		assert.Len(t, r.Store().Collection("notes"), 1)
	})

	t.Run("non object body", func(t *testing.T) {
		r, _ := newUsersRouter(t)

		res := dispatch(t, r, "POST", "/users", `[1,2]`)
		assert.Equal(t, http.StatusBadRequest, res.Status)
		assert.Equal(t, map[string]any{"error": ErrBodyNotObject.Error()}, res.Data)
		assert.Len(t, r.Store().Collection("users"), 2)
	})

	t.Run("malformed body is an empty object", func(t *testing.T) {
		r, _ := newUsersRouter(t)

		res := dispatch(t, r, "POST", "/users", `{bad`)
		assert.Equal(t, http.StatusCreated, res.Status)
		assert.Contains(t, res.Data, "id")
	})

	t.Run("concurrent creates", func(t *testing.T) {
		r, _ := newUsersRouter(t)

		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = r.Dispatch(context.Background(), "POST", "/users", `{"name":"x"}`)
			}()
		}
		wg.Wait()

		assert.Len(t, r.Store().Collection("users"), 22)
	})
}

func TestUpdateHandler(t *testing.T) {
	t.Run("put replaces", func(t *testing.T) {
		r, _ := newUsersRouter(t)

		res := dispatch(t, r, "PUT", "/users/1", `{"name":"Alicia","id":"other"}`)
		assert.Equal(t, http.StatusOK, res.Status)
		assert.Equal(t, map[string]any{"id": float64(1), "name": "Alicia"}, res.Data)
	})

	t.Run("patch merges", func(t *testing.T) {
		r, _ := newUsersRouter(t)

		res := dispatch(t, r, "PATCH", "/users/2", `{"role":"admin"}`)
		assert.Equal(t, map[string]any{"id": "2", "name": "Bob", "role": "admin"}, res.Data)

		res = dispatch(t, r, "GET", "/users?role=admin", nil)
		assert.Len(t, res.Data, 2)
	})

	t.Run("not found", func(t *testing.T) {
		r, _ := newUsersRouter(t)

		res := dispatch(t, r, "PATCH", "/users/99", `{"role":"admin"}`)
		assert.Equal(t, http.StatusNotFound, res.Status)
	})

	t.Run("non object body", func(t *testing.T) {
		r, _ := newUsersRouter(t)

		res := dispatch(t, r, "PUT", "/users/1", `"text"`)
		assert.Equal(t, http.StatusBadRequest, res.Status)
	})
}

func TestDeleteHandler(t *testing.T) {
	r, backend := newUsersRouter(t)

	res := dispatch(t, r, "DELETE", "/users/1", nil)
	assert.Equal(t, http.StatusNoContent, res.Status)
	assert.True(t, res.OK)
	assert.Nil(t, res.Data)

	users := r.Store().Collection("users")
	require.Len(t, users, 1)
	assert.Equal(t, "2", users[0].(map[string]any)["id"])

	res = dispatch(t, r, "DELETE", "/users/1", nil)
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, 2, backend.Writes())
}

func TestRespondHandler(t *testing.T) {
	t.Run("configured response", func(t *testing.T) {
		r, _ := newUsersRouter(t)

		res := dispatch(t, r, "GET", "/health", nil)
		assert.Equal(t, http.StatusOK, res.Status)
		assert.Equal(t, "1", res.Headers["X-Mock"])
		assert.Equal(t, "application/json", res.Headers["Content-Type"])
		assert.Equal(t, map[string]any{"ok": true, "count": float64(3)}, res.Data)
	})

	t.Run("text body", func(t *testing.T) {
		r := mux.NewRouter()
		r.Get("/", respondHandler(http.StatusTeapot, nil, "short and stout"))

		res := dispatch(t, r, "GET", "/", nil)
		assert.Equal(t, http.StatusTeapot, res.Status)
		assert.False(t, res.OK)
		assert.Equal(t, "short and stout", res.Data)
	})

	t.Run("no body", func(t *testing.T) {
		r := mux.NewRouter()
		r.Get("/", respondHandler(0, nil, nil))

		res := dispatch(t, r, "GET", "/", nil)
		assert.Equal(t, http.StatusOK, res.Status)
		assert.Nil(t, res.Data)
	})
}

func TestEchoHandler(t *testing.T) {
	r, _ := newUsersRouter(t)

	res := dispatch(t, r, "POST", "/echo/bob?x=1&x=2", `{"a":1}`)
	assert.Equal(t, map[string]any{
		"method": "POST",
		"path":   "/echo/bob",
		"query":  map[string]any{"x": "2"},
		"params": map[string]any{"name": "bob"},
		"body":   map[string]any{"a": float64(1)},
	}, res.Data)
}
