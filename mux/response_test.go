package mux

import (
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResponse() (*Response, *int) {
	completions := 0
	res := newResponse("GET", "/test", zerolog.Nop(), func(*Result) {
		completions++
	})
	return res, &completions
}

func TestResponseJSON(t *testing.T) {
	type item struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}

	t.Run("completes with status and content type", func(t *testing.T) {
		res, completions := newTestResponse()
		res.Status(http.StatusCreated).JSON(item{Name: "test", Value: 42})

		result := res.Result()
		require.NotNil(t, result)
		assert.Equal(t, http.StatusCreated, result.Status)
		assert.True(t, result.OK)
		assert.Equal(t, map[string]any{"name": "test", "value": float64(42)}, result.Data)
		assert.Equal(t, "application/json", result.Headers["Content-Type"])
		assert.Equal(t, 1, *completions)
	})

	t.Run("freezes data", func(t *testing.T) {
		res, _ := newTestResponse()
		payload := map[string]any{"n": 1}
		res.JSON(payload)
		payload["n"] = 2

		assert.Equal(t, map[string]any{"n": float64(1)}, res.Result().Data)
	})

	t.Run("keeps explicit content type", func(t *testing.T) {
		res, _ := newTestResponse()
		res.Set("content-type", "application/vnd.api+json").JSON([]int{1})

		assert.Equal(t, "application/vnd.api+json", res.Result().Headers["Content-Type"])
	})

	t.Run("nil is null", func(t *testing.T) {
		res, _ := newTestResponse()
		res.JSON(nil)
		assert.Nil(t, res.Result().Data)
	})

	t.Run("unencodable value fails", func(t *testing.T) {
		res, completions := newTestResponse()
		res.JSON(make(chan int))

		result := res.Result()
		assert.Equal(t, http.StatusInternalServerError, result.Status)
		assert.False(t, result.OK)
		assert.Contains(t, result.Data.(map[string]any)["error"], "encode response")
		assert.Equal(t, 1, *completions)
	})

	t.Run("non-2xx status is not ok", func(t *testing.T) {
		res, _ := newTestResponse()
		res.Status(http.StatusNotFound).JSON(map[string]any{"error": "not found"})

		assert.Equal(t, http.StatusNotFound, res.Result().Status)
		assert.False(t, res.Result().OK)
	})
}

func TestResponseSend(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		res, _ := newTestResponse()
		res.Send("<p>hi</p>")

		assert.Equal(t, "<p>hi</p>", res.Result().Data)
		assert.Equal(t, "text/html; charset=utf-8", res.Result().Headers["Content-Type"])
	})

	t.Run("bytes", func(t *testing.T) {
		res, _ := newTestResponse()
		res.Send([]byte("raw"))

		assert.Equal(t, "raw", res.Result().Data)
		assert.Equal(t, "text/html; charset=utf-8", res.Result().Headers["Content-Type"])
	})

	t.Run("structured value is json", func(t *testing.T) {
		res, _ := newTestResponse()
		res.Send(map[string]any{"a": 1})

		assert.Equal(t, map[string]any{"a": float64(1)}, res.Result().Data)
		assert.Equal(t, "application/json", res.Result().Headers["Content-Type"])
	})

	t.Run("nil", func(t *testing.T) {
		res, _ := newTestResponse()
		res.Send(nil)
		assert.Nil(t, res.Result().Data)
		assert.Equal(t, http.StatusOK, res.Result().Status)
	})
}

func TestResponseSendStatus(t *testing.T) {
	t.Run("known status", func(t *testing.T) {
		res, _ := newTestResponse()
		res.SendStatus(http.StatusNoContent)

		assert.Equal(t, http.StatusNoContent, res.Result().Status)
		assert.True(t, res.Result().OK)
		assert.Equal(t, "No Content", res.Result().Data)
		assert.Equal(t, "text/plain; charset=utf-8", res.Result().Headers["Content-Type"])
	})

	t.Run("unknown status", func(t *testing.T) {
		res, _ := newTestResponse()
		res.SendStatus(599)
		assert.Equal(t, "599", res.Result().Data)
		assert.False(t, res.Result().OK)
	})
}

func TestResponseEnd(t *testing.T) {
	res, _ := newTestResponse()
	res.Status(http.StatusNoContent).End()

	assert.Equal(t, http.StatusNoContent, res.Result().Status)
	assert.Nil(t, res.Result().Data)
	assert.Empty(t, res.Result().Headers)
}

func TestResponseFail(t *testing.T) {
	t.Run("defaults to 500", func(t *testing.T) {
		res, _ := newTestResponse()
		res.Fail(errors.New("boom"))

		assert.Equal(t, http.StatusInternalServerError, res.Result().Status)
		assert.False(t, res.Result().OK)
		assert.Equal(t, map[string]any{"error": "boom"}, res.Result().Data)
	})

	t.Run("keeps explicit status", func(t *testing.T) {
		for _, code := range []int{http.StatusCreated, http.StatusFound, http.StatusBadRequest} {
			res, _ := newTestResponse()
			res.Status(code).Fail(errors.New("bad input"))
			assert.Equal(t, code, res.Result().Status)
			assert.False(t, res.Result().OK)
		}
	})

	t.Run("explicit 200 becomes 500", func(t *testing.T) {
		res, _ := newTestResponse()
		res.Status(http.StatusOK).Fail(errors.New("boom"))
		assert.Equal(t, http.StatusInternalServerError, res.Result().Status)
	})

	t.Run("nil error", func(t *testing.T) {
		res, _ := newTestResponse()
		res.Fail(nil)
		assert.Equal(t, map[string]any{"error": "handler failed"}, res.Result().Data)
	})
}

func TestResponseAbort(t *testing.T) {
	t.Run("overrides pending status", func(t *testing.T) {
		res, _ := newTestResponse()
		res.Status(http.StatusCreated)
		res.Abort(http.StatusGatewayTimeout, errors.New("request timed out"))

		assert.Equal(t, http.StatusGatewayTimeout, res.Result().Status)
		assert.False(t, res.Result().OK)
		assert.Equal(t, map[string]any{"error": "request timed out"}, res.Result().Data)
	})

	t.Run("nil error uses status text", func(t *testing.T) {
		res, _ := newTestResponse()
		res.Abort(http.StatusServiceUnavailable, nil)
		assert.Equal(t, map[string]any{"error": "Service Unavailable"}, res.Result().Data)
	})
}

func TestResponseHeaders(t *testing.T) {
	t.Run("accumulates canonical headers", func(t *testing.T) {
		res, _ := newTestResponse()
		res.Set("x-total-count", "3").Set("Cache-Control", "no-store")

		assert.Equal(t, "3", res.Header("X-Total-Count"))
		res.End()
		assert.Equal(t, map[string]string{
			"X-Total-Count": "3",
			"Cache-Control": "no-store",
		}, res.Result().Headers)
	})

	t.Run("ignores invalid header", func(t *testing.T) {
		res, _ := newTestResponse()
		res.Set("bad header", "v").Set("X-Ok", "line\nbreak")
		res.End()
		assert.Empty(t, res.Result().Headers)
	})

	t.Run("changes after completion are ignored", func(t *testing.T) {
		res, _ := newTestResponse()
		res.End()
		res.Status(http.StatusTeapot).Set("X-Late", "1")

		assert.Equal(t, http.StatusOK, res.Result().Status)
		assert.Empty(t, res.Header("X-Late"))
	})
}

func TestResponseExactlyOnce(t *testing.T) {
	t.Run("sequential terminal calls", func(t *testing.T) {
		res, completions := newTestResponse()
		res.JSON("first")
		res.Send("second")
		res.SendStatus(http.StatusTeapot)
		res.End()
		res.Fail(errors.New("late"))
		res.Abort(http.StatusBadGateway, nil)

		assert.Equal(t, "first", res.Result().Data)
		assert.Equal(t, 1, *completions)
		assert.True(t, res.Completed())
	})

	t.Run("concurrent terminal calls", func(t *testing.T) {
		var mu sync.Mutex
		completions := 0
		res := newResponse("GET", "/", zerolog.Nop(), func(*Result) {
			mu.Lock()
			completions++
			mu.Unlock()
		})

		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res.End()
			}()
		}
		wg.Wait()

		<-res.Done()
		assert.Equal(t, 1, completions)
	})
}

func TestResponseOnComplete(t *testing.T) {
	t.Run("runs registered hooks once", func(t *testing.T) {
		res, _ := newTestResponse()
		var statuses []int
		res.OnComplete(func(r *Result) { statuses = append(statuses, r.Status) })
		res.SendStatus(http.StatusAccepted)
		res.End()

		assert.Equal(t, []int{http.StatusAccepted}, statuses)
	})

	t.Run("runs immediately after completion", func(t *testing.T) {
		res, _ := newTestResponse()
		res.End()

		called := false
		res.OnComplete(func(*Result) { called = true })
		assert.True(t, called)
	})

	t.Run("pending response", func(t *testing.T) {
		res, _ := newTestResponse()
		assert.False(t, res.Completed())
		assert.Nil(t, res.Result())

		select {
		case <-res.Done():
			t.Fatal("done before completion")
		default:
		}
	})
}

func TestResultDecode(t *testing.T) {
	result := &Result{Data: map[string]any{"name": "Ann", "age": float64(30)}}

	var user struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	require.NoError(t, result.Decode(&user))
	assert.Equal(t, "Ann", user.Name)
	assert.Equal(t, 30, user.Age)
}
