package mux

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/net/http/httpguts"
)

var errHandlerFailed = errors.New("handler failed")

// Result is the outcome of one dispatch.
type Result struct {
	Status  int               `json:"status"`
	OK      bool              `json:"ok"`
	Data    any               `json:"data"`
	Headers map[string]string `json:"headers"`

	// err is the handler failure behind a failed result.
	err error
}

// Decode converts Data into v through a JSON round trip.
func (r *Result) Decode(v any) error {
	raw, err := json.Marshal(r.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// Response is the chainable response builder handed to a handler.
//
// Status and Set accumulate state. JSON, Send, SendStatus, End, Fail and
// Abort are terminal: the first terminal call freezes the result, persists
// the store and releases the waiting Dispatch. Later terminal calls are
// ignored. All methods are safe for concurrent use.
type Response struct {
	method string
	path   string
	logger zerolog.Logger

	// onComplete runs exactly once, before hooks and before Dispatch returns.
	onComplete func(*Result)

	mu        sync.Mutex
	status    int
	explicit  bool
	headers   map[string]string
	hooks     []func(*Result)
	completed bool
	result    *Result

	done chan struct{}
}

func newResponse(method, path string, logger zerolog.Logger, onComplete func(*Result)) *Response {
	return &Response{
		method:     method,
		path:       path,
		logger:     logger,
		onComplete: onComplete,
		status:     http.StatusOK,
		headers:    make(map[string]string),
		done:       make(chan struct{}),
	}
}

// Status sets the pending status code. The default is 200.
func (res *Response) Status(code int) *Response {
	res.mu.Lock()
	defer res.mu.Unlock()

	if !res.completed {
		res.status = code
		res.explicit = true
	}
	return res
}

// Set sets a response header. The name is canonicalized; invalid names or
// values are ignored.
func (res *Response) Set(key, value string) *Response {
	key = strings.TrimSpace(key)
	if !httpguts.ValidHeaderFieldName(key) || !httpguts.ValidHeaderFieldValue(value) {
		res.logger.Warn().Str("header", key).Msg("ignoring invalid response header")
		return res
	}

	res.mu.Lock()
	defer res.mu.Unlock()

	if !res.completed {
		res.headers[http.CanonicalHeaderKey(key)] = value
	}
	return res
}

// Header returns an accumulated response header.
func (res *Response) Header(key string) string {
	res.mu.Lock()
	defer res.mu.Unlock()

	return res.headers[http.CanonicalHeaderKey(key)]
}

// JSON completes the response with v. The value is copied through a JSON
// round trip so later mutations by the handler do not leak into the result.
// Content-Type defaults to application/json. A value that cannot be encoded
// fails the request.
func (res *Response) JSON(v any) {
	data, err := freezeJSON(v)
	if err != nil {
		res.Fail(fmt.Errorf("encode response: %w", err))
		return
	}

	res.setDefaultHeader("Content-Type", "application/json")
	res.completeWithStatus(data)
}

// Send completes the response with a raw body. Strings and byte slices are
// sent as text; any other value is sent as JSON.
func (res *Response) Send(v any) {
	switch b := v.(type) {
	case nil:
		res.completeWithStatus(nil)
	case string:
		res.setDefaultHeader("Content-Type", "text/html; charset=utf-8")
		res.completeWithStatus(b)
	case []byte:
		res.setDefaultHeader("Content-Type", "text/html; charset=utf-8")
		res.completeWithStatus(string(b))
	default:
		res.JSON(v)
	}
}

// SendStatus sets the status and completes the response with its status text.
func (res *Response) SendStatus(code int) {
	res.Status(code)

	text := http.StatusText(code)
	if text == "" {
		text = strconv.Itoa(code)
	}

	res.setDefaultHeader("Content-Type", "text/plain; charset=utf-8")
	res.completeWithStatus(text)
}

// End completes the response without a body.
func (res *Response) End() {
	res.completeWithStatus(nil)
}

// Fail completes the response as a handler failure with {"error": message}.
// The status is 500 unless a different status was set explicitly beforehand,
// in which case that status is kept. The result is never OK.
func (res *Response) Fail(err error) {
	if err == nil {
		err = errHandlerFailed
	}

	res.mu.Lock()
	status := http.StatusInternalServerError
	if res.explicit && res.status != http.StatusOK {
		status = res.status
	}
	res.mu.Unlock()

	res.complete(&Result{Status: status, Data: errorBody(err), err: err})
}

// Abort completes the response with the given status and {"error": message},
// ignoring any pending status.
func (res *Response) Abort(status int, err error) {
	if err == nil {
		err = errors.New(http.StatusText(status))
	}
	res.complete(&Result{Status: status, Data: errorBody(err)})
}

// Done returns a channel that is closed once the response is complete.
func (res *Response) Done() <-chan struct{} {
	return res.done
}

// Completed reports whether a terminal method has taken effect.
func (res *Response) Completed() bool {
	res.mu.Lock()
	defer res.mu.Unlock()

	return res.completed
}

// Result returns the frozen result, or nil while the response is pending.
func (res *Response) Result() *Result {
	res.mu.Lock()
	defer res.mu.Unlock()

	return res.result
}

// OnComplete registers fn to run once the response completes. When the
// response is already complete, fn runs immediately.
func (res *Response) OnComplete(fn func(*Result)) {
	res.mu.Lock()
	if res.completed {
		result := res.result
		res.mu.Unlock()
		fn(result)
		return
	}
	res.hooks = append(res.hooks, fn)
	res.mu.Unlock()
}

func (res *Response) setDefaultHeader(key, value string) {
	res.mu.Lock()
	defer res.mu.Unlock()

	if res.completed {
		return
	}
	if _, ok := res.headers[key]; !ok {
		res.headers[key] = value
	}
}

func (res *Response) completeWithStatus(data any) {
	res.mu.Lock()
	status := res.status
	res.mu.Unlock()

	res.complete(&Result{
		Status: status,
		OK:     status >= http.StatusOK && status < http.StatusMultipleChoices,
		Data:   data,
	})
}

// complete is the single transition from pending to completed. It returns
// false when the response was already complete.
func (res *Response) complete(result *Result) bool {
	res.mu.Lock()
	if res.completed {
		res.mu.Unlock()
		return false
	}
	res.completed = true

	result.Headers = make(map[string]string, len(res.headers))
	for k, v := range res.headers {
		result.Headers[k] = v
	}
	res.result = result

	hooks := res.hooks
	res.hooks = nil
	res.mu.Unlock()

	if result.err != nil {
		res.logger.Warn().
			Err(&HandlerError{Method: res.method, Path: res.path, Err: result.err}).
			Int("status", result.Status).
			Msg("handler failed")
	}
	if res.onComplete != nil {
		res.onComplete(result)
	}
	for _, fn := range hooks {
		fn(result)
	}

	close(res.done)
	return true
}

func freezeJSON(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func errorBody(err error) map[string]any {
	return map[string]any{"error": err.Error()}
}
