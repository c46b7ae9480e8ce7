package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/isbn/1", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"author":"Chinua Achebe","title":"Things Fall Apart","reviews":{}}`))
	})
	mux.HandleFunc("/isbn/404", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Book with ISBN 404 not found"}`))
	})
	mux.HandleFunc("/plain", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("hello"))
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRelayFetch(t *testing.T) {
	srv := newUpstream(t)
	relay := NewRelay(srv.URL+"/", time.Second)

	res, err := relay.Fetch(context.Background(), BookPath("1"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)

	var book map[string]any
	require.NoError(t, json.Unmarshal(res.Body, &book))
	assert.Equal(t, "Things Fall Apart", book["title"])

	res, err = relay.Fetch(context.Background(), "/plain")
	require.NoError(t, err)
	assert.JSONEq(t, `"hello"`, string(res.Body))
}

func TestRelayFetchUpstreamStatus(t *testing.T) {
	srv := newUpstream(t)
	relay := NewRelay(srv.URL, time.Second)

	_, err := relay.Fetch(context.Background(), BookPath("404"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, http.StatusNotFound, ErrorStatus(err))

	detail, ok := ErrorDetail(err).(json.RawMessage)
	require.True(t, ok)
	assert.JSONEq(t, `{"message":"Book with ISBN 404 not found"}`, string(detail))
}

func TestRelayFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	relay := NewRelay(base, time.Second)
	_, err := relay.Fetch(context.Background(), CatalogPath())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, http.StatusInternalServerError, ErrorStatus(err))
	assert.IsType(t, "", ErrorDetail(err))
}

func TestRelayFetchTimeout(t *testing.T) {
	srv := newUpstream(t)
	relay := NewRelay(srv.URL, 50*time.Millisecond)

	start := time.Now()
	_, err := relay.Fetch(context.Background(), "/slow")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFetchAsyncMatchesFetch(t *testing.T) {
	srv := newUpstream(t)
	relay := NewRelay(srv.URL, time.Second)
	ctx := context.Background()

	blocking, err := relay.Fetch(ctx, BookPath("1"))
	require.NoError(t, err)

	var (
		got    *Relayed
		caught error
	)
	p := relay.FetchAsync(ctx, BookPath("1")).
		Then(func(r *Relayed) { got = r }).
		Catch(func(err error) { caught = err })
	<-p.Done()

	require.NoError(t, caught)
	require.NotNil(t, got)
	assert.Equal(t, blocking.Status, got.Status)
	assert.Equal(t, string(blocking.Body), string(got.Body))
}

func TestPromiseRejection(t *testing.T) {
	srv := newUpstream(t)
	relay := NewRelay(srv.URL, time.Second)

	thenCalled := false
	var caught error
	p := relay.FetchAsync(context.Background(), BookPath("404")).
		Then(func(*Relayed) { thenCalled = true }).
		Catch(func(err error) { caught = err })

	_, err := p.Await()
	assert.ErrorIs(t, err, ErrUpstream)
	assert.False(t, thenCalled)
	assert.ErrorIs(t, caught, ErrUpstream)
}
