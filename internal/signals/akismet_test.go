package signals

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyggecms/gatekeeper/internal/moderation"
)

func testQuery() moderation.ReputationQuery {
	return moderation.ReputationQuery{
		ClientIP:    "198.51.100.1",
		UserAgent:   "test-agent",
		Content:     "hello world",
		AuthorName:  "Alice",
		AuthorEmail: "alice@example.com",
		Permalink:   "https://blog.example.com/p/42",
	}
}

func newTestAkismet(t *testing.T, handler http.HandlerFunc) (*AkismetClient, *int32) {
	t.Helper()

	var calls int32

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(ts.Close)

	client := NewAkismetClient(AkismetConfig{
		Enabled:        true,
		APIKey:         "test-key",
		BlogURL:        "https://blog.example.com",
		RequestsPerMin: 600,
	})
	client.endpoint = ts.URL

	return client, &calls
}

func TestAkismet_UnconfiguredSkipsNetwork(t *testing.T) {
	var calls int32

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	for _, client := range []*AkismetClient{
		NewAkismetClient(AkismetConfig{Enabled: true, APIKey: ""}),
		NewAkismetClient(AkismetConfig{Enabled: false, APIKey: "key"}),
	} {
		client.endpoint = ts.URL

		signal := client.Check(context.Background(), testQuery())
		assert.False(t, signal.Configured)
		assert.Empty(t, signal.Err)
		assert.Nil(t, signal.Result)
	}

	assert.EqualValues(t, 0, atomic.LoadInt32(&calls))
}

func TestAkismet_SpamVerdictWithProTip(t *testing.T) {
	client, _ := newTestAkismet(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "https://blog.example.com", r.Form.Get("blog"))
		assert.Equal(t, "198.51.100.1", r.Form.Get("user_ip"))
		assert.Equal(t, "hello world", r.Form.Get("comment_content"))
		assert.Equal(t, "comment", r.Form.Get("comment_type"))

		w.Header().Set("X-Akismet-Pro-Tip", "discard")
		_, _ = w.Write([]byte("true"))
	})

	signal := client.Check(context.Background(), testQuery())

	assert.True(t, signal.Configured)
	assert.Empty(t, signal.Err)
	require.NotNil(t, signal.Result)
	assert.True(t, signal.Result.Spam)
	assert.Equal(t, "discard", signal.Result.Tip)
}

func TestAkismet_CleanVerdict(t *testing.T) {
	client, _ := newTestAkismet(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("false"))
	})

	signal := client.Check(context.Background(), testQuery())

	assert.Empty(t, signal.Err)
	require.NotNil(t, signal.Result)
	assert.False(t, signal.Result.Spam)
}

func TestAkismet_ServiceErrorBody(t *testing.T) {
	client, _ := newTestAkismet(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("Missing required field: blog."))
	})

	signal := client.Check(context.Background(), testQuery())

	assert.True(t, signal.Configured)
	assert.Nil(t, signal.Result)
	assert.Contains(t, signal.Err, "Missing required field")
}

func TestAkismet_UnexpectedStatus(t *testing.T) {
	client, _ := newTestAkismet(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	signal := client.Check(context.Background(), testQuery())

	assert.True(t, signal.Configured)
	assert.Nil(t, signal.Result)
	assert.Contains(t, signal.Err, "unexpected status: 500")
}

func TestAkismet_TimeoutResolvesToErrorSignal(t *testing.T) {
	client, _ := newTestAkismet(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte("false"))
	})
	client.httpClient.Timeout = 50 * time.Millisecond

	signal := client.Check(context.Background(), testQuery())

	assert.True(t, signal.Configured)
	assert.Nil(t, signal.Result)
	assert.NotEmpty(t, signal.Err)
}

func TestAkismet_ContextCancellation(t *testing.T) {
	client, _ := newTestAkismet(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte("false"))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	signal := client.Check(ctx, testQuery())

	assert.True(t, signal.Configured)
	assert.Nil(t, signal.Result)
	assert.NotEmpty(t, signal.Err)
}
