package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *memCache) GetBytes(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	return b, ok
}

func (c *memCache) SetBytes(key string, b []byte, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = map[string][]byte{}
	}
	c.data[key] = b
}

func (c *memCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

func statsServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/alice":
			// 1709942400 = 2024-03-09T00:00:00Z, 1709985600 = 2024-03-09T12:00:00Z, 1710028800 = 2024-03-10
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status":             "success",
				"totalSolved":        321,
				"easySolved":         200,
				"mediumSolved":       100,
				"hardSolved":         21,
				"acceptanceRate":     61.5,
				"ranking":            12345,
				"submissionCalendar": map[string]int{"1709942400": 2, "1709985600": 3, "1710028800": 1},
			})
		case "/stringcal":
			_, _ = w.Write([]byte(`{"status":"success","totalSolved":5,"submissionCalendar":"{\"1710028800\": 4}"}`))
		case "/gone":
			_, _ = w.Write([]byte(`{"status":"error","message":"user does not exist"}`))
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		case "/garbled":
			_, _ = w.Write([]byte(`{not json`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLeetCodeClientParsesStats(t *testing.T) {
	srv := statsServer(t, nil)
	c := NewLeetCodeClient(srv.URL+"/", time.Second, WithGatewayLogger(zaptest.NewLogger(t)))

	st := c.FetchStats(context.Background(), "alice")
	require.True(t, st.Valid)
	assert.Equal(t, 321, st.TotalSolved)
	assert.Equal(t, 21, st.HardSolved)
	assert.Equal(t, 12345, st.Ranking)
	assert.InDelta(t, 61.5, st.AcceptanceRate, 0.001)
	assert.Equal(t, map[string]int{"2024-03-09": 5, "2024-03-10": 1}, st.Calendar)
	assert.Equal(t, []string{"2024-03-09", "2024-03-10"}, st.CalendarDays())
}

func TestLeetCodeClientStringCalendar(t *testing.T) {
	srv := statsServer(t, nil)
	st := NewLeetCodeClient(srv.URL, time.Second).FetchStats(context.Background(), "stringcal")
	require.True(t, st.Valid)
	assert.Equal(t, map[string]int{"2024-03-10": 4}, st.Calendar)
}

func TestLeetCodeClientFailuresAreInvalid(t *testing.T) {
	srv := statsServer(t, nil)
	c := NewLeetCodeClient(srv.URL, time.Second, WithGatewayLogger(zaptest.NewLogger(t)))

	for _, handle := range []string{"nobody", "gone", "broken", "garbled", " "} {
		st := c.FetchStats(context.Background(), handle)
		assert.False(t, st.Valid, handle)
		assert.NotEmpty(t, st.Message, handle)
	}
	assert.Equal(t, "user not found", c.FetchStats(context.Background(), "gone").Message)
}

func TestLeetCodeClientUnreachable(t *testing.T) {
	srv := statsServer(t, nil)
	url := srv.URL
	srv.Close()

	st := NewLeetCodeClient(url, time.Second).FetchStats(context.Background(), "alice")
	assert.False(t, st.Valid)
}

func TestLeetCodeClientCachesValidResponses(t *testing.T) {
	var hits atomic.Int32
	srv := statsServer(t, &hits)
	cache := &memCache{}
	c := NewLeetCodeClient(srv.URL, time.Second, WithCache(cache, time.Minute))

	for i := 0; i < 3; i++ {
		require.True(t, c.FetchStats(context.Background(), "alice").Valid)
	}
	assert.Equal(t, int32(1), hits.Load())
	_, ok := cache.GetBytes(statsCacheKey("ALICE"))
	assert.True(t, ok)

	for i := 0; i < 2; i++ {
		assert.False(t, c.FetchStats(context.Background(), "nobody").Valid)
	}
	assert.Equal(t, int32(3), hits.Load())
}

func TestParseSubmissionCalendarRejectsBadKeys(t *testing.T) {
	_, err := parseSubmissionCalendar(json.RawMessage(`{"yesterday": 1}`), nil)
	assert.Error(t, err)

	cal, err := parseSubmissionCalendar(json.RawMessage(`null`), nil)
	require.NoError(t, err)
	assert.Empty(t, cal)

	cal, err = parseSubmissionCalendar(json.RawMessage(`""`), nil)
	require.NoError(t, err)
	assert.Empty(t, cal)
}
