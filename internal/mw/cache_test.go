package mw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dakshesh-max/society-man/internal/changefeed"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCache_ServesRepeatedGetsFromCache(t *testing.T) {
	rc := NewResponseCache(time.Minute)
	var hits atomic.Int32

	r := gin.New()
	r.GET("/api/members", rc.Handler(), func(c *gin.Context) {
		hits.Add(1)
		c.JSON(http.StatusOK, gin.H{"hits": hits.Load()})
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/members", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"hits":1}`, w.Body.String())
		if i > 0 {
			assert.Equal(t, "HIT", w.Header().Get(CacheHeader))
			assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
		}
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestCache_WriteDropsPrefixBeforeResponding(t *testing.T) {
	rc := NewResponseCache(time.Minute, "/api/dashboard")
	var members atomic.Int32

	r := gin.New()
	g := r.Group("/api", rc.Handler())
	g.GET("/members", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"total": members.Load()}) })
	g.GET("/dashboard", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"members": members.Load()}) })
	g.GET("/visitors", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"total": 0}) })
	g.POST("/members", func(c *gin.Context) {
		members.Add(1)
		c.Status(http.StatusCreated)
	})
	g.POST("/visitors", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	})

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}
	get("/api/members")
	get("/api/dashboard")
	get("/api/visitors")
	require.Equal(t, 3, rc.Len())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/visitors", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 3, rc.Len(), "failed writes keep the cache")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/members", nil))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, rc.Len())

	w = get("/api/members")
	assert.Empty(t, w.Header().Get(CacheHeader))
	assert.JSONEq(t, `{"total":1}`, w.Body.String())
	assert.JSONEq(t, `{"members":1}`, get("/api/dashboard").Body.String())
	assert.Equal(t, "HIT", get("/api/visitors").Header().Get(CacheHeader))
}

func TestCache_ReadInFlightAcrossWriteIsNotStored(t *testing.T) {
	rc := NewResponseCache(time.Minute)
	var members atomic.Int32
	read := make(chan struct{})
	release := make(chan struct{})
	var hold atomic.Bool
	hold.Store(true)

	r := gin.New()
	g := r.Group("/api", rc.Handler())
	g.GET("/members", func(c *gin.Context) {
		total := members.Load()
		if hold.CompareAndSwap(true, false) {
			close(read)
			<-release
		}
		c.JSON(http.StatusOK, gin.H{"total": total})
	})
	g.POST("/members", func(c *gin.Context) {
		members.Add(1)
		c.Status(http.StatusCreated)
	})

	done := make(chan *httptest.ResponseRecorder)
	go func() {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/members", nil))
		done <- w
	}()

	<-read
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/members", nil))
	require.Equal(t, http.StatusCreated, w.Code)
	close(release)

	stale := <-done
	assert.JSONEq(t, `{"total":0}`, stale.Body.String())
	assert.Equal(t, 0, rc.Len())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/members", nil))
	assert.Empty(t, w.Header().Get(CacheHeader))
	assert.JSONEq(t, `{"total":1}`, w.Body.String())
}

func TestInvalidate(t *testing.T) {
	rc := NewResponseCache(time.Minute)
	rc.store.SetDefault("/api/members", cachedResponse{})
	rc.store.SetDefault("/api/members/abc", cachedResponse{})
	rc.store.SetDefault("/api/maintenance?status=pending", cachedResponse{})
	rc.store.SetDefault("/api/dashboard", cachedResponse{})

	assert.Equal(t, 3, rc.Invalidate("/api/members", "/api/dashboard"))
	_, found := rc.store.Get("/api/maintenance?status=pending")
	assert.True(t, found)
	assert.Equal(t, 1, rc.Len())
}

func TestRoutePrefix(t *testing.T) {
	assert.Equal(t, "/api/members", routePrefix("/api/members"))
	assert.Equal(t, "/api/visitors", routePrefix("/api/visitors/abc/checkout"))
	assert.Equal(t, "/api/reports", routePrefix("/api/reports/payments"))
	assert.Equal(t, "/health", routePrefix("/health"))
}

func TestInvalidateOnChange(t *testing.T) {
	rc := NewResponseCache(time.Minute, "/api/dashboard")
	hub := changefeed.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- rc.InvalidateOnChange(ctx, hub, map[string][]string{"visitors": {"/api/visitors"}})
	}()
	require.Eventually(t, func() bool { return hub.Subscribers(changefeed.AllTables) == 1 }, time.Second, 5*time.Millisecond)

	rc.store.SetDefault("/api/visitors", cachedResponse{})
	rc.store.SetDefault("/api/dashboard", cachedResponse{})
	rc.store.SetDefault("/api/members", cachedResponse{})

	require.NoError(t, hub.Publish(ctx, changefeed.Event{Table: "visitors", Op: changefeed.OpInsert, ID: "v1"}))
	assert.Eventually(t, func() bool { return rc.Len() == 1 }, time.Second, 5*time.Millisecond)
	_, found := rc.store.Get("/api/members")
	assert.True(t, found)

	cancel()
	assert.NoError(t, <-done)
}
