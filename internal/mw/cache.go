package mw

import (
	"bytes"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// CacheHeader is set to HIT on responses replayed from the cache.
const CacheHeader = "X-Cache"

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ResponseCache keeps successful GET responses in memory, keyed by request
// URI. Every route prefix ("/api/members") carries a generation that
// Invalidate bumps; a response whose prefix changed generation while it was
// being produced is not stored.
type ResponseCache struct {
	store  *cache.Cache
	ttl    time.Duration
	always []string

	mu  sync.Mutex
	gen map[string]uint64
}

// NewResponseCache creates a cache whose entries live for ttl. The always
// prefixes are dropped together with any write.
func NewResponseCache(ttl time.Duration, always ...string) *ResponseCache {
	return &ResponseCache{
		store:  cache.New(ttl, 2*ttl),
		ttl:    ttl,
		always: always,
		gen:    make(map[string]uint64),
	}
}

// Handler replays cached GET responses and fills the cache on a miss. After
// a successful write it drops the written prefix and the always prefixes
// before the response leaves, so the next read sees the write.
func (rc *ResponseCache) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		prefix := routePrefix(c.Request.URL.Path)

		if c.Request.Method != http.MethodGet {
			c.Next()
			if status := c.Writer.Status(); status >= 200 && status < 300 {
				rc.Invalidate(append([]string{prefix}, rc.always...)...)
			}
			return
		}

		key := c.Request.RequestURI
		if resp, found := rc.store.Get(key); found {
			cached := resp.(cachedResponse)
			for k, v := range cached.headers {
				c.Writer.Header()[k] = v
			}
			c.Writer.Header().Set(CacheHeader, "HIT")
			c.Writer.WriteHeader(cached.status)
			c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		gen := rc.generation(prefix)
		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// Only cache successful responses
		if blw.Status() >= 200 && blw.Status() < 300 {
			rc.fill(prefix, gen, key, cachedResponse{
				status: blw.Status(),
				// Make a copy of the header map.
				headers: blw.Header().Clone(),
				body:    blw.body.Bytes(),
			})
		}
	}
}

func (rc *ResponseCache) generation(prefix string) uint64 {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.gen[prefix]
}

// fill stores resp unless prefix was invalidated since gen was read.
func (rc *ResponseCache) fill(prefix string, gen uint64, key string, resp cachedResponse) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.gen[prefix] != gen {
		return
	}
	rc.store.Set(key, resp, rc.ttl)
}

// Invalidate drops every cached response whose request URI starts with one of
// the prefixes and returns how many were dropped.
func (rc *ResponseCache) Invalidate(prefixes ...string) int {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	for _, p := range prefixes {
		rc.gen[p]++
	}
	n := 0
	for key := range rc.store.Items() {
		for _, p := range prefixes {
			if strings.HasPrefix(key, p) {
				rc.store.Delete(key)
				n++
				break
			}
		}
	}
	return n
}

// Len returns the number of cached responses.
func (rc *ResponseCache) Len() int {
	return rc.store.ItemCount()
}

// routePrefix returns the first two path segments, "/api/members" for
// "/api/members/abc/checkout".
func routePrefix(path string) string {
	parts := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 3)
	if len(parts) < 2 {
		return "/" + parts[0]
	}
	return "/" + parts[0] + "/" + parts[1]
}

// NoCache is the stand-in for ResponseCache.Handler when caching is disabled.
func NoCache(c *gin.Context) { c.Next() }
