package mw

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// layoutResponse is one stored rendering of a layout endpoint.
type layoutResponse struct {
	status  int
	headers http.Header
	body    []byte
	etag    string
}

type recordingWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CacheKey is the path plus the canonical query, so parameter order does
// not split entries.
func CacheKey(r *http.Request) string {
	q := r.URL.Query().Encode()
	if q == "" {
		return r.URL.Path
	}
	return r.URL.Path + "?" + q
}

func etagOf(body []byte) string {
	h := fnv.New64a()
	h.Write(body)
	return fmt.Sprintf(`"%x"`, h.Sum64())
}

// Cache keeps GET responses in memory and answers repeated requests from
// the store. Browsers get an ETag and a max-age so a label sheet or grid
// is not downloaded twice. Only use it on routes whose output never
// depends on board state.
func Cache(store *cache.Cache, duration time.Duration) gin.HandlerFunc {
	maxAge := "public, max-age=" + strconv.Itoa(int(duration.Seconds()))

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := CacheKey(c.Request)
		if v, found := store.Get(key); found {
			cached := v.(layoutResponse)
			h := c.Writer.Header()
			for k, vals := range cached.headers {
				h[k] = vals
			}
			h.Set("X-Cache", "HIT")
			if c.GetHeader("If-None-Match") == cached.etag {
				c.Writer.WriteHeader(http.StatusNotModified)
				c.Abort()
				return
			}
			c.Writer.WriteHeader(cached.status)
			c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		rec := &recordingWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = rec
		c.Header("Cache-Control", maxAge)

		c.Next()

		if rec.Status() < 200 || rec.Status() >= 300 {
			return
		}
		body := rec.body.Bytes()
		etag := etagOf(body)
		headers := rec.Header().Clone()
		headers.Set("ETag", etag)
		store.Set(key, layoutResponse{
			status:  rec.Status(),
			headers: headers,
			body:    body,
			etag:    etag,
		}, duration)
	}
}
