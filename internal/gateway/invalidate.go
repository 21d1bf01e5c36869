package gateway

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/bazargw/internal/book"
	"github.com/vyrodovalexey/bazargw/internal/observability"
)

// maxInvalidateBodyBytes caps the invalidation body independently of the
// global body limit.
const maxInvalidateBodyBytes = 64 << 10

// invalidateRequest is the body of POST /cache/invalidate.
type invalidateRequest struct {
	BookID json.RawMessage `json:"bookId"`
}

// Invalidate removes the cached info entry of a book and every cached
// search result listing it.
//
// The body must be a JSON object with a bookId that is a non-empty string
// or a number. Integral numbers and integer strings are matched in their
// decimal form, so 42, 42.0, "42", " 42" and "042" address the same book. The response echoes bookId as sent
// and reports how many entries were removed. Invalidating an id that is not
// cached succeeds with removed 0. Catalog writes passing through the
// gateway never invalidate on their own; callers use this endpoint after
// an update.
func (g *Gateway) Invalidate(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxInvalidateBodyBytes))
	if err != nil {
		g.metrics.recordInvalidation("rejected")
		writeError(c, "", err)
		return
	}

	raw, id, err := parseBookID(body)
	if err != nil {
		g.metrics.recordInvalidation("rejected")
		writeError(c, "", err)
		return
	}

	ctx := c.Request.Context()
	removed := g.cache.Invalidate(ctx, id)
	g.metrics.recordInvalidation("ok")

	g.logger.WithContext(ctx).Info("cache invalidated",
		observability.String("book_id", id),
		observability.Int("removed", removed),
	)

	c.JSON(http.StatusOK, gin.H{
		"message": MsgCacheInvalidated,
		"bookId":  raw,
		"removed": removed,
	})
}

// parseBookID extracts bookId from an invalidation body. It returns the
// raw JSON value for echoing and the identifier in the form cache keys and
// summaries use.
func parseBookID(body []byte) (json.RawMessage, string, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, "", ErrBookIDRequired
	}

	var req invalidateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, "", ErrInvalidJSON
	}

	raw := bytes.TrimSpace(req.BookID)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, "", ErrBookIDRequired
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, "", ErrInvalidJSON
	}

	switch id := v.(type) {
	case string:
		id = book.CanonicalID(id)
		if id == "" {
			return nil, "", ErrBookIDRequired
		}
		return raw, id, nil
	case json.Number:
		return raw, numberID(id), nil
	default:
		return nil, "", ErrBookIDInvalid
	}
}

// numberID renders an integral number in decimal and any other number as
// written.
func numberID(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	f, err := n.Float64()
	if err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<63 {
		return strconv.FormatInt(int64(f), 10)
	}
	return n.String()
}
