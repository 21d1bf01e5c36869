package gateway

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/bazargw/internal/proxy"
	"github.com/vyrodovalexey/bazargw/internal/util"
)

// Response messages.
const (
	MsgRouteNotFound       = "Route not found"
	MsgBookIDRequired      = "bookId is required"
	MsgBookIDInvalid       = "bookId must be a string or number"
	MsgInvalidJSON         = "invalid JSON body"
	MsgCacheInvalidated    = "Cache invalidated"
	MsgBodyTooLarge        = "Request body too large"
	MsgInvalidRequestBody  = "invalid request body"
	MsgServiceUnavailable  = "Service unavailable"
	MsgServiceDescription  = "Bazar Gateway Service"
	serviceUnavailableTail = " service unavailable"
)

// Sentinel errors for invalidation requests.
var (
	// ErrBookIDRequired indicates a missing, null or empty bookId.
	ErrBookIDRequired = errors.New(MsgBookIDRequired)

	// ErrBookIDInvalid indicates a bookId that is neither a string nor a number.
	ErrBookIDInvalid = errors.New(MsgBookIDInvalid)

	// ErrInvalidJSON indicates an invalidation body that is not a JSON object.
	ErrInvalidJSON = errors.New(MsgInvalidJSON)
)

// UnavailableMessage returns the 503 message for a service family, e.g.
// "Catalog service unavailable".
func UnavailableMessage(family string) string {
	if family == "" {
		return MsgServiceUnavailable
	}
	return strings.ToUpper(family[:1]) + family[1:] + serviceUnavailableTail
}

// writeError maps err to a status code and JSON body. It is the only place
// where dispatch failures become HTTP responses.
func writeError(c *gin.Context, family string, err error) {
	_ = c.Error(err)

	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"message": MsgBodyTooLarge})
	case errors.Is(err, util.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"message": MsgRouteNotFound,
			"path":    c.Request.URL.Path,
		})
	case errors.Is(err, util.ErrBackendUnavail), errors.Is(err, proxy.ErrNoHost):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"message": UnavailableMessage(family)})
	case errors.Is(err, ErrBookIDRequired), errors.Is(err, ErrBookIDInvalid), errors.Is(err, ErrInvalidJSON):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case proxy.IsProxyError(err):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": MsgInvalidRequestBody})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}
