package utils

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GenerateETag derives a weak validator from a document id and its last update.
func GenerateETag(id primitive.ObjectID, updatedAt time.Time) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s:%d", id.Hex(), updatedAt.UnixNano())))
	return `W/"` + hex.EncodeToString(sum[:8]) + `"`
}

// GenerateListETag covers a list: it changes when any member changes or the
// membership does.
func GenerateListETag[T any](items []T, key func(T) (primitive.ObjectID, time.Time)) string {
	h := sha1.New()
	for _, item := range items {
		id, at := key(item)
		fmt.Fprintf(h, "%s:%d;", id.Hex(), at.UnixNano())
	}
	return `W/"` + hex.EncodeToString(h.Sum(nil)[:8]) + `"`
}

// NotModified sets the ETag header and reports whether the client copy is
// current, in which case a 304 has already been written.
func NotModified(c *gin.Context, etag string) bool {
	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	c.Header("ETag", etag)
	return false
}
