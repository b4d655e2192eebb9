package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	services "github.com/phillip/riseandserve-go/services"
	utils "github.com/phillip/riseandserve-go/utils"
)

const maxThumbnailBytes = 5 << 20

// UploadThumbnail stores an event image and returns the URL to put in the
// event's thumbnail field.
func UploadThumbnail(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := identity(c); !ok {
			return
		}
		if svc.Thumbnails == nil {
			utils.AbortWithError(c, &services.Error{Kind: services.KindTransient, Message: "image uploads are not configured"})
			return
		}

		fileHeader, err := c.FormFile("image")
		if err != nil {
			utils.AbortWithError(c, services.Validation("image file is required", "image"))
			return
		}
		if fileHeader.Size > maxThumbnailBytes {
			utils.AbortWithError(c, services.Validation("image must be 5MB or smaller", "image"))
			return
		}
		if ct := fileHeader.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
			utils.AbortWithError(c, services.Validation("file must be an image", "image"))
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open file", "kind": "internal"})
			return
		}
		defer file.Close()

		url, err := svc.Thumbnails.Upload(c.Request.Context(), file)
		if err != nil {
			utils.AbortWithError(c, &services.Error{Kind: services.KindTransient, Message: "image upload failed", Err: err})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"url": url})
	}
}
