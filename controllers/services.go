package controllers

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	middleware "github.com/phillip/riseandserve-go/middleware"
	models "github.com/phillip/riseandserve-go/models"
	"github.com/phillip/riseandserve-go/realtime"
	services "github.com/phillip/riseandserve-go/services"
	utils "github.com/phillip/riseandserve-go/utils"
)

// ThumbnailUploader stores an uploaded event image and returns its URL.
type ThumbnailUploader interface {
	Upload(ctx context.Context, file multipart.File) (string, error)
}

// Services is what the handlers are built from.
type Services struct {
	Events        *services.EventService
	Queries       *services.QueryService
	Participation *services.ParticipationService
	Passes        *services.PassService
	Chats         *services.ChatService
	Hub           *realtime.Hub
	Thumbnails    ThumbnailUploader // nil when uploads are not configured
	Clock         func() time.Time
}

func (s *Services) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock().UTC()
}

// identity returns the caller or writes a 401.
func identity(c *gin.Context) (models.Identity, bool) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		utils.AbortWithError(c, services.Unauthorized("authenticated identity required"))
		return models.Identity{}, false
	}
	return id, true
}

// respondEvents writes a listing with a list ETag, always as a JSON array.
func respondEvents(c *gin.Context, events []models.Event) {
	if events == nil {
		events = []models.Event{}
	}
	etag := utils.GenerateListETag(events, func(e models.Event) (primitive.ObjectID, time.Time) {
		return e.ID, e.UpdatedAt
	})
	if utils.NotModified(c, etag) {
		return
	}
	c.JSON(200, events)
}
