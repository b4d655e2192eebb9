package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	models "github.com/phillip/riseandserve-go/models"
	services "github.com/phillip/riseandserve-go/services"
	utils "github.com/phillip/riseandserve-go/utils"
)

// eventView is the detail representation: the event plus derived links.
type eventView struct {
	models.Event
	CalendarURL string `json:"calendarUrl"`
	MapURL      string `json:"mapUrl"`
}

// eventInput is the create and update body. The date stays a string so the
// plain layouts users type are accepted alongside RFC 3339.
type eventInput struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	EventType   models.EventType `json:"eventType"`
	Thumbnail   string           `json:"thumbnail"`
	Location    string           `json:"location"`
	EventDate   string           `json:"eventDate"`
}

func (in eventInput) date() (time.Time, error) {
	if strings.TrimSpace(in.EventDate) == "" {
		return time.Time{}, nil
	}
	parsed, err := utils.ParseDate(in.EventDate)
	if err != nil {
		return time.Time{}, services.Validation("invalid event date", "eventDate")
	}
	return parsed, nil
}

// bindEventInput decodes the body, naming the offending field when a value
// has the wrong JSON type.
func bindEventInput(c *gin.Context) (eventInput, error) {
	var in eventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return in, services.Validation("invalid value for "+typeErr.Field, typeErr.Field)
		}
		return in, services.Validation("invalid request body", "body")
	}
	return in, nil
}

func viewOf(e *models.Event) eventView {
	return eventView{
		Event:       *e,
		CalendarURL: services.GoogleCalendarURL(*e),
		MapURL:      services.MapURL(e.Location),
	}
}

// ---------------- CREATE ----------------
func CreateEvent(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := identity(c)
		if !ok {
			return
		}

		in, err := bindEventInput(c)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		date, err := in.date()
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		draft := models.EventDraft{
			Title:       in.Title,
			Description: in.Description,
			EventType:   in.EventType,
			Thumbnail:   in.Thumbnail,
			Location:    in.Location,
			EventDate:   date,
		}

		event, err := svc.Events.Create(c.Request.Context(), draft, caller)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}

		c.Header("Location", "/events/"+event.ID.Hex())
		c.JSON(http.StatusCreated, event)
	}
}

// ---------------- LIST ----------------
func ListEvents(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := svc.Queries.ListAll(c.Request.Context())
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		respondEvents(c, events)
	}
}

// ---------------- SEARCH ----------------
func SearchEvents(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		upcoming, _ := strconv.ParseBool(c.Query("upcoming"))
		events, err := svc.Queries.Search(c.Request.Context(), services.Query{
			Keyword:  c.Query("search"),
			Type:     c.Query("type"),
			Upcoming: upcoming,
		})
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		respondEvents(c, events)
	}
}

// ---------------- BY CREATOR ----------------
func ListEventsByCreator(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := svc.Events.ListByCreator(c.Request.Context(), c.Param("email"))
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		respondEvents(c, events)
	}
}

// ---------------- GET ----------------
func GetEvent(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		event, err := svc.Events.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}

		if utils.NotModified(c, utils.GenerateETag(event.ID, event.UpdatedAt)) {
			return
		}
		c.Header("Last-Modified", event.UpdatedAt.UTC().Format(http.TimeFormat))
		c.JSON(http.StatusOK, viewOf(event))
	}
}

// ---------------- UPDATE ----------------
func UpdateEvent(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := identity(c)
		if !ok {
			return
		}

		in, err := bindEventInput(c)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		date, err := in.date()
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		patch := models.EventPatch{
			Title:       in.Title,
			Description: in.Description,
			EventType:   in.EventType,
			Thumbnail:   in.Thumbnail,
			Location:    in.Location,
			EventDate:   date,
		}

		updated, err := svc.Events.Update(c.Request.Context(), c.Param("id"), patch, caller)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Event updated successfully",
			"event":   updated,
		})
	}
}

// ---------------- DELETE ----------------
func DeleteEvent(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := identity(c)
		if !ok {
			return
		}

		if err := svc.Events.Delete(c.Request.Context(), c.Param("id"), caller); err != nil {
			utils.AbortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
	}
}
