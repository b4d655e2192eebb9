package controllers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/phillip/riseandserve-go/render"
	services "github.com/phillip/riseandserve-go/services"
	utils "github.com/phillip/riseandserve-go/utils"
)

func GetCountdown(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		event, err := svc.Events.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusOK, services.CountdownTo(event.EventDate, svc.now()))
	}
}

// StreamCountdown pushes a countdown frame every second until the event is
// live or the client goes away.
func StreamCountdown(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		event, err := svc.Events.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("X-Accel-Buffering", "no")

		ticker := time.NewTicker(services.CountdownInterval)
		defer ticker.Stop()

		first := true
		c.Stream(func(w io.Writer) bool {
			if !first {
				select {
				case <-c.Request.Context().Done():
					return false
				case <-ticker.C:
				}
			}
			first = false

			cd := services.CountdownTo(event.EventDate, svc.now())
			c.SSEvent("countdown", cd)
			return !cd.Live
		})
	}
}

func GetCalendar(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		event, err := svc.Events.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		if utils.NotModified(c, utils.GenerateETag(event.ID, event.UpdatedAt)) {
			return
		}

		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		url := fmt.Sprintf("%s://%s/events/%s", scheme, c.Request.Host, event.ID.Hex())

		body := render.EventICS(*event, services.CalendarDuration, url)
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="event-%s.ics"`, event.ID.Hex()))
		c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
	}
}
