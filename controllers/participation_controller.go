package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	models "github.com/phillip/riseandserve-go/models"
	services "github.com/phillip/riseandserve-go/services"
	utils "github.com/phillip/riseandserve-go/utils"
)

func JoinEvent(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := identity(c)
		if !ok {
			return
		}

		event, err := svc.Participation.Join(c.Request.Context(), c.Param("id"), caller)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Joined event successfully",
			"event":   event,
		})
	}
}

func JoinedStatus(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := identity(c)
		if !ok {
			return
		}

		joined, err := svc.Participation.IsJoined(c.Request.Context(), c.Param("id"), caller.Email)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"joined": joined})
	}
}

// ListJoinedEvents lists the events an email has joined. Callers see their
// own list; other addresses need the admin role.
func ListJoinedEvents(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := identity(c)
		if !ok {
			return
		}

		email := strings.TrimSpace(c.Query("email"))
		if email == "" {
			email = caller.Email
		}
		if !models.SameEmail(email, caller.Email) && !caller.IsAdmin() {
			utils.AbortWithError(c, services.Forbidden("you can only list your own joined events"))
			return
		}

		events, err := svc.Queries.ListJoinedByEmail(c.Request.Context(), email)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		respondEvents(c, events)
	}
}
