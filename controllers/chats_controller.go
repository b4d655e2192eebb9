package controllers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	models "github.com/phillip/riseandserve-go/models"
	services "github.com/phillip/riseandserve-go/services"
	utils "github.com/phillip/riseandserve-go/utils"
)

const chatKeepalive = 15 * time.Second

func ListChats(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		msgs, err := svc.Chats.List(c.Request.Context(), c.Param("id"))
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		if msgs == nil {
			msgs = []models.ChatMessage{}
		}
		c.JSON(http.StatusOK, msgs)
	}
}

func PostChat(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := identity(c)
		if !ok {
			return
		}

		var input struct {
			Message string `json:"message"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.AbortWithError(c, services.Validation("invalid request body", "body"))
			return
		}

		msg, err := svc.Chats.Post(c.Request.Context(), c.Param("id"), caller, input.Message)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, msg)
	}
}

func DeleteChat(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := identity(c)
		if !ok {
			return
		}

		if err := svc.Chats.Delete(c.Request.Context(), c.Param("id"), c.Param("messageId"), caller); err != nil {
			utils.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Message deleted successfully"})
	}
}

// StreamChats relays discussion frames to the client as server-sent events.
func StreamChats(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := identity(c); !ok {
			return
		}

		sub := svc.Hub.Subscribe(c.Param("id"))
		defer svc.Hub.Unsubscribe(sub)

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("X-Accel-Buffering", "no")

		keepalive := time.NewTicker(chatKeepalive)
		defer keepalive.Stop()

		c.Writer.WriteHeader(http.StatusOK)
		c.Writer.Flush()

		c.Stream(func(w io.Writer) bool {
			select {
			case <-c.Request.Context().Done():
				return false
			case frame := <-sub.C:
				c.SSEvent(frame.Type, frame)
			case <-keepalive.C:
				_, _ = io.WriteString(w, ": keepalive\n\n")
			}
			return true
		})
	}
}
