package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	config "github.com/phillip/riseandserve-go/config"
	controllers "github.com/phillip/riseandserve-go/controllers"
	middleware "github.com/phillip/riseandserve-go/middleware"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config, svc *controllers.Services) {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// public
	r.GET("/events", controllers.ListEvents(svc))
	r.GET("/event-search", controllers.SearchEvents(svc))
	r.GET("/events/creator/:email", controllers.ListEventsByCreator(svc))
	r.GET("/events/:id", controllers.GetEvent(svc))
	r.GET("/events/:id/countdown", controllers.GetCountdown(svc))
	r.GET("/events/:id/countdown/stream", controllers.StreamCountdown(svc))
	r.GET("/events/:id/calendar.ics", controllers.GetCalendar(svc))
	r.GET("/events/:id/chats", controllers.ListChats(svc))

	// protected
	auth := middleware.AuthMiddleware(cfg)

	events := r.Group("/events")
	events.Use(auth)
	{
		events.POST("", controllers.CreateEvent(svc))
		events.PUT("/:id", controllers.UpdateEvent(svc))
		events.DELETE("/:id", controllers.DeleteEvent(svc))

		events.GET("/joined", controllers.ListJoinedEvents(svc))
		events.POST("/:id/join", controllers.JoinEvent(svc))
		events.GET("/:id/joined-status", controllers.JoinedStatus(svc))

		events.GET("/:id/pass", controllers.GetPass(svc))
		events.GET("/:id/pass.png", controllers.GetPassPNG(svc))
		events.GET("/:id/pass.pdf", controllers.GetPassPDF(svc))

		events.POST("/:id/chats", controllers.PostChat(svc))
		events.DELETE("/:id/chats/:messageId", controllers.DeleteChat(svc))
		events.GET("/:id/chats/stream", controllers.StreamChats(svc))
	}

	uploads := r.Group("/uploads")
	uploads.Use(auth)
	{
		uploads.POST("/thumbnail", controllers.UploadThumbnail(svc))
	}
}
