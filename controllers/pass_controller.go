package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/phillip/riseandserve-go/metrics"
	"github.com/phillip/riseandserve-go/render"
	utils "github.com/phillip/riseandserve-go/utils"
)

const (
	minQRSize = 128
	maxQRSize = 1024
)

func GetPass(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := identity(c)
		if !ok {
			return
		}

		pass, err := svc.Passes.Issue(c.Request.Context(), c.Param("id"), caller)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}

		metrics.PassesIssued.WithLabelValues("json").Inc()
		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusOK, pass)
	}
}

func GetPassPNG(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := identity(c)
		if !ok {
			return
		}

		size := render.DefaultQRSize
		if raw := c.Query("size"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				size = min(max(n, minQRSize), maxQRSize)
			}
		}

		pass, err := svc.Passes.Issue(c.Request.Context(), c.Param("id"), caller)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		png, err := render.PassQR(*pass, size)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}

		metrics.PassesIssued.WithLabelValues("png").Inc()
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, "image/png", png)
	}
}

func GetPassPDF(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := identity(c)
		if !ok {
			return
		}

		pass, event, err := svc.Passes.IssueWithEvent(c.Request.Context(), c.Param("id"), caller)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		pdf, err := render.PassPDF(*pass, event.Location)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}

		metrics.PassesIssued.WithLabelValues("pdf").Inc()
		c.Header("Cache-Control", "no-store")
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="pass-%s.pdf"`, pass.EventID))
		c.Data(http.StatusOK, "application/pdf", pdf)
	}
}
