package api

import (
	"datdash/internal/app"
	"datdash/internal/logger"
	"datdash/internal/registry"
	"fmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ApiHandler serves computed comparison reports to the dashboard renderer.
// The renderer is a pure consumer - nothing here mutates a report after the
// builder hands it over.
type ApiHandler struct {
	ComparisonHandler app.ComparisonHandler
	Registry          registry.ConfigRegistry
}

func (m ApiHandler) StartApi(port int) error {
	router := gin.Default()
	router.Use(cors.Default())
	router.Use(m.requestLoggerMiddleware)

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(200, map[string]string{"message": "welcome to datdash"})
	})
	router.GET("/ecosystems", m.ecosystems)
	router.GET("/comparison", m.comparison)

	return router.Run(fmt.Sprintf(":%d", port))
}

func returnErrorJson(err error, c *gin.Context) {
	logger.FromContext(c).Error(err.Error())
	c.AbortWithStatusJSON(500, gin.H{
		"error": err.Error(),
	})
}

// requestLoggerMiddleware tags every request with an id and puts a scoped
// logger on the context for downstream handlers.
func (m ApiHandler) requestLoggerMiddleware(ctx *gin.Context) {
	requestID := uuid.NewString()
	log := logger.New().With(
		"requestID", requestID,
		"method", ctx.Request.Method,
		"route", ctx.Request.URL.Path,
	)
	ctx.Set(logger.ContextKey, log)
	ctx.Header("X-Request-Id", requestID)

	ctx.Next()

	log.Infof("request completed with status %d", ctx.Writer.Status())
}
