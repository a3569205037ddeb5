package web

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// NewRouter creates the gin engine with the HTML pages at / and the JSON API at /api.
func NewRouter(handlers Handlers, logger *slog.Logger) (*gin.Engine, error) {
	templates, err := ParseTemplates()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(logger))
	router.SetHTMLTemplate(templates)

	NewPages(handlers).Register(router)
	NewAPI(handlers).Register(router.Group("/api"))

	return router, nil
}
