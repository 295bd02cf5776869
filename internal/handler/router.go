package handler

import (
	"github.com/gin-gonic/gin"
)

// Registrar mounts a handler on a router group.
type Registrar interface {
	Register(rg *gin.RouterGroup)
}

// Routes lists every handler mounted under the API prefix. Resources maps a path
// segment such as "courses" to its CRUD handler.
type Routes struct {
	Resources map[string]Registrar
	Students  *StudentHandler
	Imports   *ImportHandler
	Exports   *ExportHandler
	Metrics   *MetricsHandler
}

// Mount registers health, metrics and API routes on r.
func Mount(r *gin.Engine, prefix string, routes Routes) {
	if routes.Metrics != nil {
		r.GET("/health", routes.Metrics.Health)
		r.GET("/ready", routes.Metrics.Ready)
		r.GET("/metrics", routes.Metrics.Prometheus)
	}

	api := r.Group(prefix)
	if routes.Exports != nil {
		api.GET("/courses/export", routes.Exports.Courses)
		api.GET("/students/export", routes.Exports.Students)
	}
	for path, h := range routes.Resources {
		h.Register(api.Group("/" + path))
	}
	if routes.Students != nil {
		routes.Students.Register(api.Group("/students"))
	}
	if routes.Imports != nil {
		routes.Imports.Register(api.Group("/imports"))
	}
}
