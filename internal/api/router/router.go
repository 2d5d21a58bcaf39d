package router

import (
	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/image-reconciler/internal/api/handlers/job"
	"github.com/aliskhannn/image-reconciler/internal/api/middleware"
	"github.com/aliskhannn/image-reconciler/internal/api/static"
)

func Setup(h *job.Handler, frontendDir string) *ginext.Engine {
	r := ginext.New()

	r.Use(middleware.CORSMiddleware())
	r.Use(ginext.Logger())
	r.Use(ginext.Recovery())

	r.POST("/upload", h.Upload) // reconcile an uploaded table

	api := r.Group("/api")

	api.GET("/jobs", h.List)                        // recent jobs
	api.GET("/jobs/:id", h.Get)                     // job report by id
	api.GET("/images/:name/thumbnail", h.Thumbnail) // preview of a copied image

	// Everything else is the frontend.
	r.NoRoute(static.Handler(frontendDir))

	return r
}
