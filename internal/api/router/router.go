package router

import (
	"github.com/wb-go/wbf/ginext"

	"photoflow/internal/api/handlers/image"
	"photoflow/internal/api/handlers/prefs"
	"photoflow/internal/api/handlers/process"
	"photoflow/internal/middleware"
)

func Setup(imgHandler *image.Handler, procHandler *process.Handler, prefsHandler *prefs.Handler) *ginext.Engine {
	r := ginext.New()

	r.Use(middleware.CORSMiddleware())
	r.Use(ginext.Logger())
	r.Use(ginext.Recovery())

	api := r.Group("/api")

	api.POST("/images", imgHandler.Upload)           // uploading an original
	api.GET("/images/:id", imgHandler.Get)           // serving image bytes
	api.GET("/images/:id/meta", imgHandler.GetMeta)  // image record only
	api.DELETE("/images/:id", imgHandler.Delete)     // deleting image

	api.POST("/process", procHandler.Process)            // synchronous pipeline
	api.POST("/process/batch", procHandler.ProcessBatch) // batch pipeline
	api.POST("/jobs", procHandler.SubmitJob)             // queued processing
	api.GET("/jobs", procHandler.ListJobs)               // recent jobs
	api.GET("/jobs/:id", procHandler.GetJob)             // job status/result

	api.GET("/preferences/:owner", prefsHandler.Get)
	api.PUT("/preferences/:owner", prefsHandler.Put)
	api.GET("/projects/recent", prefsHandler.Recent)
	api.POST("/projects/recent", prefsHandler.PostRecent)

	return r
}
