package api

import (
	"fmt"
	"net/http"

	"github.com/getsentry/raven-go"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/Amrl666/asclepius-be/datastructures"
)

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		log.Debug("[Api] Request received: ", c.Request.Method, " ", c.Request.URL.Path)
		c.Next()
	}
}

// Recovery converts an in-request panic into the generic error envelope.
// Panics outside a request path are left to crash the process.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				err := fmt.Errorf("panic: %v", rec)
				log.Error("[Api] Unhandled panic: ", err.Error())
				raven.CaptureError(err, map[string]string{"path": c.Request.URL.Path})

				c.AbortWithStatusJSON(http.StatusInternalServerError, datastructures.APIResponse{
					Status:  "error",
					Message: "An unexpected error occurred.",
					Data: gin.H{
						"statusCode": http.StatusInternalServerError,
						"error":      "Internal Server Error",
					},
				})
			}
		}()

		c.Next()
	}
}

// limitBodySize wraps the request body so oversized uploads are cut off
// during parsing instead of being buffered in full.
func limitBodySize(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// notFound wraps unmatched routes in the same envelope every other
// framework-level error gets.
func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, datastructures.APIResponse{
		Status:  "error",
		Message: "Not Found",
		Data: gin.H{
			"statusCode": http.StatusNotFound,
			"error":      "Not Found",
		},
	})
}

func fail(c *gin.Context, code int, message string) {
	c.JSON(code, datastructures.APIResponse{
		Status:  "fail",
		Message: message,
	})
}

// internalError reports the cause and answers with the generic error
// envelope. The underlying error is never echoed to the client.
func internalError(c *gin.Context, err error) {
	raven.CaptureError(err, map[string]string{"path": c.Request.URL.Path})
	c.JSON(http.StatusInternalServerError, datastructures.APIResponse{
		Status:  "error",
		Message: "An error occurred while processing your request.",
	})
}
