package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires the dashboard API. With no allowed origins the API is same-origin only.
func NewRouter(h *Handler, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), withRequestID(), withRequestLog())

	if len(allowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  allowedOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", RequestIDHeader},
			ExposeHeaders: []string{RequestIDHeader},
		}))
	}

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)

		api.GET("/vault", h.Overview)
		api.GET("/users/:address", h.User)
		api.GET("/participants", h.Participants)
		api.GET("/admin/:address", h.Admin)

		api.POST("/tx", h.SubmitTx)
		api.GET("/tx/:hash", h.TxReceipt)
	}

	return r
}
