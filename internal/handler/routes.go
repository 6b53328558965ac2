package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/suteetoe/commerce-directory/pkg/jwtutil"
	"github.com/suteetoe/commerce-directory/pkg/metrics"
	"github.com/suteetoe/commerce-directory/pkg/middleware"
)

// RegisterRoutes mounts the directory API on e
func RegisterRoutes(e *echo.Echo, h *Handler, jwt *jwtutil.JWTUtil) {
	auth := middleware.JWTAuthMiddleware(jwt)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(metrics.GetPrometheusHandler()))
	e.GET("/health", h.HealthCheck)

	// Public routes
	e.POST("/auth/register", h.Register)
	e.POST("/auth/login", h.Login)

	villes := e.Group("/villes")
	villes.GET("", h.ListVilles)
	villes.GET("/:id/name", h.GetVilleName)
	villes.GET("/:id/commerces", h.ListVilleCommerces)
	villes.GET("/:id/commerces/visible", h.ListVisibleVilleCommerces)

	commerces := e.Group("/commerces")
	commerces.GET("", h.ListVisibleCommerces)
	commerces.GET("/search", h.SearchCommerces)
	commerces.GET("/all", h.FetchCommerces)
	commerces.GET("/villes", h.ListVisibleVilles)
	commerces.GET("/events", h.CommerceEvents)
	// the selection is one server-wide value shared by every client
	commerces.GET("/selected", h.GetSelectedCommerce)
	commerces.PUT("/selected", h.SelectCommerce)
	commerces.GET("/:id", h.GetCommerce)

	e.GET("/owners/:id/commerces", h.ListOwnerCommerces)

	// Secured routes - require a business owner token
	commerces.POST("", h.CreateCommerce, auth)
	commerces.PUT("/:id", h.UpdateCommerce, auth)
	commerces.DELETE("/:id", h.DeleteCommerce, auth)
	commerces.PUT("/:id/image", h.UploadCommerceImage, auth)

	subscription := e.Group("/subscription", auth)
	subscription.GET("", h.GetSubscription)
	subscription.POST("", h.CreateSubscription)
	subscription.POST("/renew", h.RenewSubscription)
}
