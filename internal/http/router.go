package api

import (
	"log"
	stdhttp "net/http"

	intconfig "fasobus/internal/config"
	h "fasobus/internal/http/handlers"
	"fasobus/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// NewRouter assembles the gin engine. The realtime handler is a plain
// http.Handler (SockJS manages its own sub-routes) mounted under /realtime.
func NewRouter(env intconfig.Env, a h.API, realtime stdhttp.Handler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS())

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	if realtime != nil {
		r.Any("/realtime/*any", gin.WrapH(realtime))
	}

	auth := middleware.RequireAuth([]byte(env.JWTSecret))

	api := r.Group("/api")
	{
		api.GET("/health", a.Health)
		api.GET("/db-check", a.DBCheck)

		authGroup := api.Group("/auth")
		authGroup.POST("/login", a.Login)
		authGroup.POST("/register", a.Register)

		api.GET("/stations", a.Stations)

		trips := api.Group("/trips")
		trips.GET("", a.SearchTrips)
		trips.GET("/:id", a.GetTrip)
		trips.GET("/:id/seats", a.TripSeats)
		trips.POST("/:id/seats/offline", auth, a.MarkOfflineSeats)

		sessions := api.Group("/booking/sessions", auth)
		sessions.POST("", a.CreateSession)
		sessions.GET("/:id", a.GetSession)
		sessions.DELETE("/:id", a.ReleaseSession)
		sessions.GET("/:id/seats", a.SessionSeats)
		sessions.POST("/:id/booking-for", a.SessionBookingFor)
		sessions.POST("/:id/passenger-info", a.SessionPassengerInfo)
		sessions.POST("/:id/seats/toggle", a.SessionToggleSeat)
		sessions.POST("/:id/continue", a.SessionContinue)
		sessions.POST("/:id/return-trip", a.SessionReturnTrip)

		tickets := api.Group("/tickets", auth)
		tickets.POST("/reserve", a.Reserve)
		tickets.POST("/confirm", a.Confirm)
		tickets.GET("/:id", a.GetTicket)
		tickets.GET("/:id/pdf", a.TicketPDF)
		tickets.DELETE("/:id", a.CancelTicket)

		api.GET("/users/me/tickets", auth, a.MyTickets)
	}

	return r
}
