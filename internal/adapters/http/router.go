package http

import (
	"github.com/dkeye/clicker/internal/adapters/signal"
	"github.com/dkeye/clicker/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func SetupRouter(cfg *config.Config, h *Handlers, ws *signal.SignalWSController) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions("ClickerSession", store))
	r.Use(Identity(h.Users, h.Signer))

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}
	r.GET("/healthz", h.Health)

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	limiter := NewRoomRateLimiter(cfg.JoinRate.Limit, cfg.JoinRate.Interval)
	api := r.Group("/api")

	api.POST("/session", h.Login)
	api.GET("/session", h.Me)
	api.POST("/token", h.Token)

	api.GET("/presenter/events", h.PresenterEvents)
	api.GET("/presenter/ws", ws.HandlePresenter)

	pins := api.Group("/pins/:pin", limiter.Middleware())
	pins.GET("", h.Discover)
	pins.GET("/attendee/events", h.AttendeeEvents)
	pins.GET("/attendee/ws", ws.HandleAttendee)

	api.POST("/rooms", h.CreateRoom)
	room := api.Group("/rooms/:roomID")
	room.GET("", h.RoomInfo)
	room.DELETE("", h.DisposeRoom)
	room.PUT("/title", h.UpdateTitle)
	room.PUT("/state", h.UpdateState)
	room.PUT("/pin", h.UpdatePIN)
	room.GET("/presenter/events", h.PresenterAttachEvents)
	room.GET("/presenter/ws", ws.HandlePresenterAttach)
	room.GET("/display/events", h.DisplayEvents)
	room.GET("/display/ws", ws.HandleDisplay)

	attendee := room.Group("/attendees/:id")
	attendee.POST("/approve", h.Approve())
	attendee.POST("/ban", h.Ban())
	attendee.POST("/kick", h.Kick())
	attendee.PUT("/hand", h.RaiseHand())
	attendee.DELETE("/hand", h.DismissHand())

	return r
}
