package http

import (
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	appsvc "boardgame-meetup/internal/app"
	"boardgame-meetup/internal/bootstrap"
	"boardgame-meetup/internal/cache"
	"boardgame-meetup/internal/platform/rabbitmq"
	"boardgame-meetup/internal/repository"
	"boardgame-meetup/internal/transport/http/handler"
	"boardgame-meetup/internal/transport/http/middleware"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	Listings *handler.ListingHandler
	Avatars  *handler.AvatarHandler
	Health   *handler.HealthHandler
}

// NewHandler builds the full HTTP stack for app, CORS included.
func NewHandler(app *bootstrap.App) nethttp.Handler {
	router := NewRouter(app)
	return cors.New(cors.Options{
		AllowedOrigins:   app.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{nethttp.MethodGet, nethttp.MethodPost, nethttp.MethodDelete, nethttp.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler(router)
}

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.MaxMultipartMemory = app.Config.MinIO.AvatarMaxBytes + (1 << 20)

	userRepo := repository.NewUserRepository(app.MySQL)
	listingRepo := repository.NewListingRepository(app.MongoDB, app.Config.Mongo.GamesCollection)
	activityRepo := repository.NewActivityRepository(app.MySQL)
	listingCache := cache.NewListingCache(app.Redis, time.Duration(app.Config.Redis.ListingCacheTTLSeconds)*time.Second)
	publisher := rabbitmq.NewListingEventPublisher(app.MQConn, app.Config.RabbitMQ.ListingEventQueue)

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireHours)*time.Hour,
		app.Config.Auth.BcryptCost,
	)
	listingService := appsvc.NewListingService(listingRepo, listingCache, publisher, activityRepo)
	avatarService := appsvc.NewAvatarService(app.Objects, app.Config.MinIO.AvatarMaxBytes)

	RegisterRoutes(router, app.Config.Auth.JWTSecret, Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Listings: handler.NewListingHandler(listingService),
		Avatars:  handler.NewAvatarHandler(avatarService),
		Health:   handler.NewHealthHandler(app),
	})
	return router
}

func RegisterRoutes(router *gin.Engine, jwtSecret string, h Handlers) {
	requireAuth := middleware.AuthJWT(jwtSecret)

	if h.Health != nil {
		router.GET("/healthz", h.Health.Check)
	}

	users := router.Group("/users")
	users.POST("/register", h.Auth.Register)
	users.POST("/login", h.Auth.Login)
	users.GET("/me", requireAuth, h.Auth.Me)
	users.GET("/me/activity", requireAuth, h.Listings.Activity)

	games := router.Group("/games")
	games.GET("", h.Listings.List)
	games.GET("/:id", h.Listings.Get)
	games.POST("/create", requireAuth, h.Listings.Create)
	games.DELETE("/delete/:id", requireAuth, h.Listings.Delete)

	if h.Avatars != nil {
		router.POST("/avatars", requireAuth, h.Avatars.Upload)
		router.GET("/avatars/*key", h.Avatars.Download)
	}
}
