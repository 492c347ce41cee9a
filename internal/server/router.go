package server

import (
	"net/http"
	"time"

	_ "speedrun/backend/docs"
	"speedrun/backend/internal/auth"
	"speedrun/backend/internal/cache"
	"speedrun/backend/internal/config"
	"speedrun/backend/internal/handler"
	"speedrun/backend/internal/hub"
	"speedrun/backend/internal/service"
	"speedrun/backend/internal/upload"
	"speedrun/backend/internal/web"
	"speedrun/backend/pkg/jwt"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// Deps are the long-lived resources the router is built from. Cache and
// Uploads may be nil.
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Cache   cache.LeaderboardCache
	Hub     *hub.Hub
	Uploads *upload.Store
}

// New builds the gin engine with every route of the service.
func New(d Deps) (*gin.Engine, error) {
	cfg := d.Config
	handler.RegisterValidators()

	issuer := jwt.NewIssuer(cfg.JWTSecret, cfg.JWTExpiration)
	mw := auth.New(issuer)

	users := service.NewUserService(d.DB, d.Cache)
	authSvc := service.NewAuthService(users, issuer)
	games := service.NewGameService(d.DB, d.Cache)
	versions := service.NewGameVersionService(d.DB, d.Cache)
	categories := service.NewCategoryService(d.DB, d.Cache)
	records := service.NewRecordService(d.DB, d.Cache, d.Hub)
	links := service.NewRecordCategoryService(d.DB, d.Cache)
	comments := service.NewCommentService(d.DB)

	router := gin.Default()
	router.Use(cors.New(corsConfig(cfg)))
	router.Use(sessions.Sessions("speedrun_session", cookie.NewStore([]byte(cfg.SessionSecret))))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if d.Uploads != nil {
		router.Static(cfg.UploadURLPrefix, d.Uploads.Dir)
	}

	pages, err := web.New(games, records, authSvc, d.Uploads, web.Config{
		TokenTTL:     cfg.JWTExpiration,
		SecureCookie: cfg.GinMode == gin.ReleaseMode,
	})
	if err != nil {
		return nil, err
	}
	pages.Register(router, mw)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(users, d.Uploads)
	gameHandler := handler.NewGameHandler(games, records, d.Hub, d.Uploads)
	versionHandler := handler.NewGameVersionHandler(versions)
	categoryHandler := handler.NewCategoryHandler(categories)
	recordHandler := handler.NewRecordHandler(records, d.Uploads)
	linkHandler := handler.NewRecordCategoryHandler(links, records)
	commentHandler := handler.NewCommentHandler(comments)

	required := mw.Required()
	admin := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return []gin.HandlerFunc{required, auth.AdminOnly(), h}
	}

	apiV1 := router.Group("/api/v1")
	{
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
		}

		userRoutes := apiV1.Group("/users")
		{
			userRoutes.GET("", userHandler.List)
			userRoutes.GET("/search", userHandler.Search) // Must be before /:id
			userRoutes.GET("/:id", userHandler.Get)
			userRoutes.POST("", admin(userHandler.Create)...)
			userRoutes.PUT("/:id", required, userHandler.Update)
			userRoutes.DELETE("/:id", required, userHandler.Delete)
		}

		gameRoutes := apiV1.Group("/games")
		{
			gameRoutes.GET("", gameHandler.List)
			gameRoutes.GET("/search", gameHandler.Search)
			gameRoutes.GET("/:id", gameHandler.Get)
			gameRoutes.GET("/:id/leaderboard", gameHandler.Leaderboard)
			gameRoutes.GET("/:id/events", gameHandler.Events)
			gameRoutes.POST("", admin(gameHandler.Create)...)
			gameRoutes.PUT("/:id", admin(gameHandler.Update)...)
			gameRoutes.DELETE("/:id", admin(gameHandler.Delete)...)
		}

		versionRoutes := apiV1.Group("/gameversions")
		{
			versionRoutes.GET("", versionHandler.List)
			versionRoutes.GET("/games/:id", versionHandler.ListByGame)
			versionRoutes.GET("/:id", versionHandler.Get)
			versionRoutes.POST("", admin(versionHandler.Create)...)
			versionRoutes.PUT("/:id", admin(versionHandler.Update)...)
			versionRoutes.DELETE("/:id", admin(versionHandler.Delete)...)
		}

		categoryRoutes := apiV1.Group("/categories")
		{
			categoryRoutes.GET("", categoryHandler.List)
			categoryRoutes.GET("/games/:id", categoryHandler.ListByGame)
			categoryRoutes.GET("/:id", categoryHandler.Get)
			categoryRoutes.POST("", admin(categoryHandler.Create)...)
			categoryRoutes.PUT("/:id", admin(categoryHandler.Update)...)
			categoryRoutes.DELETE("/:id", admin(categoryHandler.Delete)...)
		}

		recordRoutes := apiV1.Group("/records")
		{
			recordRoutes.GET("", recordHandler.List)
			recordRoutes.GET("/:id", recordHandler.Get)
			recordRoutes.GET("/:id/filter", recordHandler.Filter)
			recordRoutes.POST("", required, recordHandler.Create)
			recordRoutes.PUT("/:id", required, recordHandler.Update)
			recordRoutes.POST("/:id/approve", admin(recordHandler.Approve)...)
			recordRoutes.POST("/:id/reject", admin(recordHandler.Reject)...)
			recordRoutes.DELETE("/:id", required, recordHandler.Delete)
		}

		linkRoutes := apiV1.Group("/recordcategories")
		{
			linkRoutes.GET("", linkHandler.List)
			linkRoutes.GET("/:id", linkHandler.Get)
			linkRoutes.POST("", required, linkHandler.Create)
			linkRoutes.PUT("/:id", required, linkHandler.Update)
			linkRoutes.DELETE("/:id", required, linkHandler.Delete)
		}

		commentRoutes := apiV1.Group("/comments")
		{
			commentRoutes.GET("", commentHandler.List)
			commentRoutes.GET("/records/:id", commentHandler.ListByRecord)
			commentRoutes.GET("/users/:id", commentHandler.ListByUser)
			commentRoutes.GET("/:id", commentHandler.Get)
			commentRoutes.POST("", required, commentHandler.Create)
			commentRoutes.PUT("/:id", required, commentHandler.Update)
			commentRoutes.DELETE("/:id", required, commentHandler.Delete)
		}
	}

	return router, nil
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	c.AllowHeaders = append(c.AllowHeaders, "Authorization")
	c.MaxAge = 12 * time.Hour
	origins := cfg.AllowedOrigins()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}
