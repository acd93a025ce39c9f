package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/inkpress/inkpress/config"
	"github.com/inkpress/inkpress/controllers"
	"github.com/inkpress/inkpress/middleware"
	"github.com/inkpress/inkpress/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	r.Use(middleware.RequestID())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.ClientOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.RateLimitMiddleware())

	// Cap request bodies at the upload limit, matching the multipart cap.
	maxBody := int64(cfg.MaxUploadMB) << 20
	r.MaxMultipartMemory = maxBody
	r.Use(func(ctx *gin.Context) {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxBody)
		ctx.Next()
	})

	r.Static("/uploads", "./"+cfg.UploadDir)

	authController := controllers.NewAuthController(db)
	postController := controllers.NewPostController(db)
	commentController := controllers.NewCommentController(db)
	categoryController := controllers.NewCategoryController(db)
	userController := controllers.NewUserController(db)
	uploadController := controllers.NewUploadController(db)

	api := r.Group("/api")

	api.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Blog API is running",
		})
	})

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/forgot-password", authController.ForgotPassword)
	authGroup.POST("/reset-password", authController.ResetPassword)
	authGroup.GET("/profile", middleware.AuthRequired(db), authController.GetProfile)
	authGroup.PUT("/profile", middleware.AuthRequired(db), authController.UpdateProfile)

	postsGroup := api.Group("/posts")
	postsGroup.GET("", middleware.OptionalAuth(db), postController.ListPosts)
	postsGroup.GET("/:id", middleware.OptionalAuth(db), postController.GetPost)
	postsGroup.POST("", middleware.AuthRequired(db), postController.CreatePost)
	postsGroup.PUT("/:id", middleware.AuthRequired(db), postController.UpdatePost)
	postsGroup.DELETE("/:id", middleware.AuthRequired(db), postController.DeletePost)
	postsGroup.GET("/my/posts", middleware.AuthRequired(db), postController.ListMyPosts)

	commentsGroup := api.Group("/comments")
	commentsGroup.GET("/post/:postId", commentController.ListByPost)
	commentsGroup.POST("/post/:postId", middleware.AuthRequired(db), commentController.CreateComment)
	commentsGroup.PUT("/:id", middleware.AuthRequired(db), commentController.UpdateComment)
	commentsGroup.DELETE("/:id", middleware.AuthRequired(db), commentController.DeleteComment)

	categoriesGroup := api.Group("/categories")
	categoriesGroup.GET("", categoryController.ListCategories)
	categoriesGroup.POST("", middleware.AdminRequired(db), categoryController.CreateCategory)
	categoriesGroup.PUT("/:id", middleware.AdminRequired(db), categoryController.UpdateCategory)
	categoriesGroup.DELETE("/:id", middleware.AdminRequired(db), categoryController.DeleteCategory)

	usersGroup := api.Group("/users")
	usersGroup.GET("", userController.ListUsers)
	usersGroup.GET("/:id", userController.GetUser)
	usersGroup.GET("/:id/posts", middleware.OptionalAuth(db), userController.GetUserPosts)
	usersGroup.PUT("/:id/role", middleware.AdminRequired(db), userController.UpdateRole)
	usersGroup.DELETE("/:id", middleware.AdminRequired(db), userController.DeleteUser)

	uploadGroup := api.Group("/upload")
	uploadGroup.POST("/image", uploadController.UploadImage)
	uploadGroup.POST("/avatar", middleware.AuthRequired(db), uploadController.UploadAvatar)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Message(ctx, http.StatusNotFound, "Route not found")
	})

	return r
}
