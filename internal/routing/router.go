package routing

import (
	"net/http"
	"os"
	"time"

	"diagram-hub/internal/config"
	"diagram-hub/internal/handlers"
	"diagram-hub/internal/managers"
	"diagram-hub/internal/middleware"
	"diagram-hub/internal/schemas"
	"diagram-hub/internal/utils"
	"diagram-hub/internal/worker"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func InitRouter(httpConfig config.HTTPConfig, queueMgr managers.QueueMgr, jwtMgr managers.JWTMgr, distributor worker.TaskDistributor) *gin.Engine {
	// Initialize router with logging and recovery middleware
	router := gin.New()
	// Initialize middleware
	setupCommonMiddleware(router, httpConfig, distributor)
	// Setup routes
	setupRoutes(router, httpConfig, queueMgr, jwtMgr)

	return router
}

func corsConfig(httpConfig config.HTTPConfig) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "PATCH", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Accept", "Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", utils.TraceIdHeader},
		MaxAge:        12 * time.Hour,
	}

	origins := httpConfig.AllowedOrigins()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	return corsCfg
}

func setupCommonMiddleware(router *gin.Engine, httpConfig config.HTTPConfig, distributor worker.TaskDistributor) {
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.InjectTrace())
	router.Use(cors.New(corsConfig(httpConfig)))
	router.Use(func(c *gin.Context) {
		c.Header("Content-Type", "application/json")
	})
	router.Use(middleware.SanitizePath())
	router.Use(middleware.LogRequest())
	router.Use(middleware.ActivityLog(distributor))
}

func setupRoutes(router *gin.Engine, httpConfig config.HTTPConfig, queueMgr managers.QueueMgr, jwtMgr managers.JWTMgr) {
	// Set up version route
	router.GET("/", func(c *gin.Context) {
		apiVersion := os.Getenv("PR_NUMBER")
		var pullRequest string

		if apiVersion == "" {
			apiVersion = "main:latest"
		} else {
			pullRequest = "PR-" + apiVersion
			apiVersion = pullRequest
		}
		metadata := &schemas.MetadataDTO{
			ApiVersion:  apiVersion,
			ApiName:     "Diagram Hub",
			PullRequest: pullRequest,
		}
		utils.WriteAndLogResponse(c, metadata, http.StatusOK)
	})

	// Set up health route
	router.GET("/health", func(c *gin.Context) {
		// Ping the queue the services listen on
		if err := queueMgr.Ping(c); err != nil {
			utils.LogMessageWithFields(c, "error", "Queue not responding: "+err.Error())
			c.String(http.StatusInternalServerError, "Queue not responding")
			return
		}
		c.Status(http.StatusOK)
	})

	rateLimit := middleware.RateLimit(httpConfig.RateLimitRate, httpConfig.RateLimitLimit)

	userHdl := handlers.NewUserHandler(queueMgr)
	userRoutes(router, userHdl, jwtMgr, rateLimit)

	diagramRouter := router.Group("/diagrams")
	diagramRouter.Use(jwtMgr.JWTMiddleware())
	diagramHdl := handlers.NewDiagramHandler(queueMgr)
	diagramRoutes(diagramRouter, diagramHdl)

	activityLogHdl := handlers.NewActivityLogHandler(queueMgr)
	activityLogRoutes(router, activityLogHdl)
}

func userRoutes(router *gin.Engine, userHdl handlers.UserHdl, jwtMgr managers.JWTMgr, rateLimit gin.HandlerFunc) {
	router.POST("/sign-up", rateLimit, middleware.ValidateAndSanitizeStruct[schemas.SignUpRequest](), userHdl.SignUp)
	router.POST("/log-in", rateLimit, middleware.ValidateAndSanitizeStruct[schemas.LogInRequest](), userHdl.LogIn)
	router.POST("/generate-otp", rateLimit, middleware.ValidateAndSanitizeStruct[schemas.EmailRequest](), userHdl.GenerateOTP)
	router.POST("/forgot-password", rateLimit, middleware.ValidateAndSanitizeStruct[schemas.ForgotPasswordRequest](), userHdl.ForgotPassword)
	// The following routes require the user to be authenticated
	authorized := router.Group("/", jwtMgr.JWTMiddleware())
	authorized.GET("/get-profile", userHdl.GetProfile)
	authorized.GET("/get-all-user", middleware.ValidateAndSanitizeQuery[schemas.GetUsersRequest](), userHdl.GetAllUser)
	authorized.PATCH("/change-password", middleware.ValidateAndSanitizeStruct[schemas.ChangePasswordRequest](), userHdl.ChangePassword)
	authorized.PATCH("/logOut", userHdl.LogOut)
}

func diagramRoutes(diagramRouter *gin.RouterGroup, diagramHdl handlers.DiagramHdl) {
	diagramRouter.POST("", middleware.ValidateAndSanitizeStruct[schemas.CreateDiagramRequest](), diagramHdl.CreateDiagram)
	diagramRouter.GET("", middleware.ValidateAndSanitizeQuery[schemas.GetDiagramsRequest](), diagramHdl.GetDiagrams)
	diagramRouter.PATCH("/import-slugs/:"+utils.IdParamKey, diagramHdl.ImportSlugs)
	diagramRouter.GET("/:"+utils.IdParamKey, diagramHdl.GetDiagram)
	diagramRouter.PATCH("/:"+utils.IdParamKey, middleware.ValidateAndSanitizeStruct[schemas.UpdateDiagramRequest](), diagramHdl.UpdateDiagram)
	diagramRouter.DELETE("/:"+utils.IdParamKey, diagramHdl.DeleteDiagram)
}

func activityLogRoutes(router *gin.Engine, activityLogHdl handlers.ActivityLogHdl) {
	router.GET("/get-all-activity-log", middleware.ValidateAndSanitizeQuery[schemas.GetActivityLogsRequest](), activityLogHdl.GetAllActivityLog)
	router.GET("/get-most-visited-api", middleware.ValidateAndSanitizeQuery[schemas.MostVisitedRequest](), activityLogHdl.GetMostVisitedAPI)
	router.GET("/get-most-visited-user", middleware.ValidateAndSanitizeQuery[schemas.MostVisitedRequest](), activityLogHdl.GetMostVisitedUser)
}
