package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"anoa.com/softdesk/internal/config"
	"anoa.com/softdesk/internal/middleware"
	"anoa.com/softdesk/internal/scope"
	"anoa.com/softdesk/pkg/logger"
	"anoa.com/softdesk/pkg/ratelimiter"
	"anoa.com/softdesk/pkg/token"
	"anoa.com/softdesk/pkg/tokenstore"

	commentHttp "anoa.com/softdesk/internal/modules/comment/delivery/http"
	commentRepo "anoa.com/softdesk/internal/modules/comment/repository"
	commentService "anoa.com/softdesk/internal/modules/comment/service"

	issueHttp "anoa.com/softdesk/internal/modules/issue/delivery/http"
	issueRepo "anoa.com/softdesk/internal/modules/issue/repository"
	issueService "anoa.com/softdesk/internal/modules/issue/service"

	projectHttp "anoa.com/softdesk/internal/modules/project/delivery/http"
	projectRepo "anoa.com/softdesk/internal/modules/project/repository"
	projectService "anoa.com/softdesk/internal/modules/project/service"

	searchService "anoa.com/softdesk/internal/modules/search/service"

	userHttp "anoa.com/softdesk/internal/modules/user/delivery/http"
	userRepo "anoa.com/softdesk/internal/modules/user/repository"
	userService "anoa.com/softdesk/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

// NewServer wires repositories, services and routes. redisClient may be nil.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	log := logger.Get()

	users := userRepo.NewUserRepository(db)
	projects := projectRepo.NewProjectRepository(db)
	contributors := projectRepo.NewContributorRepository(db)
	issues := issueRepo.NewIssueRepository(db)
	comments := commentRepo.NewCommentRepository(db)

	resolver := scope.NewResolver(projects, contributors, issues, comments, contributors)

	var meiliSvc searchService.MeiliSearchService
	if cfg.MeiliSearchHost != "" {
		meiliHost := cfg.MeiliSearchHost
		if !strings.HasPrefix(meiliHost, "http") {
			meiliHost = "http://" + meiliHost + ":7700"
		}
		meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
		meiliSvc = searchService.NewMeiliSearchService(meiliClient)
	} else {
		log.Warn().Msg("MEILISEARCH_HOST not set, issue search disabled")
	}

	if redisClient == nil {
		log.Warn().Msg("redis not configured, token revocation is in-memory and rate limiting is off")
	}

	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	revoked := tokenstore.New(redisClient)
	cooldown := ratelimiter.NewCooldown(redisClient)

	userSvc := userService.NewUserService(users)
	authSvc := userService.NewAuthService(users, tokens, revoked)
	authHandler := userHttp.NewAuthHandler(authSvc, userSvc)
	userHandler := userHttp.NewUserHandler(userSvc)

	projectSvc := projectService.NewProjectService(projects, users, resolver, meiliSvc)
	projectHandler := projectHttp.NewProjectHandler(projectSvc)

	contributorSvc := projectService.NewContributorService(contributors, users, resolver)
	contributorHandler := projectHttp.NewContributorHandler(contributorSvc)

	issueSvc := issueService.NewIssueService(issues, resolver, meiliSvc, cooldown, cfg.RateLimitGlobal, cfg.RateLimitIssue)
	issueHandler := issueHttp.NewIssueHandler(issueSvc)

	commentSvc := commentService.NewCommentService(comments, resolver, cooldown, cfg.RateLimitGlobal)
	commentHandler := commentHttp.NewCommentHandler(commentSvc)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger("/metrics", "/healthz"))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := middleware.NewAuthMiddleware(tokens)

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.POST("/auth/logout", authHandler.Logout)

		// User routes
		protected.GET("/users/:user_id", userHandler.GetUser)
		protected.PUT("/users/:user_id", userHandler.UpdateUser)
		protected.PATCH("/users/:user_id", userHandler.UpdateUser)
		protected.DELETE("/users/:user_id", userHandler.DeleteUser)
		protected.GET("/users/:user_id/export", userHandler.ExportUser)

		// Project routes
		protected.GET("/projects", projectHandler.ListProjects)
		protected.POST("/projects", projectHandler.CreateProject)
		protected.GET("/projects/:project_id", projectHandler.GetProject)
		protected.PUT("/projects/:project_id", projectHandler.UpdateProject)
		protected.PATCH("/projects/:project_id", projectHandler.UpdateProject)
		protected.DELETE("/projects/:project_id", projectHandler.DeleteProject)

		// Contributor routes
		protected.GET("/projects/:project_id/contributors", contributorHandler.ListContributors)
		protected.POST("/projects/:project_id/contributors", contributorHandler.AddContributor)
		protected.GET("/projects/:project_id/contributors/:contributor_id", contributorHandler.GetContributor)
		protected.DELETE("/projects/:project_id/contributors/:contributor_id", contributorHandler.RemoveContributor)

		// Issue routes
		protected.GET("/projects/:project_id/issues", issueHandler.ListIssues)
		protected.POST("/projects/:project_id/issues", issueHandler.CreateIssue)
		protected.GET("/projects/:project_id/issues/search", issueHandler.SearchIssues)
		protected.GET("/projects/:project_id/issues/:issue_id", issueHandler.GetIssue)
		protected.PUT("/projects/:project_id/issues/:issue_id", issueHandler.UpdateIssue)
		protected.PATCH("/projects/:project_id/issues/:issue_id", issueHandler.UpdateIssue)
		protected.DELETE("/projects/:project_id/issues/:issue_id", issueHandler.DeleteIssue)

		// Comment routes
		protected.GET("/projects/:project_id/issues/:issue_id/comments", commentHandler.ListComments)
		protected.POST("/projects/:project_id/issues/:issue_id/comments", commentHandler.CreateComment)
		protected.GET("/projects/:project_id/issues/:issue_id/comments/:comment_id", commentHandler.GetComment)
		protected.PUT("/projects/:project_id/issues/:issue_id/comments/:comment_id", commentHandler.UpdateComment)
		protected.PATCH("/projects/:project_id/issues/:issue_id/comments/:comment_id", commentHandler.UpdateComment)
		protected.DELETE("/projects/:project_id/issues/:issue_id/comments/:comment_id", commentHandler.DeleteComment)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
