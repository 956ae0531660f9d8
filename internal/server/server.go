package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"mlbeam-backend/internal/config"
	"mlbeam-backend/internal/handler"
	"mlbeam-backend/internal/predictor"
	"mlbeam-backend/internal/repository"
	"mlbeam-backend/internal/service"
	"mlbeam-backend/internal/trainer"
)

type Server struct {
	router *gin.Engine
	db     *sqlx.DB
	cfg    *config.Config
	logger *zap.Logger
}

func NewServer(db *sqlx.DB, cfg *config.Config, logger *zap.Logger) *Server {
	router := gin.Default()

	s := &Server{
		router: router,
		db:     db,
		cfg:    cfg,
		logger: logger,
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	submissionRepo := repository.NewSubmissionRepository(s.db)
	corpusRepo := repository.NewCorpusRepository(s.db)
	registryRepo := repository.NewRegistryRepository(s.db)

	var tr trainer.Trainer
	if s.cfg.Trainer.Mode == "http" {
		tr = trainer.NewHTTPTrainer(s.cfg.Trainer.URL)
	} else {
		tr = trainer.NewScriptTrainer(
			s.cfg.Trainer.Interpreter,
			s.cfg.Trainer.ScriptPath,
			s.cfg.Trainer.ArtifactDir,
			s.logger,
		)
	}

	lifecycle := service.NewLifecycleService(
		corpusRepo,
		registryRepo,
		tr,
		time.Duration(s.cfg.Trainer.TimeoutSeconds)*time.Second,
		s.cfg.Retraining.ImprovementThreshold,
		s.logger,
	)
	submissions := service.NewSubmissionService(submissionRepo, corpusRepo, lifecycle, s.logger)

	submissionHandler := handler.NewSubmissionHandler(submissions, s.logger)
	modelHandler := handler.NewModelHandler(lifecycle, predictor.NewClient(s.cfg.Predictor.URL), s.logger)

	// Ping route for health check
	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	api := s.router.Group("/api")
	{
		api.POST("/submissions", submissionHandler.SubmitResearch)
		api.GET("/model-info", modelHandler.GetModelInfo)
		api.POST("/predict", modelHandler.Predict)
	}

	admin := api.Group("/admin")
	{
		admin.GET("/submissions", submissionHandler.ListSubmissions)
		admin.GET("/submissions/stats", submissionHandler.GetSubmissionStats)
		admin.POST("/review", submissionHandler.ReviewSubmission)
		admin.GET("/model-versions", modelHandler.GetModelVersions)
		admin.POST("/retrain", modelHandler.RetrainModel)
		admin.POST("/rollback", modelHandler.RollbackModel)
	}
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
