// Package httpserver manages server creation and api routing.
package httpserver

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/lynx-wire/internal/accountdelivery"
	"github.com/go-petr/lynx-wire/internal/accountrepo"
	"github.com/go-petr/lynx-wire/internal/accountservice"
	"github.com/go-petr/lynx-wire/internal/archiverepo"
	"github.com/go-petr/lynx-wire/internal/middleware"
	"github.com/go-petr/lynx-wire/internal/transferdelivery"
	"github.com/go-petr/lynx-wire/internal/transferrepo"
	"github.com/go-petr/lynx-wire/internal/transferservice"
	"github.com/go-petr/lynx-wire/pkg/configpkg"
	"github.com/go-petr/lynx-wire/pkg/web"
)

// Server holds the optional archive connection, handlers router, transfer
// processing and configuration.
type Server struct {
	DB        *sql.DB
	Engine    *gin.Engine
	Config    configpkg.Config
	Transfers *transferservice.Service
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// Shutdown stops transfer processing and waits for the running tasks.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Transfers.Shutdown(ctx)
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func health(gctx *gin.Context) {
	gctx.JSON(http.StatusOK, healthResponse{
		Status:  "healthy",
		Message: "Lynx wire transfer simulator is running",
	})
}

// New creates Server type with instantiated domains and routes. conn may be
// nil, in which case finished transfers are not archived.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	openingBalance, err := decimal.NewFromString(config.OpeningBalance)
	if err != nil {
		return nil, fmt.Errorf("invalid opening balance %q: %w", config.OpeningBalance, err)
	}

	policy, err := transferservice.NewCancelPolicy(config.CancellationPolicy, config.CancellationRate)
	if err != nil {
		return nil, err
	}

	opts := []transferservice.Option{
		transferservice.WithDelayer(transferservice.JitterDelayer{
			Delay:  config.StageDelay,
			Jitter: config.StageJitter,
		}),
		transferservice.WithCancelPolicy(policy),
	}

	if conn != nil {
		opts = append(opts, transferservice.WithArchiver(archiverepo.NewRepoPGS(conn)))
	}

	accountRepo := accountrepo.NewRepoMem(openingBalance)
	transferRepo := transferrepo.NewRepoMem()

	accountService := accountservice.New(accountRepo)
	transferService := transferservice.New(transferRepo, accountService, opts...)

	accountHandler := accountdelivery.NewHandler(accountService)
	transferHandler := transferdelivery.NewHandler(transferService)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(web.JSONFieldName)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.Metrics())
	engine.Use(gin.Recovery())

	engine.GET("/api/health", health)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	engine.POST("/create_transfer", transferHandler.Create)
	engine.GET("/transfers", transferHandler.List)
	engine.GET("/transfer/:id", transferHandler.Get)
	engine.POST("/transfer/:id/cancel", transferHandler.Cancel)

	engine.GET("/bank_accounts", accountHandler.List)

	server := &Server{
		DB:        conn,
		Engine:    engine,
		Config:    config,
		Transfers: transferService,
	}

	return server, nil
}
