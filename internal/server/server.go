package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/groundplan/groundplan/internal/billing"
	billingdomain "github.com/groundplan/groundplan/internal/billing/domain"
	"github.com/groundplan/groundplan/internal/cashflow"
	cashflowdomain "github.com/groundplan/groundplan/internal/cashflow/domain"
	"github.com/groundplan/groundplan/internal/config"
	"github.com/groundplan/groundplan/internal/expense"
	expensedomain "github.com/groundplan/groundplan/internal/expense/domain"
	"github.com/groundplan/groundplan/internal/funding"
	fundingdomain "github.com/groundplan/groundplan/internal/funding/domain"
	obsmetrics "github.com/groundplan/groundplan/internal/observability/metrics"
	"github.com/groundplan/groundplan/internal/project"
	projectdomain "github.com/groundplan/groundplan/internal/project/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(obsmetrics.NewHTTPMetrics),
	fx.Provide(registerGin),
	project.Module,
	funding.Module,
	expense.Module,
	cashflow.Module,
	billing.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, genID *snowflake.Node, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestContextMiddleware(genID))
	r.Use(RequestLogMiddleware(log))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger, genID *snowflake.Node, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(log, genID, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	genID       *snowflake.Node
	cashflowSvc cashflowdomain.Service
	billingSvc  billingdomain.Service
	fundingSvc  fundingdomain.Service
	expenseSvc  expensedomain.Service
	projectRepo projectdomain.Repository
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	DB          *gorm.DB
	GenID       *snowflake.Node
	CashFlowSvc cashflowdomain.Service
	BillingSvc  billingdomain.Service
	FundingSvc  fundingdomain.Service
	ExpenseSvc  expensedomain.Service
	ProjectRepo projectdomain.Repository
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		db:          p.DB,
		genID:       p.GenID,
		cashflowSvc: p.CashFlowSvc,
		billingSvc:  p.BillingSvc,
		fundingSvc:  p.FundingSvc,
		expenseSvc:  p.ExpenseSvc,
		projectRepo: p.ProjectRepo,
	}
	svc.registerRoutes()
	return svc
}

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/v1")

	v1.POST("/projects", s.createProject)
	v1.GET("/projects/:project_id", s.getProject)

	v1.GET("/projects/:project_id/cashflow", s.getProjectCashFlow)
	v1.POST("/projects/:project_id/snapshots/monthly", s.saveMonthlySnapshot)
	v1.POST("/projects/:project_id/snapshots/weekly", s.saveWeeklySnapshot)
	v1.GET("/projects/:project_id/snapshots", s.listSnapshots)

	v1.POST("/projects/:project_id/funding", s.createFunding)
	v1.GET("/projects/:project_id/funding", s.listFunding)
	v1.POST("/funding/:id/receive", s.markFundingReceived)

	v1.POST("/projects/:project_id/expenses", s.createExpense)
	v1.GET("/projects/:project_id/expenses", s.listExpenses)
	v1.POST("/expenses/:id/pay", s.markExpensePaid)
}
