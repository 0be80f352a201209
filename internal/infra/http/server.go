package http

import (
	"time"

	"ciclo/internal/config"
	"ciclo/internal/infra/auth"
	"ciclo/internal/infra/ratelimit"
	"ciclo/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Server struct {
	cfg           config.Config
	r             *gin.Engine
	kernel        *usecase.Kernel
	authenticator Authenticator
	limiter       ratelimit.Limiter
	log           zerolog.Logger
}

type ServerDeps struct {
	Kernel        *usecase.Kernel
	Authenticator Authenticator
	Limiter       ratelimit.Limiter
	Logger        *zerolog.Logger
}

func NewServer(cfg config.Config, kernel *usecase.Kernel) *Server {
	return NewServerWithDeps(cfg, ServerDeps{Kernel: kernel})
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	logger := zerolog.Nop()
	if deps.Logger != nil {
		logger = *deps.Logger
	}
	s := &Server{
		cfg:           cfg,
		r:             r,
		kernel:        deps.Kernel,
		authenticator: deps.Authenticator,
		limiter:       deps.Limiter,
		log:           logger,
	}
	if s.authenticator == nil {
		s.authenticator = auth.NewHeaderAuthenticator()
	}
	s.routes()
	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.r
}

func (s *Server) Run() error {
	addr := s.cfg.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}
	s.log.Info().Str("addr", addr).Msg("http server listening")
	return s.r.Run(addr)
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	handler := NewHandler(s.kernel)
	handler.VerifyLimit = s.cfg.AuditVerifyLimit

	v1 := s.r.Group("/v1")
	v1.Use(AuthMiddleware(s.authenticator))
	if s.limiter != nil && s.cfg.RateLimitRequests > 0 {
		window := time.Duration(s.cfg.RateLimitWindowSeconds) * time.Second
		v1.Use(RateLimitMiddleware(s.limiter, s.cfg.RateLimitRequests, window))
	}
	{
		v1.POST("/listings", handler.HandlePublishListing)
		v1.GET("/listings/:id", handler.HandleGetListing)
		v1.POST("/listings/:id/pause", handler.HandlePauseListing)
		v1.POST("/listings/:id/close", handler.HandleCloseListing)

		v1.POST("/orders", handler.HandlePlaceOrder)
		v1.GET("/orders/:id", handler.HandleGetOrder)
		v1.POST("/orders/:id/reserve", handler.HandleReserveStock)
		v1.POST("/orders/:id/contract/sign", handler.HandleSignContract)
		v1.POST("/orders/:id/escrow", handler.HandleCreateEscrow)
		v1.POST("/orders/:id/dispatch", handler.HandleConfirmDispatch)
		v1.POST("/orders/:id/delivery", handler.HandleConfirmDelivery)
		v1.POST("/orders/:id/release", handler.HandleReleaseSettlement)
		v1.GET("/orders/:id/audit", handler.HandleListOrderAudit)

		v1.GET("/settlements/:id", handler.HandleGetSettlement)

		v1.POST("/disputes", handler.HandleOpenDispute)
		v1.GET("/disputes/:id", handler.HandleGetDispute)
		v1.POST("/disputes/:id/resolve", handler.HandleResolveDispute)

		v1.POST("/approvals", handler.HandleRequestApproval)
		v1.POST("/approvals/:id/decide", handler.HandleDecideApproval)

		v1.GET("/audit/verify", handler.HandleVerifyAudit)
	}
}
