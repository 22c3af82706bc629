package api

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/granada/donor-discovery/internal/ai"
	"github.com/granada/donor-discovery/internal/auth"
	"github.com/granada/donor-discovery/internal/config"
	"github.com/granada/donor-discovery/internal/credits"
	"github.com/granada/donor-discovery/internal/db"
	"github.com/granada/donor-discovery/internal/models"
	"github.com/granada/donor-discovery/internal/search"
)

// Repository is the slice of the opportunity store the handlers use.
type Repository interface {
	Search(ctx context.Context, req search.Request) (*search.Result, error)
	GetOpportunity(ctx context.Context, id string) (*models.Opportunity, error)
	InsertOpportunity(ctx context.Context, o models.Opportunity) error
	Bookmark(ctx context.Context, userID, oppID uuid.UUID) error
	Unbookmark(ctx context.Context, userID, oppID uuid.UUID) error
	ListBookmarks(ctx context.Context, userID uuid.UUID) ([]models.Opportunity, error)
}

type Server struct {
	Store       Repository
	AuthService *auth.Service
	Bank        credits.Bank
	Catalog     *search.Catalog
	Echo        *echo.Echo
	DB          *pgxpool.Pool
}

var (
	adminSecretOnce    sync.Once
	adminSecretRuntime string
	adminSecretErr     error
)

func adminSecret() (string, error) {
	adminSecretOnce.Do(func() {
		secret := strings.TrimSpace(os.Getenv("ADMIN_SECRET"))
		if secret != "" {
			adminSecretRuntime = secret
			return
		}

		buf := make([]byte, 48)
		if _, err := rand.Read(buf); err != nil {
			adminSecretErr = fmt.Errorf("failed to generate ADMIN_SECRET fallback: %w", err)
			return
		}

		adminSecretRuntime = base64.RawURLEncoding.EncodeToString(buf)
		log.Print("ADMIN_SECRET is not set; using ephemeral in-memory fallback secret")
	})

	if adminSecretErr != nil {
		return "", adminSecretErr
	}
	if adminSecretRuntime == "" {
		return "", fmt.Errorf("admin secret unavailable")
	}

	return adminSecretRuntime, nil
}

func NewServer(pool *pgxpool.Pool, cfg config.Config) *Server {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-Admin-Secret"},
	}))

	embedder := ai.NewOllamaClient(cfg.OllamaHost, cfg.EmbedModel)
	store := db.NewStore(pool, embedder)
	bank := credits.NewPGBank(pool)

	catalog, err := search.LoadCatalog("")
	if err != nil {
		log.Printf("preset catalog unavailable: %v", err)
		catalog = &search.Catalog{}
	}

	s := &Server{
		DB:          pool,
		Store:       store,
		AuthService: auth.NewService(pool, bank, cfg.SignupCredits),
		Bank:        bank,
		Catalog:     catalog,
		Echo:        e,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	api := s.Echo.Group("/api/v1")

	api.GET("/opportunities/:id", s.handleGetOpportunity)
	api.GET("/presets", s.handleGetPresets)

	// Auth Routes
	api.POST("/auth/signup", s.handleSignup)
	api.POST("/auth/login", s.handleLogin)

	// Protected Routes
	protected := api.Group("")
	protected.Use(auth.Middleware)
	protected.POST("/search", s.handleSearch)
	protected.GET("/credits/balance", s.handleBalance)
	protected.GET("/credits/history", s.handleHistory)
	protected.POST("/credits/topup", s.handleTopup)
	protected.POST("/bookmarks/:id", s.handleBookmark)
	protected.DELETE("/bookmarks/:id", s.handleUnbookmark)
	protected.GET("/bookmarks", s.handleListBookmarks)

	// Admin Routes
	admin := api.Group("")
	admin.Use(s.adminMiddleware)
	admin.POST("/seed", s.handleSeed)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

type searchResponse struct {
	Opportunities []models.Opportunity `json:"opportunities"`
	Total         int                  `json:"total"`
	CreditCost    int                  `json:"credit_cost"`
	Balance       int                  `json:"balance"`
}

// handleSearch charges the caller's credit account before executing. The
// search tier decides the price; a failed search after a successful charge
// is refunded.
func (s *Server) handleSearch(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var req search.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := req.Filters.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	ctx := c.Request().Context()
	cost := search.Cost(req.Enhanced)

	ok, err := s.Bank.Debit(ctx, userID, cost, "search charge")
	if err != nil && !errors.Is(err, credits.ErrAccountNotFound) {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	if !ok {
		msg := "Insufficient credits. Please purchase more credits."
		if req.Enhanced {
			msg = "Insufficient credits for AI-enhanced search. Please purchase more credits or use basic search."
		}
		return c.JSON(http.StatusPaymentRequired, map[string]string{"error": msg})
	}

	result, err := s.Store.Search(ctx, req)
	if err != nil {
		// The charge already went through; give it back.
		refundCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if rerr := s.Bank.Credit(refundCtx, userID, cost, "refund: search failed"); rerr != nil {
			c.Logger().Errorf("refund failed for %s: %v", userID, rerr)
		}
		c.Logger().Errorf("search failed: %v", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Search is temporarily unavailable. Your credits were not consumed."})
	}

	balance, err := s.Bank.Balance(ctx, userID)
	if err != nil {
		c.Logger().Errorf("balance lookup failed: %v", err)
	}

	return c.JSON(http.StatusOK, searchResponse{
		Opportunities: result.Opportunities,
		Total:         result.Total,
		CreditCost:    cost,
		Balance:       balance,
	})
}

func (s *Server) handleGetOpportunity(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid ID"})
	}
	opp, err := s.Store.GetOpportunity(c.Request().Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	if err != nil {
		c.Logger().Errorf("opportunity lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, opp)
}

func (s *Server) handleGetPresets(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Catalog)
}

// Auth

func (s *Server) handleSignup(c echo.Context) error {
	var req auth.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.Email == "" || len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Email and a password of at least 8 characters are required"})
	}

	resp, err := s.AuthService.Signup(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleLogin(c echo.Context) error {
	var req auth.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	resp, err := s.AuthService.Login(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCreds) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, resp)
}

// Credits

func (s *Server) handleBalance(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	balance, err := s.Bank.Balance(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, credits.ErrAccountNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "No credit account"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	return c.JSON(http.StatusOK, map[string]int{"balance": balance})
}

func (s *Server) handleHistory(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	txs, err := s.Bank.History(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"transactions": txs})
}

type topupRequest struct {
	Amount int `json:"amount"`
}

func (s *Server) handleTopup(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var req topupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.Amount <= 0 || req.Amount > 10000 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Amount must be between 1 and 10000"})
	}

	ctx := c.Request().Context()
	if err := s.Bank.Credit(ctx, userID, req.Amount, "top-up"); err != nil {
		if errors.Is(err, credits.ErrAccountNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "No credit account"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	balance, err := s.Bank.Balance(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	return c.JSON(http.StatusOK, map[string]int{"balance": balance})
}

// Bookmarks

func (s *Server) handleBookmark(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	oppID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid ID"})
	}

	if err := s.Store.Bookmark(c.Request().Context(), userID, oppID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleUnbookmark(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	oppID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid ID"})
	}

	if err := s.Store.Unbookmark(c.Request().Context(), userID, oppID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleListBookmarks(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	opps, err := s.Store.ListBookmarks(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	if opps == nil {
		opps = []models.Opportunity{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"opportunities": opps})
}

// Admin

func (s *Server) adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		secret, err := adminSecret()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server admin configuration error"})
		}

		if c.Request().Header.Get("X-Admin-Secret") == secret {
			return next(c)
		}
		authHeader := c.Request().Header.Get("Authorization")
		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok && token == secret {
			return next(c)
		}

		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized admin access"})
	}
}

func (s *Server) handleSeed(c echo.Context) error {
	ctx := c.Request().Context()

	inserted := 0
	for _, o := range seedOpportunities() {
		if err := s.Store.InsertOpportunity(ctx, o); err != nil {
			c.Logger().Errorf("seed insert failed for %q: %v", o.Title, err)
			continue
		}
		inserted++
	}

	return c.JSON(http.StatusOK, map[string]int{"inserted": inserted})
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}
