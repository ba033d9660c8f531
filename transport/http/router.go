package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter sets up the Gin router. gatherer backs /metrics and may be nil.
func SetupRouter(handlers *Handlers, logger *slog.Logger, gatherer prometheus.Gatherer) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(RequestID(), Logger(logger), Recovery(logger))

	// Participant and quiz routes
	router.POST("/initialize_user", handlers.InitializeUser)
	router.GET("/get_user_balance/:address", handlers.GetUserBalance)
	router.POST("/start_quiz", handlers.StartQuiz)
	router.GET("/get_question/:session_id", handlers.GetQuestion)
	router.POST("/submit_answer", handlers.SubmitAnswer)
	router.GET("/quiz_summary/:session_id", handlers.QuizSummary)
	router.GET("/check_nft_eligibility/:address", handlers.CheckEligibility)

	// Badge routes
	router.POST("/mintBadge", handlers.MintBadge)
	router.POST("/uploadMetadata", handlers.UploadMetadata)
	router.GET("/canmint/:badge_type", handlers.CanMint)
	router.GET("/getMintedCount/:badge_type", handlers.MintedCount)
	router.GET("/list_minted_badges", handlers.ListMintedBadges)

	// Operator routes
	router.POST("/admin_add_tokens", handlers.AdminAddTokens)
	router.POST("/admin_deduct_tokens", handlers.AdminDeductTokens)
	router.POST("/admin_set_tokens", handlers.AdminSetTokens)
	router.GET("/admin_get_all_users", handlers.AdminGetAllUsers)
	router.GET("/admin_badge_eligibility/:address", handlers.AdminBadgeEligibility)
	router.GET("/admin_stats", handlers.AdminStats)

	router.GET("/health", handlers.Health)
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return router
}
