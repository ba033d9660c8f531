package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/accolade/ports"
	"github.com/layer-3/accolade/service"
)

// Handlers contains the HTTP handlers of every endpoint. Mint, credentials
// and badges are optional and answer 503 when nil.
type Handlers struct {
	quiz        *service.QuizService
	accounts    *service.AccountService
	mint        *service.MintService
	credentials *service.CredentialService
	badges      *service.BadgeService
	chain       ports.ChainClient
	logger      *slog.Logger
	now         func() time.Time
}

// Services groups the services behind the handlers
type Services struct {
	Quiz        *service.QuizService
	Accounts    *service.AccountService
	Mint        *service.MintService
	Credentials *service.CredentialService
	Badges      *service.BadgeService

	// Chain answers the health check's connectivity check, nil when unconfigured
	Chain ports.ChainClient
}

// NewHandlers creates new handlers
func NewHandlers(s Services, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		quiz:        s.Quiz,
		accounts:    s.Accounts,
		mint:        s.Mint,
		credentials: s.Credentials,
		badges:      s.Badges,
		chain:       s.Chain,
		logger:      logger,
		now:         time.Now,
	}
}

type addressRequest struct {
	UserAddress string `json:"user_address" binding:"required"`
}

type answerRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Answer    *int   `json:"answer" binding:"required"`
}

type mintRequest struct {
	BadgeType   string `json:"badge_type" binding:"required"`
	TokenURI    string `json:"token_uri" binding:"required"`
	Recipient   string `json:"recipient" binding:"required"`
	UserAddress string `json:"user_address" binding:"required"`
}

type metadataRequest struct {
	StudentName string `json:"student_name" binding:"required"`
	Cohort      string `json:"class_semester" binding:"required"`
	Institution string `json:"university" binding:"required"`
	BadgeType   string `json:"badge_type" binding:"required"`
	UserAddress string `json:"user_address" binding:"required"`
}

type amountRequest struct {
	UserAddress string `json:"user_address" binding:"required"`
	TokenAmount *int64 `json:"token_amount" binding:"required"`
}

func (h *Handlers) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return false
	}
	return true
}

// InitializeUser grants the starting balance to a new participant
func (h *Handlers) InitializeUser(c *gin.Context) {
	var req addressRequest
	if !h.bind(c, &req) {
		return
	}

	tokens, err := h.accounts.Initialize(c.Request.Context(), req.UserAddress)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_address": req.UserAddress,
		"tokens":       tokens,
		"message":      fmt.Sprintf("User initialized with %d tokens", tokens),
	})
}

func (h *Handlers) GetUserBalance(c *gin.Context) {
	address := c.Param("address")
	tokens, err := h.accounts.Balance(c.Request.Context(), address)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_address": address,
		"tokens":       tokens,
	})
}

// StartQuiz opens a quiz session
func (h *Handlers) StartQuiz(c *gin.Context) {
	var req addressRequest
	if !h.bind(c, &req) {
		return
	}

	res, err := h.quiz.StartSession(c.Request.Context(), req.UserAddress)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":      res.SessionID,
		"total_questions": res.TotalQuestions,
		"message":         "Quiz session started successfully",
	})
}

func (h *Handlers) GetQuestion(c *gin.Context) {
	view, err := h.quiz.CurrentQuestion(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SubmitAnswer scores the answer to the current question
func (h *Handlers) SubmitAnswer(c *gin.Context) {
	var req answerRequest
	if !h.bind(c, &req) {
		return
	}

	res, err := h.quiz.SubmitAnswer(c.Request.Context(), req.SessionID, *req.Answer)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) QuizSummary(c *gin.Context) {
	summary, err := h.quiz.Summary(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handlers) CheckEligibility(c *gin.Context) {
	el, err := h.accounts.Eligibility(c.Request.Context(), c.Param("address"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, el)
}

// MintBadge spends the badge cost and submits the mint transaction
func (h *Handlers) MintBadge(c *gin.Context) {
	if h.mint == nil {
		writeError(c, h.logger, fmt.Errorf("minting: %w", errNotConfigured))
		return
	}

	var req mintRequest
	if !h.bind(c, &req) {
		return
	}

	out, err := h.mint.MintBadge(c.Request.Context(), service.MintRequest{
		BadgeType: req.BadgeType,
		TokenURI:  req.TokenURI,
		Recipient: req.Recipient,
		Identity:  req.UserAddress,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tx_hash":          out.TxHash,
		"tokens_deducted":  out.TokensDeducted,
		"remaining_tokens": out.RemainingTokens,
		"message":          fmt.Sprintf("%s NFT minted successfully!", req.BadgeType),
	})
}

// UploadMetadata issues a credential: certificate, metadata and record
func (h *Handlers) UploadMetadata(c *gin.Context) {
	if h.credentials == nil {
		writeError(c, h.logger, fmt.Errorf("credential publication: %w", errNotConfigured))
		return
	}

	var req metadataRequest
	if !h.bind(c, &req) {
		return
	}

	res, err := h.credentials.Issue(c.Request.Context(), service.IssueRequest{
		Identity:    req.UserAddress,
		StudentName: req.StudentName,
		Cohort:      req.Cohort,
		Institution: req.Institution,
		BadgeType:   req.BadgeType,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) CanMint(c *gin.Context) {
	if h.badges == nil {
		writeError(c, h.logger, fmt.Errorf("chain reads: %w", errNotConfigured))
		return
	}

	res, err := h.badges.CanMint(c.Request.Context(), c.Param("badge_type"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) MintedCount(c *gin.Context) {
	if h.badges == nil {
		writeError(c, h.logger, fmt.Errorf("chain reads: %w", errNotConfigured))
		return
	}

	n, err := h.badges.MintedCount(c.Request.Context(), c.Param("badge_type"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"minted_count": n})
}

func (h *Handlers) ListMintedBadges(c *gin.Context) {
	if h.badges == nil {
		writeError(c, h.logger, fmt.Errorf("chain reads: %w", errNotConfigured))
		return
	}

	badges, err := h.badges.ListMintedBadges(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, badges)
}

func (h *Handlers) AdminAddTokens(c *gin.Context) {
	var req amountRequest
	if !h.bind(c, &req) {
		return
	}

	balance, err := h.accounts.AddTokens(c.Request.Context(), req.UserAddress, *req.TokenAmount)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_address": req.UserAddress,
		"tokens_added": *req.TokenAmount,
		"new_balance":  balance,
		"message":      fmt.Sprintf("Successfully added %d tokens", *req.TokenAmount),
	})
}

func (h *Handlers) AdminDeductTokens(c *gin.Context) {
	var req amountRequest
	if !h.bind(c, &req) {
		return
	}

	balance, err := h.accounts.DeductTokens(c.Request.Context(), req.UserAddress, *req.TokenAmount)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_address":    req.UserAddress,
		"tokens_deducted": *req.TokenAmount,
		"new_balance":     balance,
		"message":         fmt.Sprintf("Successfully deducted %d tokens", *req.TokenAmount),
	})
}

func (h *Handlers) AdminSetTokens(c *gin.Context) {
	var req amountRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.accounts.SetTokens(c.Request.Context(), req.UserAddress, *req.TokenAmount); err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_address": req.UserAddress,
		"new_balance":  *req.TokenAmount,
		"message":      fmt.Sprintf("Successfully set balance to %d tokens", *req.TokenAmount),
	})
}

func (h *Handlers) AdminGetAllUsers(c *gin.Context) {
	users, err := h.accounts.Participants(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_users": len(users),
		"users":       users,
	})
}

func (h *Handlers) AdminBadgeEligibility(c *gin.Context) {
	res, err := h.accounts.BadgeEligibility(c.Request.Context(), c.Param("address"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) AdminStats(c *gin.Context) {
	stats, err := h.accounts.Stats(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Health reports liveness, chain connectivity and the participant count
func (h *Handlers) Health(c *gin.Context) {
	ctx := c.Request.Context()

	connected := h.chain != nil && h.chain.Connected(ctx)
	users, err := h.accounts.Participants(ctx)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":               "healthy",
		"timestamp":            h.now().Format(time.RFC3339),
		"blockchain_connected": connected,
		"total_users":          len(users),
	})
}
