package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
	"github.com/layer-3/accolade/core"
	"github.com/layer-3/accolade/ports"
)

// QuizService runs quiz sessions and pays out rewards through the ledger.
type QuizService struct {
	ledger   ports.Ledger
	sessions ports.SessionStore
	bank     []core.Question
	options

	rngMu sync.Mutex
}

// StartResult is returned when a session starts
type StartResult struct {
	SessionID      string `json:"session_id"`
	TotalQuestions int    `json:"total_questions"`
}

// QuestionView is the current question without its answer
type QuestionView struct {
	QuestionNumber int      `json:"question_number"`
	TotalQuestions int      `json:"total_questions"`
	Prompt         string   `json:"question"`
	Options        []string `json:"options"`
}

// AnswerResult reports the outcome of one submitted answer. The aggregate
// fields are set only on the answer that completes the session.
type AnswerResult struct {
	Correct            bool   `json:"correct"`
	CorrectAnswerIndex int    `json:"correct_answer"`
	TokensEarned       int64  `json:"tokens_earned"`
	TotalBalance       int64  `json:"total_tokens"`
	Completed          bool   `json:"quiz_completed"`
	FinalScore         string `json:"final_score,omitempty"`
	TotalTokensEarned  *int64 `json:"total_tokens_earned,omitempty"`
	CanMint            *bool  `json:"can_mint_nft,omitempty"`
}

// Summary describes a session and the participant's standing
type Summary struct {
	SessionID      string `json:"session_id"`
	Identity       string `json:"user_address"`
	CorrectAnswers int    `json:"correct_answers"`
	TotalQuestions int    `json:"total_questions"`
	TokensEarned   int64  `json:"tokens_earned"`
	CurrentBalance int64  `json:"current_total_tokens"`
	CanMint        bool   `json:"can_mint_nft"`
	TokensNeeded   int64  `json:"tokens_needed_for_nft"`
	Completed      bool   `json:"quiz_completed"`
}

// NewQuizService creates a quiz service drawing from bank
func NewQuizService(ledger ports.Ledger, sessions ports.SessionStore, bank []core.Question, opts ...Option) (*QuizService, error) {
	if ledger == nil || sessions == nil {
		return nil, errors.New("ledger and session store are required")
	}
	if len(bank) == 0 {
		return nil, errors.New("question bank is empty")
	}

	o := newOptions(opts)
	if o.policy.QuizSize <= 0 {
		return nil, fmt.Errorf("quiz size must be positive, got %d", o.policy.QuizSize)
	}

	return &QuizService{
		ledger:   ledger,
		sessions: sessions,
		bank:     append([]core.Question(nil), bank...),
		options:  o,
	}, nil
}

// StartSession seeds the participant's balance if new and draws a question subset
func (s *QuizService) StartSession(ctx context.Context, identity string) (StartResult, error) {
	if identity == "" {
		return StartResult{}, fmt.Errorf("user address: %w", core.ErrMissingField)
	}

	if _, err := s.ledger.EnsureInitialized(ctx, identity, s.policy.InitialGrant); err != nil {
		return StartResult{}, fmt.Errorf("initialize participant: %w", err)
	}

	drawn := s.draw()
	now := s.now()
	session := &core.QuizSession{
		ID:             uuid.New().String(),
		Identity:       identity,
		Questions:      drawn,
		TotalQuestions: len(drawn),
		StartedAt:      now,
	}
	if s.policy.SessionTTL > 0 {
		session.ExpiresAt = now.Add(s.policy.SessionTTL)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return StartResult{}, fmt.Errorf("create session: %w", err)
	}

	s.metrics.SessionStarted()
	s.logger.InfoContext(ctx, "quiz session started",
		"session_id", session.ID,
		"identity", identity,
		"questions", session.TotalQuestions)

	return StartResult{
		SessionID:      session.ID,
		TotalQuestions: session.TotalQuestions,
	}, nil
}

// CurrentQuestion returns the question awaiting an answer
func (s *QuizService) CurrentQuestion(ctx context.Context, sessionID string) (QuestionView, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return QuestionView{}, err
	}

	q, ok := session.Current()
	if !ok {
		return QuestionView{}, core.ErrSessionCompleted
	}

	return QuestionView{
		QuestionNumber: session.CurrentIndex + 1,
		TotalQuestions: session.TotalQuestions,
		Prompt:         q.Prompt,
		Options:        append([]string(nil), q.Options...),
	}, nil
}

// SubmitAnswer scores answer against the current question, credits the reward
// on a match and advances the session. The credit and the advance commit together.
func (s *QuizService) SubmitAnswer(ctx context.Context, sessionID string, answer int) (AnswerResult, error) {
	var result AnswerResult
	err := s.sessions.Update(ctx, sessionID, func(session *core.QuizSession) error {
		q, ok := session.Current()
		if !ok {
			return core.ErrSessionCompleted
		}
		if answer < 0 {
			return core.ErrInvalidAnswer
		}

		correct := answer == q.CorrectIndex
		var (
			balance int64
			earned  int64
			err     error
		)
		if correct {
			earned = s.policy.RewardPerCorrect
			balance, err = s.ledger.Credit(ctx, session.Identity, earned)
			if err != nil {
				return fmt.Errorf("credit reward: %w", err)
			}
			session.CorrectCount++
		} else {
			balance, err = s.ledger.BalanceOf(ctx, session.Identity)
			if err != nil {
				return fmt.Errorf("read balance: %w", err)
			}
		}
		session.CurrentIndex++

		result = AnswerResult{
			Correct:            correct,
			CorrectAnswerIndex: q.CorrectIndex,
			TokensEarned:       earned,
			TotalBalance:       balance,
			Completed:          session.Completed(),
		}
		if result.Completed {
			canMint := balance >= s.policy.MinimumMint
			result.FinalScore = fmt.Sprintf("%d/%d", session.CorrectCount, session.TotalQuestions)
			total := int64(session.CorrectCount) * s.policy.RewardPerCorrect
			result.TotalTokensEarned = &total
			result.CanMint = &canMint
		}
		return nil
	})
	if err != nil {
		return AnswerResult{}, err
	}

	s.metrics.Answer(result.Correct)
	if result.Completed {
		s.logger.InfoContext(ctx, "quiz session completed",
			"session_id", sessionID,
			"score", result.FinalScore)
	}
	return result, nil
}

// Summary reports the session's score and the participant's mint standing
func (s *QuizService) Summary(ctx context.Context, sessionID string) (Summary, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return Summary{}, err
	}

	balance, err := s.ledger.BalanceOf(ctx, session.Identity)
	if err != nil {
		return Summary{}, fmt.Errorf("read balance: %w", err)
	}

	return Summary{
		SessionID:      session.ID,
		Identity:       session.Identity,
		CorrectAnswers: session.CorrectCount,
		TotalQuestions: session.TotalQuestions,
		TokensEarned:   int64(session.CorrectCount) * s.policy.RewardPerCorrect,
		CurrentBalance: balance,
		CanMint:        balance >= s.policy.MinimumMint,
		TokensNeeded:   max(0, s.policy.MinimumMint-balance),
		Completed:      session.Completed(),
	}, nil
}

// draw samples min(QuizSize, len(bank)) questions without replacement, in draw order
func (s *QuizService) draw() []core.Question {
	n := min(s.policy.QuizSize, len(s.bank))

	var perm []int
	if s.rng != nil {
		s.rngMu.Lock()
		perm = s.rng.Perm(len(s.bank))
		s.rngMu.Unlock()
	} else {
		perm = rand.Perm(len(s.bank))
	}

	drawn := make([]core.Question, n)
	for i := 0; i < n; i++ {
		drawn[i] = s.bank[perm[i]]
	}
	return drawn
}
