package service

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/layer-3/accolade/adapters/store"
	"github.com/layer-3/accolade/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBank(n int) []core.Question {
	bank := make([]core.Question, n)
	for i := range bank {
		bank[i] = core.Question{
			ID:           i + 1,
			Prompt:       "question",
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: i % 4,
		}
	}
	return bank
}

type quizFixture struct {
	ledger   *store.MemoryLedger
	sessions *store.MemorySessionStore
	svc      *QuizService
}

func newQuizFixture(t *testing.T, bank []core.Question, opts ...Option) quizFixture {
	t.Helper()
	ledger := store.NewMemoryLedger()
	sessions := store.NewMemorySessionStore()
	opts = append([]Option{WithRand(rand.New(rand.NewPCG(1, 2)))}, opts...)
	svc, err := NewQuizService(ledger, sessions, bank, opts...)
	require.NoError(t, err)
	return quizFixture{ledger: ledger, sessions: sessions, svc: svc}
}

// correctAnswer peeks at the stored session for the expected index
func (f quizFixture) correctAnswer(t *testing.T, sessionID string) int {
	t.Helper()
	s, err := f.sessions.Get(context.Background(), sessionID)
	require.NoError(t, err)
	q, ok := s.Current()
	require.True(t, ok)
	return q.CorrectIndex
}

func TestQuizService_StartSession(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t, testBank(8))

	res, err := f.svc.StartSession(ctx, "0xABC")
	require.NoError(t, err)
	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, 5, res.TotalQuestions)

	balance, err := f.ledger.BalanceOf(ctx, "0xABC")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), balance)

	// a second session does not grant again
	_, err = f.svc.StartSession(ctx, "0xABC")
	require.NoError(t, err)
	balance, _ = f.ledger.BalanceOf(ctx, "0xABC")
	assert.Equal(t, int64(10000), balance)

	session, err := f.sessions.Get(ctx, res.SessionID)
	require.NoError(t, err)
	seen := map[int]bool{}
	for _, q := range session.Questions {
		assert.False(t, seen[q.ID], "question %d drawn twice", q.ID)
		seen[q.ID] = true
	}
	assert.False(t, session.ExpiresAt.IsZero())
}

func TestQuizService_StartSession_SmallBank(t *testing.T) {
	f := newQuizFixture(t, testBank(3))

	res, err := f.svc.StartSession(context.Background(), "0xABC")
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalQuestions)
}

func TestQuizService_StartSession_RequiresIdentity(t *testing.T) {
	f := newQuizFixture(t, testBank(5))

	_, err := f.svc.StartSession(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrMissingField)
}

func TestQuizService_AnswerFlow(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t, testBank(5))

	res, err := f.svc.StartSession(ctx, "0xABC")
	require.NoError(t, err)

	view, err := f.svc.CurrentQuestion(ctx, res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.QuestionNumber)
	assert.Equal(t, 5, view.TotalQuestions)
	assert.Len(t, view.Options, 4)

	// first answer wrong
	wrong := (f.correctAnswer(t, res.SessionID) + 1) % 4
	ans, err := f.svc.SubmitAnswer(ctx, res.SessionID, wrong)
	require.NoError(t, err)
	assert.False(t, ans.Correct)
	assert.Zero(t, ans.TokensEarned)
	assert.Equal(t, int64(10000), ans.TotalBalance)
	assert.False(t, ans.Completed)
	assert.Nil(t, ans.CanMint)
	assert.Nil(t, ans.TotalTokensEarned)

	for i := 0; i < 4; i++ {
		ans, err = f.svc.SubmitAnswer(ctx, res.SessionID, f.correctAnswer(t, res.SessionID))
		require.NoError(t, err)
		assert.True(t, ans.Correct)
		assert.Equal(t, int64(50), ans.TokensEarned)
	}

	assert.True(t, ans.Completed)
	assert.Equal(t, "4/5", ans.FinalScore)
	require.NotNil(t, ans.TotalTokensEarned)
	assert.Equal(t, int64(200), *ans.TotalTokensEarned)
	require.NotNil(t, ans.CanMint)
	assert.True(t, *ans.CanMint)
	assert.Equal(t, int64(10200), ans.TotalBalance)

	_, err = f.svc.SubmitAnswer(ctx, res.SessionID, 0)
	assert.ErrorIs(t, err, core.ErrSessionCompleted)

	_, err = f.svc.CurrentQuestion(ctx, res.SessionID)
	assert.ErrorIs(t, err, core.ErrSessionCompleted)

	balance, _ := f.ledger.BalanceOf(ctx, "0xABC")
	assert.Equal(t, int64(10200), balance, "completed session must not credit")

	summary, err := f.svc.Summary(ctx, res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, Summary{
		SessionID:      res.SessionID,
		Identity:       "0xABC",
		CorrectAnswers: 4,
		TotalQuestions: 5,
		TokensEarned:   200,
		CurrentBalance: 10200,
		CanMint:        true,
		TokensNeeded:   0,
		Completed:      true,
	}, summary)
}

func TestQuizService_UnknownSession(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t, testBank(5))

	_, err := f.svc.SubmitAnswer(ctx, "missing", 0)
	assert.ErrorIs(t, err, core.ErrUnknownSession)
	assert.NotErrorIs(t, err, core.ErrSessionCompleted)

	_, err = f.svc.CurrentQuestion(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrUnknownSession)

	_, err = f.svc.Summary(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrUnknownSession)
}

func TestQuizService_NegativeAnswer(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t, testBank(5))

	res, err := f.svc.StartSession(ctx, "0xABC")
	require.NoError(t, err)

	_, err = f.svc.SubmitAnswer(ctx, res.SessionID, -1)
	assert.ErrorIs(t, err, core.ErrInvalidAnswer)

	session, err := f.sessions.Get(ctx, res.SessionID)
	require.NoError(t, err)
	assert.Zero(t, session.CurrentIndex)
}

func TestQuizService_NegativeAnswerChecksSessionFirst(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t, testBank(5))

	_, err := f.svc.SubmitAnswer(ctx, "missing", -1)
	assert.ErrorIs(t, err, core.ErrUnknownSession)
	assert.NotErrorIs(t, err, core.ErrInvalidAnswer)

	res, err := f.svc.StartSession(ctx, "0xABC")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err = f.svc.SubmitAnswer(ctx, res.SessionID, 0)
		require.NoError(t, err)
	}

	_, err = f.svc.SubmitAnswer(ctx, res.SessionID, -1)
	assert.ErrorIs(t, err, core.ErrSessionCompleted)
	assert.NotErrorIs(t, err, core.ErrInvalidAnswer)
}

func TestQuizService_ZeroScoreCompletion(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t, testBank(5))

	res, err := f.svc.StartSession(ctx, "0xABC")
	require.NoError(t, err)

	var ans AnswerResult
	for i := 0; i < 5; i++ {
		wrong := (f.correctAnswer(t, res.SessionID) + 1) % 4
		ans, err = f.svc.SubmitAnswer(ctx, res.SessionID, wrong)
		require.NoError(t, err)
	}
	require.True(t, ans.Completed)
	assert.Equal(t, "0/5", ans.FinalScore)

	raw, err := json.Marshal(ans)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Contains(t, out, "total_tokens_earned")
	assert.EqualValues(t, 0, out["total_tokens_earned"])
	assert.Equal(t, true, out["can_mint_nft"])
}

func TestQuizService_OutOfRangeAnswerIsIncorrect(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t, testBank(5))

	res, err := f.svc.StartSession(ctx, "0xABC")
	require.NoError(t, err)

	ans, err := f.svc.SubmitAnswer(ctx, res.SessionID, 99)
	require.NoError(t, err)
	assert.False(t, ans.Correct)
}

func TestQuizService_FailedCreditKeepsQuestion(t *testing.T) {
	ctx := context.Background()
	ledger := &failingLedger{Ledger: store.NewMemoryLedger()}
	sessions := store.NewMemorySessionStore()
	svc, err := NewQuizService(ledger, sessions, testBank(5))
	require.NoError(t, err)

	res, err := svc.StartSession(ctx, "0xABC")
	require.NoError(t, err)

	s, _ := sessions.Get(ctx, res.SessionID)
	q, _ := s.Current()

	ledger.failCredit = true
	_, err = svc.SubmitAnswer(ctx, res.SessionID, q.CorrectIndex)
	require.ErrorIs(t, err, core.ErrStoreOperationFailed)

	s, _ = sessions.Get(ctx, res.SessionID)
	assert.Zero(t, s.CurrentIndex)
	assert.Zero(t, s.CorrectCount)

	ledger.failCredit = false
	ans, err := svc.SubmitAnswer(ctx, res.SessionID, q.CorrectIndex)
	require.NoError(t, err)
	assert.True(t, ans.Correct)
	assert.Equal(t, int64(10050), ans.TotalBalance)
}

func TestNewQuizService_Validation(t *testing.T) {
	ledger := store.NewMemoryLedger()
	sessions := store.NewMemorySessionStore()

	_, err := NewQuizService(nil, sessions, testBank(1))
	assert.Error(t, err)

	_, err = NewQuizService(ledger, sessions, nil)
	assert.Error(t, err)

	p := DefaultPolicy()
	p.QuizSize = 0
	_, err = NewQuizService(ledger, sessions, testBank(1), WithPolicy(p))
	assert.Error(t, err)
}
