package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"exam-quiz-service/internal/auth"
	"exam-quiz-service/internal/domain"
	"exam-quiz-service/internal/logging"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CredentialStore persists username/password-hash pairs.
type CredentialStore interface {
	CreateUser(ctx context.Context, cred domain.Credential) error
	GetUser(ctx context.Context, username string) (domain.Credential, error)
}

// PerformanceLog is the append-only record of submitted quizzes.
type PerformanceLog interface {
	Append(ctx context.Context, record domain.PerformanceRecord) error
	ByUser(ctx context.Context, username string) ([]domain.PerformanceRecord, error)
	All(ctx context.Context) ([]domain.PerformanceRecord, error)
}

// BankRepository provides the question bank (possibly cached).
type BankRepository interface {
	Questions(ctx context.Context) ([]domain.QuestionRecord, error)
}

// SessionRepository stores session contexts so a client can resume.
type SessionRepository interface {
	Save(ctx context.Context, sc domain.SessionContext) error
	Load(ctx context.Context, id string) (domain.SessionContext, error)
	Delete(ctx context.Context, id string) error
}

// Options tune a QuizService. Zero values pick defaults.
type Options struct {
	PackageSizes []int
	Hasher       auth.Hasher
	Builder      *Builder
	Logger       *zap.Logger
	Now          func() time.Time
}

// QuizService implements the user actions of the quiz flow. Every handler
// takes the caller's SessionContext and returns the updated one; the input
// context is never mutated.
type QuizService struct {
	users        CredentialStore
	performance  PerformanceLog
	bank         BankRepository
	sessions     SessionRepository
	packageSizes []int
	hasher       auth.Hasher
	builder      *Builder
	logger       *zap.Logger
	now          func() time.Time
	validate     *validator.Validate
}

func NewQuizService(users CredentialStore, performance PerformanceLog, bank BankRepository, sessions SessionRepository, opts Options) *QuizService {
	s := &QuizService{
		users:        users,
		performance:  performance,
		bank:         bank,
		sessions:     sessions,
		packageSizes: opts.PackageSizes,
		hasher:       opts.Hasher,
		builder:      opts.Builder,
		logger:       logging.OrNop(opts.Logger),
		now:          opts.Now,
		validate:     validator.New(),
	}
	if len(s.packageSizes) == 0 {
		s.packageSizes = []int{25, 50, 75, 100}
	}
	if s.hasher == nil {
		s.hasher = auth.NewBcryptHasher()
	}
	if s.builder == nil {
		s.builder = NewBuilder()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Notice is a plain informational message for the current screen.
type Notice struct {
	Message string `json:"message"`
}

// IntroView is shown after login: a greeting and the package choice.
type IntroView struct {
	Username     string `json:"username"`
	PackageSizes []int  `json:"packageSizes"`
	DefaultSize  int    `json:"defaultSize"`
}

// QuestionView is one question as presented to the user.
type QuestionView struct {
	Index    int      `json:"index"`
	Prompt   string   `json:"prompt"`
	Choices  []string `json:"choices"`
	Selected string   `json:"selected,omitempty"`
	Warning  string   `json:"warning,omitempty"`
}

// QuizView is the in-progress quiz screen.
type QuizView struct {
	SessionID   string         `json:"sessionId"`
	PackageSize int            `json:"packageSize"`
	Questions   []QuestionView `json:"questions"`
	Answered    int            `json:"answered"`
}

// ResultsView is everything the results screen shows.
type ResultsView struct {
	Score        domain.ScoreResult        `json:"score"`
	Saved        bool                      `json:"saved"`
	Stats        domain.UserStats          `json:"stats"`
	Leaderboard  []domain.LeaderboardEntry `json:"leaderboard"`
	Series       []domain.Series           `json:"series"`
	PackageSizes []int                     `json:"packageSizes"`
}

// Standings is the read-only leaderboard across all users.
type Standings struct {
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
	Series      []domain.Series           `json:"series"`
}

const noChoicesWarning = "no answer options found for this question"

type credentialsInput struct {
	Username string `validate:"required,max=64"`
	Password string `validate:"required,max=256"`
}

// NewSessionContext returns a fresh context on the login screen.
func (s *QuizService) NewSessionContext() domain.SessionContext {
	return domain.SessionContext{
		ID:        uuid.NewString(),
		Stage:     domain.StageLogin,
		UpdatedAt: s.now().UTC(),
	}
}

// PackageSizes lists the question counts a user may choose.
func (s *QuizService) PackageSizes() []int {
	return slices.Clone(s.packageSizes)
}

// Register creates an account. The user stays on the login screen either way.
func (s *QuizService) Register(ctx context.Context, sc domain.SessionContext, username, password string) (domain.SessionContext, Notice, error) {
	if sc.Stage != domain.StageLogin {
		return sc, Notice{}, domain.ErrWrongStage
	}
	username = strings.TrimSpace(username)
	if err := s.validate.Struct(credentialsInput{Username: username, Password: password}); err != nil {
		return sc, Notice{}, fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return sc, Notice{}, fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.CreateUser(ctx, domain.Credential{Username: username, PasswordHash: hash}); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			s.logger.Warn("registration rejected", zap.String("username", username), zap.Error(err))
			return sc, Notice{}, err
		}
		s.logger.Error("registration failed", zap.String("username", username), zap.Error(err))
		return sc, Notice{}, domain.NewStorageError("create user", err)
	}

	s.logger.Info("user registered", zap.String("username", username))
	next := s.touch(sc)
	// The account exists now; a failed context save is logged by save only.
	_ = s.save(ctx, next)
	return next, Notice{Message: "registration complete, you can now log in"}, nil
}

// Login authenticates the user and moves to the intro screen.
func (s *QuizService) Login(ctx context.Context, sc domain.SessionContext, username, password string) (domain.SessionContext, IntroView, error) {
	if sc.Stage != domain.StageLogin {
		return sc, IntroView{}, domain.ErrWrongStage
	}
	username = strings.TrimSpace(username)
	ok, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return sc, IntroView{}, err
	}
	if !ok {
		s.logger.Warn("login rejected", zap.String("username", username))
		return sc, IntroView{}, domain.ErrInvalidCredentials
	}

	next := s.touch(sc)
	next.Username = username
	next.Stage = domain.StageIntro
	next.Quiz = nil
	s.logger.Info("user logged in", zap.String("username", username), zap.String("session_id", next.ID))
	return next, s.introView(username), s.save(ctx, next)
}

// Authenticate compares the password against the stored hash. Unknown users
// are reported as a plain mismatch.
func (s *QuizService) Authenticate(ctx context.Context, username, password string) (bool, error) {
	cred, err := s.users.GetUser(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		s.logger.Error("credential lookup failed", zap.String("username", username), zap.Error(err))
		return false, domain.NewStorageError("get user", err)
	}
	return s.hasher.Verify(cred.PasswordHash, password), nil
}

// Start builds a new quiz from the intro screen.
func (s *QuizService) Start(ctx context.Context, sc domain.SessionContext, packageSize int) (domain.SessionContext, QuizView, error) {
	if sc.Stage != domain.StageIntro {
		return sc, QuizView{}, domain.ErrWrongStage
	}
	return s.begin(ctx, sc, packageSize)
}

// Retry discards the current quiz or results and builds a new quiz.
func (s *QuizService) Retry(ctx context.Context, sc domain.SessionContext, packageSize int) (domain.SessionContext, QuizView, error) {
	if sc.Stage != domain.StageQuiz && sc.Stage != domain.StageResults {
		return sc, QuizView{}, domain.ErrWrongStage
	}
	return s.begin(ctx, sc, packageSize)
}

func (s *QuizService) begin(ctx context.Context, sc domain.SessionContext, packageSize int) (domain.SessionContext, QuizView, error) {
	if !slices.Contains(s.packageSizes, packageSize) {
		return sc, QuizView{}, fmt.Errorf("%w: %d not in %v", domain.ErrInvalidPackageSize, packageSize, s.packageSizes)
	}

	records, err := s.bank.Questions(ctx)
	if err != nil {
		var missing *domain.MissingColumnError
		if errors.As(err, &missing) {
			s.logger.Error("question bank unusable", zap.Strings("missing_columns", missing.Columns))
			return sc, QuizView{}, err
		}
		s.logger.Error("question bank load failed", zap.Error(err))
		return sc, QuizView{}, fmt.Errorf("load question bank: %w", err)
	}

	session := s.builder.BuildSession(records, packageSize)
	next := s.touch(sc)
	next.Stage = domain.StageQuiz
	next.PackageSize = packageSize
	next.Quiz = &session

	s.logger.Info("quiz started",
		zap.String("username", next.Username),
		zap.String("quiz_id", session.ID),
		zap.Int("requested", packageSize),
		zap.Int("questions", len(session.Questions)),
		zap.Int("bank_size", len(records)))
	return next, quizView(session), s.save(ctx, next)
}

// Answer records the selected choice for question index.
func (s *QuizService) Answer(ctx context.Context, sc domain.SessionContext, index int, choice string) (domain.SessionContext, error) {
	if sc.Stage != domain.StageQuiz || sc.Quiz == nil {
		return sc, domain.ErrWrongStage
	}
	if index < 0 || index >= len(sc.Quiz.Questions) {
		return sc, fmt.Errorf("%w: question %d out of range", domain.ErrInvalidAnswer, index)
	}
	if !slices.Contains(sc.Quiz.Questions[index].AnswerChoices, choice) {
		return sc, fmt.Errorf("%w: choice not offered for question %d", domain.ErrInvalidAnswer, index)
	}

	next := s.touch(sc)
	quiz := cloneQuiz(*sc.Quiz)
	quiz.Answers[index] = choice
	next.Quiz = &quiz
	return next, s.save(ctx, next)
}

// Submit grades the quiz, appends the outcome to the performance log and
// returns the results screen. If the append fails the context stays on the
// quiz screen so the submission can be repeated.
func (s *QuizService) Submit(ctx context.Context, sc domain.SessionContext) (domain.SessionContext, ResultsView, error) {
	if sc.Stage != domain.StageQuiz || sc.Quiz == nil {
		return sc, ResultsView{}, domain.ErrWrongStage
	}

	result := Score(*sc.Quiz, sc.Quiz.Answers)
	view := ResultsView{Score: result, PackageSizes: s.PackageSizes()}

	if !result.Empty() {
		record := domain.PerformanceRecord{
			Username:   sc.Username,
			Timestamp:  s.now().UTC(),
			Score:      result.CorrectCount,
			Total:      result.Total,
			Percentage: result.Percentage,
		}
		if err := s.performance.Append(ctx, record); err != nil {
			s.logger.Error("performance append failed", zap.String("username", sc.Username), zap.Error(err))
			return sc, ResultsView{}, domain.NewStorageError("append performance", err)
		}
		view.Saved = true
	}

	// The attempt is recorded at this point; read failures only degrade the
	// view so a repeated submit cannot append it twice.
	if history, err := s.performance.ByUser(ctx, sc.Username); err != nil {
		s.logger.Warn("history read failed", zap.String("username", sc.Username), zap.Error(err))
	} else {
		view.Stats = Stats(sc.Username, history)
	}
	if all, err := s.performance.All(ctx); err != nil {
		s.logger.Warn("performance read failed", zap.Error(err))
	} else {
		view.Leaderboard = Leaderboard(all)
		view.Series = SeriesByUser(all)
	}

	next := s.touch(sc)
	next.Stage = domain.StageResults
	next.Quiz = nil

	s.logger.Info("quiz submitted",
		zap.String("username", sc.Username),
		zap.String("quiz_id", sc.Quiz.ID),
		zap.Int("score", result.CorrectCount),
		zap.Int("total", result.Total),
		zap.Float64("percentage", result.Percentage))
	return next, view, s.save(ctx, next)
}

// Logout drops the stored context and returns a fresh one on the login screen.
func (s *QuizService) Logout(ctx context.Context, sc domain.SessionContext) domain.SessionContext {
	if s.sessions != nil && sc.ID != "" {
		if err := s.sessions.Delete(ctx, sc.ID); err != nil {
			s.logger.Warn("session delete failed", zap.String("session_id", sc.ID), zap.Error(err))
		}
	}
	return s.NewSessionContext()
}

// Resume loads a previously saved context.
func (s *QuizService) Resume(ctx context.Context, id string) (domain.SessionContext, error) {
	if s.sessions == nil {
		return domain.SessionContext{}, domain.ErrSessionNotFound
	}
	return s.sessions.Load(ctx, id)
}

// View renders the screen the context is currently on.
func (s *QuizService) View(sc domain.SessionContext) any {
	switch sc.Stage {
	case domain.StageIntro, domain.StageResults:
		return s.introView(sc.Username)
	case domain.StageQuiz:
		if sc.Quiz != nil {
			return quizView(*sc.Quiz)
		}
	}
	return Notice{Message: "please log in or register"}
}

// UserStats returns one user's history with mean and attempt count.
func (s *QuizService) UserStats(ctx context.Context, username string) (domain.UserStats, error) {
	history, err := s.performance.ByUser(ctx, username)
	if err != nil {
		return domain.UserStats{}, domain.NewStorageError("load history", err)
	}
	return Stats(username, history), nil
}

// Standings returns the leaderboard and per-user series over the full log.
func (s *QuizService) Standings(ctx context.Context) (Standings, error) {
	all, err := s.performance.All(ctx)
	if err != nil {
		return Standings{}, domain.NewStorageError("load performance", err)
	}
	return Standings{Leaderboard: Leaderboard(all), Series: SeriesByUser(all)}, nil
}

func (s *QuizService) introView(username string) IntroView {
	return IntroView{
		Username:     username,
		PackageSizes: s.PackageSizes(),
		DefaultSize:  s.packageSizes[0],
	}
}

func (s *QuizService) touch(sc domain.SessionContext) domain.SessionContext {
	sc.UpdatedAt = s.now().UTC()
	return sc
}

func (s *QuizService) save(ctx context.Context, sc domain.SessionContext) error {
	if s.sessions == nil {
		return nil
	}
	if err := s.sessions.Save(ctx, sc); err != nil {
		s.logger.Warn("session save failed", zap.String("session_id", sc.ID), zap.Error(err))
		return domain.NewStorageError("save session", err)
	}
	return nil
}

func quizView(session domain.QuizSession) QuizView {
	view := QuizView{
		SessionID:   session.ID,
		PackageSize: session.PackageSize,
		Questions:   make([]QuestionView, 0, len(session.Questions)),
		Answered:    len(session.Answers),
	}
	for i, q := range session.Questions {
		qv := QuestionView{
			Index:    i,
			Prompt:   q.Prompt,
			Choices:  q.AnswerChoices,
			Selected: session.Answers[i],
		}
		if len(q.AnswerChoices) == 0 {
			qv.Warning = noChoicesWarning
		}
		view.Questions = append(view.Questions, qv)
	}
	return view
}

func cloneQuiz(q domain.QuizSession) domain.QuizSession {
	answers := make(map[int]string, len(q.Answers)+1)
	for k, v := range q.Answers {
		answers[k] = v
	}
	q.Answers = answers
	return q
}
