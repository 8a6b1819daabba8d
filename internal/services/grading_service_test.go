package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Mont3ll/lms-backend/internal/events"
	"github.com/Mont3ll/lms-backend/internal/grading"
	"github.com/Mont3ll/lms-backend/internal/lock"
	"github.com/Mont3ll/lms-backend/internal/models"
	"github.com/Mont3ll/lms-backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ===== IN-MEMORY TEST REPOSITORIES =====

type fakeAttemptRepo struct {
	mu       sync.Mutex
	attempts map[uint]*models.AssessmentAttempt
	repo     *fakeRepository
}

func (f *fakeAttemptRepo) Create(ctx context.Context, tx *gorm.DB, attempt *models.AssessmentAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	attempt.ID = uint(len(f.attempts) + 1)
	f.attempts[attempt.ID] = attempt
	return nil
}

func (f *fakeAttemptRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.AssessmentAttempt, error) {
	return f.GetByIDWithDetails(ctx, tx, id)
}

func (f *fakeAttemptRepo) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.AssessmentAttempt, error) {
	f.mu.Lock()
	attempt, ok := f.attempts[id]
	if !ok {
		f.mu.Unlock()
		return nil, gorm.ErrRecordNotFound
	}
	copied := *attempt
	f.mu.Unlock()

	// Join the assessment and its live questions when the fixture did not
	// carry them inline, mirroring the preload of the real repository.
	if copied.Assessment.ID == 0 && f.repo != nil {
		assessment, err := f.repo.assessment.GetByID(ctx, tx, copied.AssessmentID)
		if err == nil {
			questions, _ := f.repo.question.GetByAssessment(ctx, tx, copied.AssessmentID)
			for _, q := range questions {
				assessment.Questions = append(assessment.Questions, *q)
			}
			copied.Assessment = *assessment
		}
	}
	return &copied, nil
}

func (f *fakeAttemptRepo) Update(ctx context.Context, tx *gorm.DB, attempt *models.AssessmentAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.attempts[attempt.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *attempt
	f.attempts[attempt.ID] = &copied
	return nil
}

func (f *fakeAttemptRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]*models.AssessmentAttempt, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []*models.AssessmentAttempt
	for _, attempt := range f.attempts {
		if filters.Status != nil && attempt.Status != *filters.Status {
			continue
		}
		if filters.AssessmentID != nil && attempt.AssessmentID != *filters.AssessmentID {
			continue
		}
		if filters.StudentID != nil && attempt.StudentID != *filters.StudentID {
			continue
		}
		copied := *attempt
		matched = append(matched, &copied)
	}
	return matched, int64(len(matched)), nil
}

func (f *fakeAttemptRepo) GetByStudentAndAssessment(ctx context.Context, tx *gorm.DB, studentID string, assessmentID uint) ([]*models.AssessmentAttempt, error) {
	return nil, nil
}

func (f *fakeAttemptRepo) GetActiveAttempt(ctx context.Context, tx *gorm.DB, studentID string, assessmentID uint) (*models.AssessmentAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, attempt := range f.attempts {
		if attempt.StudentID == studentID && attempt.AssessmentID == assessmentID &&
			attempt.Status == models.AttemptInProgress {
			copied := *attempt
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeAttemptRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.AttemptStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	attempt, ok := f.attempts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	attempt.Status = status
	return nil
}

func (f *fakeAttemptRepo) GetAttemptCount(ctx context.Context, tx *gorm.DB, studentID string, assessmentID uint) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, attempt := range f.attempts {
		if attempt.StudentID == studentID && attempt.AssessmentID == assessmentID {
			count++
		}
	}
	return count, nil
}

type fakeResultRepo struct {
	mu          sync.Mutex
	results     map[uint]*models.GradingResult
	createCalls int
}

func (f *fakeResultRepo) Create(ctx context.Context, tx *gorm.DB, result *models.GradingResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if _, exists := f.results[result.AttemptID]; exists {
		return fmt.Errorf("duplicate key value violates unique constraint")
	}
	copied := *result
	f.results[result.AttemptID] = &copied
	return nil
}

func (f *fakeResultRepo) GetByAttemptID(ctx context.Context, tx *gorm.DB, attemptID uint) (*models.GradingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result, ok := f.results[attemptID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *result
	return &copied, nil
}

func (f *fakeResultRepo) Replace(ctx context.Context, tx *gorm.DB, result *models.GradingResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *result
	f.results[result.AttemptID] = &copied
	return nil
}

func (f *fakeResultRepo) DeleteByAttemptID(ctx context.Context, tx *gorm.DB, attemptID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.results, attemptID)
	return nil
}

func (f *fakeResultRepo) GetByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.GradingResult, error) {
	return nil, nil
}

func (f *fakeResultRepo) GetGradingStats(ctx context.Context, tx *gorm.DB, assessmentID uint) (*repositories.GradingStats, error) {
	return &repositories.GradingStats{}, nil
}

type fakeRepository struct {
	assessment *fakeAssessmentRepo
	question   *fakeQuestionRepo
	attempt    *fakeAttemptRepo
	result     *fakeResultRepo
	user       *fakeUserRepo
}

func newFakeRepository() *fakeRepository {
	repo := &fakeRepository{
		assessment: &fakeAssessmentRepo{assessments: make(map[uint]*models.Assessment)},
		question:   &fakeQuestionRepo{questions: make(map[uint]*models.Question)},
		attempt:    &fakeAttemptRepo{attempts: make(map[uint]*models.AssessmentAttempt)},
		result:     &fakeResultRepo{results: make(map[uint]*models.GradingResult)},
		user:       &fakeUserRepo{users: make(map[string]*models.User)},
	}
	repo.attempt.repo = repo
	repo.assessment.repo = repo
	return repo
}

func (f *fakeRepository) Assessment() repositories.AssessmentRepository { return f.assessment }
func (f *fakeRepository) Question() repositories.QuestionRepository     { return f.question }
func (f *fakeRepository) Attempt() repositories.AttemptRepository       { return f.attempt }
func (f *fakeRepository) Result() repositories.ResultRepository         { return f.result }
func (f *fakeRepository) User() repositories.UserRepository             { return f.user }

func (f *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}

func (f *fakeRepository) Ping(ctx context.Context) error { return nil }
func (f *fakeRepository) Close() error                   { return nil }

// ===== FIXTURES =====

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGradingService(repo *fakeRepository) (GradingService, *events.MockEventPublisher) {
	publisher := events.NewMockEventPublisher(testLogger())
	grader := grading.NewGrader(grading.NewRegistry(), testLogger())
	service := NewGradingService(repo, grader, lock.NewMemoryLocker(), publisher, testLogger())
	return service, publisher
}

func submittedAttempt(courseCompleting bool) *models.AssessmentAttempt {
	submittedAt := time.Now().Add(-time.Minute)
	var courseID *uint
	if courseCompleting {
		id := uint(42)
		courseID = &id
	}
	return &models.AssessmentAttempt{
		AssessmentID: 1,
		StudentID:    "student-1",
		Status:       models.AttemptSubmitted,
		SubmittedAt:  &submittedAt,
		StartedAt:    submittedAt.Add(-time.Hour),
		Answers:      datatypes.JSON(`{"1": "a", "2": 15}`),
		Assessment: models.Assessment{
			ID:                 1,
			Title:              "Final Exam",
			Status:             models.StatusActive,
			PassMarkPercentage: 60,
			CourseCompleting:   courseCompleting,
			CourseID:           courseID,
			Questions: []models.Question{
				{
					ID:     1,
					Type:   models.MultipleChoice,
					Points: 10,
					Content: datatypes.JSON(`{
						"options": [
							{"id": "a", "text": "Option A", "is_correct": true},
							{"id": "b", "text": "Option B", "is_correct": false}
						]
					}`),
				},
				{
					ID:      2,
					Type:    models.NumericRange,
					Points:  5,
					Content: datatypes.JSON(`{"min": 10, "max": 20}`),
				},
			},
		},
	}
}

// ===== TESTS =====

func TestGradeAttempt_Success(t *testing.T) {
	repo := newFakeRepository()
	service, publisher := newTestGradingService(repo)

	attempt := submittedAttempt(false)
	require.NoError(t, repo.attempt.Create(context.Background(), nil, attempt))

	result, err := service.GradeAttempt(context.Background(), attempt.ID, false)
	require.NoError(t, err)

	assert.Equal(t, 15.0, result.TotalPointsAwarded)
	assert.Equal(t, 15.0, result.TotalPointsPossible)
	assert.Equal(t, 100.0, result.Percentage)
	assert.True(t, result.Passed)
	require.Len(t, result.Answers, 2)

	// Attempt flipped to graded together with the stored result.
	stored, err := repo.attempt.GetByID(context.Background(), nil, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptGraded, stored.Status)
	assert.NotNil(t, stored.GradedAt)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventAttemptGraded, published[0].Type)
}

func TestGradeAttempt_FailingScore(t *testing.T) {
	repo := newFakeRepository()
	service, _ := newTestGradingService(repo)

	attempt := submittedAttempt(false)
	attempt.Answers = datatypes.JSON(`{"1": "b", "2": 25}`)
	require.NoError(t, repo.attempt.Create(context.Background(), nil, attempt))

	result, err := service.GradeAttempt(context.Background(), attempt.ID, false)
	require.NoError(t, err)

	assert.Zero(t, result.TotalPointsAwarded)
	assert.Equal(t, 15.0, result.TotalPointsPossible)
	assert.Zero(t, result.Percentage)
	assert.False(t, result.Passed)
}

func TestGradeAttempt_CourseCompletedEvent(t *testing.T) {
	repo := newFakeRepository()
	service, publisher := newTestGradingService(repo)

	attempt := submittedAttempt(true)
	require.NoError(t, repo.attempt.Create(context.Background(), nil, attempt))

	result, err := service.GradeAttempt(context.Background(), attempt.ID, false)
	require.NoError(t, err)
	require.True(t, result.Passed)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 2)
	assert.Equal(t, events.EventAttemptGraded, published[0].Type)
	assert.Equal(t, events.EventCourseCompleted, published[1].Type)
}

func TestGradeAttempt_NoCourseEventOnFail(t *testing.T) {
	repo := newFakeRepository()
	service, publisher := newTestGradingService(repo)

	attempt := submittedAttempt(true)
	attempt.Answers = datatypes.JSON(`{"1": "b"}`)
	require.NoError(t, repo.attempt.Create(context.Background(), nil, attempt))

	result, err := service.GradeAttempt(context.Background(), attempt.ID, false)
	require.NoError(t, err)
	require.False(t, result.Passed)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventAttemptGraded, published[0].Type)
}

func TestGradeAttempt_AlreadyGradedReturnsStoredResult(t *testing.T) {
	repo := newFakeRepository()
	service, _ := newTestGradingService(repo)

	attempt := submittedAttempt(false)
	require.NoError(t, repo.attempt.Create(context.Background(), nil, attempt))

	first, err := service.GradeAttempt(context.Background(), attempt.ID, false)
	require.NoError(t, err)

	second, err := service.GradeAttempt(context.Background(), attempt.ID, false)
	assert.ErrorIs(t, err, ErrAlreadyGraded)
	require.NotNil(t, second)
	assert.Equal(t, first.TotalPointsAwarded, second.TotalPointsAwarded)
	assert.Equal(t, first.Percentage, second.Percentage)
	assert.Equal(t, 1, repo.result.createCalls)
}

func TestGradeAttempt_RegradeReplacesResult(t *testing.T) {
	repo := newFakeRepository()
	service, _ := newTestGradingService(repo)

	attempt := submittedAttempt(false)
	require.NoError(t, repo.attempt.Create(context.Background(), nil, attempt))

	first, err := service.GradeAttempt(context.Background(), attempt.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 15.0, first.TotalPointsAwarded)

	// Change the stored answers, then regrade.
	stored, err := repo.attempt.GetByID(context.Background(), nil, attempt.ID)
	require.NoError(t, err)
	stored.Answers = datatypes.JSON(`{"1": "b", "2": 15}`)
	require.NoError(t, repo.attempt.Update(context.Background(), nil, stored))

	regraded, err := service.GradeAttempt(context.Background(), attempt.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 5.0, regraded.TotalPointsAwarded)

	// The attempt still has exactly one result row.
	result, err := repo.result.GetByAttemptID(context.Background(), nil, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, result.TotalPointsAwarded)
}

func TestGradeAttempt_NotSubmitted(t *testing.T) {
	repo := newFakeRepository()
	service, _ := newTestGradingService(repo)

	attempt := submittedAttempt(false)
	attempt.Status = models.AttemptInProgress
	require.NoError(t, repo.attempt.Create(context.Background(), nil, attempt))

	result, err := service.GradeAttempt(context.Background(), attempt.ID, false)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrAttemptNotSubmitted)
}

func TestGradeAttempt_NotFound(t *testing.T) {
	repo := newFakeRepository()
	service, _ := newTestGradingService(repo)

	result, err := service.GradeAttempt(context.Background(), 999, false)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestGradeAttempt_UnsupportedQuestionTypeAborts(t *testing.T) {
	repo := newFakeRepository()
	service, _ := newTestGradingService(repo)

	attempt := submittedAttempt(false)
	attempt.Assessment.Questions = append(attempt.Assessment.Questions, models.Question{
		ID:      3,
		Type:    models.QuestionType("essay"),
		Points:  10,
		Content: datatypes.JSON(`{}`),
	})
	require.NoError(t, repo.attempt.Create(context.Background(), nil, attempt))

	result, err := service.GradeAttempt(context.Background(), attempt.ID, false)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrUnsupportedQuestionType)

	// Nothing persisted, attempt untouched.
	_, err = repo.result.GetByAttemptID(context.Background(), nil, attempt.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	stored, err := repo.attempt.GetByID(context.Background(), nil, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptSubmitted, stored.Status)
}

func TestGradeAttempt_ConcurrentCallersProduceOneResult(t *testing.T) {
	repo := newFakeRepository()
	service, _ := newTestGradingService(repo)

	attempt := submittedAttempt(false)
	require.NoError(t, repo.attempt.Create(context.Background(), nil, attempt))

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	results := make([]*GradingResultResponse, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = service.GradeAttempt(context.Background(), attempt.ID, false)
		}(i)
	}
	wg.Wait()

	winners := 0
	for i := 0; i < callers; i++ {
		switch {
		case errs[i] == nil:
			winners++
			assert.Equal(t, 100.0, results[i].Percentage)
		case errors.Is(errs[i], ErrAlreadyGraded):
			// Converged on the winner's stored result.
			require.NotNil(t, results[i])
			assert.Equal(t, 100.0, results[i].Percentage)
		case errors.Is(errs[i], ErrGradingBusy):
			assert.Nil(t, results[i])
		default:
			t.Fatalf("unexpected error: %v", errs[i])
		}
	}

	assert.Equal(t, 1, winners, "exactly one caller performs the grading pass")
	assert.Equal(t, 1, repo.result.createCalls)

	stored, err := repo.attempt.GetByID(context.Background(), nil, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptGraded, stored.Status)
}
