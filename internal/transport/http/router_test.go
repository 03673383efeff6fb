package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhubafrica/points-service/internal/application/queue"
	"github.com/jhubafrica/points-service/internal/application/usecase"
	"github.com/jhubafrica/points-service/internal/domain"
	"github.com/jhubafrica/points-service/internal/infrastructure/logger"
	"github.com/jhubafrica/points-service/internal/infrastructure/repository/memory"
	"github.com/jhubafrica/points-service/internal/infrastructure/security"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	db     *memory.DB
	tokens *security.TokenManager
	queue  *queue.Queue
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := memory.NewDB()
	stores := db.Stores()
	log := logger.Discard()

	points := usecase.NewPointsUseCase(stores, nil, log, usecase.PointsOptions{MaxAwardPoints: 500})
	consistency := usecase.NewConsistencyUseCase(points, stores, nil, log, usecase.ConsistencyOptions{BatchSize: 50})
	q := queue.New(consistency, log, queue.Options{Workers: 1, Size: 8})
	points.SetScheduler(q)

	tokens := security.NewTokenManager("test-secret")
	router := NewRouter(RouterDeps{
		Points:  NewPointsHandler(points, log),
		System:  NewSystemHandler(consistency, q, log),
		Cohorts: NewCohortHandler(usecase.NewCohortUseCase(stores, log, nil), log),
		Tokens:  tokens,
	})
	return &testServer{router: router, db: db, tokens: tokens, queue: q}
}

func (s *testServer) token(t *testing.T, id uuid.UUID, role domain.UserRole) string {
	t.Helper()
	tok, err := s.tokens.Generate(id, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPoints_CalculateAndSummary(t *testing.T) {
	s := newTestServer(t)
	u := s.db.PutUser(domain.User{Email: "wanjiru@jhub.africa", EmailVerified: true, ProfileComplete: true})
	s.db.PutEnrollment(domain.Enrollment{StudentID: u.ID, CourseID: uuid.New(), Status: domain.EnrollmentCompleted})
	tok := s.token(t, u.ID, domain.RoleStudent)

	w := s.do(t, http.MethodPost, "/api/v1/points/calculate", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ev domain.Evaluation
	decode(t, w, &ev)
	assert.Equal(t, 650, ev.TotalPoints)
	assert.Equal(t, 500, ev.Breakdown.Completion)

	w = s.do(t, http.MethodGet, "/api/v1/points/summary", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary domain.PointsSummary
	decode(t, w, &summary)
	assert.Equal(t, 650, summary.Points)
	assert.Equal(t, 1, summary.CompletedCourses)
}

func TestPoints_RequiresToken(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/v1/points/summary", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPoints_UnknownCaller(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/v1/points/calculate", s.token(t, uuid.New(), domain.RoleStudent), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPoints_Award(t *testing.T) {
	s := newTestServer(t)
	u := s.db.PutUser(domain.User{Email: "otieno@jhub.africa"})
	tok := s.token(t, u.ID, domain.RoleStudent)

	w := s.do(t, http.MethodPost, "/api/v1/points/award", tok, gin.H{"action": "hackathon", "points": 75, "description": "finalist"})
	require.Equal(t, http.StatusCreated, w.Code)
	var res usecase.AwardResult
	decode(t, w, &res)
	assert.Equal(t, 75, res.Points)
	assert.True(t, res.Scheduled)
	assert.Equal(t, "hackathon", res.Award.Action)
	assert.Equal(t, 1, s.queue.Stats().Pending)

	w = s.do(t, http.MethodPost, "/api/v1/points/award", tok, gin.H{"action": "hackathon", "points": 5000})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/points/award", tok, gin.H{"points": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPoints_Streak(t *testing.T) {
	s := newTestServer(t)
	u := s.db.PutUser(domain.User{Email: "baraka@jhub.africa"})
	tok := s.token(t, u.ID, domain.RoleStudent)

	w := s.do(t, http.MethodPost, "/api/v1/points/streak", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res usecase.StreakResult
	decode(t, w, &res)
	assert.Equal(t, 1, res.Streak)
	assert.Equal(t, domain.StreakStarted, res.Action)

	w = s.do(t, http.MethodPost, "/api/v1/points/streak", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &res)
	assert.Equal(t, domain.StreakUnchanged, res.Action)
}

func TestSystem_AdminOnly(t *testing.T) {
	s := newTestServer(t)
	student := s.token(t, uuid.New(), domain.RoleStudent)

	for _, path := range []string{"/api/v1/system/validate-consistency", "/api/v1/system/queue"} {
		w := s.do(t, http.MethodGet, path, student, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}
	w := s.do(t, http.MethodPost, "/api/v1/courses/"+uuid.NewString()+"/start-cohort", student, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSystem_ValidateCorrectAndCleanup(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, uuid.New(), domain.RoleAdmin)
	u := s.db.PutUser(domain.User{Email: "achieng@jhub.africa", EmailVerified: true})
	gone := s.db.PutUser(domain.User{Email: "gone@jhub.africa"})
	s.db.PutEnrollment(domain.Enrollment{StudentID: gone.ID, CourseID: uuid.New()})
	s.db.DeleteUser(gone.ID)

	w := s.do(t, http.MethodGet, "/api/v1/system/validate-consistency", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report domain.ConsistencyReport
	decode(t, w, &report)
	assert.False(t, report.IsConsistent)
	assert.Equal(t, 1, report.Count(domain.InconsistencyPointsMismatch))
	assert.Equal(t, 1, report.Count(domain.InconsistencyOrphanedEnrollment))

	w = s.do(t, http.MethodPost, "/api/v1/system/correct-user/"+u.ID.String(), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var corr domain.UserCorrection
	decode(t, w, &corr)
	assert.Equal(t, 25, corr.Points)

	w = s.do(t, http.MethodPost, "/api/v1/system/correct-user/not-a-uuid", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/system/cleanup-orphans", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cleaned struct {
		Removed int64 `json:"removed"`
	}
	decode(t, w, &cleaned)
	assert.Equal(t, int64(1), cleaned.Removed)

	w = s.do(t, http.MethodPost, "/api/v1/system/correct-data", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var batch domain.BatchCorrection
	decode(t, w, &batch)
	assert.Equal(t, 1, batch.ProcessedUsers)

	w = s.do(t, http.MethodPost, "/api/v1/system/auto-correct", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var auto domain.AutoCorrection
	decode(t, w, &auto)
	assert.True(t, auto.Before.IsConsistent)
}

func TestCohorts(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, uuid.New(), domain.RoleAdmin)
	c := s.db.PutCourse(domain.Course{Title: "Mobile Dev", CohortReadyThreshold: 10, MaxStudents: 30})

	w := s.do(t, http.MethodPost, "/api/v1/courses/"+c.ID.String()+"/start-cohort", admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/courses/"+c.ID.String()+"/start-recruiting", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Course domain.Course `json:"course"`
	}
	decode(t, w, &body)
	assert.Equal(t, domain.CohortRecruiting, body.Course.CohortStatus)

	for i := 0; i < 10; i++ {
		s.db.PutWaitlistEntry(domain.WaitlistEntry{UserID: uuid.New(), CourseID: c.ID})
	}
	w = s.do(t, http.MethodPost, "/api/v1/courses/"+c.ID.String()+"/sync", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &body)
	assert.Equal(t, domain.CohortReady, body.Course.CohortStatus)

	w = s.do(t, http.MethodPost, "/api/v1/courses/"+c.ID.String()+"/start-cohort", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var started usecase.StartCohortResult
	decode(t, w, &started)
	assert.Equal(t, 10, started.Notified)
	assert.Equal(t, domain.CohortInProgress, started.Course.CohortStatus)

	w = s.do(t, http.MethodPost, "/api/v1/courses/"+c.ID.String()+"/complete-cohort", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/api/v1/courses/"+c.ID.String()+"/open-cohort", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/courses/"+uuid.NewString()+"/sync", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(domain.ErrUserNotFound))
	assert.Equal(t, http.StatusConflict, StatusFor(&domain.CohortStateError{Current: domain.CohortPlanning}))
	assert.Equal(t, http.StatusConflict, StatusFor(domain.ErrVersionConflict))
	assert.Equal(t, http.StatusBadRequest, StatusFor(domain.ErrInvalidAward))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(assert.AnError))
}
