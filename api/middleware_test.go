package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/saqibullah/health-risk-predictor/features"
	"github.com/saqibullah/health-risk-predictor/risk"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// observedRouter builds the full router with an in-memory log sink.
func observedRouter(assessor Assessor) (*gin.Engine, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	router := NewRouter(Options{
		Assessor:    assessor,
		Logger:      zap.New(core),
		Registry:    prometheus.NewRegistry(),
		FrontendURL: "https://survey.example",
	})
	return router, logs
}

func onlyEntry(t *testing.T, logs *observer.ObservedLogs, message string) observer.LoggedEntry {
	t.Helper()
	entries := logs.FilterMessage(message).All()
	require.Len(t, entries, 1, "log entries for %q", message)
	return entries[0]
}

type panickingAssessor struct{}

func (panickingAssessor) Assess(context.Context, map[string]string) (*risk.Assessment, error) {
	panic("heart model table corrupted")
}

func TestRequestID_ReachesAssessmentLog(t *testing.T) {
	mockAssessor := new(MockAssessor)
	mockAssessor.On("Assess", mock.Anything, mock.Anything).Return(nil, &risk.PredictorError{
		Model: risk.Diabetes,
		Op:    risk.OpProbability,
		Err:   errors.New("model server unavailable"),
	})
	router, logs := observedRouter(mockAssessor)

	w := postJSONWithID(router, `{"Age": 47}`, "survey-123")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "survey-123", w.Header().Get("X-Request-ID"))

	failed := onlyEntry(t, logs, "assessment failed")
	assert.Equal(t, "survey-123", failed.ContextMap()["request_id"])
	assert.Equal(t, risk.KindPredictor, failed.ContextMap()["kind"])

	access := onlyEntry(t, logs, "request failed")
	assert.Equal(t, "survey-123", access.ContextMap()["request_id"])
	assert.Equal(t, "/api/v1/predict", access.ContextMap()["path"])
}

func TestRequestID_GeneratedWhenAbsent(t *testing.T) {
	mockAssessor := new(MockAssessor)
	mockAssessor.On("Assess", mock.Anything, mock.Anything).Return(nil, &features.MissingFieldError{Field: "Sex"})
	router, logs := observedRouter(mockAssessor)

	w := postForm(router, map[string]string{"Age": "47"})

	id := w.Header().Get("X-Request-ID")
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, onlyEntry(t, logs, "assessment failed").ContextMap()["request_id"])
	assert.Equal(t, id, onlyEntry(t, logs, "request rejected").ContextMap()["request_id"])
}

func TestLogger_LevelFollowsPredictOutcome(t *testing.T) {
	tests := []struct {
		name       string
		result     *risk.Assessment
		err        error
		wantStatus int
		wantLevel  zapcore.Level
		wantMsg    string
	}{
		{
			name:       "assessment served",
			result:     sampleAssessment,
			wantStatus: http.StatusOK,
			wantLevel:  zapcore.InfoLevel,
			wantMsg:    "request served",
		},
		{
			name:       "unparseable answer",
			err:        &features.ParseError{Field: "BMI", Value: "tall", Err: errors.New("invalid syntax")},
			wantStatus: http.StatusBadRequest,
			wantLevel:  zapcore.WarnLevel,
			wantMsg:    "request rejected",
		},
		{
			name:       "heart model failure",
			err:        &risk.PredictorError{Model: risk.Heart, Op: risk.OpClassify, Err: errors.New("timeout")},
			wantStatus: http.StatusInternalServerError,
			wantLevel:  zapcore.ErrorLevel,
			wantMsg:    "request failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAssessor := new(MockAssessor)
			if tt.err != nil {
				mockAssessor.On("Assess", mock.Anything, mock.Anything).Return(nil, tt.err)
			} else {
				mockAssessor.On("Assess", mock.Anything, mock.Anything).Return(tt.result, nil)
			}
			router, logs := observedRouter(mockAssessor)

			w := postForm(router, surveyForm())

			assert.Equal(t, tt.wantStatus, w.Code)
			entry := onlyEntry(t, logs, tt.wantMsg)
			assert.Equal(t, tt.wantLevel, entry.Level)
			assert.Equal(t, "POST", entry.ContextMap()["method"])
			assert.Equal(t, "/predict", entry.ContextMap()["path"])
			assert.EqualValues(t, tt.wantStatus, entry.ContextMap()["status"])
		})
	}
}

func TestRecovery_PanickingAssessor(t *testing.T) {
	router, logs := observedRouter(panickingAssessor{})

	w := postJSONWithID(router, `{"Age": 47}`, "survey-456")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.NotContains(t, w.Body.String(), "corrupted")

	recovered := onlyEntry(t, logs, "panic recovered")
	assert.Equal(t, "survey-456", recovered.ContextMap()["request_id"])
	assert.Equal(t, zapcore.ErrorLevel, onlyEntry(t, logs, "request failed").Level)

	// the process keeps serving
	req, _ := http.NewRequest("GET", "/health", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS_SurveyFrontend(t *testing.T) {
	t.Run("preflight never reaches the assessor", func(t *testing.T) {
		mockAssessor := new(MockAssessor)
		router, _ := observedRouter(mockAssessor)

		req, _ := http.NewRequest("OPTIONS", "/api/v1/predict", nil)
		req.Header.Set("Origin", "https://survey.example")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://survey.example", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Request-ID")
		mockAssessor.AssertNotCalled(t, "Assess", mock.Anything, mock.Anything)
	})

	t.Run("prediction response carries allowed origin", func(t *testing.T) {
		mockAssessor := new(MockAssessor)
		mockAssessor.On("Assess", mock.Anything, mock.Anything).Return(sampleAssessment, nil)
		router, _ := observedRouter(mockAssessor)

		w := postJSONWithID(router, `{"Age": 47}`, "survey-789")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://survey.example", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
	})
}

func postJSONWithID(router *gin.Engine, body, requestID string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", "/api/v1/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
