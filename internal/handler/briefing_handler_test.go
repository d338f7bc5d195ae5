package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"pulsebrief/db"
	"pulsebrief/internal/briefing"
	"pulsebrief/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"
)

type fakeRunner struct {
	report       *briefing.Report
	err          error
	gotReq       briefing.Request
	gotRequestID string
}

func (f *fakeRunner) Validate(req briefing.Request) error {
	if strings.TrimSpace(req.Topic) == "" {
		return &briefing.ValidationError{Field: "topic", Message: "must not be empty"}
	}
	if req.MaxArticles <= 0 || req.MaxArticles > 20 {
		return &briefing.ValidationError{Field: "max_articles", Message: "out of range"}
	}
	return nil
}

func (f *fakeRunner) Generate(ctx context.Context, req briefing.Request, requestID string) (*briefing.Report, error) {
	f.gotReq = req
	f.gotRequestID = requestID
	if err := f.Validate(req); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	r := *f.report
	r.RequestID = requestID
	return &r, nil
}

type fakeBriefingStore struct {
	saved     []*model.Briefing
	jobs      []string
	failed    []string
	briefing  *model.Briefing
	briefings []model.Briefing
	total     int
	err       error
	saveErr   error
	gotTopic  string
}

func (f *fakeBriefingStore) SaveBriefing(ctx context.Context, b *model.Briefing) error {
	f.saved = append(f.saved, b)
	return f.saveErr
}

func (f *fakeBriefingStore) SaveJob(ctx context.Context, requestID, topic string, maxArticles int) error {
	f.jobs = append(f.jobs, requestID)
	return f.err
}

func (f *fakeBriefingStore) MarkJobFailed(ctx context.Context, requestID, message string) error {
	f.failed = append(f.failed, requestID)
	return nil
}

func (f *fakeBriefingStore) GetBriefingByRequestID(ctx context.Context, requestID string) (*model.Briefing, error) {
	return f.briefing, f.err
}

func (f *fakeBriefingStore) GetLatestBriefing(ctx context.Context, topic string) (*model.Briefing, error) {
	f.gotTopic = topic
	return f.briefing, f.err
}

func (f *fakeBriefingStore) GetBriefings(ctx context.Context, limit, offset int) ([]model.Briefing, error) {
	return f.briefings, f.err
}

func (f *fakeBriefingStore) GetBriefingTotal(ctx context.Context) (int, error) {
	return f.total, f.err
}

type fakeQueue struct {
	jobs []db.Job
	err  error
}

func (f *fakeQueue) PushJob(ctx context.Context, job db.Job) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func newTestBriefingRouter(runner BriefingRunner, store BriefingStore, queue JobQueue) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewBriefingHandler(runner, store, queue, 5)
	r.POST("/briefing/structured", h.CreateStructured)
	r.POST("/briefing/jobs", h.CreateJob)
	r.GET("/briefing/jobs/:id", h.GetJob)
	r.GET("/briefings", h.GetBriefings)
	return r
}

func postJSON(r *gin.Engine, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestCreateStructured_OK(t *testing.T) {
	runner := &fakeRunner{report: &briefing.Report{
		Topic:           "AI policy",
		ArticleCount:    2,
		PositiveOpinion: "利好创新",
		ProcessingTime:  "1.50s",
	}}
	store := &fakeBriefingStore{}
	r := newTestBriefingRouter(runner, store, &fakeQueue{})

	w := postJSON(r, "/briefing/structured", `{"topic": "AI policy"}`, nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var res map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, "AI policy", res["topic"])
	assert.Equal(t, float64(2), res["article_count"])
	assert.Equal(t, "利好创新", res["positive_opinion"])
	assert.Equal(t, "", res["negative_concern"])
	assert.Equal(t, "1.50s", res["processing_time"])

	assert.Equal(t, 5, runner.gotReq.MaxArticles)
	assert.MatchRegex(t, runner.gotRequestID, regexp.MustCompile(`^req_\d+_[0-9a-f-]{8}_structured$`))
	assert.Equal(t, runner.gotRequestID, res["request_id"])
	assert.Equal(t, runner.gotRequestID, w.Header().Get("X-Request-ID"))
	assert.Equal(t, 1, len(store.saved))
	assert.Equal(t, 5, store.saved[0].MaxArticles)
}

func TestCreateStructured_UsesRequestIDHeader(t *testing.T) {
	runner := &fakeRunner{report: &briefing.Report{}}
	r := newTestBriefingRouter(runner, &fakeBriefingStore{}, nil)

	w := postJSON(r, "/briefing/structured", `{"topic": "t", "max_articles": 3}`, map[string]string{"X-Request-ID": "trace-123"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "trace-123", runner.gotRequestID)
	assert.Equal(t, 3, runner.gotReq.MaxArticles)
}

func TestCreateStructured_PersistenceFailureStillOK(t *testing.T) {
	runner := &fakeRunner{report: &briefing.Report{Topic: "t"}}
	store := &fakeBriefingStore{saveErr: errors.New("DB down")}
	r := newTestBriefingRouter(runner, store, nil)

	w := postJSON(r, "/briefing/structured", `{"topic": "t"}`, nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateStructured_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		code int
	}{
		{name: "empty topic", body: `{"topic": "  "}`, code: http.StatusBadRequest},
		{name: "missing body", body: ``, code: http.StatusBadRequest},
		{name: "zero max", body: `{"topic": "t", "max_articles": 0}`, code: http.StatusBadRequest},
		{name: "malformed body", body: `{"topic": `, code: http.StatusBadRequest},
		{name: "wrong type", body: `{"topic": 42}`, code: http.StatusBadRequest},
		{name: "source failure", body: `{"topic": "t"}`, err: &briefing.SourceError{Err: errors.New("401")}, code: http.StatusBadGateway},
		{name: "unexpected", body: `{"topic": "t"}`, err: errors.New("boom"), code: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeBriefingStore{}
			runner := &fakeRunner{report: &briefing.Report{}, err: tt.err}
			r := newTestBriefingRouter(runner, store, nil)

			w := postJSON(r, "/briefing/structured", tt.body, nil)

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, 0, len(store.saved))
		})
	}
}

func TestCreateJob_Queued(t *testing.T) {
	store := &fakeBriefingStore{}
	queue := &fakeQueue{}
	r := newTestBriefingRouter(&fakeRunner{}, store, queue)

	w := postJSON(r, "/briefing/jobs", `{"topic": " 新能源汽车 ", "max_articles": 4}`, nil)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var res JobResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, model.StatusPending, res.Status)
	assert.MatchRegex(t, res.RequestID, `_job$`)
	assert.Equal(t, 1, len(queue.jobs))
	assert.Equal(t, "新能源汽车", queue.jobs[0].Topic)
	assert.Equal(t, 4, queue.jobs[0].MaxArticles)
	assert.Equal(t, []string{res.RequestID}, store.jobs)
}

func TestCreateJob_Invalid(t *testing.T) {
	queue := &fakeQueue{}
	r := newTestBriefingRouter(&fakeRunner{}, &fakeBriefingStore{}, queue)

	w := postJSON(r, "/briefing/jobs", `{"topic": "t", "max_articles": 50}`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, len(queue.jobs))
}

func TestCreateJob_QueueFailure(t *testing.T) {
	store := &fakeBriefingStore{}
	r := newTestBriefingRouter(&fakeRunner{}, store, &fakeQueue{err: errors.New("redis down")})

	w := postJSON(r, "/briefing/jobs", `{"topic": "t"}`, map[string]string{"X-Request-ID": "job-1"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, []string{"job-1"}, store.failed)
}

func TestCreateJob_NoQueue(t *testing.T) {
	r := newTestBriefingRouter(&fakeRunner{}, &fakeBriefingStore{}, nil)

	w := postJSON(r, "/briefing/jobs", `{"topic": "t"}`, nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetJob(t *testing.T) {
	tests := []struct {
		name     string
		briefing *model.Briefing
		err      error
		code     int
		status   string
	}{
		{name: "unknown", code: http.StatusNotFound},
		{name: "db error", err: errors.New("DB down"), code: http.StatusInternalServerError},
		{name: "pending", briefing: &model.Briefing{RequestID: "r", Status: model.StatusPending}, code: http.StatusAccepted, status: model.StatusPending},
		{name: "failed", briefing: &model.Briefing{RequestID: "r", Status: model.StatusFailed, ErrorMessage: "fetch articles: 429"}, code: http.StatusOK, status: model.StatusFailed},
		{name: "completed", briefing: &model.Briefing{RequestID: "r", Status: model.StatusCompleted, NegativeConcern: "担忧"}, code: http.StatusOK, status: model.StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestBriefingRouter(&fakeRunner{}, &fakeBriefingStore{briefing: tt.briefing, err: tt.err}, nil)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest("GET", "/briefing/jobs/r", nil))

			assert.Equal(t, tt.code, w.Code)
			if tt.status == "" {
				return
			}

			var res JobResponse
			json.Unmarshal(w.Body.Bytes(), &res)
			assert.Equal(t, tt.status, res.Status)
			switch tt.status {
			case model.StatusFailed:
				assert.Equal(t, "fetch articles: 429", res.Error)
			case model.StatusCompleted:
				assert.Equal(t, "担忧", res.Briefing.NegativeConcern)
			}
		})
	}
}

func TestGetBriefings_LatestAndHistory(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store := &fakeBriefingStore{
		briefings: []model.Briefing{
			{ID: 3, Topic: "newest", CreatedAt: now},
			{ID: 2, Topic: "older", CreatedAt: now.Add(-time.Hour)},
			{ID: 1, Topic: "oldest", CreatedAt: now.Add(-2 * time.Hour)},
		},
		total: 3,
	}
	r := newTestBriefingRouter(&fakeRunner{}, store, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/briefings", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var res BriefingsResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, "newest", res.Latest.Topic)
	assert.Equal(t, "2026-03-01T08:00:00Z", res.Latest.CreatedAt)
	assert.Equal(t, 2, len(res.History))
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 10, res.Limit)
}

func TestGetBriefings_Empty(t *testing.T) {
	r := newTestBriefingRouter(&fakeRunner{}, &fakeBriefingStore{briefings: []model.Briefing{}}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/briefings", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var res map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, nil, res["latest"])
	assert.Equal(t, []interface{}{}, res["history"])
}

func TestGetBriefings_DBError(t *testing.T) {
	r := newTestBriefingRouter(&fakeRunner{}, &fakeBriefingStore{err: errors.New("DB down")}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/briefings", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetBriefings_LatestForTopic(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store := &fakeBriefingStore{
		briefing:  &model.Briefing{ID: 7, Topic: "新能源汽车", PositiveOpinion: "续航提升", CreatedAt: now},
		briefings: []model.Briefing{{ID: 9, Topic: "other"}},
	}
	r := newTestBriefingRouter(&fakeRunner{}, store, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/briefings?topic=%E6%96%B0%E8%83%BD%E6%BA%90%E6%B1%BD%E8%BD%A6", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "新能源汽车", store.gotTopic)

	var res BriefingsResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, "新能源汽车", res.Topic)
	assert.Equal(t, int64(7), res.Latest.ID)
	assert.Equal(t, "续航提升", res.Latest.PositiveOpinion)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 0, len(res.History))
}

func TestGetBriefings_TopicWithoutBriefing(t *testing.T) {
	r := newTestBriefingRouter(&fakeRunner{}, &fakeBriefingStore{}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/briefings?topic=AI", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var res map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, nil, res["latest"])
	assert.Equal(t, float64(0), res["total"])
}

func TestReadRoutes_NoStore(t *testing.T) {
	r := newTestBriefingRouter(&fakeRunner{}, nil, nil)

	for _, path := range []string{"/briefing/jobs/r", "/briefings", "/briefings?topic=AI"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	}
}
