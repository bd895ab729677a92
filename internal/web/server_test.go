package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ignite/internal/edittoken"
	"ignite/internal/employee"
	"ignite/internal/employeeapi"
	"ignite/internal/employeeapi/fakeservice"
	"ignite/internal/flash"
	"ignite/internal/form"
	"ignite/internal/store"
)

var johnson = employee.Record{
	ID:          "1",
	FirstName:   "Johnson",
	LastName:    "Michaels",
	Email:       "johnson@example.com",
	PhoneNumber: "0712345678",
	Gender:      employee.Male,
	CreatedAt:   "2024-03-20T10:00:00Z",
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type harness struct {
	t      *testing.T
	svc    *fakeservice.Service
	store  *store.Store
	router http.Handler
	cookie *http.Cookie
}

func newHarness(t *testing.T, checks map[string]HealthCheck, seed ...employee.Record) *harness {
	t.Helper()
	svc := fakeservice.New(seed...)
	srv := svc.Start(t)

	log := zerolog.Nop()
	client := employeeapi.New(srv.URL)
	st := store.New(client, log)
	notes := flash.NewInMemory(8, time.Minute)
	tokens := edittoken.New("secret", "ignite", time.Minute)

	r, err := NewRouter(Options{
		Store:           st,
		Add:             form.NewAdd(st, notes, log),
		Edit:            form.NewEdit(client, notes, tokens, log),
		Flash:           notes,
		Checks:          checks,
		Log:             log,
		CORSOrigins:     []string{"*"},
		RateLimitPerMin: 1000,
	})
	require.NoError(t, err)
	return &harness{t: t, svc: svc, store: st, router: r}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	h.t.Helper()
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == sessionCookie {
			h.cookie = ck
		}
	}
	return w
}

func (h *harness) get(path string) *httptest.ResponseRecorder {
	return h.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (h *harness) postMultipart(path string, fields map[string]string, file string, content []byte) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(h.t, mw.WriteField(k, v))
	}
	if file != "" {
		fw, err := mw.CreateFormFile("profilePicture", file)
		require.NoError(h.t, err)
		_, err = fw.Write(content)
		require.NoError(h.t, err)
	}
	require.NoError(h.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return h.do(req)
}

func (h *harness) postForm(path string, v url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(v.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(req)
}

func validFields() map[string]string {
	return map[string]string{
		"firstName":   "Michael",
		"lastName":    "Johnson",
		"email":       "michael@example.com",
		"phoneNumber": "0712345678",
		"gender":      "M",
	}
}

func TestRootRedirects(t *testing.T) {
	h := newHarness(t, nil)
	w := h.get("/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/employee/list", w.Header().Get("Location"))
}

func TestAddEmployee_EndToEnd(t *testing.T) {
	h := newHarness(t, nil)
	require.Equal(t, http.StatusOK, h.get("/employee/add").Code)

	w := h.postMultipart("/employee/add", validFields(), "me.png", pngHeader)
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.Equal(t, "/employee/list", w.Header().Get("Location"))

	snap := h.store.Snapshot()
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "Michael", snap.Records[0].FirstName)
	assert.Contains(t, snap.Records[0].ProfilePicture, "me.png")

	reqs := h.svc.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "image/png", reqs[0].FileType)

	w = h.get("/employee/list")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Michael Johnson")
	assert.Contains(t, body, "Employee added successfully")

	// notifications are shown once
	assert.NotContains(t, h.get("/employee/list").Body.String(), "Employee added successfully")
}

func TestAddEmployee_Invalid(t *testing.T) {
	h := newHarness(t, nil)

	fields := validFields()
	fields["firstName"] = "Mike"
	fields["phoneNumber"] = "1234567890"
	w := h.postMultipart("/employee/add", fields, "", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "First name must be at least 6 characters")
	assert.Contains(t, body, "Invalid Sri Lankan phone number")
	assert.Contains(t, body, `value="Mike"`)
	assert.Empty(t, h.svc.Requests())
}

func TestAddEmployee_RejectsNonImage(t *testing.T) {
	h := newHarness(t, nil)
	w := h.postMultipart("/employee/add", validFields(), "notes.png", []byte("just some text"))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Profile picture must be a JPEG, PNG, GIF or WEBP image")
	assert.Empty(t, h.svc.Requests())
}

func TestAddEmployee_UrlencodedWithoutPicture(t *testing.T) {
	h := newHarness(t, nil)
	v := url.Values{}
	for k, val := range validFields() {
		v.Set(k, val)
	}
	w := h.postForm("/employee/add", v)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Len(t, h.store.Snapshot().Records, 1)
}

func TestAddEmployee_ServiceFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.svc.FailNext("create", http.StatusBadRequest, `"Email already exists"`)

	w := h.postMultipart("/employee/add", validFields(), "", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Email already exists")
	assert.Contains(t, body, "Failed to add employee")
	assert.Equal(t, store.StatusFailed, h.store.Snapshot().Status)
}

func TestList_FailedLoadKeepsRecords(t *testing.T) {
	h := newHarness(t, nil, johnson)
	require.Contains(t, h.get("/employee/list").Body.String(), "Johnson Michaels")

	h.svc.FailNext("list", http.StatusBadGateway, `"Service unavailable"`)
	w := h.get("/employee/list")
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Service unavailable")
	assert.Contains(t, body, "Johnson Michaels")
}

func TestList_ClientGoneDoesNotFailStore(t *testing.T) {
	h := newHarness(t, nil, johnson)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/employee/list", nil).WithContext(ctx)
	h.do(req)

	snap := h.store.Snapshot()
	assert.Equal(t, store.StatusSucceeded, snap.Status)
	assert.Empty(t, snap.Error)
	assert.Len(t, snap.Records, 1)
}

func TestList_QueryAndLayout(t *testing.T) {
	other := employee.Record{ID: "2", FirstName: "Amanda", LastName: "Perera", Gender: employee.Female}
	h := newHarness(t, nil, johnson, other)

	body := h.get("/employee/list?q=perera").Body.String()
	assert.Contains(t, body, "Amanda Perera")
	assert.NotContains(t, body, "Johnson Michaels")

	body = h.get("/employee/list?sort=name&order=asc&view=grid").Body.String()
	assert.Contains(t, body, `class="grid"`)
	assert.Less(t, strings.Index(body, "Amanda Perera"), strings.Index(body, "Johnson Michaels"))

	body = h.get("/employee/list?q=nobody").Body.String()
	assert.Contains(t, body, "No employees match")
}

var tokenPattern = regexp.MustCompile(`name="token" value="([^"]+)"`)

func editToken(t *testing.T, body string) string {
	t.Helper()
	m := tokenPattern.FindStringSubmatch(body)
	require.Len(t, m, 2, "no token in edit form")
	return m[1]
}

func TestEditEmployee_Flow(t *testing.T) {
	h := newHarness(t, nil, johnson)

	w := h.get("/employee/edit/1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="johnson@example.com"`)
	token := editToken(t, w.Body.String())

	fields := map[string]string{
		"token":       token,
		"firstName":   "Johnson",
		"lastName":    "Michaels",
		"email":       "johnson@corp.example",
		"phoneNumber": "0712345678",
		"gender":      "M",
	}
	w = h.postMultipart("/employee/edit/1", fields, "", nil)
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.Equal(t, "johnson@corp.example", h.svc.Records()[0].Email)

	assert.Contains(t, h.get("/employee/list").Body.String(), "Employee updated successfully")
}

func TestEditEmployee_LoadFailureShowsRetry(t *testing.T) {
	h := newHarness(t, nil)
	w := h.get("/employee/edit/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Retry")
	assert.Contains(t, body, "Failed to load employee data")
	assert.NotContains(t, body, `name="firstName"`)

	h.svc.FailNext("get", http.StatusInternalServerError, "")
	h.svc.Put(johnson)
	assert.Equal(t, http.StatusBadGateway, h.get("/employee/edit/1").Code)
}

func TestEditEmployee_StaleRecord(t *testing.T) {
	h := newHarness(t, nil, johnson)
	token := editToken(t, h.get("/employee/edit/1").Body.String())

	changed := johnson
	changed.PhoneNumber = "0771234567"
	h.svc.Put(changed)

	fields := map[string]string{
		"token":       token,
		"firstName":   "Johnson",
		"lastName":    "Michaels",
		"email":       "johnson@corp.example",
		"phoneNumber": "0712345678",
		"gender":      "M",
	}
	w := h.postMultipart("/employee/edit/1", fields, "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Employee was changed by someone else")
	assert.NotEqual(t, token, editToken(t, w.Body.String()))
	assert.Equal(t, "johnson@example.com", h.svc.Records()[0].Email)
}

func TestDeleteEmployee(t *testing.T) {
	h := newHarness(t, nil, johnson)
	h.get("/employee/list")

	w := h.get("/employee/delete/1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Johnson Michaels")

	// without confirmation nothing happens
	w = h.postForm("/employee/delete/1", url.Values{})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Len(t, h.svc.Records(), 1)

	w = h.postForm("/employee/delete/1", url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Empty(t, h.svc.Records())
	assert.Empty(t, h.store.Snapshot().Records)
}

func TestDeleteEmployee_Failure(t *testing.T) {
	h := newHarness(t, nil, johnson)
	h.get("/employee/list")
	h.svc.FailNext("delete", http.StatusInternalServerError, "")

	w := h.postForm("/employee/delete/1", url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	snap := h.store.Snapshot()
	assert.Equal(t, store.StatusFailed, snap.Status)
	assert.Len(t, snap.Records, 1)

	assert.Contains(t, h.get("/employee/list").Body.String(), "Failed to delete the employee.")
}

func TestAPIEmployees(t *testing.T) {
	h := newHarness(t, nil, johnson)
	w := h.get("/api/employees?q=john")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status string            `json:"status"`
		Data   []employee.Record `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "succeeded", body.Status)
	assert.Equal(t, []employee.Record{johnson}, body.Data)
}

func TestHealthz(t *testing.T) {
	up := true
	h := newHarness(t, map[string]HealthCheck{
		"redis": func(context.Context) bool { return up },
	})

	w := h.get("/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","store":"idle","redis":true}`, w.Body.String())

	up = false
	w = h.get("/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded","store":"idle","redis":false}`, w.Body.String())
}

func TestSessionCookie(t *testing.T) {
	h := newHarness(t, nil)
	h.get("/employee/add")
	require.NotNil(t, h.cookie)
	assert.True(t, h.cookie.HttpOnly)
	first := h.cookie.Value

	h.get("/employee/add")
	assert.Equal(t, first, h.cookie.Value)
}
