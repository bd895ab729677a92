// Package fakeservice is an in-memory employee service for tests. It serves
// the same REST surface as the real service.
package fakeservice

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ignite/internal/employee"
)

// Request is what the service saw for one call.
type Request struct {
	Method      string
	Path        string
	Fields      map[string]string
	FileName    string
	FileType    string
	FileSize    int64
	ContentType string
}

type failure struct {
	status int
	body   string
}

// Service holds records in insertion order.
type Service struct {
	mu       sync.Mutex
	records  []employee.Record
	failures map[string][]failure
	requests []Request
	gate     chan struct{}
	Now      func() time.Time
}

// New seeds the service with records.
func New(seed ...employee.Record) *Service {
	gin.SetMode(gin.TestMode)
	return &Service{
		records:  append([]employee.Record(nil), seed...),
		failures: make(map[string][]failure),
		Now:      func() time.Time { return time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC) },
	}
}

// Start serves the fake on an httptest server closed with the test.
func (s *Service) Start(t testing.TB) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

// FailNext makes the next call of op ("list", "get", "create", "update",
// "delete") answer with status and a raw body.
func (s *Service) FailNext(op string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], failure{status: status, body: body})
}

// Hold blocks every request until the returned release func is called.
func (s *Service) Hold() (release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gate := make(chan struct{})
	s.gate = gate
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.gate = nil
			s.mu.Unlock()
			close(gate)
		})
	}
}

// Records returns a copy of the stored records.
func (s *Service) Records() []employee.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]employee.Record(nil), s.records...)
}

// Put replaces or appends a record, simulating a change by another client.
func (s *Service) Put(rec employee.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == rec.ID {
			s.records[i] = rec
			return
		}
	}
	s.records = append(s.records, rec)
}

// Requests returns every request seen so far.
func (s *Service) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Handler returns the gin engine implementing the service routes.
func (s *Service) Handler() http.Handler {
	r := gin.New()
	r.Use(s.record())

	r.GET("/users", s.guard("list", s.list))
	r.GET("/user/:id", s.guard("get", s.get))
	r.POST("/user", s.guard("create", s.create))
	r.PUT("/update/user/:id", s.guard("update", s.update))
	r.DELETE("/delete/user/:id", s.guard("delete", s.remove))
	return r
}

func (s *Service) record() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		gate := s.gate
		s.mu.Unlock()
		if gate != nil {
			select {
			case <-gate:
			case <-c.Request.Context().Done():
				c.AbortWithStatus(http.StatusServiceUnavailable)
				return
			}
		}

		req := Request{
			Method:      c.Request.Method,
			Path:        c.Request.URL.Path,
			ContentType: c.ContentType(),
			Fields:      map[string]string{},
		}
		if c.ContentType() == gin.MIMEMultipartPOSTForm {
			if err := c.Request.ParseMultipartForm(8 << 20); err == nil {
				for k, v := range c.Request.MultipartForm.Value {
					if len(v) > 0 {
						req.Fields[k] = v[0]
					}
				}
				if files := c.Request.MultipartForm.File["profilePicture"]; len(files) > 0 {
					req.FileName = files[0].Filename
					req.FileType = files[0].Header.Get("Content-Type")
					req.FileSize = files[0].Size
				}
			}
		}

		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.mu.Unlock()
		c.Next()
	}
}

func (s *Service) guard(op string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		queue := s.failures[op]
		var f *failure
		if len(queue) > 0 {
			f = &queue[0]
			s.failures[op] = queue[1:]
		}
		s.mu.Unlock()

		if f != nil {
			c.Data(f.status, "application/json", []byte(f.body))
			return
		}
		h(c)
	}
}

func (s *Service) list(c *gin.Context) {
	c.JSON(http.StatusOK, s.Records())
}

func (s *Service) get(c *gin.Context) {
	rec, ok := s.find(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Service) create(c *gin.Context) {
	rec := employee.Record{
		ID:        uuid.NewString(),
		CreatedAt: s.Now().UTC().Format(time.RFC3339),
	}
	bindForm(c, &rec)

	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{"data": rec})
}

func (s *Service) update(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID != id {
			continue
		}
		bindForm(c, &s.records[i])
		c.JSON(http.StatusOK, gin.H{"data": s.records[i]})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
}

func (s *Service) remove(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
}

func (s *Service) find(id string) (employee.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return employee.Record{}, false
}

func bindForm(c *gin.Context, rec *employee.Record) {
	rec.FirstName = c.PostForm("firstName")
	rec.LastName = c.PostForm("lastName")
	rec.Email = c.PostForm("email")
	rec.PhoneNumber = c.PostForm("phoneNumber")
	rec.Gender = employee.Gender(c.PostForm("gender"))

	if fh, err := c.FormFile("profilePicture"); err == nil {
		if f, err := fh.Open(); err == nil {
			_, _ = io.Copy(io.Discard, f)
			_ = f.Close()
		}
		rec.ProfilePicture = "/uploads/" + strconv.FormatInt(time.Now().UnixNano(), 36) + "-" + fh.Filename
	} else if ref := c.PostForm("profilePicture"); ref != "" {
		rec.ProfilePicture = ref
	}
}
