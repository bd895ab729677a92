// Package web serves the employee records front end.
package web

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"ignite/internal/employee"
	"ignite/internal/flash"
	"ignite/internal/form"
	"ignite/internal/httpmiddleware"
	"ignite/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	sessionCookie = "ignite_sid"
	sessionKey    = "session"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) bool

// Options wires the front end to its collaborators.
type Options struct {
	Store  *store.Store
	Add    *form.Add
	Edit   *form.Edit
	Flash  flash.Notifier
	Checks map[string]HealthCheck
	Log    zerolog.Logger

	CORSOrigins     []string
	RateLimitPerMin int
	MaxUploadMemory int64
	SecureCookies   bool
}

type server struct {
	store  *store.Store
	add    *form.Add
	edit   *form.Edit
	flash  flash.Notifier
	checks map[string]HealthCheck
	log    zerolog.Logger
	secure bool

	maxMemory int64
}

// NewRouter builds the gin engine serving every page and API route.
func NewRouter(opts Options) (*gin.Engine, error) {
	tmpl, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}

	s := &server{
		store:  opts.Store,
		add:    opts.Add,
		edit:   opts.Edit,
		flash:  opts.Flash,
		checks: opts.Checks,
		log:    opts.Log,
		secure: opts.SecureCookies,

		maxMemory: opts.MaxUploadMemory,
	}
	if s.maxMemory <= 0 {
		s.maxMemory = 8 << 20
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.MaxMultipartMemory = s.maxMemory

	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestID())
	r.Use(httpmiddleware.AccessLog(opts.Log, "/healthz", "/metrics"))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.NewRateLimiter(opts.RateLimitPerMin, opts.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", s.healthz)
	r.StaticFS("/static", http.FS(static))

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, form.ListPath)
	})

	pages := r.Group("/employee", s.session())
	pages.GET("/list", s.list)
	pages.GET("/add", s.addForm)
	pages.POST("/add", s.addSubmit)
	pages.GET("/edit/:id", s.editForm)
	pages.POST("/edit/:id", s.editSubmit)
	pages.GET("/delete/:id", s.deleteConfirm)
	pages.POST("/delete/:id", s.deleteSubmit)

	r.GET("/api/employees", s.apiList)

	return r, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", httpmiddleware.RequestIDHeader}
	cfg.ExposeHeaders = []string{httpmiddleware.RequestIDHeader}
	cfg.MaxAge = 12 * time.Hour
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// session keys flash messages by an opaque cookie.
func (s *server) session() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(sessionCookie)
		if err != nil || uuid.Validate(sid) != nil {
			sid = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookie, sid, 0, "/", "", s.secure, true)
		}
		c.Set(sessionKey, sid)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

// page returns the data shared by every template.
func (s *server) page(c *gin.Context, title string) gin.H {
	msgs, err := s.flash.Drain(c.Request.Context(), sessionID(c))
	if err != nil {
		s.log.Warn().Err(err).Msg("drain notifications")
	}
	return gin.H{"Title": title, "Flashes": msgs}
}

func (s *server) healthz(c *gin.Context) {
	snap := s.store.Snapshot()
	body := gin.H{"status": "ok", "store": snap.Status}
	code := http.StatusOK
	for name, check := range s.checks {
		healthy := check(c.Request.Context())
		body[name] = healthy
		if !healthy {
			code = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(code, body)
}

var funcs = template.FuncMap{
	"date": func(s string) string {
		t, ok := employee.ParseTimestamp(s)
		if !ok {
			return ""
		}
		return t.Format("2 Jan 2006")
	},
	"initials": func(first, last string) string {
		var b strings.Builder
		for _, s := range []string{first, last} {
			if r := []rune(strings.TrimSpace(s)); len(r) > 0 {
				b.WriteString(strings.ToUpper(string(r[0])))
			}
		}
		return b.String()
	},
}
