package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ignite/internal/employee"
	"ignite/internal/employeeapi"
	"ignite/internal/flash"
	"ignite/internal/form"
	"ignite/internal/listview"
	"ignite/internal/store"
)

// maxBody caps a form post. Oversized pictures under this limit still reach
// validation and get a field message instead of a 413.
const maxBody = 4 * employee.MaxUploadSize

// loadTimeout bounds a collection reload started by a page request.
const loadTimeout = 10 * time.Second

// reload refreshes the shared collection. The load outlives the request so
// a client going away mid-load does not mark the store failed for everyone.
// Failures are reflected in the snapshot.
func (s *server) reload(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), loadTimeout)
	defer cancel()
	_ = s.store.LoadAll(ctx)
}

func (s *server) list(c *gin.Context) {
	s.reload(c)

	snap := s.store.Snapshot()
	q := listview.ParseQuery(c.Request.URL.Query())

	data := s.page(c, "Employees")
	data["State"] = snap
	data["Query"] = q
	data["Rows"] = listview.Project(snap.Records, q)
	data["Self"] = c.Request.URL.RequestURI()
	c.HTML(http.StatusOK, "list", data)
}

func (s *server) apiList(c *gin.Context) {
	if c.Query("refresh") != "" || s.store.Snapshot().Status == store.StatusIdle {
		s.reload(c)
	}
	snap := s.store.Snapshot()
	q := listview.ParseQuery(c.Request.URL.Query())
	c.JSON(http.StatusOK, gin.H{
		"status": snap.Status,
		"error":  snap.Error,
		"data":   listview.Project(snap.Records, q),
	})
}

func (s *server) addForm(c *gin.Context) {
	s.renderForm(c, http.StatusOK, "add", formData{Draft: employee.Draft{}})
}

func (s *server) addSubmit(c *gin.Context) {
	d, err := s.readDraft(c)
	if err != nil {
		s.renderForm(c, http.StatusBadRequest, "add", formData{Draft: d, Failure: err.Error()})
		return
	}

	res := s.add.Submit(c.Request.Context(), sessionID(c), d)
	switch {
	case res.OK():
		c.Redirect(http.StatusSeeOther, res.Redirect)
	case len(res.Violations) > 0:
		s.renderForm(c, http.StatusUnprocessableEntity, "add", formData{Draft: res.Draft, Errors: res.Violations})
	default:
		s.renderForm(c, failureStatus(res.Err), "add", formData{Draft: res.Draft, Failure: form.Describe(res.Err)})
	}
}

func (s *server) editForm(c *gin.Context) {
	id := c.Param("id")
	view, err := s.edit.Load(c.Request.Context(), sessionID(c), id)
	if err != nil {
		data := s.page(c, "Edit employee")
		data["ID"] = id
		data["Failure"] = err.Error()
		c.HTML(failureStatus(err), "edit_error", data)
		return
	}
	s.renderForm(c, http.StatusOK, "edit", formData{ID: id, Draft: view.Draft, Token: view.Token})
}

func (s *server) editSubmit(c *gin.Context) {
	id := c.Param("id")
	d, err := s.readDraft(c)
	token := c.PostForm("token")
	if err != nil {
		s.renderForm(c, http.StatusBadRequest, "edit", formData{ID: id, Draft: d, Token: token, Failure: err.Error()})
		return
	}

	res := s.edit.Submit(c.Request.Context(), sessionID(c), id, token, d)
	switch {
	case res.OK():
		c.Redirect(http.StatusSeeOther, res.Redirect)
	case len(res.Violations) > 0:
		s.renderForm(c, http.StatusUnprocessableEntity, "edit", formData{ID: id, Draft: res.Draft, Token: res.Token, Errors: res.Violations})
	default:
		s.renderForm(c, failureStatus(res.Err), "edit", formData{ID: id, Draft: res.Draft, Token: res.Token, Failure: form.Describe(res.Err)})
	}
}

func (s *server) deleteConfirm(c *gin.Context) {
	id := c.Param("id")
	data := s.page(c, "Delete employee")
	data["ID"] = id
	data["Record"] = findRecord(s.store.Snapshot().Records, id)
	c.HTML(http.StatusOK, "delete", data)
}

func (s *server) deleteSubmit(c *gin.Context) {
	id := c.Param("id")
	if c.PostForm("confirm") != "yes" {
		c.Redirect(http.StatusSeeOther, form.ListPath)
		return
	}

	ctx := c.Request.Context()
	msg := flash.Success("Employee deleted successfully")
	if err := s.store.Delete(ctx, id); err != nil {
		msg = flash.Failure(err.Error())
	}
	if err := s.flash.Push(ctx, sessionID(c), msg); err != nil {
		s.log.Warn().Err(err).Msg("push notification")
	}
	c.Redirect(http.StatusSeeOther, form.ListPath)
}

type formData struct {
	ID      string
	Draft   employee.Draft
	Token   string
	Errors  map[string]string
	Failure string
}

func (s *server) renderForm(c *gin.Context, code int, name string, fd formData) {
	title, action, submit := "Add employee", "/employee/add", "Add employee"
	if name == "edit" {
		title, action, submit = "Edit employee", "/employee/edit/"+fd.ID, "Save changes"
	}
	data := s.page(c, title)
	data["Action"] = action
	data["Submit"] = submit
	data["Draft"] = fd.Draft
	data["Token"] = fd.Token
	data["Errors"] = fd.Errors
	data["Failure"] = fd.Failure
	c.HTML(code, name, data)
}

// readDraft builds a draft from a multipart or urlencoded form post.
func (s *server) readDraft(c *gin.Context) (employee.Draft, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBody)
	if err := c.Request.ParseMultipartForm(s.maxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return employee.Draft{}, errors.New("Profile picture must be 2MB or smaller")
		}
		return employee.Draft{}, err
	}

	d := employee.Draft{
		FirstName:      c.PostForm("firstName"),
		LastName:       c.PostForm("lastName"),
		Email:          c.PostForm("email"),
		PhoneNumber:    c.PostForm("phoneNumber"),
		Gender:         employee.Gender(c.PostForm("gender")),
		ProfilePicture: c.PostForm("currentPicture"),
	}

	fh, err := c.FormFile("profilePicture")
	switch {
	case err == nil:
		up, err := employee.InspectUpload(fh)
		if err != nil {
			return d, err
		}
		d.Upload = up
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		return d, err
	}
	return d, nil
}

func failureStatus(err error) int {
	var rf *employeeapi.RequestFailure
	switch {
	case errors.Is(err, form.ErrStaleRecord), errors.Is(err, form.ErrInFlight):
		return http.StatusConflict
	case errors.As(err, &rf) && rf.NotFound():
		return http.StatusNotFound
	case errors.As(err, &rf):
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

func findRecord(recs []employee.Record, id string) employee.Record {
	for _, r := range recs {
		if r.ID == id {
			return r
		}
	}
	return employee.Record{}
}
