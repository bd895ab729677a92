package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ignite/internal/config"
	"ignite/internal/employee"
	"ignite/internal/employeeapi"
	"ignite/internal/employeeapi/fakeservice"
)

var (
	johnson = employee.Record{
		ID:          "1",
		FirstName:   "Johnson",
		LastName:    "Michaels",
		Email:       "johnson@example.com",
		PhoneNumber: "0712345678",
		Gender:      employee.Male,
		CreatedAt:   "2024-03-20T10:00:00Z",
	}
	anneliese = employee.Record{
		ID:          "2",
		FirstName:   "Anneliese",
		LastName:    "Brighton",
		Email:       "anneliese@example.com",
		PhoneNumber: "+94771234567",
		Gender:      employee.Female,
		CreatedAt:   "2024-03-21T08:30:00Z",
	}
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("EMPLOYEE_API_BASE_URL", "")
	t.Setenv("APP_ENV", "dev")
	t.Setenv("FLASH_BACKEND", "memory")
	t.Setenv("EDIT_TOKEN_TTL", "30m")
}

func run(t *testing.T, baseURL string, args ...string) (string, error) {
	t.Helper()
	isolateEnv(t)
	var out, errOut bytes.Buffer
	cmd := NewRootCmd(Options{In: strings.NewReader(""), Out: &out, Err: &errOut})
	if baseURL != "" {
		args = append([]string{"--base-url", baseURL}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestList_Table(t *testing.T) {
	srv := fakeservice.New(johnson, anneliese).Start(t)

	out, err := run(t, srv.URL, "list", "--sort", "name")
	require.NoError(t, err)
	assert.Contains(t, out, "Johnson Michaels")
	assert.Contains(t, out, "Anneliese Brighton")
	assert.Less(t, strings.Index(out, "Anneliese"), strings.Index(out, "Johnson"))
	assert.Contains(t, out, "2 employee(s)")
}

func TestList_SearchAndJSON(t *testing.T) {
	srv := fakeservice.New(johnson, anneliese).Start(t)

	out, err := run(t, srv.URL, "list", "-s", "ANNE", "--json")
	require.NoError(t, err)

	var rows []employee.Record
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "2", rows[0].ID)
}

func TestList_Empty(t *testing.T) {
	srv := fakeservice.New().Start(t)

	out, err := run(t, srv.URL, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No employees found.")
}

func TestList_ServiceFailure(t *testing.T) {
	svc := fakeservice.New(johnson)
	srv := svc.Start(t)
	svc.FailNext("list", 500, `{"message":"database offline"}`)

	_, err := run(t, srv.URL, "list")
	require.Error(t, err)

	var rf *employeeapi.RequestFailure
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, "database offline", rf.Message)
	assert.Equal(t, 1, exitCode(err))
}

func TestShow_JSON(t *testing.T) {
	srv := fakeservice.New(johnson).Start(t)

	out, err := run(t, srv.URL, "show", "1", "--json")
	require.NoError(t, err)

	var rec employee.Record
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, johnson, rec)
}

func TestShow_Detail(t *testing.T) {
	srv := fakeservice.New(johnson).Start(t)

	out, err := run(t, srv.URL, "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "johnson@example.com")
	assert.Contains(t, out, "2024-03-20 10:00")
}

func TestShow_NotFound(t *testing.T) {
	srv := fakeservice.New().Start(t)

	_, err := run(t, srv.URL, "show", "missing")
	var rf *employeeapi.RequestFailure
	require.ErrorAs(t, err, &rf)
	assert.True(t, rf.NotFound())
}

func TestAdd_WithFlags(t *testing.T) {
	svc := fakeservice.New()
	srv := svc.Start(t)

	out, err := run(t, srv.URL, "add",
		"--first-name", "Michael",
		"--last-name", "Johnson",
		"--email", "michael@example.com",
		"--phone", "0712345678",
		"--gender", "M",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Employee added successfully")

	recs := svc.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "Michael", recs[0].FirstName)
	assert.Contains(t, out, recs[0].ID)
}

func TestAdd_WithPicture(t *testing.T) {
	svc := fakeservice.New()
	srv := svc.Start(t)

	path := filepath.Join(t.TempDir(), "me.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0o600))

	_, err := run(t, srv.URL, "add",
		"--first-name", "Michael",
		"--last-name", "Johnson",
		"--email", "michael@example.com",
		"--phone", "0712345678",
		"--gender", "M",
		"--picture", path,
	)
	require.NoError(t, err)

	reqs := svc.Requests()
	require.NotEmpty(t, reqs)
	last := reqs[len(reqs)-1]
	assert.Equal(t, "me.png", last.FileName)
	assert.Equal(t, "image/png", last.FileType)
}

func TestAdd_InvalidNeverReachesService(t *testing.T) {
	svc := fakeservice.New()
	srv := svc.Start(t)

	out, err := run(t, srv.URL, "add",
		"--first-name", "Al",
		"--last-name", "Johnson",
		"--email", "not-an-email",
		"--phone", "12345",
		"--gender", "M",
	)
	var verr *employee.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 3, exitCode(err))
	assert.NotEmpty(t, verr.Message("firstName"))
	assert.NotEmpty(t, verr.Message("email"))
	assert.NotEmpty(t, verr.Message("phoneNumber"))
	assert.Contains(t, out, "firstName:")

	assert.Empty(t, svc.Requests())
}

func TestAdd_MissingPicture(t *testing.T) {
	srv := fakeservice.New().Start(t)

	_, err := run(t, srv.URL, "add", "--picture", filepath.Join(t.TempDir(), "nope.png"))
	require.Error(t, err)
}

func TestEdit_ChangesOneField(t *testing.T) {
	svc := fakeservice.New(johnson)
	srv := svc.Start(t)

	out, err := run(t, srv.URL, "edit", "1", "--email", "jm@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Employee updated successfully")

	recs := svc.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "jm@example.com", recs[0].Email)
	assert.Equal(t, johnson.FirstName, recs[0].FirstName)
}

func TestEdit_UnknownRecord(t *testing.T) {
	srv := fakeservice.New().Start(t)

	out, err := run(t, srv.URL, "edit", "42", "--email", "jm@example.com")
	require.Error(t, err)
	assert.Contains(t, out, "Failed to load employee data")
}

func TestDelete_Yes(t *testing.T) {
	svc := fakeservice.New(johnson, anneliese)
	srv := svc.Start(t)

	out, err := run(t, srv.URL, "delete", "1", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Employee deleted successfully")

	recs := svc.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "2", recs[0].ID)
}

func TestDelete_ServiceFailure(t *testing.T) {
	svc := fakeservice.New(johnson)
	srv := svc.Start(t)
	svc.FailNext("delete", 500, "")

	_, err := run(t, srv.URL, "delete", "1", "-y")
	require.Error(t, err)
	assert.Len(t, svc.Records(), 1)
}

func TestPing(t *testing.T) {
	srv := fakeservice.New().Start(t)

	out, err := run(t, srv.URL, "ping")
	require.NoError(t, err)
	assert.Contains(t, out, "reachable at "+srv.URL)
}

func TestPing_Unreachable(t *testing.T) {
	srv := fakeservice.New().Start(t)
	url := srv.URL
	srv.Close()

	_, err := run(t, url, "ping")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}

func TestMissingBaseURL(t *testing.T) {
	_, err := run(t, "", "list")

	var cerr *config.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 2, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 130, exitCode(context.Canceled))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}
