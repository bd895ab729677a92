package employeeapi

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"ignite/internal/employee"
)

// formFields is the fixed order in which a draft is written to the wire.
var formFields = []struct {
	name  string
	value func(employee.Draft) string
}{
	{"firstName", func(d employee.Draft) string { return d.FirstName }},
	{"lastName", func(d employee.Draft) string { return d.LastName }},
	{"email", func(d employee.Draft) string { return d.Email }},
	{"phoneNumber", func(d employee.Draft) string { return d.PhoneNumber }},
	{"gender", func(d employee.Draft) string { return string(d.Gender) }},
}

const pictureField = "profilePicture"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeDraft builds the multipart body for create and update. The picture
// is sent as a file part when an upload is attached, else as its reference.
func encodeDraft(d employee.Draft) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range formFields {
		if err := w.WriteField(f.name, f.value(d)); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.name, err)
		}
	}

	switch {
	case d.Upload != nil:
		if err := writeUpload(w, d.Upload); err != nil {
			return nil, "", err
		}
	case d.ProfilePicture != "":
		if err := w.WriteField(pictureField, d.ProfilePicture); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", pictureField, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func writeUpload(w *multipart.Writer, u *employee.Upload) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, pictureField, quoteEscaper.Replace(u.Filename)))
	ct := u.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}

	src, err := u.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("write upload: %w", err)
	}
	return nil
}
