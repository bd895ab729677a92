package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"ignite/internal/edittoken"
	"ignite/internal/employee"
	"ignite/internal/form"
)

// draftFlags are the per-field flags shared by add and edit.
type draftFlags struct {
	first, last, email, phone, gender, picture string
	interactive                                bool
}

func (f *draftFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.first, "first-name", "", "first name")
	fs.StringVar(&f.last, "last-name", "", "last name")
	fs.StringVar(&f.email, "email", "", "email address")
	fs.StringVar(&f.phone, "phone", "", "Sri Lankan phone number")
	fs.StringVar(&f.gender, "gender", "", "M or F")
	fs.StringVar(&f.picture, "picture", "", "path to a profile picture")
	fs.BoolVarP(&f.interactive, "interactive", "i", false, "fill the fields in an interactive form")
}

// apply copies the flags that were set onto d.
func (f *draftFlags) apply(fs *pflag.FlagSet, d *employee.Draft) error {
	set := map[string]func(){
		"first-name": func() { d.FirstName = f.first },
		"last-name":  func() { d.LastName = f.last },
		"email":      func() { d.Email = f.email },
		"phone":      func() { d.PhoneNumber = f.phone },
		"gender":     func() { d.Gender = employee.Gender(f.gender) },
	}
	for name, fn := range set {
		if fs.Changed(name) {
			fn()
		}
	}
	if f.picture != "" {
		up, err := employee.UploadFromFile(f.picture)
		if err != nil {
			return err
		}
		d.Upload = up
	}
	return nil
}

func newAddCmd(a *app) *cobra.Command {
	var flags draftFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an employee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var d employee.Draft
			if err := flags.apply(cmd.Flags(), &d); err != nil {
				return err
			}
			if flags.interactive {
				if err := a.fillDraft(ctx, &d); err != nil {
					return err
				}
			}

			res := form.NewAdd(a.store, a.notes, a.log).Submit(ctx, session, d)
			a.printNotes(ctx)
			if err := a.report(cmd, res); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", styles.Muted.Render("id:"), res.Record.ID)
			return nil
		},
	}
	flags.bind(cmd.Flags())
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var flags draftFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]
			tokens := edittoken.New(uuid.NewString(), "ignitectl", time.Hour)
			edit := form.NewEdit(a.api, a.notes, tokens, a.log)

			view, err := edit.Load(ctx, session, id)
			if err != nil {
				a.printNotes(ctx)
				return err
			}
			d := view.Draft
			if err := flags.apply(cmd.Flags(), &d); err != nil {
				return err
			}
			if flags.interactive {
				if err := a.fillDraft(ctx, &d); err != nil {
					return err
				}
			}

			res := edit.Submit(ctx, session, id, view.Token, d)
			a.printNotes(ctx)
			return a.report(cmd, res)
		},
	}
	flags.bind(cmd.Flags())
	return cmd
}

// report prints violations of a failed submit and returns its error.
func (a *app) report(cmd *cobra.Command, res form.Result) error {
	if res.Err == nil {
		return nil
	}
	var verr *employee.ValidationError
	if errors.As(res.Err, &verr) {
		out := cmd.OutOrStdout()
		for _, v := range verr.Violations {
			fmt.Fprintf(out, "%s %s\n", styles.Error.Render("✗ "+v.Field+":"), v.Message)
		}
	}
	return res.Err
}

// fillDraft edits d in an interactive form. Each field is checked as it is
// left, with the same rules the submit applies.
func (a *app) fillDraft(ctx context.Context, d *employee.Draft) error {
	var picture string
	text := func(title, field string, value *string) *huh.Input {
		return huh.NewInput().
			Title(title).
			Value(value).
			Validate(func(s string) error {
				probe := *d
				probe.Upload = nil
				switch field {
				case "firstName":
					probe.FirstName = s
				case "lastName":
					probe.LastName = s
				case "email":
					probe.Email = s
				case "phoneNumber":
					probe.PhoneNumber = s
				}
				return fieldError(probe, field)
			})
	}

	gender := d.Gender
	f := huh.NewForm(
		huh.NewGroup(
			text("First name", "firstName", &d.FirstName),
			text("Last name", "lastName", &d.LastName),
			text("Email", "email", &d.Email),
			text("Phone number", "phoneNumber", &d.PhoneNumber).Placeholder("0712345678"),
			huh.NewSelect[employee.Gender]().
				Title("Gender").
				Options(
					huh.NewOption("Male", employee.Male),
					huh.NewOption("Female", employee.Female),
				).
				Value(&gender),
			huh.NewInput().
				Title("Profile picture").
				Description("Path to a JPEG, PNG, GIF or WEBP file. Leave empty to keep the current one.").
				Value(&picture).
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					up, err := employee.UploadFromFile(s)
					if err != nil {
						return err
					}
					probe := *d
					probe.Upload = up
					return fieldError(probe, "profilePicture")
				}),
		),
	)
	if err := a.runForm(ctx, f); err != nil {
		return err
	}

	d.Gender = gender
	if picture != "" {
		up, err := employee.UploadFromFile(picture)
		if err != nil {
			return err
		}
		d.Upload = up
	}
	return nil
}

func fieldError(d employee.Draft, field string) error {
	if msg := employee.CheckField(d, field); msg != "" {
		return errors.New(msg)
	}
	return nil
}
