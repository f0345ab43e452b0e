package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"sisu-catalog/internal/domain"
	"sisu-catalog/internal/export"
	"sisu-catalog/internal/userrecord"
)

func newRecordCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Inspect and edit a student's saved progress file",
	}
	cmd.AddCommand(
		newRecordAddCourseCmd(app),
		newRecordShowCmd(app),
	)
	return cmd
}

func newRecordAddCourseCmd(app *App) *cobra.Command {
	var (
		completed     bool
		name          string
		studentNumber string
	)

	cmd := &cobra.Command{
		Use:   "add-course <file> <programme-id> <course-id>",
		Short: "Add a course of a programme to the record, creating the file if needed",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, programmeID, courseID := args[0], args[1], args[2]

			rec, err := readRecord(path)
			switch {
			case errors.Is(err, fs.ErrNotExist):
				rec = &userrecord.Record{Name: name, StudentNumber: studentNumber}
				if rec.Name == "" || rec.StudentNumber == "" {
					return fmt.Errorf("%s does not exist: --name and --student-number are required to create it", path)
				}
			case err != nil:
				return err
			}

			p, err := app.resolveProgramme(cmd.Context(), programmeID)
			if err != nil {
				return err
			}
			course := findCourse(p, domain.ID(courseID))
			if course == nil {
				return fmt.Errorf("course %q is not part of programme %q", courseID, programmeID)
			}

			entry := userrecord.EntryFromCourseUnit(course)
			entry.Completed = completed
			rec.SelectProgramme(p)
			rec.AddCourse(entry)

			if err := writeRecord(path, rec); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s to %s\n", course.Info().String(), path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&completed, "completed", false, "mark the course as completed")
	cmd.Flags().StringVar(&name, "name", "", "student name for a new record")
	cmd.Flags().StringVar(&studentNumber, "student-number", "", "student number for a new record")
	return cmd
}

func newRecordShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Print the courses stored in a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := readRecord(args[0])
			if err != nil {
				return err
			}

			courses := make([]*domain.CourseUnit, 0, len(rec.Courses))
			for _, e := range rec.Courses {
				courses = append(courses, e.CourseUnit())
			}

			if app.format == formatJSON {
				views := make([]export.CourseView, 0, len(courses))
				for _, c := range courses {
					views = append(views, export.NewCourseView(c))
				}
				return export.WriteJSON(cmd.OutOrStdout(), views)
			}

			out := cmd.OutOrStdout()
			programme := string(domain.Null)
			if rec.DegreeModule != nil {
				programme = string(*rec.DegreeModule)
			}
			fmt.Fprintf(out, "%s (%s), programme %s\n", rec.Name, rec.StudentNumber, programme)
			for _, c := range courses {
				mark := " "
				if c.Completed() {
					mark = "x"
				}
				fmt.Fprintf(out, "[%s] %s\n", mark, c.Info().String())
			}
			fmt.Fprintf(out, "completed credits: %d\n", rec.CompletedCredits())
			return nil
		},
	}
}

func findCourse(p *domain.DegreeProgramme, id domain.ID) *domain.CourseUnit {
	for _, c := range p.AllCourseUnits() {
		if c.Key() == id {
			return c
		}
	}
	return nil
}

func writeRecord(path string, rec *userrecord.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating record: %w", err)
	}
	defer f.Close()
	if err := rec.Encode(f); err != nil {
		return err
	}
	return f.Close()
}
