// Package report prints a zenclass.Report as plain-text tables, one block
// per question in question order.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/zenclass/zenreport/zenclass"
)

// Render writes every block of rep to w.
func Render(w io.Writer, rep *zenclass.Report) error {
	p := &printer{w: w}

	p.line("1) Topics in October 2020:")
	p.table([]string{"_id", "topic", "date"}, func(add func(...any)) {
		for _, t := range rep.TopicsAndTasks.Topics {
			add(t.ID, t.Topic, t.Date)
		}
	})

	p.line("\nTasks in October 2020:")
	p.table([]string{"_id", "task_name", "date", "user_id"}, func(add func(...any)) {
		for _, t := range rep.TopicsAndTasks.Tasks {
			add(t.ID, t.TaskName, t.Date, t.UserID)
		}
	})

	p.line("\nTopics with their tasks (October topics):")
	for _, t := range rep.TopicsAndTasks.Joined {
		p.line(fmt.Sprintf("- %s (%s) -> %d tasks", t.Topic.Topic, t.Topic.Date, len(t.Tasks)))
	}

	p.line("\n2) Company drives between 2020-10-15 and 2020-10-31:")
	p.table([]string{"company", "drive_date"}, func(add func(...any)) {
		for _, d := range rep.Drives {
			add(d.Company, d.DriveDate)
		}
	})

	p.line("\n3) Company drives with students (resolved names):")
	for _, d := range rep.DrivesWithStudents {
		names := make([]string, 0, len(d.Students))
		for _, s := range d.Students {
			names = append(names, s.Name)
		}
		p.line(fmt.Sprintf("- %s (%s): %s", d.Company, d.DriveDate, strings.Join(names, ", ")))
	}

	p.line("\n4) Problems solved per user and total:")
	p.table([]string{"user", "problems_solved"}, func(add func(...any)) {
		for _, s := range rep.Solved.PerUser {
			add(s.User, s.ProblemsSolved.String())
		}
	})
	p.line("Total problems solved: " + rep.Solved.Total.String())

	p.line(fmt.Sprintf("\n5) Mentors with mentee count > %d:", rep.MenteeThreshold))
	if len(rep.Mentors) == 0 {
		p.line(fmt.Sprintf("No mentors with more than %d mentees found.", rep.MenteeThreshold))
	} else {
		p.table([]string{"mentor", "menteeCount"}, func(add func(...any)) {
			for _, m := range rep.Mentors {
				add(m.Mentor, m.MenteeCount)
			}
		})
	}

	p.line("\n6) Count of users absent and who did not submit tasks in the date range:")
	p.line(fmt.Sprintf("Absent users in range: %d", len(rep.Absence.Absent)))
	p.line(fmt.Sprintf("Absent users who also did not submit tasks: %d", len(rep.Absence.AbsentUnsubmitted)))

	return p.err
}

// printer keeps the first write error and turns later writes into no-ops.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(s string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, s)
}

func (p *printer) table(header []string, rows func(add func(...any))) {
	if p.err != nil {
		return
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	count := 0
	rows(func(cells ...any) {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = cell(c)
		}
		fmt.Fprintln(tw, strings.Join(parts, "\t"))
		count++
	})
	if count == 0 {
		fmt.Fprintln(tw, "(none)")
	}
	p.err = tw.Flush()
}

func cell(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
