/*
questions.go - The fixed battery of six questions

QUESTIONS (run in this order by Reporter.Run):
  1. Topics and tasks dated in October 2020 (half-open month), plus the
     October topics joined to all of their tasks
  2. Company drives dated 2020-10-15..2020-10-31 (closed)
  3. The same drives joined to the users who attended (name, email)
  4. Problems solved per user (grouped sum joined to user name) and in total
  5. Mentors with more than 15 mentees
  6. Users absent in the closed window who also left a task unsubmitted in it

INDEPENDENCE:
  No answer feeds another. Each reads the loaded collections directly and
  can be called on its own. An empty answer is a valid answer.

FAILURE:
  A store fault in any question aborts Run; the partial Report is discarded.
*/
package zenclass

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/zenclass/zenreport/engine"
)

// Reporter answers the questions against a loaded store.
type Reporter struct {
	Store           engine.Store
	Log             zerolog.Logger
	Month           engine.Range
	Window          engine.Range
	MenteeThreshold int
}

// NewReporter returns a Reporter with the standard windows and threshold.
func NewReporter(store engine.Store, log zerolog.Logger) *Reporter {
	return &Reporter{
		Store:           store,
		Log:             log,
		Month:           October2020,
		Window:          LateOctober2020,
		MenteeThreshold: DefaultMenteeThreshold,
	}
}

// Run answers all six questions in order.
func (r *Reporter) Run(ctx context.Context) (*Report, error) {
	if err := r.Month.Valid(); err != nil {
		return nil, err
	}
	if err := r.Window.Valid(); err != nil {
		return nil, err
	}

	rep := &Report{MenteeThreshold: r.MenteeThreshold, Month: r.Month, Window: r.Window}
	var err error

	if rep.TopicsAndTasks, err = r.TopicsAndTasks(ctx, r.Month); err != nil {
		return nil, fmt.Errorf("question 1: %w", err)
	}
	if rep.Drives, err = r.DrivesBetween(ctx, r.Window); err != nil {
		return nil, fmt.Errorf("question 2: %w", err)
	}
	if rep.DrivesWithStudents, err = r.DrivesWithStudents(ctx, r.Window); err != nil {
		return nil, fmt.Errorf("question 3: %w", err)
	}
	if rep.Solved, err = r.SolvedPerUser(ctx); err != nil {
		return nil, fmt.Errorf("question 4: %w", err)
	}
	if rep.Mentors, err = r.MentorsAbove(ctx, r.MenteeThreshold); err != nil {
		return nil, fmt.Errorf("question 5: %w", err)
	}
	if rep.Absence, err = r.AbsentWithoutSubmission(ctx, r.Window); err != nil {
		return nil, fmt.Errorf("question 6: %w", err)
	}

	return rep, nil
}

// TopicsAndTasks returns topics and tasks dated in month, and the topics in
// month joined to every task that references them.
func (r *Reporter) TopicsAndTasks(ctx context.Context, month engine.Range) (TopicsAndTasks, error) {
	var out TopicsAndTasks
	inMonth := engine.Where(engine.Within(FieldDateISO, month))

	topics, err := r.Store.Find(ctx, Topics, inMonth)
	if err != nil {
		return out, err
	}
	for _, d := range topics {
		out.Topics = append(out.Topics, topicFrom(d))
	}

	tasks, err := r.Store.Find(ctx, Tasks, inMonth)
	if err != nil {
		return out, err
	}
	for _, d := range tasks {
		out.Tasks = append(out.Tasks, taskFrom(d))
	}

	joined, err := r.Store.Aggregate(ctx, Topics, engine.Pipeline{
		engine.Match{Filter: inMonth},
		engine.Lookup{
			From:         Tasks,
			LocalField:   engine.IDField,
			ForeignField: FieldTopicID,
			As:           "tasks",
			Fields:       []string{engine.IDField, FieldTaskName, FieldUserID, FieldSubmitted, FieldDate},
		},
		engine.KeepFields(engine.IDField, FieldTopic, FieldDate, "tasks"),
	})
	if err != nil {
		return out, err
	}
	for _, d := range joined {
		tw := TopicWithTasks{Topic: topicFrom(d), Tasks: []Task{}}
		for _, t := range d.Docs("tasks") {
			tw.Tasks = append(tw.Tasks, taskFrom(t))
		}
		out.Joined = append(out.Joined, tw)
	}

	r.Log.Debug().
		Int("topics", len(out.Topics)).
		Int("tasks", len(out.Tasks)).
		Str("range", month.String()).
		Msg("Topics and tasks resolved")
	return out, nil
}

// DrivesBetween returns company drives dated within window.
func (r *Reporter) DrivesBetween(ctx context.Context, window engine.Range) ([]Drive, error) {
	docs, err := r.Store.Find(ctx, CompanyDrives, engine.Where(engine.Within(FieldDriveDateISO, window)))
	if err != nil {
		return nil, err
	}
	drives := make([]Drive, 0, len(docs))
	for _, d := range docs {
		drives = append(drives, driveFrom(d))
	}
	return drives, nil
}

// DrivesWithStudents returns drives dated within window with their attendees
// resolved from users. Attendee ids without a user are skipped.
func (r *Reporter) DrivesWithStudents(ctx context.Context, window engine.Range) ([]Drive, error) {
	docs, err := r.Store.Aggregate(ctx, CompanyDrives, engine.Pipeline{
		engine.Match{Filter: engine.Where(engine.Within(FieldDriveDateISO, window))},
		engine.Lookup{
			From:         Users,
			LocalField:   FieldStudentsAttended,
			ForeignField: engine.IDField,
			As:           "students",
			Fields:       []string{engine.IDField, FieldName, FieldEmail},
		},
		engine.KeepFields(engine.IDField, FieldCompany, FieldDriveDate, "students"),
	})
	if err != nil {
		return nil, err
	}
	drives := make([]Drive, 0, len(docs))
	for _, d := range docs {
		drive := driveFrom(d)
		if drive.Students == nil {
			drive.Students = []Student{}
		}
		drives = append(drives, drive)
	}
	return drives, nil
}

// SolvedPerUser sums problems_solved per user, joins the user name and
// computes the global total.
func (r *Reporter) SolvedPerUser(ctx context.Context) (SolvedSummary, error) {
	summary := SolvedSummary{PerUser: []SolvedByUser{}, Total: decimal.Zero}

	rows, err := r.Store.Aggregate(ctx, CodeKata, engine.Pipeline{
		engine.Group{By: FieldUserID, Sum: FieldProblemsSolved, As: FieldProblemsSolved},
		engine.Lookup{
			From:         Users,
			LocalField:   engine.IDField,
			ForeignField: engine.IDField,
			As:           "user",
			Fields:       []string{FieldName},
			Single:       true,
		},
		engine.Project{Fields: []engine.Field{
			engine.Alias(FieldUserID, engine.IDField),
			engine.Alias("user", "user."+FieldName),
			engine.Keep(FieldProblemsSolved),
		}},
	})
	if err != nil {
		return summary, err
	}
	for _, d := range rows {
		summary.PerUser = append(summary.PerUser, SolvedByUser{
			UserID:         d[FieldUserID],
			User:           d.String("user"),
			ProblemsSolved: d.Decimal(FieldProblemsSolved),
		})
	}

	totals, err := r.Store.Aggregate(ctx, CodeKata, engine.Pipeline{
		engine.Group{Sum: FieldProblemsSolved, As: "total"},
	})
	if err != nil {
		return summary, err
	}
	if len(totals) > 0 {
		summary.Total = totals[0].Decimal("total")
	}
	return summary, nil
}

// MentorsAbove returns mentors whose mentee count strictly exceeds threshold.
// A mentor without a mentees field has a count of 0.
func (r *Reporter) MentorsAbove(ctx context.Context, threshold int) ([]MentorLoad, error) {
	docs, err := r.Store.Aggregate(ctx, Mentors, engine.Pipeline{
		engine.Size{Field: FieldMentees, As: FieldMenteeCount},
		engine.Match{Filter: engine.Where(
			engine.Compare(FieldMenteeCount, engine.Gt, decimal.NewFromInt(int64(threshold))),
		)},
		engine.KeepFields(FieldMentorName, FieldMenteeCount),
	})
	if err != nil {
		return nil, err
	}
	loads := make([]MentorLoad, 0, len(docs))
	for _, d := range docs {
		loads = append(loads, MentorLoad{
			Mentor:      d.String(FieldMentorName),
			MenteeCount: int(d.Decimal(FieldMenteeCount).IntPart()),
		})
	}
	return loads, nil
}

// AbsentWithoutSubmission finds users marked absent within window, then the
// subset of them holding an unsubmitted task dated within the same window.
func (r *Reporter) AbsentWithoutSubmission(ctx context.Context, window engine.Range) (AbsenceSummary, error) {
	res, err := engine.Semijoin{
		Source:      Attendance,
		SourceField: FieldUserID,
		SourceFilter: engine.Where(
			engine.FieldEq(FieldStatus, StatusAbsent),
			engine.Within(FieldDateISO, window),
		),
		Target:      Tasks,
		TargetField: FieldUserID,
		TargetFilter: engine.Where(
			engine.FieldEq(FieldSubmitted, false),
			engine.Within(FieldDateISO, window),
		),
	}.Run(ctx, r.Store)
	if err != nil {
		return AbsenceSummary{}, err
	}

	r.Log.Debug().
		Int("absent", len(res.Sources)).
		Int("absent_unsubmitted", len(res.Matched)).
		Msg("Absence intersect resolved")
	return AbsenceSummary{Absent: res.Sources, AbsentUnsubmitted: res.Matched}, nil
}
