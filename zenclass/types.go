// Package zenclass holds the zenclass collections and the fixed battery of
// six analytical questions asked of them. It uses the engine package for all
// query work.
package zenclass

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/zenclass/zenreport/engine"
)

// =============================================================================
// COLLECTIONS
// =============================================================================

const (
	Users         = "users"
	CodeKata      = "codekata"
	Attendance    = "attendance"
	Topics        = "topics"
	Tasks         = "tasks"
	CompanyDrives = "company_drives"
	Mentors       = "mentors"
)

// Collections lists every collection in load order.
var Collections = []string{Users, CodeKata, Attendance, Topics, Tasks, CompanyDrives, Mentors}

// Field names read by the questions.
const (
	FieldName             = "name"
	FieldEmail            = "email"
	FieldUserID           = "user_id"
	FieldProblemsSolved   = "problems_solved"
	FieldDate             = "date"
	FieldDateISO          = "dateISO"
	FieldStatus           = "status"
	FieldTopic            = "topic"
	FieldTaskName         = "task_name"
	FieldTopicID          = "topic_id"
	FieldSubmitted        = "submitted"
	FieldCompany          = "company"
	FieldDriveDate        = "drive_date"
	FieldDriveDateISO     = "drive_dateISO"
	FieldStudentsAttended = "students_attended"
	FieldMentorName       = "mentor_name"
	FieldMentees          = "mentees"
	FieldMenteeCount      = "menteeCount"
)

// Attendance statuses.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// =============================================================================
// WINDOWS
// =============================================================================

var (
	// October2020 is the calendar month used by question 1.
	October2020 = engine.MonthRange(2020, time.October)

	// LateOctober2020 is the closed 15th..31st window used by questions 2, 3 and 6.
	LateOctober2020 = engine.ClosedRange(
		time.Date(2020, time.October, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2020, time.October, 31, 23, 59, 59, 0, time.UTC),
	)
)

// DefaultMenteeThreshold is the mentee count a mentor must exceed in question 5.
const DefaultMenteeThreshold = 15

// =============================================================================
// RESULT ROWS
// =============================================================================

type Topic struct {
	ID    any
	Topic string
	Date  string
}

type Task struct {
	ID        any
	TaskName  string
	Date      string
	UserID    any
	Submitted *bool
}

// TopicWithTasks is a topic and every task that references it.
type TopicWithTasks struct {
	Topic
	Tasks []Task
}

// TopicsAndTasks answers question 1.
type TopicsAndTasks struct {
	Topics []Topic
	Tasks  []Task
	Joined []TopicWithTasks
}

type Student struct {
	ID    any
	Name  string
	Email string
}

type Drive struct {
	ID        any
	Company   string
	DriveDate string
	Students  []Student
}

// SolvedByUser is one row of question 4. User is empty when user_id matches no user.
type SolvedByUser struct {
	UserID         any
	User           string
	ProblemsSolved decimal.Decimal
}

// SolvedSummary answers question 4. Total equals the sum of PerUser.
type SolvedSummary struct {
	PerUser []SolvedByUser
	Total   decimal.Decimal
}

type MentorLoad struct {
	Mentor      string
	MenteeCount int
}

// AbsenceSummary answers question 6.
type AbsenceSummary struct {
	Absent            []any // users absent in the window
	AbsentUnsubmitted []any // of those, users with an unsubmitted task in the window
}

// Report is the full battery, in question order.
type Report struct {
	TopicsAndTasks     TopicsAndTasks
	Drives             []Drive
	DrivesWithStudents []Drive
	Solved             SolvedSummary
	Mentors            []MentorLoad
	Absence            AbsenceSummary
	MenteeThreshold    int
	Month              engine.Range
	Window             engine.Range
}

// =============================================================================
// ROW DECODING
// =============================================================================

func topicFrom(d engine.Document) Topic {
	return Topic{ID: d.ID(), Topic: d.String(FieldTopic), Date: d.String(FieldDate)}
}

func taskFrom(d engine.Document) Task {
	t := Task{
		ID:       d.ID(),
		TaskName: d.String(FieldTaskName),
		Date:     d.String(FieldDate),
		UserID:   d[FieldUserID],
	}
	if b, ok := d.Bool(FieldSubmitted); ok {
		t.Submitted = &b
	}
	return t
}

func studentFrom(d engine.Document) Student {
	return Student{ID: d.ID(), Name: d.String(FieldName), Email: d.String(FieldEmail)}
}

func driveFrom(d engine.Document) Drive {
	drive := Drive{ID: d.ID(), Company: d.String(FieldCompany), DriveDate: d.String(FieldDriveDate)}
	for _, s := range d.Docs("students") {
		drive.Students = append(drive.Students, studentFrom(s))
	}
	return drive
}
