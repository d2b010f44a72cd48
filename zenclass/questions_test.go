package zenclass_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zenclass/zenreport/engine"
	"github.com/zenclass/zenreport/engine/store"
	"github.com/zenclass/zenreport/zenclass"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestReporter(t *testing.T, seed engine.Seed) *zenclass.Reporter {
	s := store.NewMemory()
	t.Cleanup(func() { s.Close() })

	_, err := engine.NewLoader(s, zerolog.Nop()).LoadAll(context.Background(), zenclass.Collections, seed)
	require.NoError(t, err)

	return zenclass.NewReporter(s, zerolog.Nop())
}

func seed() engine.Seed {
	return engine.Seed{
		zenclass.Users: {
			{"_id": 1.0, "name": "Alice", "email": "alice@example.com"},
			{"_id": 2.0, "name": "Bob", "email": "bob@example.com"},
			{"_id": 3.0, "name": "Cara", "email": "cara@example.com"},
		},
		zenclass.CodeKata: {
			{"user_id": 1.0, "problems_solved": 5.0},
			{"user_id": 1.0, "problems_solved": 3.0},
			{"user_id": 2.0, "problems_solved": 4.0},
		},
		zenclass.Topics: {
			{"_id": 1.0, "topic": "HTML", "date": "2020-09-30"},
			{"_id": 2.0, "topic": "CSS", "date": "2020-10-01T00:00:00Z"},
			{"_id": 3.0, "topic": "JS", "date": "2020-10-20"},
			{"_id": 4.0, "topic": "Node", "date": "2020-11-01T00:00:00Z"},
			{"_id": 5.0, "topic": "Mongo", "date": "not a date"},
		},
		zenclass.Tasks: {
			{"_id": 10.0, "task_name": "css-1", "topic_id": 2.0, "user_id": 1.0, "date": "2020-10-02", "submitted": true},
			{"_id": 11.0, "task_name": "js-1", "topic_id": 3.0, "user_id": 2.0, "date": "2020-10-21", "submitted": false},
			{"_id": 12.0, "task_name": "css-2", "topic_id": 2.0, "user_id": 3.0, "date": "2020-11-02", "submitted": false},
		},
		zenclass.CompanyDrives: {
			{"_id": 20.0, "company": "Early", "drive_date": "2020-10-14T23:59:59Z", "students_attended": []any{1.0}},
			{"_id": 21.0, "company": "First", "drive_date": "2020-10-15T00:00:00Z", "students_attended": []any{3.0, 1.0}},
			{"_id": 22.0, "company": "Last", "drive_date": "2020-10-31T23:59:59Z", "students_attended": []any{99.0}},
			{"_id": 23.0, "company": "Late", "drive_date": "2020-11-01T00:00:00Z", "students_attended": []any{2.0}},
		},
		zenclass.Attendance: {
			{"user_id": 1.0, "status": "absent", "date": "2020-10-16"},
			{"user_id": 2.0, "status": "absent", "date": "2020-10-21"},
			{"user_id": 3.0, "status": "present", "date": "2020-10-21"},
		},
		zenclass.Mentors: {
			{"_id": 30.0, "mentor_name": "Many", "mentees": ids(16)},
			{"_id": 31.0, "mentor_name": "Exactly", "mentees": ids(15)},
			{"_id": 32.0, "mentor_name": "None"},
		},
	}
}

func ids(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

// =============================================================================
// QUESTION 1
// =============================================================================

func TestTopicsAndTasks_OctoberIsHalfOpen(t *testing.T) {
	r := newTestReporter(t, seed())

	got, err := r.TopicsAndTasks(context.Background(), zenclass.October2020)
	require.NoError(t, err)

	require.Len(t, got.Topics, 2)
	assert.Equal(t, "CSS", got.Topics[0].Topic)
	assert.Equal(t, "JS", got.Topics[1].Topic)

	require.Len(t, got.Tasks, 2)
	assert.Equal(t, "css-1", got.Tasks[0].TaskName)
	require.NotNil(t, got.Tasks[1].Submitted)
	assert.False(t, *got.Tasks[1].Submitted)
}

func TestTopicsAndTasks_JoinAttachesAllTasks(t *testing.T) {
	r := newTestReporter(t, seed())

	got, err := r.TopicsAndTasks(context.Background(), zenclass.October2020)
	require.NoError(t, err)

	require.Len(t, got.Joined, 2)
	css := got.Joined[0]
	assert.Equal(t, "CSS", css.Topic.Topic)
	require.Len(t, css.Tasks, 2, "tasks outside the month still belong to the topic")
	assert.Equal(t, "css-1", css.Tasks[0].TaskName)
	assert.Equal(t, "css-2", css.Tasks[1].TaskName)
}

// =============================================================================
// QUESTIONS 2 AND 3
// =============================================================================

func TestDrivesBetween_ClosedWindowIncludesEndpoints(t *testing.T) {
	r := newTestReporter(t, seed())

	drives, err := r.DrivesBetween(context.Background(), zenclass.LateOctober2020)
	require.NoError(t, err)

	require.Len(t, drives, 2)
	assert.Equal(t, "First", drives[0].Company)
	assert.Equal(t, "Last", drives[1].Company)
}

func TestDrivesWithStudents_ResolvesInAttendanceOrder(t *testing.T) {
	r := newTestReporter(t, seed())

	drives, err := r.DrivesWithStudents(context.Background(), zenclass.LateOctober2020)
	require.NoError(t, err)
	require.Len(t, drives, 2)

	first := drives[0]
	require.Len(t, first.Students, 2)
	assert.Equal(t, "Cara", first.Students[0].Name)
	assert.Equal(t, "cara@example.com", first.Students[0].Email)
	assert.Equal(t, "Alice", first.Students[1].Name)

	last := drives[1]
	assert.NotNil(t, last.Students)
	assert.Empty(t, last.Students, "unknown attendees leave an empty list, the drive stays")
}

// =============================================================================
// QUESTION 4
// =============================================================================

func TestSolvedPerUser_AliceScenario(t *testing.T) {
	// GIVEN: Alice with two code kata records of 5 and 3
	// WHEN: Summing problems solved
	// THEN: Alice shows 8 and the total is 8

	r := newTestReporter(t, engine.Seed{
		zenclass.Users:    {{"_id": 1.0, "name": "Alice"}},
		zenclass.CodeKata: {{"user_id": 1.0, "problems_solved": 5.0}, {"user_id": 1.0, "problems_solved": 3.0}},
	})

	got, err := r.SolvedPerUser(context.Background())
	require.NoError(t, err)

	require.Len(t, got.PerUser, 1)
	assert.Equal(t, "Alice", got.PerUser[0].User)
	assert.True(t, decimal.NewFromInt(8).Equal(got.PerUser[0].ProblemsSolved))
	assert.True(t, decimal.NewFromInt(8).Equal(got.Total))
}

func TestSolvedPerUser_TotalEqualsSumOfUsers(t *testing.T) {
	s := seed()
	s[zenclass.CodeKata] = append(s[zenclass.CodeKata], engine.Document{"user_id": 42.0, "problems_solved": 2.0})
	r := newTestReporter(t, s)

	got, err := r.SolvedPerUser(context.Background())
	require.NoError(t, err)
	require.Len(t, got.PerUser, 3)

	sum := decimal.Zero
	for _, row := range got.PerUser {
		sum = sum.Add(row.ProblemsSolved)
	}
	assert.True(t, sum.Equal(got.Total))
	assert.True(t, decimal.NewFromInt(14).Equal(got.Total))

	unknown := got.PerUser[2]
	assert.Equal(t, 42.0, unknown.UserID)
	assert.Empty(t, unknown.User, "a user_id without a user keeps its row")
}

func TestSolvedPerUser_EmptyCollection(t *testing.T) {
	r := newTestReporter(t, engine.Seed{})

	got, err := r.SolvedPerUser(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.PerUser)
	assert.True(t, got.Total.IsZero())
}

// =============================================================================
// QUESTION 5
// =============================================================================

func TestMentorsAbove_StrictAndAbsentMenteesExcluded(t *testing.T) {
	r := newTestReporter(t, seed())

	got, err := r.MentorsAbove(context.Background(), zenclass.DefaultMenteeThreshold)
	require.NoError(t, err)

	assert.Equal(t, []zenclass.MentorLoad{{Mentor: "Many", MenteeCount: 16}}, got)
}

// =============================================================================
// QUESTION 6
// =============================================================================

func TestAbsentWithoutSubmission_CountsIntersection(t *testing.T) {
	r := newTestReporter(t, seed())

	got, err := r.AbsentWithoutSubmission(context.Background(), zenclass.LateOctober2020)
	require.NoError(t, err)

	assert.ElementsMatch(t, []any{1.0, 2.0}, got.Absent)
	assert.Equal(t, []any{2.0}, got.AbsentUnsubmitted)
}

// =============================================================================
// RUN
// =============================================================================

func TestRun_AnswersEveryQuestion(t *testing.T) {
	r := newTestReporter(t, seed())

	rep, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, rep.TopicsAndTasks.Topics, 2)
	assert.Len(t, rep.Drives, 2)
	assert.Len(t, rep.DrivesWithStudents, 2)
	assert.Len(t, rep.Solved.PerUser, 2)
	assert.Len(t, rep.Mentors, 1)
	assert.Len(t, rep.Absence.AbsentUnsubmitted, 1)
	assert.Equal(t, zenclass.DefaultMenteeThreshold, rep.MenteeThreshold)
}

func TestRun_InvalidWindow(t *testing.T) {
	r := newTestReporter(t, seed())
	r.Window = engine.ClosedRange(zenclass.LateOctober2020.End, zenclass.LateOctober2020.Start)

	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, engine.ErrInvalidRange)
}

func TestRun_StoreFaultAborts(t *testing.T) {
	r := newTestReporter(t, seed())
	require.NoError(t, r.Store.Close())

	rep, err := r.Run(context.Background())
	assert.Nil(t, rep)
	require.Error(t, err)
	assert.True(t, engine.IsStoreFault(err))
	assert.Contains(t, err.Error(), "question 1")
}
