package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zenclass/zenreport/engine"
)

func users() []engine.Document {
	return []engine.Document{
		{"_id": 1.0, "name": "Alice", "email": "alice@example.com"},
		{"_id": 2.0, "name": "Bob", "email": "bob@example.com"},
		{"_id": 3.0, "name": "Cara", "email": "cara@example.com"},
	}
}

// =============================================================================
// ARRAY LOCAL FIELD
// =============================================================================

func TestLookup_ArrayLocal_FollowsIDOrder(t *testing.T) {
	// GIVEN: A drive attended by users 3, 1 in that order
	// WHEN: Resolving against users
	// THEN: Students come back as Cara, Alice

	drives := []engine.Document{{"_id": 10.0, "students_attended": []any{3.0, 1.0}}}
	l := engine.Lookup{From: "users", LocalField: "students_attended", ForeignField: "_id", As: "students"}

	out := l.Resolve(drives, users())
	require.Len(t, out, 1)

	students := out[0].Docs("students")
	require.Len(t, students, 2)
	assert.Equal(t, "Cara", students[0].String("name"))
	assert.Equal(t, "Alice", students[1].String("name"))
}

func TestLookup_ArrayLocal_UnknownIDsSkipped(t *testing.T) {
	drives := []engine.Document{{"_id": 10.0, "students_attended": []any{99.0, 2.0}}}
	l := engine.Lookup{From: "users", LocalField: "students_attended", ForeignField: "_id", As: "students"}

	students := l.Resolve(drives, users())[0].Docs("students")
	require.Len(t, students, 1)
	assert.Equal(t, "Bob", students[0].String("name"))
}

func TestLookup_ArrayLocal_RepeatedIDAttachedOnce(t *testing.T) {
	drives := []engine.Document{{"_id": 10.0, "students_attended": []any{1.0, 2.0, int32(1)}}}
	l := engine.Lookup{From: "users", LocalField: "students_attended", ForeignField: "_id", As: "students"}

	students := l.Resolve(drives, users())[0].Docs("students")
	require.Len(t, students, 2)
	assert.Equal(t, "Alice", students[0].String("name"))
	assert.Equal(t, "Bob", students[1].String("name"))
}

func TestLookup_ZeroMatches_ParentKept(t *testing.T) {
	// GIVEN: One drive with no attendees and one whose attendees are unknown
	// WHEN: Resolving
	// THEN: Both drives survive with an empty student list

	drives := []engine.Document{
		{"_id": 10.0, "students_attended": []any{}},
		{"_id": 11.0, "students_attended": []any{42.0}},
		{"_id": 12.0},
	}
	l := engine.Lookup{From: "users", LocalField: "students_attended", ForeignField: "_id", As: "students"}

	out := l.Resolve(drives, users())
	require.Len(t, out, 3)
	for _, d := range out {
		v, ok := d.Get("students")
		require.True(t, ok, "field present even when empty")
		assert.Empty(t, v)
	}
}

// =============================================================================
// SCALAR LOCAL FIELD
// =============================================================================

func TestLookup_ScalarLocal_AllMatchesInTargetOrder(t *testing.T) {
	topics := []engine.Document{{"_id": 1.0, "topic": "HTML"}, {"_id": 2.0, "topic": "CSS"}}
	tasks := []engine.Document{
		{"_id": 100.0, "topic_id": 1.0, "task_name": "first"},
		{"_id": 101.0, "topic_id": 2.0, "task_name": "other"},
		{"_id": 102.0, "topic_id": int32(1), "task_name": "second"},
	}
	l := engine.Lookup{From: "tasks", LocalField: "_id", ForeignField: "topic_id", As: "tasks"}

	out := l.Resolve(topics, tasks)

	first := out[0].Docs("tasks")
	require.Len(t, first, 2)
	assert.Equal(t, "first", first[0].String("task_name"))
	assert.Equal(t, "second", first[1].String("task_name"))
	assert.Len(t, out[1].Docs("tasks"), 1)
}

func TestLookup_Fields_LimitsAttachedFields(t *testing.T) {
	drives := []engine.Document{{"students_attended": []any{1.0}}}
	l := engine.Lookup{
		From: "users", LocalField: "students_attended", ForeignField: "_id", As: "students",
		Fields: []string{"name"},
	}

	students := l.Resolve(drives, users())[0].Docs("students")
	require.Len(t, students, 1)
	assert.Equal(t, engine.Document{"name": "Alice"}, students[0])
}

// =============================================================================
// SINGLE
// =============================================================================

func TestLookup_Single_AttachesFirstOrLeavesAbsent(t *testing.T) {
	groups := []engine.Document{
		{"_id": 2.0, "problems_solved": 5},
		{"_id": 77.0, "problems_solved": 3},
	}
	l := engine.Lookup{From: "users", LocalField: "_id", ForeignField: "_id", As: "user", Single: true}

	out := l.Resolve(groups, users())
	require.Len(t, out, 2, "unmatched parents are kept")

	assert.Equal(t, "Bob", out[0].String("user.name"))

	_, ok := out[1].Get("user")
	assert.False(t, ok)
}

func TestLookup_DoesNotMutateInputs(t *testing.T) {
	drives := []engine.Document{{"_id": 10.0, "students_attended": []any{1.0}}}
	targets := users()
	l := engine.Lookup{From: "users", LocalField: "students_attended", ForeignField: "_id", As: "students"}

	l.Resolve(drives, targets)

	_, ok := drives[0]["students"]
	assert.False(t, ok)
	assert.Len(t, targets, 3)
}
