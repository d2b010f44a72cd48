package factory_test

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zenclass/zenreport/factory"
)

func TestLoadSeedFS_ReadsEachCollection(t *testing.T) {
	fsys := fstest.MapFS{
		"users.json":   {Data: []byte(`[{"_id": 1, "name": "Alice"}, {"_id": 2, "name": "Bob"}]`)},
		"mentors.json": {Data: []byte(`[]`)},
	}

	seed, err := factory.LoadSeedFS(fsys, []string{"users", "mentors", "tasks"})
	require.NoError(t, err)

	require.Len(t, seed["users"], 2)
	assert.Equal(t, 1.0, seed["users"][0].ID())
	assert.Equal(t, "Bob", seed["users"][1].String("name"))
	assert.Empty(t, seed["mentors"])

	tasks, ok := seed["tasks"]
	assert.True(t, ok, "a missing file is an empty collection")
	assert.Empty(t, tasks)
}

func TestLoadSeedFS_MalformedFileNamed(t *testing.T) {
	fsys := fstest.MapFS{"topics.json": {Data: []byte(`{"_id": 1}`)}}

	_, err := factory.LoadSeedFS(fsys, []string{"topics"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "topics.json")
}

func TestParseRecords(t *testing.T) {
	docs, err := factory.ParseRecords(strings.NewReader(`[{"mentees": [1, 2], "extra": {"nested": true}}]`))
	require.NoError(t, err)
	require.Len(t, docs, 1)

	mentees, ok := docs[0].Array("mentees")
	require.True(t, ok)
	assert.Equal(t, []any{1.0, 2.0}, mentees)

	nested, ok := docs[0].Bool("extra.nested")
	assert.True(t, ok)
	assert.True(t, nested)
}

func TestParseRecords_NullRecordRejected(t *testing.T) {
	_, err := factory.ParseRecords(strings.NewReader(`[{"_id": 1}, null]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 1")
}

func TestLoadSeed_SampleData(t *testing.T) {
	seed, err := factory.LoadSeed("../sample-data", []string{"users", "mentors"})
	require.NoError(t, err)
	assert.NotEmpty(t, seed["users"])
	assert.NotEmpty(t, seed["mentors"])
}
