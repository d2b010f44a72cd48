package engine_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zenclass/zenreport/engine"
)

func codekata() []engine.Document {
	return []engine.Document{
		{"user_id": 1.0, "problems_solved": 5.0},
		{"user_id": 2.0, "problems_solved": 4.0},
		{"user_id": 1.0, "problems_solved": int32(3)},
		{"user_id": 3.0, "problems_solved": nil},
		{"user_id": 3.0},
	}
}

func TestSumBy_GroupsInDiscoveryOrder(t *testing.T) {
	groups := engine.SumBy(codekata(), "problems_solved", "user_id")
	require.Len(t, groups, 3)

	assert.Equal(t, 1.0, groups[0].Key)
	assert.True(t, decimal.NewFromInt(8).Equal(groups[0].Sum))
	assert.Equal(t, 2, groups[0].Count)

	assert.True(t, decimal.NewFromInt(4).Equal(groups[1].Sum))

	assert.True(t, groups[2].Sum.IsZero(), "null and absent contribute zero")
	assert.Equal(t, 2, groups[2].Count)
}

func TestSumBy_GlobalGroup(t *testing.T) {
	groups := engine.SumBy(codekata(), "problems_solved", "")
	require.Len(t, groups, 1)
	assert.Nil(t, groups[0].Key)
	assert.True(t, decimal.NewFromInt(12).Equal(groups[0].Sum))
}

func TestTotal_EqualsSumOfGroups(t *testing.T) {
	cases := map[string][]engine.Document{
		"populated": codekata(),
		"empty":     nil,
	}
	for name, docs := range cases {
		t.Run(name, func(t *testing.T) {
			sum := decimal.Zero
			for _, g := range engine.SumBy(docs, "problems_solved", "user_id") {
				sum = sum.Add(g.Sum)
			}
			assert.True(t, sum.Equal(engine.Total(docs, "problems_solved")))
		})
	}
}

func TestSumBy_Empty_NoGroups(t *testing.T) {
	assert.Empty(t, engine.SumBy(nil, "problems_solved", "user_id"))
	assert.Empty(t, engine.SumBy(nil, "problems_solved", ""))
	assert.True(t, engine.Total(nil, "problems_solved").IsZero())
}

func TestSizeOf(t *testing.T) {
	assert.Equal(t, 3, engine.SizeOf(engine.Document{"mentees": []any{1, 2, 3}}, "mentees"))
	assert.Equal(t, 0, engine.SizeOf(engine.Document{"mentees": []any{}}, "mentees"))
	assert.Equal(t, 0, engine.SizeOf(engine.Document{}, "mentees"))
	assert.Equal(t, 0, engine.SizeOf(engine.Document{"mentees": "many"}, "mentees"))
}

func TestExceeds_IsStrict(t *testing.T) {
	fifteen := decimal.NewFromInt(15)
	assert.False(t, engine.Exceeds(fifteen, fifteen))
	assert.True(t, engine.Exceeds(decimal.NewFromInt(16), fifteen))
}
