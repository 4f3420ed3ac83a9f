package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/funding-cli/internal/model"
)

func TestCollect_PreservesSourceOrder(t *testing.T) {
	a := stubSource{name: "A", companies: []model.Company{{Name: "a1"}, {Name: "a2"}}}
	b := stubSource{name: "B", companies: []model.Company{{Name: "b1"}}}

	all, results := Collect(context.Background(), a, b)

	require.Len(t, all, 3)
	assert.Equal(t, []string{"a1", "a2", "b1"}, []string{all[0].Name, all[1].Name, all[2].Name})
	require.Len(t, results, 2)
	assert.Equal(t, "A", results[0].Source)
	assert.Equal(t, "B", results[1].Source)
	assert.NoError(t, results[0].Err)
}

func TestCollect_FailedSourceContributesNothing(t *testing.T) {
	ok := stubSource{name: "ok", companies: []model.Company{{Name: "Acme"}}}
	bad := stubSource{name: "bad", err: errors.New("boom")}

	all, results := Collect(context.Background(), bad, ok)

	require.Len(t, all, 1)
	assert.Equal(t, "Acme", all[0].Name)
	assert.EqualError(t, results[0].Err, "boom")
	assert.Empty(t, results[0].Companies)
	assert.NoError(t, results[1].Err)
}

func TestCollect_KeepsPartialRecords(t *testing.T) {
	partial := stubSource{name: "partial", companies: []model.Company{{Name: "Kept"}}, err: errors.New("page 2 failed")}

	all, results := Collect(context.Background(), partial)

	require.Len(t, all, 1)
	assert.Error(t, results[0].Err)
}

func TestCollect_NoSources(t *testing.T) {
	all, results := Collect(context.Background())
	assert.Empty(t, all)
	assert.Empty(t, results)
}

func TestNewLimiter(t *testing.T) {
	lim := newLimiter(0)
	for range 5 {
		assert.True(t, lim.Allow())
	}

	lim = newLimiter(time.Hour)
	assert.True(t, lim.Allow())
	assert.False(t, lim.Allow())
}
