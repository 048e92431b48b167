package bulk

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/matsen/works/internal/work"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore returns its works in reverse id order to catch callers that
// rely on store ordering.
type fakeStore struct {
	works map[int64]work.Work
	calls [][]int64
	err   error
}

func newFakeStore(ids ...int64) *fakeStore {
	fs := &fakeStore{works: make(map[int64]work.Work)}
	for _, id := range ids {
		fs.works[id] = work.Work{OwnerID: "owner", WorkID: id, Title: fmt.Sprintf("Work %d", id)}
	}
	return fs
}

func (f *fakeStore) FetchByIDs(_ context.Context, _ string, ids []int64) ([]work.Work, error) {
	f.calls = append(f.calls, ids)
	if f.err != nil {
		return nil, f.err
	}
	var out []work.Work
	for i := len(ids) - 1; i >= 0; i-- {
		if w, ok := f.works[ids[i]]; ok {
			out = append(out, w)
		}
	}
	return out, nil
}

func resolvedIDs(res *Result) []int64 {
	ids := make([]int64, len(res.Resolved))
	for i, w := range res.Resolved {
		ids[i] = w.WorkID
	}
	return ids
}

func TestResolve_PreservesRequestOrder(t *testing.T) {
	store := newFakeStore(3, 5)
	a := NewAssembler(store, zerolog.Nop())

	res, err := a.ResolveIDs(context.Background(), "owner", []int64{5, 3, 9})
	require.NoError(t, err)

	assert.Equal(t, []int64{5, 3}, resolvedIDs(res))
	assert.Equal(t, []int64{9}, res.Missing)
	assert.Empty(t, res.Malformed)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 2, res.Failures[0].Position)

	var nf *NotFoundError
	require.ErrorAs(t, res.Failures[0].Err, &nf)
	assert.Equal(t, int64(9), nf.ID)
}

func TestResolve_Duplicates(t *testing.T) {
	store := newFakeStore(1, 2)
	a := NewAssembler(store, zerolog.Nop())

	res, err := a.Resolve(context.Background(), "owner", []string{"2", "1", "2", "7", "7"})
	require.NoError(t, err)

	assert.Equal(t, []int64{2, 1, 2}, resolvedIDs(res))
	assert.Equal(t, []int64{7}, res.Missing)
	assert.Len(t, res.Failures, 2, "each missing position fails")

	require.Len(t, store.calls, 1)
	assert.Equal(t, []int64{2, 1, 7}, store.calls[0], "each id fetched once")
}

func TestResolve_Malformed(t *testing.T) {
	store := newFakeStore(4)
	a := NewAssembler(store, zerolog.Nop())

	res, err := a.Resolve(context.Background(), "owner", []string{"abc", "4", "-1", "0", "", "99999999999999999999", "1.5"})
	require.NoError(t, err)

	assert.Equal(t, []int64{4}, resolvedIDs(res))
	assert.Equal(t, []string{"abc", "-1", "0", "", "99999999999999999999", "1.5"}, res.Malformed)
	assert.Empty(t, res.Missing)

	positions := make([]int, len(res.Failures))
	for i, f := range res.Failures {
		positions[i] = f.Position
		assert.True(t, IsMalformed(f.Err), "position %d", f.Position)
		assert.NotEmpty(t, f.Message)
	}
	assert.Equal(t, []int{0, 2, 3, 4, 5, 6}, positions)
}

func TestResolve_AllMalformedSkipsStore(t *testing.T) {
	store := newFakeStore(1)
	a := NewAssembler(store, zerolog.Nop())

	res, err := a.Resolve(context.Background(), "owner", []string{"x", "y"})
	require.NoError(t, err)
	assert.Empty(t, res.Resolved)
	assert.Empty(t, store.calls)
}

func TestResolve_Empty(t *testing.T) {
	a := NewAssembler(newFakeStore(), zerolog.Nop())

	res, err := a.Resolve(context.Background(), "owner", nil)
	require.NoError(t, err)
	assert.NotNil(t, res.Resolved)
	assert.Empty(t, res.Resolved)
	assert.Empty(t, res.Failures)
}

func TestResolve_TooMany(t *testing.T) {
	a := NewAssembler(newFakeStore(), zerolog.Nop())

	ids := make([]int64, MaxBulkSize+1)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	_, err := a.ResolveIDs(context.Background(), "owner", ids)
	assert.ErrorIs(t, err, ErrTooManyRequested)

	_, err = a.ResolveIDs(context.Background(), "owner", ids[:MaxBulkSize])
	assert.NoError(t, err)
}

func TestResolve_StoreError(t *testing.T) {
	store := newFakeStore(1)
	store.err = errors.New("connection reset")
	a := NewAssembler(store, zerolog.Nop())

	_, err := a.Resolve(context.Background(), "owner", []string{"1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.err)
}

func TestParseList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"5", []string{"5"}},
		{"5,3, 9", []string{"5", "3", "9"}},
		{"5,,3", []string{"5", "", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseList(tt.in))
		})
	}
}

func TestParseID(t *testing.T) {
	id, err := ParseID(" 0042 ")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "+1", "-1", "0", "1e3", "9223372036854775808"} {
		_, err := ParseID(bad)
		assert.True(t, IsMalformed(err), "input %q", bad)
	}
}
