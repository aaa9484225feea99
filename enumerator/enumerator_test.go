package enumerator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TykTechnologies/keyscope/connector"
	"github.com/TykTechnologies/keyscope/internal/testutil"
	"github.com/TykTechnologies/keyscope/keyerr"
	"github.com/TykTechnologies/keyscope/model"
)

func TestEnumerator_PagedScan(t *testing.T) {
	ctx := context.Background()
	conn := &testutil.FakeConn{Batches: []testutil.Batch{
		{Keys: []string{"a", "b"}, Next: "5"},
		{Keys: []string{"c"}, Next: "0"},
	}}
	e := New(conn, model.WithPageSize(50))

	assert.Equal(t, Idle, e.State())

	page, err := e.StartScan(ctx, "*", true)
	require.NoError(t, err)
	assert.Equal(t, Page{Keys: []string{"a", "b"}, State: HasMore}, page)
	assert.Equal(t, HasMore, e.State())
	assert.Equal(t, model.Cursor("5"), e.Cursor())

	page, err = e.NextPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, Page{Keys: []string{"c"}, State: Exhausted}, page)
	assert.Equal(t, Exhausted, e.State())

	assert.Equal(t, 2, conn.ScanCalls)
	assert.Equal(t, []model.Cursor{model.StartCursor, "5"}, conn.Cursors)
	assert.Equal(t, []int64{50, 50}, conn.Counts)

	_, err = e.NextPage(ctx)
	var pe *keyerr.ProtocolError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "Exhausted", pe.State)
	assert.ErrorIs(t, err, keyerr.ErrIllegalState)
	assert.Equal(t, 2, conn.ScanCalls, "no call may be issued after exhaustion")
}

func TestEnumerator_UnpagedScan(t *testing.T) {
	conn := &testutil.FakeConn{KeysList: []string{"user:1", "user:2", "user:3"}}
	e := New(conn)

	page, err := e.StartScan(context.Background(), "user:*", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"user:1", "user:2", "user:3"}, page.Keys)
	assert.Equal(t, Exhausted, e.State())
	assert.True(t, e.Cursor().IsStart(), "no cursor is stored")
	assert.Equal(t, 1, conn.KeysCalls)
	assert.Zero(t, conn.ScanCalls)
}

func TestEnumerator_NextPageOutsideHasMore(t *testing.T) {
	conn := &testutil.FakeConn{}
	e := New(conn)

	_, err := e.NextPage(context.Background())
	var pe *keyerr.ProtocolError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "Idle", pe.State)
	assert.Zero(t, conn.ScanCalls)
}

func TestEnumerator_StartScanResets(t *testing.T) {
	ctx := context.Background()
	conn := &testutil.FakeConn{Batches: []testutil.Batch{
		{Keys: []string{"a"}, Next: "7"},
		{Keys: []string{"b"}, Next: "9"},
	}}
	e := New(conn)

	_, err := e.StartScan(ctx, "a*", true)
	require.NoError(t, err)

	_, err = e.StartScan(ctx, "b*", true)
	require.NoError(t, err)

	// the second scan starts from scratch, never from the first cursor
	assert.Equal(t, []model.Cursor{model.StartCursor, model.StartCursor}, conn.Cursors)
	assert.Equal(t, "b*", e.Pattern())
	assert.True(t, e.Paginated())

	e.Reset()
	assert.Equal(t, Idle, e.State())
	assert.True(t, e.Cursor().IsStart())
	assert.Empty(t, e.Pattern())
}

func TestEnumerator_EmptyPattern(t *testing.T) {
	conn := &testutil.FakeConn{}
	e := New(conn)

	_, err := e.StartScan(context.Background(), "", true)
	assert.ErrorIs(t, err, keyerr.ErrPatternEmpty)
	assert.Equal(t, Idle, e.State())
	assert.Zero(t, conn.ScanCalls)
	assert.Zero(t, conn.KeysCalls)
}

func TestEnumerator_Failures(t *testing.T) {
	ctx := context.Background()
	errBoom := &keyerr.ConnectionError{Cause: errors.New("boom")}

	conn := &testutil.FakeConn{Batches: []testutil.Batch{{Err: errBoom}}}
	e := New(conn)

	_, err := e.StartScan(ctx, "*", true)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, Idle, e.State())

	conn = &testutil.FakeConn{Batches: []testutil.Batch{
		{Keys: []string{"a"}, Next: "3"},
		{Err: errBoom},
		{Keys: []string{"b"}, Next: "0"},
	}}
	e = New(conn)

	_, err = e.StartScan(ctx, "*", true)
	require.NoError(t, err)

	_, err = e.NextPage(ctx)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, HasMore, e.State())
	assert.Equal(t, model.Cursor("3"), e.Cursor())

	page, err := e.NextPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, Exhausted, page.State)
	assert.Equal(t, []model.Cursor{model.StartCursor, "3", "3"}, conn.Cursors)

	conn = &testutil.FakeConn{KeysErr: errBoom}
	e = New(conn)

	_, err = e.StartScan(ctx, "*", false)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, Idle, e.State())
}

func TestEnumerator_DuplicatesSurfaced(t *testing.T) {
	ctx := context.Background()
	conn := &testutil.FakeConn{Batches: []testutil.Batch{
		{Keys: []string{"a", "b"}, Next: "1"},
		{Keys: []string{"b", "c"}, Next: "0"},
	}}
	e := New(conn)

	first, err := e.StartScan(ctx, "*", true)
	require.NoError(t, err)
	second, err := e.NextPage(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "b", "c"}, append(first.Keys, second.Keys...))
}

func TestEnumerator_LocalStore(t *testing.T) {
	ctx := context.Background()
	store := connector.NewLocalStore()
	for _, k := range []string{"user:1", "user:2", "user:3", "order:1", "order:2"} {
		require.NoError(t, store.Put(k, model.KeyTypeString, "v", 0))
	}

	conn, err := connector.NewLocalDialer(store).Dial(ctx, model.Descriptor{})
	require.NoError(t, err)

	e := New(conn, model.WithPageSize(2))

	page, err := e.StartScan(ctx, "user:*", true)
	require.NoError(t, err)

	var keys []string
	keys = append(keys, page.Keys...)

	for e.State() == HasMore {
		page, err = e.NextPage(ctx)
		require.NoError(t, err)
		keys = append(keys, page.Keys...)
	}

	assert.Equal(t, []string{"user:1", "user:2", "user:3"}, keys)
	assert.Equal(t, Exhausted, e.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "Idle", Idle.String())
	assert.Equal(t, "Scanning", Scanning.String())
	assert.Equal(t, "HasMore", HasMore.String())
	assert.Equal(t, "Exhausted", Exhausted.String())
	assert.Equal(t, "Unknown", State(42).String())
}
