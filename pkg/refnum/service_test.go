package refnum

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	val int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.val
	return nil
}

// fakeQuerier hands out sequential values per key, mimicking the
// UPSERT + RETURNING behavior of sys_sequences.
type fakeQuerier struct {
	counters map[string]int64
	err      error
}

func (q *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if q.err != nil {
		return fakeRow{err: q.err}
	}
	if q.counters == nil {
		q.counters = make(map[string]int64)
	}
	key := args[0].(string)
	q.counters[key]++
	return fakeRow{val: q.counters[key]}
}

func TestFormat(t *testing.T) {
	date := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "IN-20260829-0007", Format("IN", date, 7, 4))
	assert.Equal(t, "OUT-20260829-0042", Format("OUT", date, 42, 4))
	assert.Equal(t, "RETURN_IN-20260829-0001", Format("RETURN_IN", date, 1, 4))

	// Sequences beyond the pad width keep all their digits.
	assert.Equal(t, "IN-20260829-12345", Format("IN", date, 12345, 4))

	// Non-positive pad width falls back to the default.
	assert.Equal(t, "IN-20260829-0003", Format("IN", date, 3, 0))
}

func TestParse(t *testing.T) {
	assert.Equal(t, int64(42), Parse("OUT-20260829-0042"))
	assert.Equal(t, int64(12345), Parse("IN-20260829-12345"))
	assert.Equal(t, int64(1), Parse("RETURN_OUT-20260829-0001"))
	assert.Equal(t, int64(-1), Parse("garbage"))
	assert.Equal(t, int64(-1), Parse(""))
	assert.Equal(t, int64(-1), Parse("IN-20260829-"))
	assert.Equal(t, int64(-1), Parse("IN-20260829-00x7"))
}

func TestParse_RoundTrip(t *testing.T) {
	date := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	for _, num := range []int64{1, 42, 9999, 12345} {
		assert.Equal(t, num, Parse(Format("OUT", date, num, 4)))
	}
}

func TestBuildKey(t *testing.T) {
	date := time.Date(2026, 8, 29, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, "IN_20260829", buildKey("IN", date))
	assert.Equal(t, "OUT_20260829", buildKey("OUT", date))

	nextDay := date.AddDate(0, 0, 1)
	assert.NotEqual(t, buildKey("IN", date), buildKey("IN", nextDay))
}

func TestService_Next(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	svc := New(&fakeQuerier{})

	first, err := svc.Next(ctx, "IN", date)
	require.NoError(t, err)
	assert.Equal(t, "IN-20260829-0001", first)

	second, err := svc.Next(ctx, "IN", date)
	require.NoError(t, err)
	assert.Equal(t, "IN-20260829-0002", second)

	// A different prefix gets its own sequence.
	out, err := svc.Next(ctx, "OUT", date)
	require.NoError(t, err)
	assert.Equal(t, "OUT-20260829-0001", out)

	// So does the same prefix on a different day.
	tomorrow, err := svc.Next(ctx, "IN", date.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, "IN-20260830-0001", tomorrow)
}

func TestService_Next_QueryError(t *testing.T) {
	svc := New(&fakeQuerier{err: errors.New("connection reset")})

	_, err := svc.Next(context.Background(), "IN", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "next sequence")
}

func TestService_Next_Uninitialized(t *testing.T) {
	var svc *Service

	_, err := svc.Next(context.Background(), "IN", time.Now())
	require.Error(t, err)
}

func TestMemoryGenerator_Next(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	gen := NewMemory()

	for i := 1; i <= 3; i++ {
		ref, err := gen.Next(ctx, "ADJUST", date)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("ADJUST-20260829-%04d", i), ref)
	}
}

func TestMemoryGenerator_Concurrent(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	gen := NewMemory()

	const workers = 50
	refs := make(chan string, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ref, err := gen.Next(ctx, "OUT", date)
			assert.NoError(t, err)
			refs <- ref
		}()
	}
	wg.Wait()
	close(refs)

	seen := make(map[string]bool, workers)
	for ref := range refs {
		assert.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}
	assert.Len(t, seen, workers)
}
