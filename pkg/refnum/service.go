// Package refnum generates unique, human-readable transaction reference
// numbers of the form PREFIX-YYYYMMDD-NNNN (e.g. OUT-20260829-0007).
// Numbers are sortable by date and sequence within a day.
package refnum

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// DefaultPadWidth is the minimum sequence width in the formatted number.
const DefaultPadWidth = 4

// Generator produces the next reference for a transaction type prefix and
// business date. Uniqueness is ultimately enforced by the storage layer's
// unique constraint; callers must tolerate a collision by regenerating.
type Generator interface {
	Next(ctx context.Context, prefix string, date time.Time) (string, error)
}

// Querier is the minimal database surface the generator needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service allocates sequence numbers from the sys_sequences table with an
// UPSERT + RETURNING, so every call gets a distinct value even under
// concurrent commits.
type Service struct {
	querier  Querier
	padWidth int
}

// New creates a reference number service.
func New(querier Querier) *Service {
	return &Service{
		querier:  querier,
		padWidth: DefaultPadWidth,
	}
}

// Next implements Generator.
func (s *Service) Next(ctx context.Context, prefix string, date time.Time) (string, error) {
	if s == nil || s.querier == nil {
		return "", fmt.Errorf("refnum service is not initialized")
	}

	key := buildKey(prefix, date)

	var num int64
	err := s.querier.QueryRow(ctx, `
        INSERT INTO sys_sequences (key, current_val)
        VALUES ($1, 1)
        ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
        RETURNING current_val
	`, key).Scan(&num)
	if err != nil {
		return "", fmt.Errorf("next sequence for %s: %w", key, err)
	}

	return Format(prefix, date, num, s.padWidth), nil
}

// buildKey scopes the sequence per prefix per day.
func buildKey(prefix string, date time.Time) string {
	return fmt.Sprintf("%s_%s", prefix, date.Format("20060102"))
}

// Format renders a reference number.
func Format(prefix string, date time.Time, num int64, padWidth int) string {
	if padWidth <= 0 {
		padWidth = DefaultPadWidth
	}
	return fmt.Sprintf("%s-%s-%0*d", prefix, date.Format("20060102"), padWidth, num)
}

// Parse extracts the sequence part from a formatted reference.
// Returns -1 if parsing fails.
func Parse(formatted string) int64 {
	sep := strings.LastIndexByte(formatted, '-')
	if sep < 0 || sep == len(formatted)-1 {
		return -1
	}
	num, err := strconv.ParseInt(formatted[sep+1:], 10, 64)
	if err != nil {
		return -1
	}
	return num
}
