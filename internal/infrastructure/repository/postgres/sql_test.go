package postgres

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
)

func TestUniqueViolation(t *testing.T) {
	t.Run("matches wrapped 23505", func(t *testing.T) {
		err := fmt.Errorf("insert prediction: %w", &pq.Error{Code: "23505", Constraint: "predictions_user_match_group_key"})
		constraint, ok := uniqueViolation(err)
		if !ok {
			t.Fatalf("expected unique violation")
		}
		if constraint != "predictions_user_match_group_key" {
			t.Fatalf("unexpected constraint %q", constraint)
		}
	})

	t.Run("ignores other pq codes", func(t *testing.T) {
		if _, ok := uniqueViolation(&pq.Error{Code: "23503"}); ok {
			t.Fatalf("foreign key violation must not match")
		}
	})

	t.Run("ignores plain errors", func(t *testing.T) {
		if _, ok := uniqueViolation(fakeErr("duplicate key value violates unique constraint")); ok {
			t.Fatalf("plain error must not match")
		}
	})
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("get: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped sql.ErrNoRows to match")
	}
	if isNotFound(fakeErr("boom")) {
		t.Fatalf("unexpected match")
	}
}

func TestNullableConversions(t *testing.T) {
	if nullableString("") != nil {
		t.Fatalf("empty string should be null")
	}
	if got := nullableString("x"); got == nil || *got != "x" {
		t.Fatalf("unexpected value %v", got)
	}

	three := 3
	if got := nullInt64ToIntPtr(intPtrToNullInt64(&three)); got == nil || *got != 3 {
		t.Fatalf("int round trip failed: %v", got)
	}
	if got := nullInt64ToIntPtr(intPtrToNullInt64(nil)); got != nil {
		t.Fatalf("nil round trip failed: %v", *got)
	}

	local := time.Date(2026, 6, 11, 21, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	if got := utcTimePtr(&local); got.Location() != time.UTC || !got.Equal(local) {
		t.Fatalf("unexpected utc conversion %v", got)
	}
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
