package orders

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("unique violation not detected")
	}
	if !isUniqueViolation(fmt.Errorf("insert order: %w", &pgconn.PgError{Code: "23505"})) {
		t.Fatal("wrapped unique violation not detected")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign key violation misclassified as unique violation")
	}
	if isUniqueViolation(errors.New("connection reset")) {
		t.Fatal("plain error misclassified as unique violation")
	}
	if isUniqueViolation(nil) {
		t.Fatal("nil error misclassified as unique violation")
	}
}
