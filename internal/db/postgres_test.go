package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Error("23505 not classified as unique violation")
	}
	if !IsUniqueViolation(fmt.Errorf("insert alert: %w", &pgconn.PgError{Code: "23505"})) {
		t.Error("wrapped unique violation not classified")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("foreign key violation misclassified")
	}
	if IsUniqueViolation(errors.New("network down")) {
		t.Error("plain error misclassified")
	}
	if IsUniqueViolation(nil) {
		t.Error("nil misclassified")
	}
}

func TestIsSerializationFailure(t *testing.T) {
	for _, code := range []string{"40001", "40P01"} {
		if !IsSerializationFailure(&pgconn.PgError{Code: code}) {
			t.Errorf("%s not classified as serialization failure", code)
		}
	}
	if IsSerializationFailure(&pgconn.PgError{Code: "23505"}) {
		t.Error("unique violation misclassified as serialization failure")
	}
	if IsSerializationFailure(nil) {
		t.Error("nil misclassified")
	}
}
