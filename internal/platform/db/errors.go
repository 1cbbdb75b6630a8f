package db

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinic/exams/internal/platform/apperr"
)

var errNotConnected = errors.New("database connection not open")

// Classify maps a store error onto an apperr kind. Errors that already
// carry a kind are returned unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Wrap(kindOf(err), op, err)
}

func kindOf(err error) apperr.Kind {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.KindNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "23"):
			return apperr.KindConstraint
		case strings.HasPrefix(pgErr.Code, "08"),
			pgErr.Code == "57P01", // admin_shutdown
			pgErr.Code == "57P03": // cannot_connect_now
			return apperr.KindConnectivity
		}
		return apperr.KindInternal
	}

	if isConnectivity(err) {
		return apperr.KindConnectivity
	}
	return apperr.KindInternal
}

func isConnectivity(err error) bool {
	if errors.Is(err, errNotConnected) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return strings.Contains(err.Error(), "closed pool")
}

// retryable reports whether err happened before the statement reached
// the server, so running it again cannot apply it twice.
func retryable(err error) bool {
	if errors.Is(err, errNotConnected) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	return pgconn.SafeToRetry(err)
}

// ExpectOne turns a write by id that touched no row into a NotFound error.
func ExpectOne(tag pgconn.CommandTag, err error, what string) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("%s not found", what)
	}
	return nil
}
