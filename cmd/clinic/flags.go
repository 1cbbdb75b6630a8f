package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/clinic/exams/internal/platform/apperr"
)

// Optional flags map to nil unless the user set them, so omitted columns
// keep their store defaults.

func optString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func optInt(cmd *cobra.Command, name string) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetInt(name)
	return &v
}

func optBool(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetBool(name)
	return &v
}

func parseUUID(name, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid %s %q", name, s)
	}
	return id, nil
}

func uuidFlag(cmd *cobra.Command, name string) (uuid.UUID, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" {
		return uuid.Nil, apperr.Validation("--%s is required", name)
	}
	return parseUUID(name, s)
}

func optUUID(cmd *cobra.Command, name string) (*uuid.UUID, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	id, err := uuidFlag(cmd, name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// parseDateTime reads "YYYY-MM-DD HH:MM" in local time.
func parseDateTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateTimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid date and time %q, want YYYY-MM-DD HH:MM", s)
	}
	return t, nil
}

func parseDate(name, s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid %s %q, want YYYY-MM-DD", name, s)
	}
	return t, nil
}
