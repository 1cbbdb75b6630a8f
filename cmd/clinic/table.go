package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const dateTimeLayout = "2006-01-02 15:04"

// table prints aligned plain-text columns.
type table struct {
	tw *tabwriter.Writer
}

func newTable(w io.Writer, headers ...string) *table {
	t := &table{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
	cols := make([]interface{}, len(headers))
	for i, h := range headers {
		cols[i] = h
	}
	t.row(cols...)
	return t
}

func (t *table) row(cols ...interface{}) {
	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = cell(c)
	}
	fmt.Fprintln(t.tw, strings.Join(cells, "\t"))
}

func (t *table) flush() error {
	return t.tw.Flush()
}

func cell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case int:
		return strconv.Itoa(x)
	case *int:
		if x == nil {
			return ""
		}
		return strconv.Itoa(*x)
	case *bool:
		if x == nil {
			return "-"
		}
		if *x {
			return "yes"
		}
		return "no"
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Local().Format(dateTimeLayout)
	case *time.Time:
		if x == nil {
			return ""
		}
		return cell(*x)
	case pgtype.Date:
		if !x.Valid {
			return ""
		}
		return x.Time.Format(time.DateOnly)
	case uuid.UUID:
		return x.String()
	case *uuid.UUID:
		if x == nil {
			return ""
		}
		return x.String()
	}
	return fmt.Sprint(v)
}
