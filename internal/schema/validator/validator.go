// Package validator checks uploaded file headers against the expected column
// specification for each record type before any row is staged.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"ecomledger/internal/domain"
)

// expectedOrderColumns is the full set of columns an orders export carries.
var expectedOrderColumns = toSet([]string{
	"reason for credit entry", "sub order no", "order date", "customer state",
	"product name", "sku", "size", "quantity",
	"supplier listed price (incl. gst + commission)",
	"supplier discounted price (incl gst and commision)", "packet id",
})

// expectedPaymentColumns is the full set of columns a payments export carries.
var expectedPaymentColumns = toSet([]string{
	"sub order no", "order date", "dispatch date", "product name", "supplier sku",
	"live order status", "product gst %", "listing price (incl. taxes)", "quantity",
	"transaction id", "payment date", "final settlement amount", "price type",
	"total sale amount (incl. shipping & gst)", "total sale return amount (incl. shipping & gst)",
	"fixed fee (incl. gst)", "warehousing fee (incl. gst)", "return premium (incl. gst)",
	"return premium (incl. gst) of return", "meesho commission percentage",
	"meesho commission (incl. gst)", "meesho gold platform fee (incl. gst)",
	"meesho mall platform fee (incl. gst)", "return shipping charge (incl. gst)",
	"gst compensation (prp shipping)", "shipping charge (incl. gst)",
	"other support service charges (excl. gst)", "waivers (excl. gst)",
	"net other support service charges (excl. gst)", "gst on net other support service charges",
	"tcs", "tds rate %", "tds", "compensation", "compensation reason", "claims",
	"claims reason", "recovery", "recovery reason",
})

// criticalOrderColumns must all be present or the whole file is rejected.
var criticalOrderColumns = []string{"sub order no", "sku", "quantity", "order date"}

var criticalPaymentColumns = []string{"sub order no", "live order status", "final settlement amount"}

// Result reports the outcome of validating a file's header row.
type Result struct {
	Valid          bool     `json:"valid"`
	MissingColumns []string `json:"missingColumns"`
	UnknownColumns []string `json:"unknownColumns"`
	Warnings       []string `json:"warnings"`
	Errors         []string `json:"errors"`
}

// Validate compares the observed column names against the expected and
// critical sets for the record type. Matching is case and whitespace
// insensitive. Unknown columns only warn; a missing critical column rejects
// the file.
func Validate(columns []string, rt domain.RecordType) Result {
	expected := expectedOrderColumns
	critical := criticalOrderColumns
	if rt == domain.RecordTypePayments {
		expected = expectedPaymentColumns
		critical = criticalPaymentColumns
	}

	observed := make(map[string]struct{}, len(columns))
	result := Result{
		MissingColumns: []string{},
		UnknownColumns: []string{},
		Warnings:       []string{},
		Errors:         []string{},
	}

	for _, column := range columns {
		normalized := normalize(column)
		if normalized == "" {
			continue
		}
		observed[normalized] = struct{}{}
		if _, ok := expected[normalized]; !ok {
			result.UnknownColumns = append(result.UnknownColumns, strings.TrimSpace(column))
			result.Warnings = append(result.Warnings, fmt.Sprintf("unknown column detected: %s", strings.TrimSpace(column)))
		}
	}

	for _, column := range critical {
		if _, ok := observed[column]; !ok {
			result.MissingColumns = append(result.MissingColumns, column)
			result.Errors = append(result.Errors, fmt.Sprintf("missing critical column: %s", column))
		}
	}

	sort.Strings(result.MissingColumns)
	result.Valid = len(result.Errors) == 0
	return result
}

func normalize(column string) string {
	return strings.ToLower(strings.Join(strings.Fields(column), " "))
}

func toSet(columns []string) map[string]struct{} {
	set := make(map[string]struct{}, len(columns))
	for _, column := range columns {
		set[normalize(column)] = struct{}{}
	}
	return set
}

// ExpectedColumns returns the expected column set for a record type, used by
// the ingestion orchestrator's header row discovery.
func ExpectedColumns(rt domain.RecordType) map[string]struct{} {
	if rt == domain.RecordTypePayments {
		return expectedPaymentColumns
	}
	return expectedOrderColumns
}
