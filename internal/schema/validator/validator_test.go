package validator

import (
	"testing"

	"ecomledger/internal/domain"
)

var validOrderHeader = []string{
	"Reason for Credit Entry", "Sub Order No", "Order Date", "Customer State",
	"Product Name", "SKU", "Size", "Quantity",
	"Supplier Listed Price (Incl. GST + Commission)",
	"Supplier Discounted Price (Incl GST and Commision)", "Packet Id",
}

func TestValidateAcceptsCompleteOrderHeader(t *testing.T) {
	result := Validate(validOrderHeader, domain.RecordTypeOrders)
	if !result.Valid {
		t.Fatalf("expected valid result, got errors: %v", result.Errors)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("did not expect warnings, got %v", result.Warnings)
	}
}

func TestValidateRejectsMissingCriticalColumn(t *testing.T) {
	var header []string
	for _, column := range validOrderHeader {
		if column == "Sub Order No" {
			continue
		}
		header = append(header, column)
	}

	result := Validate(header, domain.RecordTypeOrders)
	if result.Valid {
		t.Fatalf("expected rejection when business order id column is missing")
	}
	if len(result.Errors) == 0 {
		t.Fatalf("expected a non-empty error list")
	}
	if len(result.MissingColumns) != 1 || result.MissingColumns[0] != "sub order no" {
		t.Fatalf("missing columns = %v, want [sub order no]", result.MissingColumns)
	}
}

func TestValidateWarnsOnUnknownColumn(t *testing.T) {
	header := append([]string{}, validOrderHeader...)
	header = append(header, "Mystery Column")

	result := Validate(header, domain.RecordTypeOrders)
	if !result.Valid {
		t.Fatalf("unknown columns must not reject the file, errors: %v", result.Errors)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", result.Warnings)
	}
	if len(result.UnknownColumns) != 1 || result.UnknownColumns[0] != "Mystery Column" {
		t.Fatalf("unknown columns = %v, want [Mystery Column]", result.UnknownColumns)
	}
}

func TestValidateIsCaseAndWhitespaceInsensitive(t *testing.T) {
	header := []string{
		"  SUB ORDER NO ", "sku", "QUANTITY", "Order   Date",
	}
	result := Validate(header, domain.RecordTypeOrders)
	if !result.Valid {
		t.Fatalf("expected case-insensitive match to pass, errors: %v", result.Errors)
	}
}

func TestValidatePaymentsCriticalColumns(t *testing.T) {
	result := Validate([]string{"Sub Order No", "Live Order Status"}, domain.RecordTypePayments)
	if result.Valid {
		t.Fatalf("expected rejection without final settlement amount")
	}
	if len(result.MissingColumns) != 1 || result.MissingColumns[0] != "final settlement amount" {
		t.Fatalf("missing columns = %v, want [final settlement amount]", result.MissingColumns)
	}
}
