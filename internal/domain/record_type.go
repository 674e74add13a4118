package domain

import (
	"fmt"
	"strings"
)

// RecordType discriminates the two upload sources.
type RecordType string

const (
	RecordTypeOrders   RecordType = "ORDERS"
	RecordTypePayments RecordType = "PAYMENTS"
)

// ParseRecordType maps a request discriminator onto a RecordType.
func ParseRecordType(raw string) (RecordType, error) {
	switch RecordType(strings.ToUpper(strings.TrimSpace(raw))) {
	case RecordTypeOrders:
		return RecordTypeOrders, nil
	case RecordTypePayments:
		return RecordTypePayments, nil
	default:
		return "", fmt.Errorf("unknown record type %q", raw)
	}
}

// BatchPrefix returns the batch id prefix for the record type.
func (rt RecordType) BatchPrefix() string {
	if rt == RecordTypePayments {
		return "PAY"
	}
	return "ORD"
}
