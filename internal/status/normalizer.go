// Package status maps the status strings found in marketplace export files
// onto a fixed canonical vocabulary.
package status

import "strings"

// Canonical status vocabulary.
const (
	Pending     = "PENDING"
	Shipped     = "SHIPPED"
	Delivered   = "DELIVERED"
	Cancelled   = "CANCELLED"
	RTOComplete = "RTO_COMPLETE"
	Returned    = "RETURNED"
	Refunded    = "REFUNDED"
	Exchange    = "EXCHANGE"
	Unknown     = "UNKNOWN"
)

// synonyms covers the casing variants and abbreviations seen in real export
// files. Keys are matched exactly first, then case-insensitively.
var synonyms = map[string]string{
	"DELIVERED": Delivered,
	"delivered": Delivered,
	"Delivered": Delivered,

	"SHIPPED": Shipped,
	"shipped": Shipped,
	"Shipped": Shipped,

	"PENDING": Pending,
	"pending": Pending,
	"Pending": Pending,

	"CANCELLED": Cancelled,
	"cancelled": Cancelled,
	"Cancelled": Cancelled,
	"CANCEL":    Cancelled,
	"cancel":    Cancelled,

	"RTO_COMPLETE": RTOComplete,
	"rto_complete": RTOComplete,
	"RTO Complete": RTOComplete,
	"RTO":          RTOComplete,
	"rto":          RTOComplete,

	"RETURNED": Returned,
	"returned": Returned,
	"Returned": Returned,
	"RETURN":   Returned,
	"return":   Returned,

	"REFUNDED": Refunded,
	"refunded": Refunded,
	"Refunded": Refunded,
	"REFUND":   Refunded,
	"refund":   Refunded,

	"EXCHANGE": Exchange,
	"exchange": Exchange,
	"Exchange": Exchange,

	"IN_TRANSIT": Shipped,
	"in_transit": Shipped,
	"In Transit": Shipped,
	"IN TRANSIT": Shipped,

	"OUT_FOR_DELIVERY": Shipped,
	"out_for_delivery": Shipped,
	"Out For Delivery": Shipped,
	"OUT FOR DELIVERY": Shipped,

	"PROCESSING": Pending,
	"processing": Pending,
	"Processing": Pending,

	"CONFIRMED": Pending,
	"confirmed": Pending,
	"Confirmed": Pending,
}

// substringRules are checked in order against the upper-cased input after the
// synonym table misses. The ordering matters: RTO before RETURN would otherwise
// never fire, and substring checks must never mask an exact synonym.
var substringRules = []struct {
	needles []string
	result  string
}{
	{[]string{"DELIVER"}, Delivered},
	{[]string{"SHIP", "TRANSIT"}, Shipped},
	{[]string{"PEND", "PROCESS", "CONFIRM"}, Pending},
	{[]string{"CANCEL"}, Cancelled},
	{[]string{"RTO"}, RTOComplete},
	{[]string{"RETURN"}, Returned},
	{[]string{"REFUND"}, Refunded},
	{[]string{"EXCHANGE"}, Exchange},
}

// Normalize maps an arbitrary status string onto the canonical vocabulary.
// Blank input yields UNKNOWN.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Unknown
	}

	if mapped, ok := synonyms[trimmed]; ok {
		return mapped
	}

	for key, mapped := range synonyms {
		if strings.EqualFold(key, trimmed) {
			return mapped
		}
	}

	upper := strings.ToUpper(trimmed)
	for _, rule := range substringRules {
		for _, needle := range rule.needles {
			if strings.Contains(upper, needle) {
				return rule.result
			}
		}
	}

	return Unknown
}

// All returns the canonical vocabulary.
func All() []string {
	return []string{Pending, Shipped, Delivered, Cancelled, RTOComplete, Returned, Refunded, Exchange, Unknown}
}
