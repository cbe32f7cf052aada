package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "ASC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "DESC" {
		return "DESC"
	}
	return "ASC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
// Caller-supplied sort fields are interpolated into ORDER BY clauses, so they
// must never reach the database unchecked.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// StockLevelSortFields contains allowed sort fields for stock levels
var StockLevelSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"product_id":        true,
	"location_id":       true,
	"quantity":          true,
	"reserved_quantity": true,
	"reorder_point":     true,
	"version":           true,
}

// InventoryEventSortFields contains allowed sort fields for inventory events
var InventoryEventSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"occurred_at":     true,
	"event_type":      true,
	"quantity_delta":  true,
	"running_balance": true,
	"reference_type":  true,
	"reference_id":    true,
}

// BatchSortFields contains allowed sort fields for stock batches
var BatchSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"updated_at":         true,
	"batch_number":       true,
	"quantity":           true,
	"expiry_date":        true,
	"manufacturing_date": true,
	"status":             true,
}
