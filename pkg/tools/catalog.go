package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{"type": "object"}
	if len(properties) > 0 {
		schema["properties"] = properties
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func budgetOnly(description string) map[string]any {
	return objectSchema(map[string]any{
		"budget_id": prop("string", description),
	}, "budget_id")
}

func budgetID() map[string]any { return prop("string", "The budget ID") }

// Catalog returns the tool descriptors in declaration order: read tools
// first, then write tools. Each call builds a fresh copy.
func Catalog() []Descriptor {
	return []Descriptor{
		{
			Name:        "list_budgets",
			Description: "List all YNAB budgets with their names, IDs, and currency format",
			InputSchema: objectSchema(nil),
			Annotations: readOnly,
		},
		{
			Name:        "list_accounts",
			Description: "List all accounts in a budget with name, type, balance, and status",
			InputSchema: budgetOnly("The budget ID to list accounts for"),
			Annotations: readOnly,
		},
		{
			Name:        "list_categories",
			Description: "List all categories grouped by category group, with IDs. Use category IDs when creating or updating transactions.",
			InputSchema: budgetOnly("The budget ID"),
			Annotations: readOnly,
		},
		{
			Name:        "get_budget_summary",
			Description: "Get a budget overview including accounts and category groups with balances",
			InputSchema: budgetOnly("The budget ID"),
			Annotations: readOnly,
		},
		{
			Name:        "list_recent_transactions",
			Description: "List recent transactions with ID, date, payee, category, amount, and memo. Returns transaction IDs needed for update_transaction.",
			InputSchema: objectSchema(map[string]any{
				"budget_id":     budgetID(),
				"account_id":    prop("string", "Optional account ID to filter by"),
				"days":          prop("integer", "Number of days to look back (default: 30)"),
				"category_name": prop("string", "Optional category name to filter by (e.g. 'Uncategorized'). Case-insensitive."),
				"since_date":    prop("string", "Start date in YYYY-MM-DD format. Overrides 'days' when provided."),
				"until_date":    prop("string", "End date in YYYY-MM-DD format. Client-side filter applied after fetching."),
				"approved":      prop("boolean", "Filter by approved status (true/false). Omit to include all."),
			}, "budget_id"),
			Annotations: readOnly,
		},
		{
			Name:        "get_month_summary",
			Description: "Get category breakdown for a specific month with budgeted, activity, and available amounts",
			InputSchema: objectSchema(map[string]any{
				"budget_id": budgetID(),
				"month":     prop("string", "The month in YYYY-MM-DD format (first day of month, e.g. 2025-01-01)"),
			}, "budget_id", "month"),
			Annotations: readOnly,
		},
		{
			Name:        "get_transaction",
			Description: "Get a single transaction with full details including account, payee, category, cleared/approved status, flag, and memo",
			InputSchema: objectSchema(map[string]any{
				"budget_id":      budgetID(),
				"transaction_id": prop("string", "The transaction ID"),
			}, "budget_id", "transaction_id"),
			Annotations: readOnly,
		},
		{
			Name:        "list_payees",
			Description: "List all payees with IDs for consistency review. Transfer payees are marked with (transfer) suffix.",
			InputSchema: budgetOnly("The budget ID"),
			Annotations: readOnly,
		},
		{
			Name:        "get_transactions_by_payee",
			Description: "Get all transactions for a specific payee, with optional date range filtering",
			InputSchema: objectSchema(map[string]any{
				"budget_id":  budgetID(),
				"payee_id":   prop("string", "The payee ID"),
				"since_date": prop("string", "Start date in YYYY-MM-DD format (optional)"),
				"until_date": prop("string", "End date in YYYY-MM-DD format (optional, client-side filter)"),
			}, "budget_id", "payee_id"),
			Annotations: readOnly,
		},
		{
			Name:        "get_transactions_by_category",
			Description: "Get all transactions for a specific category, with optional date range filtering",
			InputSchema: objectSchema(map[string]any{
				"budget_id":   budgetID(),
				"category_id": prop("string", "The category ID"),
				"since_date":  prop("string", "Start date in YYYY-MM-DD format (optional)"),
				"until_date":  prop("string", "End date in YYYY-MM-DD format (optional, client-side filter)"),
			}, "budget_id", "category_id"),
			Annotations: readOnly,
		},
		{
			Name:        "list_scheduled_transactions",
			Description: "List all scheduled/recurring transactions with payee, amount, frequency, next date, account, and category",
			InputSchema: budgetOnly("The budget ID"),
			Annotations: readOnly,
		},

		{
			Name:        "create_transaction",
			Description: "Create a new transaction in YNAB. Amount is in dollars (e.g. -50.00 for an expense, 100.00 for income)",
			InputSchema: objectSchema(map[string]any{
				"budget_id":   budgetID(),
				"account_id":  prop("string", "The account ID to create the transaction in"),
				"date":        prop("string", "Transaction date in YYYY-MM-DD format"),
				"amount":      prop("number", "Amount in dollars (negative for expenses, positive for income)"),
				"payee_name":  prop("string", "Name of the payee"),
				"category_id": prop("string", "Category ID for the transaction"),
				"memo":        prop("string", "Optional memo/note"),
				"cleared":     prop("string", "Cleared status: cleared, uncleared, or reconciled (default: uncleared)"),
			}, "budget_id", "account_id", "date", "amount"),
			Annotations: writeAction,
		},
		{
			Name:        "update_transaction",
			Description: "Update an existing transaction in YNAB. Only provided fields will be changed. Amount is in dollars (e.g. -50.00 for an expense, 100.00 for income)",
			InputSchema: objectSchema(map[string]any{
				"budget_id":      budgetID(),
				"transaction_id": prop("string", "The ID of the transaction to update"),
				"account_id":     prop("string", "The account ID (only if moving the transaction)"),
				"date":           prop("string", "Transaction date in YYYY-MM-DD format"),
				"amount":         prop("number", "Amount in dollars (negative for expenses, positive for income)"),
				"payee_name":     prop("string", "Name of the payee"),
				"category_id":    prop("string", "Category ID for the transaction"),
				"memo":           prop("string", "Memo/note for the transaction"),
				"cleared":        prop("string", "Cleared status: cleared, uncleared, or reconciled"),
				"approved":       prop("boolean", "Whether the transaction is approved"),
				"flag_color":     prop("string", "Flag color: red, orange, yellow, green, blue, purple, or none to remove"),
			}, "budget_id", "transaction_id"),
			Annotations: writeAction,
		},
		{
			Name:        "bulk_update_transactions",
			Description: "Update multiple transactions at once. Provide transaction IDs and the fields to change. All specified transactions will receive the same updates.",
			InputSchema: objectSchema(map[string]any{
				"budget_id": budgetID(),
				"transaction_ids": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Array of transaction IDs to update",
				},
				"category_id": prop("string", "Category ID to set on all transactions"),
				"payee_name":  prop("string", "Payee name to set on all transactions"),
				"approved":    prop("boolean", "Approved status to set on all transactions"),
				"flag_color":  prop("string", "Flag color: red, orange, yellow, green, blue, purple, or none to remove"),
				"cleared":     prop("string", "Cleared status: cleared, uncleared, or reconciled"),
				"memo":        prop("string", "Memo to set on all transactions"),
			}, "budget_id", "transaction_ids"),
			Annotations: writeAction,
		},
		{
			Name:        "rename_payee",
			Description: "Rename a payee by ID. Use list_payees to find payee IDs.",
			InputSchema: objectSchema(map[string]any{
				"budget_id": budgetID(),
				"payee_id":  prop("string", "The payee ID to rename"),
				"name":      prop("string", "The new name for the payee (max 500 characters)"),
			}, "budget_id", "payee_id", "name"),
			Annotations: writeAction,
		},
		{
			Name:        "update_category_budget",
			Description: "Set the budgeted amount for a category in a specific month. Amount is in dollars.",
			InputSchema: objectSchema(map[string]any{
				"budget_id":   budgetID(),
				"month":       prop("string", "The month in YYYY-MM-DD format (first day of month, e.g. 2025-01-01) or 'current'"),
				"category_id": prop("string", "The category ID"),
				"amount":      prop("number", "Budgeted amount in dollars (e.g. 500.00)"),
			}, "budget_id", "month", "category_id", "amount"),
			Annotations: writeAction,
		},
	}
}

var toolNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidateCatalog checks descriptor invariants: unique snake_case names,
// non-empty descriptions, object schemas whose required fields are declared
// properties, and schemas that compile as JSON Schema.
func ValidateCatalog(descs []Descriptor) error {
	var errs []error
	seen := make(map[string]struct{}, len(descs))
	for _, d := range descs {
		if !toolNamePattern.MatchString(d.Name) {
			errs = append(errs, fmt.Errorf("tool %q: name must be snake_case", d.Name))
		}
		if _, dup := seen[d.Name]; dup {
			errs = append(errs, fmt.Errorf("tool %q: duplicate name", d.Name))
		}
		seen[d.Name] = struct{}{}
		if d.Description == "" {
			errs = append(errs, fmt.Errorf("tool %q: empty description", d.Name))
		}
		if err := validateSchema(d); err != nil {
			errs = append(errs, fmt.Errorf("tool %q: %w", d.Name, err))
		}
	}
	return errors.Join(errs...)
}

func validateSchema(d Descriptor) error {
	if d.InputSchema["type"] != "object" {
		return errors.New(`input schema type must be "object"`)
	}

	props, _ := d.InputSchema["properties"].(map[string]any)
	required, _ := d.InputSchema["required"].([]string)
	for _, name := range required {
		if _, ok := props[name]; !ok {
			return fmt.Errorf("required field %q is not a declared property", name)
		}
	}

	schemaBytes, err := json.Marshal(d.InputSchema)
	if err != nil {
		return fmt.Errorf("encoding input schema: %w", err)
	}
	var schemaObj any
	if err := json.Unmarshal(schemaBytes, &schemaObj); err != nil {
		return fmt.Errorf("decoding input schema: %w", err)
	}

	url := d.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, schemaObj); err != nil {
		return fmt.Errorf("input schema: %w", err)
	}
	if _, err := c.Compile(url); err != nil {
		return fmt.Errorf("input schema: %w", err)
	}
	return nil
}
