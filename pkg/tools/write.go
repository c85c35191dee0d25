package tools

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/isitobservable/ynab-mcp/pkg/format"
	"github.com/isitobservable/ynab-mcp/pkg/types"
	"github.com/isitobservable/ynab-mcp/pkg/ynab"
)

const maxPayeeNameLen = 500

func (h *handlers) createTransaction(ctx context.Context, args Arguments) (string, error) {
	budgetID, err := RequireString(args, "budget_id")
	if err != nil {
		return "", err
	}
	accountID, err := RequireString(args, "account_id")
	if err != nil {
		return "", err
	}
	date, err := RequireString(args, "date")
	if err != nil {
		return "", err
	}
	if _, ok := ParseDate(date); !ok {
		return "", types.InvalidParameter("date", "must be a date in YYYY-MM-DD format")
	}
	amount, err := RequireNumber(args, "amount")
	if err != nil {
		return "", err
	}
	cleared, err := optionalCleared(args, "cleared")
	if err != nil {
		return "", err
	}
	if cleared == nil {
		cleared = ynab.Ptr(ynab.Uncleared)
	}

	save := ynab.SaveTransaction{
		AccountID:  &accountID,
		Date:       &date,
		Amount:     ynab.Ptr(format.Milliunits(amount)),
		PayeeName:  optionalStringPtr(args, "payee_name"),
		CategoryID: optionalStringPtr(args, "category_id"),
		Memo:       optionalStringPtr(args, "memo"),
		Cleared:    cleared,
		Approved:   ynab.Ptr(true),
	}
	txn, err := invoke(ctx, func() (*ynab.Transaction, error) {
		return h.remote.CreateTransaction(ctx, budgetID, save)
	})
	if err != nil {
		return "", err
	}
	return format.TransactionDetail(txn), nil
}

// updateTransaction sends only the fields present in args.
func (h *handlers) updateTransaction(ctx context.Context, args Arguments) (string, error) {
	budgetID, err := RequireString(args, "budget_id")
	if err != nil {
		return "", err
	}
	transactionID, err := RequireString(args, "transaction_id")
	if err != nil {
		return "", err
	}

	save := ynab.SaveTransaction{
		AccountID:  optionalStringPtr(args, "account_id"),
		Date:       optionalStringPtr(args, "date"),
		PayeeName:  optionalStringPtr(args, "payee_name"),
		CategoryID: optionalStringPtr(args, "category_id"),
		Memo:       optionalStringPtr(args, "memo"),
	}
	if save.Date != nil {
		if _, ok := ParseDate(*save.Date); !ok {
			return "", types.InvalidParameter("date", "must be a date in YYYY-MM-DD format")
		}
	}
	if amount, ok := OptionalNumber(args, "amount"); ok {
		save.Amount = ynab.Ptr(format.Milliunits(amount))
	}
	if approved, ok := OptionalBool(args, "approved"); ok {
		save.Approved = &approved
	}
	if save.Cleared, err = optionalCleared(args, "cleared"); err != nil {
		return "", err
	}
	if save.FlagColor, err = optionalFlag(args, "flag_color"); err != nil {
		return "", err
	}

	txn, err := invoke(ctx, func() (*ynab.Transaction, error) {
		return h.remote.UpdateTransaction(ctx, budgetID, transactionID, save)
	})
	if err != nil {
		return "", err
	}
	return format.TransactionDetail(txn), nil
}

func (h *handlers) bulkUpdateTransactions(ctx context.Context, args Arguments) (string, error) {
	budgetID, err := RequireString(args, "budget_id")
	if err != nil {
		return "", err
	}
	ids, err := RequireStringList(args, "transaction_ids")
	if err != nil {
		return "", err
	}

	update := ynab.SaveTransaction{
		CategoryID: optionalStringPtr(args, "category_id"),
		PayeeName:  optionalStringPtr(args, "payee_name"),
		Memo:       optionalStringPtr(args, "memo"),
	}
	if approved, ok := OptionalBool(args, "approved"); ok {
		update.Approved = &approved
	}
	if update.Cleared, err = optionalCleared(args, "cleared"); err != nil {
		return "", err
	}
	if update.FlagColor, err = optionalFlag(args, "flag_color"); err != nil {
		return "", err
	}

	if update.CategoryID == nil && update.PayeeName == nil && update.Memo == nil &&
		update.Approved == nil && update.Cleared == nil && update.FlagColor == nil {
		return "", types.InvalidParameter("bulk_update_transactions",
			"at least one update field (category_id, payee_name, approved, flag_color, cleared, memo) must be provided")
	}

	batch := make([]ynab.SaveTransaction, len(ids))
	for i, id := range ids {
		batch[i] = update
		batch[i].ID = id
	}

	updated, err := invoke(ctx, func() ([]ynab.Transaction, error) {
		return h.remote.BulkUpdateTransactions(ctx, budgetID, batch)
	})
	if err != nil {
		return "", err
	}
	title := fmt.Sprintf("# Bulk Update Complete\n\nUpdated %d transactions.\n", len(updated))
	return format.TransactionTable(updated, title), nil
}

func (h *handlers) renamePayee(ctx context.Context, args Arguments) (string, error) {
	budgetID, err := RequireString(args, "budget_id")
	if err != nil {
		return "", err
	}
	payeeID, err := RequireString(args, "payee_id")
	if err != nil {
		return "", err
	}
	name, err := RequireString(args, "name")
	if err != nil {
		return "", err
	}
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		return "", types.InvalidParameter("name", "must not be empty")
	case n > maxPayeeNameLen:
		return "", types.InvalidParameter("name", fmt.Sprintf("must be at most %d characters", maxPayeeNameLen))
	}

	payee, err := invoke(ctx, func() (*ynab.Payee, error) {
		return h.remote.RenamePayee(ctx, budgetID, payeeID, name)
	})
	if err != nil {
		return "", err
	}
	return format.PayeeRenamed(payee), nil
}

func (h *handlers) updateCategoryBudget(ctx context.Context, args Arguments) (string, error) {
	budgetID, err := RequireString(args, "budget_id")
	if err != nil {
		return "", err
	}
	month, err := requireMonth(args, "month")
	if err != nil {
		return "", err
	}
	categoryID, err := RequireString(args, "category_id")
	if err != nil {
		return "", err
	}
	amount, err := RequireNumber(args, "amount")
	if err != nil {
		return "", err
	}

	category, err := invoke(ctx, func() (*ynab.Category, error) {
		return h.remote.UpdateCategoryBudget(ctx, budgetID, month, categoryID, format.Milliunits(amount))
	})
	if err != nil {
		return "", err
	}
	return format.CategoryBudgetUpdated(category, month), nil
}
