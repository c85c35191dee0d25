package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/isitobservable/ynab-mcp/pkg/format"
	"github.com/isitobservable/ynab-mcp/pkg/types"
	"github.com/isitobservable/ynab-mcp/pkg/ynab"
)

const defaultLookbackDays = 30

type handlers struct {
	remote *ynab.Client
	now    func() time.Time
}

func (h *handlers) table() map[string]HandlerFunc {
	return map[string]HandlerFunc{
		"list_budgets":                 h.listBudgets,
		"list_accounts":                h.listAccounts,
		"list_categories":              h.listCategories,
		"get_budget_summary":           h.getBudgetSummary,
		"list_recent_transactions":     h.listRecentTransactions,
		"get_month_summary":            h.getMonthSummary,
		"get_transaction":              h.getTransaction,
		"list_payees":                  h.listPayees,
		"get_transactions_by_payee":    h.transactionsByPayee,
		"get_transactions_by_category": h.transactionsByCategory,
		"list_scheduled_transactions":  h.listScheduledTransactions,
		"create_transaction":           h.createTransaction,
		"update_transaction":           h.updateTransaction,
		"bulk_update_transactions":     h.bulkUpdateTransactions,
		"rename_payee":                 h.renamePayee,
		"update_category_budget":       h.updateCategoryBudget,
	}
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func (h *handlers) listBudgets(ctx context.Context, _ Arguments) (string, error) {
	budgets, err := invoke(ctx, func() ([]ynab.BudgetSummary, error) {
		return h.remote.ListBudgets(ctx)
	})
	if err != nil {
		return "", err
	}
	return format.Budgets(budgets), nil
}

func (h *handlers) listAccounts(ctx context.Context, args Arguments) (string, error) {
	budgetID, err := RequireString(args, "budget_id")
	if err != nil {
		return "", err
	}
	accounts, err := invoke(ctx, func() ([]ynab.Account, error) {
		return h.remote.ListAccounts(ctx, budgetID)
	})
	if err != nil {
		return "", err
	}
	return format.Accounts(filter(accounts, func(a ynab.Account) bool { return !a.Deleted })), nil
}

func (h *handlers) listCategories(ctx context.Context, args Arguments) (string, error) {
	budgetID, err := RequireString(args, "budget_id")
	if err != nil {
		return "", err
	}
	groups, err := invoke(ctx, func() ([]ynab.CategoryGroup, error) {
		return h.remote.ListCategories(ctx, budgetID)
	})
	if err != nil {
		return "", err
	}

	visible := make([]ynab.CategoryGroup, 0, len(groups))
	for _, g := range groups {
		if g.Deleted || g.Hidden {
			continue
		}
		g.Categories = filter(g.Categories, visibleCategory)
		visible = append(visible, g)
	}
	return format.Categories(visible), nil
}

func visibleCategory(c ynab.Category) bool { return !c.Deleted && !c.Hidden }

func (h *handlers) getBudgetSummary(ctx context.Context, args Arguments) (string, error) {
	budgetID, err := RequireString(args, "budget_id")
	if err != nil {
		return "", err
	}
	detail, err := invoke(ctx, func() (*ynab.BudgetDetail, error) {
		return h.remote.GetBudgetDetail(ctx, budgetID)
	})
	if err != nil {
		return "", err
	}

	accounts := filter(detail.Accounts, func(a ynab.Account) bool { return !a.Deleted && !a.Closed })

	byGroup := make(map[string][]ynab.Category)
	for _, c := range detail.Categories {
		if visibleCategory(c) {
			byGroup[c.CategoryGroupID] = append(byGroup[c.CategoryGroupID], c)
		}
	}
	groups := make([]ynab.CategoryGroup, 0, len(detail.CategoryGroups))
	for _, g := range detail.CategoryGroups {
		if g.Deleted || g.Hidden {
			continue
		}
		g.Categories = byGroup[g.ID]
		groups = append(groups, g)
	}

	return format.BudgetSummary(detail.Name, accounts, groups), nil
}

func (h *handlers) listRecentTransactions(ctx context.Context, args Arguments) (string, error) {
	budgetID, err := RequireString(args, "budget_id")
	if err != nil {
		return "", err
	}
	accountID, _ := OptionalString(args, "account_id")

	days := defaultLookbackDays
	if v := args["days"]; v.Kind() != KindAbsent && v.Kind() != KindNull {
		n, ok := OptionalInt(args, "days")
		if !ok || n <= 0 {
			return "", types.InvalidParameter("days", "must be a positive integer")
		}
		days = n
	}

	since, hasSince, err := optionalDate(args, "since_date")
	if err != nil {
		return "", err
	}
	until, hasUntil, err := optionalDate(args, "until_date")
	if err != nil {
		return "", err
	}
	if !hasSince {
		since = h.now().UTC().AddDate(0, 0, -days)
	}

	txns, err := invoke(ctx, func() ([]ynab.Transaction, error) {
		return h.remote.ListTransactions(ctx, budgetID, accountID, since)
	})
	if err != nil {
		return "", err
	}

	category, hasCategory := OptionalString(args, "category_name")
	category = strings.ToLower(category)
	approved, hasApproved := OptionalBool(args, "approved")
	untilStr := format.DateString(until)

	filtered := filter(txns, func(t ynab.Transaction) bool {
		switch {
		case t.Deleted:
			return false
		case hasCategory && strings.ToLower(ynab.Deref(t.CategoryName, "")) != category:
			return false
		case hasApproved && t.Approved != approved:
			return false
		case hasUntil && t.Date > untilStr:
			return false
		}
		return true
	})

	var title string
	switch {
	case hasSince && hasUntil:
		title = fmt.Sprintf("# Transactions from %s to %s\n", format.DateString(since), untilStr)
	case hasSince:
		title = fmt.Sprintf("# Transactions since %s\n", format.DateString(since))
	default:
		title = fmt.Sprintf("# Recent Transactions (last %d days)\n", days)
	}
	return format.TransactionTable(filtered, title), nil
}

func (h *handlers) getMonthSummary(ctx context.Context, args Arguments) (string, error) {
	budgetID, err := RequireString(args, "budget_id")
	if err != nil {
		return "", err
	}
	month, err := requireMonth(args, "month")
	if err != nil {
		return "", err
	}
	detail, err := invoke(ctx, func() (*ynab.MonthDetail, error) {
		return h.remote.GetMonth(ctx, budgetID, month)
	})
	if err != nil {
		return "", err
	}
	return format.MonthSummary(month, detail, filter(detail.Categories, visibleCategory)), nil
}

func (h *handlers) getTransaction(ctx context.Context, args Arguments) (string, error) {
	budgetID, err := RequireString(args, "budget_id")
	if err != nil {
		return "", err
	}
	transactionID, err := RequireString(args, "transaction_id")
	if err != nil {
		return "", err
	}
	txn, err := invoke(ctx, func() (*ynab.Transaction, error) {
		return h.remote.GetTransaction(ctx, budgetID, transactionID)
	})
	if err != nil {
		return "", err
	}
	return format.TransactionDetail(txn), nil
}

func (h *handlers) listPayees(ctx context.Context, args Arguments) (string, error) {
	budgetID, err := RequireString(args, "budget_id")
	if err != nil {
		return "", err
	}
	payees, err := invoke(ctx, func() ([]ynab.Payee, error) {
		return h.remote.ListPayees(ctx, budgetID)
	})
	if err != nil {
		return "", err
	}
	return format.Payees(filter(payees, func(p ynab.Payee) bool { return !p.Deleted })), nil
}

type scopedQuery func(ctx context.Context, budgetID, id string, since time.Time) ([]ynab.Transaction, error)

// scopedTransactions serves the by-payee and by-category listings, which
// differ only in the scoping key and the remote call.
func (h *handlers) scopedTransactions(ctx context.Context, args Arguments, key, title string, query scopedQuery) (string, error) {
	budgetID, err := RequireString(args, "budget_id")
	if err != nil {
		return "", err
	}
	id, err := RequireString(args, key)
	if err != nil {
		return "", err
	}
	since, _, err := optionalDate(args, "since_date")
	if err != nil {
		return "", err
	}
	until, hasUntil, err := optionalDate(args, "until_date")
	if err != nil {
		return "", err
	}

	txns, err := invoke(ctx, func() ([]ynab.Transaction, error) {
		return query(ctx, budgetID, id, since)
	})
	if err != nil {
		return "", err
	}

	untilStr := format.DateString(until)
	filtered := filter(txns, func(t ynab.Transaction) bool {
		return !t.Deleted && (!hasUntil || t.Date <= untilStr)
	})
	return format.AccountTransactionTable(filtered, title), nil
}

func (h *handlers) transactionsByPayee(ctx context.Context, args Arguments) (string, error) {
	return h.scopedTransactions(ctx, args, "payee_id", "# Transactions for Payee\n", h.remote.TransactionsByPayee)
}

func (h *handlers) transactionsByCategory(ctx context.Context, args Arguments) (string, error) {
	return h.scopedTransactions(ctx, args, "category_id", "# Transactions for Category\n", h.remote.TransactionsByCategory)
}

func (h *handlers) listScheduledTransactions(ctx context.Context, args Arguments) (string, error) {
	budgetID, err := RequireString(args, "budget_id")
	if err != nil {
		return "", err
	}
	txns, err := invoke(ctx, func() ([]ynab.ScheduledTransaction, error) {
		return h.remote.ListScheduledTransactions(ctx, budgetID)
	})
	if err != nil {
		return "", err
	}
	return format.ScheduledTransactions(filter(txns, func(t ynab.ScheduledTransaction) bool { return !t.Deleted })), nil
}
