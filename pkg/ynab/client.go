package ynab

import (
	"context"
	"log/slog"
	"time"

	"github.com/isitobservable/ynab-mcp/pkg/ratelimit"
	"github.com/isitobservable/ynab-mcp/pkg/types"
)

// Service is the binding to the remote budgeting API. Implementations perform
// exactly one remote request per call and return entities unfiltered,
// including deleted and hidden ones.
//
// Empty string IDs and zero times mean "not set" for optional arguments.
type Service interface {
	ListBudgets(ctx context.Context) ([]BudgetSummary, error)
	ListAccounts(ctx context.Context, budgetID string) ([]Account, error)
	GetBudgetDetail(ctx context.Context, budgetID string) (*BudgetDetail, error)
	ListCategories(ctx context.Context, budgetID string) ([]CategoryGroup, error)
	ListTransactions(ctx context.Context, budgetID, accountID string, since time.Time) ([]Transaction, error)
	GetTransaction(ctx context.Context, budgetID, transactionID string) (*Transaction, error)
	CreateTransaction(ctx context.Context, budgetID string, txn SaveTransaction) (*Transaction, error)
	UpdateTransaction(ctx context.Context, budgetID, transactionID string, txn SaveTransaction) (*Transaction, error)
	BulkUpdateTransactions(ctx context.Context, budgetID string, txns []SaveTransaction) ([]Transaction, error)
	ListPayees(ctx context.Context, budgetID string) ([]Payee, error)
	RenamePayee(ctx context.Context, budgetID, payeeID, name string) (*Payee, error)
	TransactionsByPayee(ctx context.Context, budgetID, payeeID string, since time.Time) ([]Transaction, error)
	TransactionsByCategory(ctx context.Context, budgetID, categoryID string, since time.Time) ([]Transaction, error)
	ListScheduledTransactions(ctx context.Context, budgetID string) ([]ScheduledTransaction, error)
	UpdateCategoryBudget(ctx context.Context, budgetID, month, categoryID string, budgeted int64) (*Category, error)
	GetMonth(ctx context.Context, budgetID, month string) (*MonthDetail, error)
}

// Client gates every Service call on the rate limiter.
type Client struct {
	svc     Service
	limiter *ratelimit.Limiter
}

var _ Service = (*Client)(nil)

func NewClient(svc Service, limiter *ratelimit.Limiter) *Client {
	return &Client{svc: svc, limiter: limiter}
}

// Limiter exposes the limiter guarding this client.
func (c *Client) Limiter() *ratelimit.Limiter { return c.limiter }

func (c *Client) checkRate(op string) error {
	if c.limiter.Allow() {
		return nil
	}
	remaining := c.limiter.Remaining()
	slog.Warn("ynab: rate limit reached", "operation", op, "remaining", remaining)
	return types.RateLimited(remaining)
}

// call runs fn after admission and classifies its failure.
func call[T any](c *Client, op string, fn func() (T, error)) (T, error) {
	var zero T
	if err := c.checkRate(op); err != nil {
		return zero, err
	}
	v, err := fn()
	if err != nil {
		slog.Debug("ynab: remote call failed", "operation", op, "error", err)
		return zero, types.AsMCPError(err)
	}
	return v, nil
}

func (c *Client) ListBudgets(ctx context.Context) ([]BudgetSummary, error) {
	return call(c, "list_budgets", func() ([]BudgetSummary, error) {
		return c.svc.ListBudgets(ctx)
	})
}

func (c *Client) ListAccounts(ctx context.Context, budgetID string) ([]Account, error) {
	return call(c, "list_accounts", func() ([]Account, error) {
		return c.svc.ListAccounts(ctx, budgetID)
	})
}

func (c *Client) GetBudgetDetail(ctx context.Context, budgetID string) (*BudgetDetail, error) {
	return call(c, "get_budget_detail", func() (*BudgetDetail, error) {
		return c.svc.GetBudgetDetail(ctx, budgetID)
	})
}

func (c *Client) ListCategories(ctx context.Context, budgetID string) ([]CategoryGroup, error) {
	return call(c, "list_categories", func() ([]CategoryGroup, error) {
		return c.svc.ListCategories(ctx, budgetID)
	})
}

func (c *Client) ListTransactions(ctx context.Context, budgetID, accountID string, since time.Time) ([]Transaction, error) {
	return call(c, "list_transactions", func() ([]Transaction, error) {
		return c.svc.ListTransactions(ctx, budgetID, accountID, since)
	})
}

func (c *Client) GetTransaction(ctx context.Context, budgetID, transactionID string) (*Transaction, error) {
	return call(c, "get_transaction", func() (*Transaction, error) {
		return c.svc.GetTransaction(ctx, budgetID, transactionID)
	})
}

func (c *Client) CreateTransaction(ctx context.Context, budgetID string, txn SaveTransaction) (*Transaction, error) {
	return call(c, "create_transaction", func() (*Transaction, error) {
		return c.svc.CreateTransaction(ctx, budgetID, txn)
	})
}

func (c *Client) UpdateTransaction(ctx context.Context, budgetID, transactionID string, txn SaveTransaction) (*Transaction, error) {
	return call(c, "update_transaction", func() (*Transaction, error) {
		return c.svc.UpdateTransaction(ctx, budgetID, transactionID, txn)
	})
}

func (c *Client) BulkUpdateTransactions(ctx context.Context, budgetID string, txns []SaveTransaction) ([]Transaction, error) {
	return call(c, "bulk_update_transactions", func() ([]Transaction, error) {
		return c.svc.BulkUpdateTransactions(ctx, budgetID, txns)
	})
}

func (c *Client) ListPayees(ctx context.Context, budgetID string) ([]Payee, error) {
	return call(c, "list_payees", func() ([]Payee, error) {
		return c.svc.ListPayees(ctx, budgetID)
	})
}

func (c *Client) RenamePayee(ctx context.Context, budgetID, payeeID, name string) (*Payee, error) {
	return call(c, "rename_payee", func() (*Payee, error) {
		return c.svc.RenamePayee(ctx, budgetID, payeeID, name)
	})
}

func (c *Client) TransactionsByPayee(ctx context.Context, budgetID, payeeID string, since time.Time) ([]Transaction, error) {
	return call(c, "transactions_by_payee", func() ([]Transaction, error) {
		return c.svc.TransactionsByPayee(ctx, budgetID, payeeID, since)
	})
}

func (c *Client) TransactionsByCategory(ctx context.Context, budgetID, categoryID string, since time.Time) ([]Transaction, error) {
	return call(c, "transactions_by_category", func() ([]Transaction, error) {
		return c.svc.TransactionsByCategory(ctx, budgetID, categoryID, since)
	})
}

func (c *Client) ListScheduledTransactions(ctx context.Context, budgetID string) ([]ScheduledTransaction, error) {
	return call(c, "list_scheduled_transactions", func() ([]ScheduledTransaction, error) {
		return c.svc.ListScheduledTransactions(ctx, budgetID)
	})
}

func (c *Client) UpdateCategoryBudget(ctx context.Context, budgetID, month, categoryID string, budgeted int64) (*Category, error) {
	return call(c, "update_category_budget", func() (*Category, error) {
		return c.svc.UpdateCategoryBudget(ctx, budgetID, month, categoryID, budgeted)
	})
}

func (c *Client) GetMonth(ctx context.Context, budgetID, month string) (*MonthDetail, error) {
	return call(c, "get_month", func() (*MonthDetail, error) {
		return c.svc.GetMonth(ctx, budgetID, month)
	})
}
