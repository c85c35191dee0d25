package ynab

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isitobservable/ynab-mcp/pkg/ratelimit"
	"github.com/isitobservable/ynab-mcp/pkg/types"
)

// countingService records calls and returns canned data or err.
type countingService struct {
	calls int
	err   error
}

func (s *countingService) hit() error {
	s.calls++
	return s.err
}

func (s *countingService) ListBudgets(context.Context) ([]BudgetSummary, error) {
	return []BudgetSummary{{ID: "b1", Name: "Home"}}, s.hit()
}
func (s *countingService) ListAccounts(context.Context, string) ([]Account, error) {
	return []Account{{ID: "a1"}}, s.hit()
}
func (s *countingService) GetBudgetDetail(context.Context, string) (*BudgetDetail, error) {
	return &BudgetDetail{ID: "b1"}, s.hit()
}
func (s *countingService) ListCategories(context.Context, string) ([]CategoryGroup, error) {
	return nil, s.hit()
}
func (s *countingService) ListTransactions(context.Context, string, string, time.Time) ([]Transaction, error) {
	return nil, s.hit()
}
func (s *countingService) GetTransaction(context.Context, string, string) (*Transaction, error) {
	return &Transaction{ID: "t1"}, s.hit()
}
func (s *countingService) CreateTransaction(context.Context, string, SaveTransaction) (*Transaction, error) {
	return &Transaction{ID: "t1"}, s.hit()
}
func (s *countingService) UpdateTransaction(context.Context, string, string, SaveTransaction) (*Transaction, error) {
	return &Transaction{ID: "t1"}, s.hit()
}
func (s *countingService) BulkUpdateTransactions(context.Context, string, []SaveTransaction) ([]Transaction, error) {
	return nil, s.hit()
}
func (s *countingService) ListPayees(context.Context, string) ([]Payee, error) {
	return nil, s.hit()
}
func (s *countingService) RenamePayee(context.Context, string, string, string) (*Payee, error) {
	return &Payee{ID: "p1"}, s.hit()
}
func (s *countingService) TransactionsByPayee(context.Context, string, string, time.Time) ([]Transaction, error) {
	return nil, s.hit()
}
func (s *countingService) TransactionsByCategory(context.Context, string, string, time.Time) ([]Transaction, error) {
	return nil, s.hit()
}
func (s *countingService) ListScheduledTransactions(context.Context, string) ([]ScheduledTransaction, error) {
	return nil, s.hit()
}
func (s *countingService) UpdateCategoryBudget(context.Context, string, string, string, int64) (*Category, error) {
	return &Category{ID: "c1"}, s.hit()
}
func (s *countingService) GetMonth(context.Context, string, string) (*MonthDetail, error) {
	return &MonthDetail{}, s.hit()
}

// allOperations invokes every facade method once.
func allOperations(c *Client) []func() error {
	ctx := context.Background()
	wrap := func(err error) error { return err }
	return []func() error{
		func() error { _, err := c.ListBudgets(ctx); return wrap(err) },
		func() error { _, err := c.ListAccounts(ctx, "b"); return wrap(err) },
		func() error { _, err := c.GetBudgetDetail(ctx, "b"); return wrap(err) },
		func() error { _, err := c.ListCategories(ctx, "b"); return wrap(err) },
		func() error { _, err := c.ListTransactions(ctx, "b", "", time.Time{}); return wrap(err) },
		func() error { _, err := c.GetTransaction(ctx, "b", "t"); return wrap(err) },
		func() error { _, err := c.CreateTransaction(ctx, "b", SaveTransaction{}); return wrap(err) },
		func() error { _, err := c.UpdateTransaction(ctx, "b", "t", SaveTransaction{}); return wrap(err) },
		func() error { _, err := c.BulkUpdateTransactions(ctx, "b", nil); return wrap(err) },
		func() error { _, err := c.ListPayees(ctx, "b"); return wrap(err) },
		func() error { _, err := c.RenamePayee(ctx, "b", "p", "n"); return wrap(err) },
		func() error { _, err := c.TransactionsByPayee(ctx, "b", "p", time.Time{}); return wrap(err) },
		func() error { _, err := c.TransactionsByCategory(ctx, "b", "c", time.Time{}); return wrap(err) },
		func() error { _, err := c.ListScheduledTransactions(ctx, "b"); return wrap(err) },
		func() error { _, err := c.UpdateCategoryBudget(ctx, "b", "current", "c", 1000); return wrap(err) },
		func() error { _, err := c.GetMonth(ctx, "b", "2025-01-01"); return wrap(err) },
	}
}

func TestClient_EveryOperationConsumesOneAdmission(t *testing.T) {
	t.Parallel()
	svc := &countingService{}
	limiter := ratelimit.New(100, time.Hour)
	c := NewClient(svc, limiter)

	ops := allOperations(c)
	for i, op := range ops {
		require.NoErrorf(t, op(), "operation %d", i)
	}
	assert.Equal(t, len(ops), svc.calls)
	assert.Equal(t, 100-len(ops), limiter.Remaining())
}

func TestClient_RateLimitedMakesNoRemoteCall(t *testing.T) {
	t.Parallel()
	svc := &countingService{}
	limiter := ratelimit.New(1, time.Hour)
	c := NewClient(svc, limiter)

	_, err := c.ListBudgets(context.Background())
	require.NoError(t, err)

	for i, op := range allOperations(c) {
		err := op()
		require.Errorf(t, err, "operation %d", i)

		var mcpErr *types.MCPError
		require.True(t, errors.As(err, &mcpErr))
		assert.Equal(t, types.ErrCodeRateLimited, mcpErr.Code)
		assert.Equal(t, 0, mcpErr.Remaining)
	}
	assert.Equal(t, 1, svc.calls, "no remote call may happen after rejection")
}

func TestClient_RemoteFailureIsClassified(t *testing.T) {
	t.Parallel()
	svc := &countingService{err: &APIError{StatusCode: 404, Name: "not_found", Detail: "Resource not found"}}
	c := NewClient(svc, ratelimit.NewDefault())

	_, err := c.GetTransaction(context.Background(), "b", "missing")
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeRemoteFailure, types.Code(err))
	assert.Equal(t, "YNAB API error 404 (not_found): Resource not found", err.Error())
}

func TestClient_ClassifiedErrorsPassThrough(t *testing.T) {
	t.Parallel()
	svc := &countingService{err: fmt.Errorf("wrapped: %w", types.InvalidParameter("month", "bad"))}
	c := NewClient(svc, ratelimit.NewDefault())

	_, err := c.GetMonth(context.Background(), "b", "nope")
	assert.Equal(t, types.ErrCodeInvalidParameter, types.Code(err))
}

func TestClient_ReturnsServiceData(t *testing.T) {
	t.Parallel()
	c := NewClient(&countingService{}, ratelimit.NewDefault())

	budgets, err := c.ListBudgets(context.Background())
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.Equal(t, "Home", budgets[0].Name)
	assert.Same(t, c.limiter, c.Limiter())
}
