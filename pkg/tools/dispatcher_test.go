package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isitobservable/ynab-mcp/pkg/ratelimit"
	"github.com/isitobservable/ynab-mcp/pkg/types"
	"github.com/isitobservable/ynab-mcp/pkg/ynab"
)

// fakeService is an in-memory ynab.Service that records the last request.
type fakeService struct {
	mu    sync.Mutex
	calls []string
	err   error

	budgets   []ynab.BudgetSummary
	accounts  []ynab.Account
	detail    *ynab.BudgetDetail
	groups    []ynab.CategoryGroup
	txns      []ynab.Transaction
	payees    []ynab.Payee
	scheduled []ynab.ScheduledTransaction
	month     *ynab.MonthDetail

	lastAccountID string
	lastSince     time.Time
	lastSave      ynab.SaveTransaction
	lastBatch     []ynab.SaveTransaction
	lastMonth     string
	lastBudgeted  int64
	lastName      string
}

func (f *fakeService) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	return f.err
}

func (f *fakeService) ListBudgets(context.Context) ([]ynab.BudgetSummary, error) {
	return f.budgets, f.record("ListBudgets")
}

func (f *fakeService) ListAccounts(context.Context, string) ([]ynab.Account, error) {
	return f.accounts, f.record("ListAccounts")
}

func (f *fakeService) GetBudgetDetail(context.Context, string) (*ynab.BudgetDetail, error) {
	return f.detail, f.record("GetBudgetDetail")
}

func (f *fakeService) ListCategories(context.Context, string) ([]ynab.CategoryGroup, error) {
	return f.groups, f.record("ListCategories")
}

func (f *fakeService) ListTransactions(_ context.Context, _ string, accountID string, since time.Time) ([]ynab.Transaction, error) {
	f.lastAccountID, f.lastSince = accountID, since
	return f.txns, f.record("ListTransactions")
}

func (f *fakeService) GetTransaction(_ context.Context, _, id string) (*ynab.Transaction, error) {
	return &ynab.Transaction{ID: id, Date: "2025-01-15", Amount: -42500, AccountName: "Checking", Cleared: ynab.Cleared}, f.record("GetTransaction")
}

func (f *fakeService) CreateTransaction(_ context.Context, _ string, txn ynab.SaveTransaction) (*ynab.Transaction, error) {
	f.lastSave = txn
	return &ynab.Transaction{ID: "new", Date: *txn.Date, Amount: *txn.Amount, Cleared: *txn.Cleared, Approved: true}, f.record("CreateTransaction")
}

func (f *fakeService) UpdateTransaction(_ context.Context, _, id string, txn ynab.SaveTransaction) (*ynab.Transaction, error) {
	f.lastSave = txn
	return &ynab.Transaction{ID: id}, f.record("UpdateTransaction")
}

func (f *fakeService) BulkUpdateTransactions(_ context.Context, _ string, txns []ynab.SaveTransaction) ([]ynab.Transaction, error) {
	f.lastBatch = txns
	out := make([]ynab.Transaction, len(txns))
	for i, t := range txns {
		out[i] = ynab.Transaction{ID: t.ID}
	}
	return out, f.record("BulkUpdateTransactions")
}

func (f *fakeService) ListPayees(context.Context, string) ([]ynab.Payee, error) {
	return f.payees, f.record("ListPayees")
}

func (f *fakeService) RenamePayee(_ context.Context, _, id, name string) (*ynab.Payee, error) {
	f.lastName = name
	return &ynab.Payee{ID: id, Name: name}, f.record("RenamePayee")
}

func (f *fakeService) TransactionsByPayee(_ context.Context, _, _ string, since time.Time) ([]ynab.Transaction, error) {
	f.lastSince = since
	return f.txns, f.record("TransactionsByPayee")
}

func (f *fakeService) TransactionsByCategory(_ context.Context, _, _ string, since time.Time) ([]ynab.Transaction, error) {
	f.lastSince = since
	return f.txns, f.record("TransactionsByCategory")
}

func (f *fakeService) ListScheduledTransactions(context.Context, string) ([]ynab.ScheduledTransaction, error) {
	return f.scheduled, f.record("ListScheduledTransactions")
}

func (f *fakeService) UpdateCategoryBudget(_ context.Context, _, month, id string, budgeted int64) (*ynab.Category, error) {
	f.lastMonth, f.lastBudgeted = month, budgeted
	return &ynab.Category{ID: id, Name: "Groceries", Budgeted: budgeted}, f.record("UpdateCategoryBudget")
}

func (f *fakeService) GetMonth(_ context.Context, _, month string) (*ynab.MonthDetail, error) {
	f.lastMonth = month
	return f.month, f.record("GetMonth")
}

var fixedNow = time.Date(2025, 3, 31, 15, 0, 0, 0, time.UTC)

func newTestDispatcher(t *testing.T, svc *fakeService, max int) (*Dispatcher, *ratelimit.Limiter) {
	t.Helper()
	limiter := ratelimit.New(max, time.Hour)
	client := ynab.NewClient(svc, limiter)
	return NewDispatcher(client, WithClock(func() time.Time { return fixedNow })), limiter
}

func TestDispatcher_ListTools(t *testing.T) {
	t.Parallel()
	d, _ := newTestDispatcher(t, &fakeService{}, 10)
	assert.Equal(t, Catalog(), d.ListTools())
}

func TestDispatcher_UnknownTool(t *testing.T) {
	t.Parallel()
	svc := &fakeService{}
	d, limiter := newTestDispatcher(t, svc, 10)

	res := d.Dispatch(context.Background(), "delete_everything", nil)
	assert.True(t, res.IsError)
	assert.Equal(t, []string{"Unknown tool: delete_everything"}, res.Content)
	assert.Nil(t, res.Err)
	assert.Empty(t, svc.calls)
	assert.Equal(t, 10, limiter.Remaining())
}

func TestDispatcher_MissingParameterMakesNoRemoteCall(t *testing.T) {
	t.Parallel()
	for _, desc := range Catalog() {
		required, _ := desc.InputSchema["required"].([]string)
		if len(required) == 0 {
			continue
		}
		t.Run(desc.Name, func(t *testing.T) {
			t.Parallel()
			svc := &fakeService{}
			d, limiter := newTestDispatcher(t, svc, 10)

			res := d.Dispatch(context.Background(), desc.Name, nil)
			require.True(t, res.IsError)
			assert.Equal(t, "Error: Missing required parameter: "+required[0], res.Text())
			assert.Equal(t, types.ErrCodeMissingParameter, types.Code(res.Err))
			assert.Empty(t, svc.calls)
			assert.Equal(t, 10, limiter.Remaining(), "limiter must not be consumed")
		})
	}
}

func TestDispatcher_RateLimited(t *testing.T) {
	t.Parallel()
	svc := &fakeService{}
	d, _ := newTestDispatcher(t, svc, 2)
	args := Arguments{"budget_id": StringValue("b1")}

	for i := 0; i < 2; i++ {
		res := d.Dispatch(context.Background(), "list_payees", args)
		require.False(t, res.IsError, res.Text())
	}

	res := d.Dispatch(context.Background(), "list_payees", args)
	require.True(t, res.IsError)
	assert.Equal(t, "Error: Rate limit exceeded. 0 requests remaining in the current window.", res.Text())
	assert.Equal(t, types.ErrCodeRateLimited, types.Code(res.Err))
	assert.Len(t, svc.calls, 2)
}

func TestDispatcher_RemoteFailure(t *testing.T) {
	t.Parallel()
	svc := &fakeService{err: &ynab.APIError{StatusCode: 404, Name: "not_found", Detail: "Resource not found"}}
	d, _ := newTestDispatcher(t, svc, 10)

	res := d.Dispatch(context.Background(), "get_transaction", Arguments{
		"budget_id":      StringValue("b1"),
		"transaction_id": StringValue("t1"),
	})
	require.True(t, res.IsError)
	assert.Equal(t, "Error: YNAB API error 404 (not_found): Resource not found", res.Text())

	var mcpErr *types.MCPError
	require.True(t, errors.As(res.Err, &mcpErr))
	assert.Equal(t, types.ErrCodeRemoteFailure, mcpErr.Code)
	assert.Equal(t, "get_transaction", mcpErr.Tool)
}

// panicRemote panics when listing budgets.
type panicRemote struct{ fakeService }

func (*panicRemote) ListBudgets(context.Context) ([]ynab.BudgetSummary, error) {
	panic("boom")
}

func TestDispatcher_RecoversHandlerPanic(t *testing.T) {
	t.Parallel()
	limiter := ratelimit.NewDefault()
	d := NewDispatcher(ynab.NewClient(&panicRemote{}, limiter), WithLogger(slog.New(slog.DiscardHandler)))

	res := d.Dispatch(context.Background(), "list_budgets", nil)
	require.True(t, res.IsError)
	assert.Equal(t, "Error: internal error: boom", res.Text())
	assert.Equal(t, types.ErrCodeRemoteFailure, types.Code(res.Err))
	assert.Equal(t, limiter.Max()-1, limiter.Remaining(), "the call passed through the limiter")
}

func TestDispatcher_LogsPhases(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc := &fakeService{}
	d := NewDispatcher(ynab.NewClient(svc, ratelimit.NewDefault()), WithLogger(logger))

	res := d.Dispatch(context.Background(), "list_budgets", nil)
	require.False(t, res.IsError)

	var phases []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		if p, ok := rec["phase"].(string); ok {
			phases = append(phases, p)
		}
	}
	assert.Equal(t, []string{"routing", "validating", "invoking", "formatting", "done"}, phases)
}

func TestDispatcher_ReadHandlers(t *testing.T) {
	t.Parallel()
	svc := &fakeService{
		budgets: []ynab.BudgetSummary{{ID: "b1", Name: "Home"}},
		accounts: []ynab.Account{
			{ID: "a1", Name: "Checking", Type: "checking", OnBudget: true, Balance: 1234560},
			{ID: "a2", Name: "Old", Deleted: true},
		},
		detail: &ynab.BudgetDetail{
			Name: "Home",
			Accounts: []ynab.Account{
				{ID: "a1", Name: "Checking", Balance: 1000},
				{ID: "a2", Name: "Closed Card", Closed: true},
			},
			CategoryGroups: []ynab.CategoryGroup{
				{ID: "g1", Name: "Bills"},
				{ID: "g2", Name: "Hidden Group", Hidden: true},
			},
			Categories: []ynab.Category{
				{ID: "c1", CategoryGroupID: "g1", Name: "Rent", Budgeted: 1500000},
				{ID: "c2", CategoryGroupID: "g1", Name: "Gone", Deleted: true},
				{ID: "c3", CategoryGroupID: "g2", Name: "Secret"},
			},
		},
		groups: []ynab.CategoryGroup{
			{ID: "g1", Name: "Bills", Categories: []ynab.Category{{ID: "c1", Name: "Rent"}, {ID: "c9", Name: "Stale", Hidden: true}}},
			{ID: "g3", Name: "Removed", Deleted: true},
		},
		payees: []ynab.Payee{
			{ID: "p1", Name: "Grocer"},
			{ID: "p2", Name: "Transfer : Savings", TransferAccountID: ynab.Ptr("a9")},
			{ID: "p3", Name: "Deleted", Deleted: true},
		},
		scheduled: []ynab.ScheduledTransaction{
			{ID: "s1", Frequency: "monthly", DateNext: "2025-04-01", Amount: -1500000, AccountName: "Checking", PayeeName: ynab.Ptr("Landlord")},
			{ID: "s2", Deleted: true},
		},
		month: &ynab.MonthDetail{
			Month: "2025-03-01", Income: 5000000,
			Categories: []ynab.Category{{Name: "Rent", Budgeted: 1500000}, {Name: "Hidden", Hidden: true}},
		},
	}
	d, _ := newTestDispatcher(t, svc, 100)
	ctx := context.Background()
	b := Arguments{"budget_id": StringValue("b1")}

	tests := []struct {
		tool        string
		args        Arguments
		contains    []string
		notContains []string
	}{
		{tool: "list_budgets", contains: []string{"# YNAB Budgets", "- **Home** (USD)"}},
		{tool: "list_accounts", args: b, contains: []string{"- **Checking** - $1,234.56"}, notContains: []string{"Old"}},
		{
			tool:        "get_budget_summary",
			args:        b,
			contains:    []string{"# Budget: Home", "- **Checking**: $1.00", "### Bills", "- Rent: Budgeted $1,500.00"},
			notContains: []string{"Closed Card", "Gone", "Hidden Group", "Secret"},
		},
		{tool: "list_categories", args: b, contains: []string{"## Bills", "- **Rent** `c1`"}, notContains: []string{"Stale", "Removed"}},
		{tool: "list_payees", args: b, contains: []string{"| Transfer : Savings (transfer) | `p2` |", "Total: 2 payees"}, notContains: []string{"Deleted"}},
		{tool: "list_scheduled_transactions", args: b, contains: []string{"| Landlord | -$1,500.00 | monthly | 2025-04-01 | Checking | - |", "Total: 1 scheduled transactions"}},
		{
			tool:        "get_month_summary",
			args:        Arguments{"budget_id": StringValue("b1"), "month": StringValue("2025-03-01")},
			contains:    []string{"# Month: 2025-03-01", "- Income: $5,000.00", "| Rent | $1,500.00 |"},
			notContains: []string{"Hidden"},
		},
		{
			tool:     "get_transaction",
			args:     Arguments{"budget_id": StringValue("b1"), "transaction_id": StringValue("t7")},
			contains: []string{"# Transaction", "- **ID**: `t7`", "- **Amount**: -$42.50"},
		},
	}
	for _, tt := range tests {
		res := d.Dispatch(ctx, tt.tool, tt.args)
		require.Falsef(t, res.IsError, "%s: %s", tt.tool, res.Text())
		require.Len(t, res.Content, 1)
		for _, want := range tt.contains {
			assert.Containsf(t, res.Text(), want, "%s output", tt.tool)
		}
		for _, unwanted := range tt.notContains {
			assert.NotContainsf(t, res.Text(), unwanted, "%s output", tt.tool)
		}
	}
}

func recentFixture() *fakeService {
	return &fakeService{txns: []ynab.Transaction{
		{ID: "t1", Date: "2025-03-01", CategoryName: ynab.Ptr("Groceries"), Approved: true},
		{ID: "t2", Date: "2025-03-10", CategoryName: ynab.Ptr("Dining"), Approved: false},
		{ID: "t3", Date: "2025-03-20", CategoryName: ynab.Ptr("groceries"), Approved: false},
		{ID: "t4", Date: "2025-03-05", Deleted: true},
	}}
}

func TestListRecentTransactions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		args      Arguments
		wantTitle string
		wantIDs   []string
		wantSince time.Time
	}{
		{
			name:      "default lookback",
			args:      Arguments{},
			wantTitle: "# Recent Transactions (last 30 days)",
			wantIDs:   []string{"t1", "t2", "t3"},
			wantSince: fixedNow.AddDate(0, 0, -30),
		},
		{
			name:      "custom days",
			args:      Arguments{"days": IntValue(7)},
			wantTitle: "# Recent Transactions (last 7 days)",
			wantIDs:   []string{"t1", "t2", "t3"},
			wantSince: fixedNow.AddDate(0, 0, -7),
		},
		{
			name:      "since overrides days",
			args:      Arguments{"days": IntValue(7), "since_date": StringValue("2025-03-02")},
			wantTitle: "# Transactions since 2025-03-02",
			wantIDs:   []string{"t1", "t2", "t3"},
			wantSince: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "range",
			args:      Arguments{"since_date": StringValue("2025-03-01"), "until_date": StringValue("2025-03-10")},
			wantTitle: "# Transactions from 2025-03-01 to 2025-03-10",
			wantIDs:   []string{"t1", "t2"},
			wantSince: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "category case-insensitive",
			args:      Arguments{"category_name": StringValue("GROCERIES")},
			wantTitle: "# Recent Transactions (last 30 days)",
			wantIDs:   []string{"t1", "t3"},
			wantSince: fixedNow.AddDate(0, 0, -30),
		},
		{
			name:      "approved filter",
			args:      Arguments{"approved": BoolValue(false)},
			wantTitle: "# Recent Transactions (last 30 days)",
			wantIDs:   []string{"t2", "t3"},
			wantSince: fixedNow.AddDate(0, 0, -30),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := recentFixture()
			d, _ := newTestDispatcher(t, svc, 10)

			args := Arguments{"budget_id": StringValue("b1"), "account_id": StringValue("a1")}
			for k, v := range tt.args {
				args[k] = v
			}
			res := d.Dispatch(context.Background(), "list_recent_transactions", args)
			require.False(t, res.IsError, res.Text())

			text := res.Text()
			assert.True(t, strings.HasPrefix(text, tt.wantTitle+"\n"), text)
			for _, id := range []string{"t1", "t2", "t3", "t4"} {
				if contains(tt.wantIDs, id) {
					assert.Contains(t, text, "`"+id+"`")
				} else {
					assert.NotContains(t, text, "`"+id+"`")
				}
			}
			assert.Equal(t, "a1", svc.lastAccountID)
			assert.True(t, tt.wantSince.Equal(svc.lastSince), "since = %s", svc.lastSince)
		})
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestListRecentTransactionsInvalidInput(t *testing.T) {
	t.Parallel()
	tests := []struct {
		args Arguments
		want string
	}{
		{Arguments{"days": IntValue(0)}, "Error: Invalid parameter 'days': must be a positive integer"},
		{Arguments{"days": NumberValue(7.5)}, "Error: Invalid parameter 'days': must be a positive integer"},
		{Arguments{"days": StringValue("7")}, "Error: Invalid parameter 'days': must be a positive integer"},
		{Arguments{"since_date": StringValue("last week")}, "Error: Invalid parameter 'since_date': must be a date in YYYY-MM-DD format"},
		{Arguments{"until_date": StringValue("2025/03/01")}, "Error: Invalid parameter 'until_date': must be a date in YYYY-MM-DD format"},
	}
	for _, tt := range tests {
		svc := recentFixture()
		d, limiter := newTestDispatcher(t, svc, 10)
		tt.args["budget_id"] = StringValue("b1")

		res := d.Dispatch(context.Background(), "list_recent_transactions", tt.args)
		require.True(t, res.IsError)
		assert.Equal(t, tt.want, res.Text())
		assert.Empty(t, svc.calls)
		assert.Equal(t, 10, limiter.Remaining())
	}
}

func TestTransactionsByPayeeAndCategory(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct{ tool, key, title string }{
		{"get_transactions_by_payee", "payee_id", "# Transactions for Payee"},
		{"get_transactions_by_category", "category_id", "# Transactions for Category"},
	} {
		svc := recentFixture()
		d, _ := newTestDispatcher(t, svc, 10)

		res := d.Dispatch(context.Background(), tc.tool, Arguments{
			"budget_id":  StringValue("b1"),
			tc.key:       StringValue("x1"),
			"since_date": StringValue("2025-03-01"),
			"until_date": StringValue("2025-03-15"),
		})
		require.False(t, res.IsError, res.Text())
		text := res.Text()
		assert.True(t, strings.HasPrefix(text, tc.title))
		assert.Contains(t, text, "| Account |")
		assert.Contains(t, text, "`t2`")
		assert.NotContains(t, text, "`t3`")
		assert.NotContains(t, text, "`t4`")
		assert.Contains(t, text, "Total: 2 transactions")
		assert.True(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).Equal(svc.lastSince))
	}
}

func TestCreateTransaction(t *testing.T) {
	t.Parallel()
	svc := &fakeService{}
	d, _ := newTestDispatcher(t, svc, 10)

	res := d.Dispatch(context.Background(), "create_transaction", Arguments{
		"budget_id":  StringValue("b1"),
		"account_id": StringValue("a1"),
		"date":       StringValue("2025-03-15"),
		"amount":     NumberValue(-12.3455),
		"payee_name": StringValue("Cafe"),
	})
	require.False(t, res.IsError, res.Text())
	assert.Contains(t, res.Text(), "- **Amount**: -$12.35")

	save := svc.lastSave
	assert.Equal(t, int64(-12346), *save.Amount)
	assert.Equal(t, "a1", *save.AccountID)
	assert.Equal(t, "Cafe", *save.PayeeName)
	assert.Nil(t, save.CategoryID)
	assert.Equal(t, ynab.Uncleared, *save.Cleared)
	assert.True(t, *save.Approved)
}

func TestCreateTransactionValidation(t *testing.T) {
	t.Parallel()
	base := func() Arguments {
		return Arguments{
			"budget_id":  StringValue("b1"),
			"account_id": StringValue("a1"),
			"date":       StringValue("2025-03-15"),
			"amount":     IntValue(10),
		}
	}
	tests := []struct {
		name   string
		mutate func(Arguments)
		want   string
	}{
		{"amount as string", func(a Arguments) { a["amount"] = StringValue("10") }, "Error: Missing required parameter: amount"},
		{"bad date", func(a Arguments) { a["date"] = StringValue("March 15") }, "Error: Invalid parameter 'date': must be a date in YYYY-MM-DD format"},
		{"bad cleared", func(a Arguments) { a["cleared"] = StringValue("maybe") }, "Error: Invalid parameter 'cleared': must be one of cleared, uncleared, reconciled"},
	}
	for _, tt := range tests {
		svc := &fakeService{}
		d, _ := newTestDispatcher(t, svc, 10)
		args := base()
		tt.mutate(args)

		res := d.Dispatch(context.Background(), "create_transaction", args)
		require.True(t, res.IsError, tt.name)
		assert.Equal(t, tt.want, res.Text(), tt.name)
		assert.Empty(t, svc.calls, tt.name)
	}
}

func TestUpdateTransactionSendsOnlyProvidedFields(t *testing.T) {
	t.Parallel()
	svc := &fakeService{}
	d, _ := newTestDispatcher(t, svc, 10)

	res := d.Dispatch(context.Background(), "update_transaction", Arguments{
		"budget_id":      StringValue("b1"),
		"transaction_id": StringValue("t1"),
		"amount":         IntValue(25),
		"flag_color":     StringValue("None"),
		"approved":       BoolValue(false),
	})
	require.False(t, res.IsError, res.Text())

	save := svc.lastSave
	assert.Equal(t, int64(25000), *save.Amount)
	require.NotNil(t, save.FlagColor)
	assert.Equal(t, ynab.FlagNone, *save.FlagColor)
	assert.False(t, *save.Approved)
	assert.Nil(t, save.Date)
	assert.Nil(t, save.Memo)
	assert.Nil(t, save.Cleared)

	res = d.Dispatch(context.Background(), "update_transaction", Arguments{
		"budget_id":      StringValue("b1"),
		"transaction_id": StringValue("t1"),
		"flag_color":     StringValue("magenta"),
	})
	assert.True(t, res.IsError)
	assert.Equal(t, types.ErrCodeInvalidParameter, types.Code(res.Err))
}

func TestBulkUpdateTransactions(t *testing.T) {
	t.Parallel()
	svc := &fakeService{}
	d, limiter := newTestDispatcher(t, svc, 10)

	res := d.Dispatch(context.Background(), "bulk_update_transactions", Arguments{
		"budget_id":       StringValue("b1"),
		"transaction_ids": ListValue(StringValue("t1"), StringValue("t2")),
	})
	require.True(t, res.IsError)
	assert.Contains(t, res.Text(), "Invalid parameter 'bulk_update_transactions': at least one update field")
	assert.Equal(t, 10, limiter.Remaining())

	res = d.Dispatch(context.Background(), "bulk_update_transactions", Arguments{
		"budget_id":       StringValue("b1"),
		"transaction_ids": ListValue(StringValue("t1"), IntValue(5), StringValue("t2")),
		"category_id":     StringValue("c1"),
		"cleared":         StringValue("cleared"),
	})
	require.False(t, res.IsError, res.Text())
	assert.True(t, strings.HasPrefix(res.Text(), "# Bulk Update Complete\n\nUpdated 2 transactions.\n"))

	require.Len(t, svc.lastBatch, 2)
	assert.Equal(t, "t1", svc.lastBatch[0].ID)
	assert.Equal(t, "t2", svc.lastBatch[1].ID)
	for _, s := range svc.lastBatch {
		assert.Equal(t, "c1", *s.CategoryID)
		assert.Equal(t, ynab.Cleared, *s.Cleared)
		assert.Nil(t, s.Amount)
	}

	res = d.Dispatch(context.Background(), "bulk_update_transactions", Arguments{
		"budget_id":       StringValue("b1"),
		"transaction_ids": ListValue(),
		"memo":            StringValue("x"),
	})
	assert.Equal(t, "Error: Invalid parameter 'transaction_ids': must contain at least one string", res.Text())
}

func TestRenamePayee(t *testing.T) {
	t.Parallel()
	svc := &fakeService{}
	d, _ := newTestDispatcher(t, svc, 10)
	args := func(name string) Arguments {
		return Arguments{"budget_id": StringValue("b1"), "payee_id": StringValue("p1"), "name": StringValue(name)}
	}

	res := d.Dispatch(context.Background(), "rename_payee", args("Corner Store"))
	require.False(t, res.IsError, res.Text())
	assert.Equal(t, "# Payee Renamed\n\n- **Name**: Corner Store\n- **ID**: `p1`", res.Text())

	res = d.Dispatch(context.Background(), "rename_payee", args(strings.Repeat("é", 501)))
	assert.Equal(t, "Error: Invalid parameter 'name': must be at most 500 characters", res.Text())

	res = d.Dispatch(context.Background(), "rename_payee", args(strings.Repeat("é", 500)))
	assert.False(t, res.IsError)
}

func TestUpdateCategoryBudget(t *testing.T) {
	t.Parallel()
	svc := &fakeService{}
	d, _ := newTestDispatcher(t, svc, 10)

	res := d.Dispatch(context.Background(), "update_category_budget", Arguments{
		"budget_id":   StringValue("b1"),
		"month":       StringValue("current"),
		"category_id": StringValue("c1"),
		"amount":      NumberValue(500.5),
	})
	require.False(t, res.IsError, res.Text())
	assert.Equal(t, int64(500500), svc.lastBudgeted)
	assert.Equal(t, "current", svc.lastMonth)
	assert.Contains(t, res.Text(), "# Category Budget Updated")
	assert.Contains(t, res.Text(), "- **Budgeted**: $500.50")
	assert.Contains(t, res.Text(), "- **Month**: current")
}
