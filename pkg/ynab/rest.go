package ynab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultBaseURL is the public YNAB API endpoint.
const DefaultBaseURL = "https://api.ynab.com/v1"

const (
	dateLayout      = "2006-01-02"
	maxErrorBodyLen = 512
)

// RESTConfig configures a RESTService.
type RESTConfig struct {
	Token   string
	BaseURL string
	Timeout time.Duration

	// HTTPClient overrides the instrumented default client.
	HTTPClient *http.Client
}

// RESTService implements Service against the YNAB HTTP API.
type RESTService struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ Service = (*RESTService)(nil)

func NewRESTService(cfg RESTConfig) (*RESTService, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("ynab: access token is required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("ynab: invalid base URL %q: %w", base, err)
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &RESTService{
		baseURL: strings.TrimRight(base, "/"),
		token:   cfg.Token,
		http:    client,
	}, nil
}

// APIError is the error envelope returned by the API.
type APIError struct {
	StatusCode int    `json:"-"`
	ID         string `json:"id"`
	Name       string `json:"name"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("YNAB API error %d (%s): %s", e.StatusCode, e.Name, e.Detail)
}

// do performs one request and decodes the "data" member of the response into out.
func (s *RESTService) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := s.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ynab: encoding %s %s request: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("ynab: building %s %s request: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("ynab: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ynab: reading %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, raw)
	}

	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("ynab: decoding %s %s response: %w", method, path, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("ynab: decoding %s %s data: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(status int, raw []byte) error {
	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != nil {
		envelope.Error.StatusCode = status
		return envelope.Error
	}
	detail := strings.TrimSpace(string(raw))
	if len(detail) > maxErrorBodyLen {
		detail = detail[:maxErrorBodyLen]
	}
	if detail == "" {
		detail = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Name: "http_error", Detail: detail}
}

func sinceQuery(since time.Time) url.Values {
	if since.IsZero() {
		return nil
	}
	return url.Values{"since_date": []string{since.UTC().Format(dateLayout)}}
}

func budgetPath(budgetID string, parts ...string) string {
	var b strings.Builder
	b.WriteString("/budgets/")
	b.WriteString(url.PathEscape(budgetID))
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}

func (s *RESTService) ListBudgets(ctx context.Context) ([]BudgetSummary, error) {
	var data struct {
		Budgets []BudgetSummary `json:"budgets"`
	}
	q := url.Values{"include_accounts": []string{"false"}}
	if err := s.do(ctx, http.MethodGet, "/budgets", q, nil, &data); err != nil {
		return nil, err
	}
	return data.Budgets, nil
}

func (s *RESTService) ListAccounts(ctx context.Context, budgetID string) ([]Account, error) {
	var data struct {
		Accounts []Account `json:"accounts"`
	}
	if err := s.do(ctx, http.MethodGet, budgetPath(budgetID, "accounts"), nil, nil, &data); err != nil {
		return nil, err
	}
	return data.Accounts, nil
}

func (s *RESTService) GetBudgetDetail(ctx context.Context, budgetID string) (*BudgetDetail, error) {
	var data struct {
		Budget BudgetDetail `json:"budget"`
	}
	if err := s.do(ctx, http.MethodGet, budgetPath(budgetID), nil, nil, &data); err != nil {
		return nil, err
	}
	return &data.Budget, nil
}

func (s *RESTService) ListCategories(ctx context.Context, budgetID string) ([]CategoryGroup, error) {
	var data struct {
		CategoryGroups []CategoryGroup `json:"category_groups"`
	}
	if err := s.do(ctx, http.MethodGet, budgetPath(budgetID, "categories"), nil, nil, &data); err != nil {
		return nil, err
	}
	return data.CategoryGroups, nil
}

func (s *RESTService) listTransactions(ctx context.Context, path string, since time.Time) ([]Transaction, error) {
	var data struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := s.do(ctx, http.MethodGet, path, sinceQuery(since), nil, &data); err != nil {
		return nil, err
	}
	return data.Transactions, nil
}

func (s *RESTService) ListTransactions(ctx context.Context, budgetID, accountID string, since time.Time) ([]Transaction, error) {
	path := budgetPath(budgetID, "transactions")
	if accountID != "" {
		path = budgetPath(budgetID, "accounts", accountID, "transactions")
	}
	return s.listTransactions(ctx, path, since)
}

func (s *RESTService) TransactionsByPayee(ctx context.Context, budgetID, payeeID string, since time.Time) ([]Transaction, error) {
	return s.listTransactions(ctx, budgetPath(budgetID, "payees", payeeID, "transactions"), since)
}

func (s *RESTService) TransactionsByCategory(ctx context.Context, budgetID, categoryID string, since time.Time) ([]Transaction, error) {
	return s.listTransactions(ctx, budgetPath(budgetID, "categories", categoryID, "transactions"), since)
}

func (s *RESTService) GetTransaction(ctx context.Context, budgetID, transactionID string) (*Transaction, error) {
	var data struct {
		Transaction Transaction `json:"transaction"`
	}
	if err := s.do(ctx, http.MethodGet, budgetPath(budgetID, "transactions", transactionID), nil, nil, &data); err != nil {
		return nil, err
	}
	return &data.Transaction, nil
}

func (s *RESTService) CreateTransaction(ctx context.Context, budgetID string, txn SaveTransaction) (*Transaction, error) {
	body := map[string]any{"transaction": txn}
	var data struct {
		Transaction Transaction `json:"transaction"`
	}
	if err := s.do(ctx, http.MethodPost, budgetPath(budgetID, "transactions"), nil, body, &data); err != nil {
		return nil, err
	}
	return &data.Transaction, nil
}

func (s *RESTService) UpdateTransaction(ctx context.Context, budgetID, transactionID string, txn SaveTransaction) (*Transaction, error) {
	txn.ID = ""
	body := map[string]any{"transaction": txn}
	var data struct {
		Transaction Transaction `json:"transaction"`
	}
	if err := s.do(ctx, http.MethodPut, budgetPath(budgetID, "transactions", transactionID), nil, body, &data); err != nil {
		return nil, err
	}
	return &data.Transaction, nil
}

func (s *RESTService) BulkUpdateTransactions(ctx context.Context, budgetID string, txns []SaveTransaction) ([]Transaction, error) {
	body := map[string]any{"transactions": txns}
	var data struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := s.do(ctx, http.MethodPatch, budgetPath(budgetID, "transactions"), nil, body, &data); err != nil {
		return nil, err
	}
	return data.Transactions, nil
}

func (s *RESTService) ListPayees(ctx context.Context, budgetID string) ([]Payee, error) {
	var data struct {
		Payees []Payee `json:"payees"`
	}
	if err := s.do(ctx, http.MethodGet, budgetPath(budgetID, "payees"), nil, nil, &data); err != nil {
		return nil, err
	}
	return data.Payees, nil
}

func (s *RESTService) RenamePayee(ctx context.Context, budgetID, payeeID, name string) (*Payee, error) {
	body := map[string]any{"payee": map[string]string{"name": name}}
	var data struct {
		Payee Payee `json:"payee"`
	}
	if err := s.do(ctx, http.MethodPatch, budgetPath(budgetID, "payees", payeeID), nil, body, &data); err != nil {
		return nil, err
	}
	return &data.Payee, nil
}

func (s *RESTService) ListScheduledTransactions(ctx context.Context, budgetID string) ([]ScheduledTransaction, error) {
	var data struct {
		ScheduledTransactions []ScheduledTransaction `json:"scheduled_transactions"`
	}
	if err := s.do(ctx, http.MethodGet, budgetPath(budgetID, "scheduled_transactions"), nil, nil, &data); err != nil {
		return nil, err
	}
	return data.ScheduledTransactions, nil
}

func (s *RESTService) UpdateCategoryBudget(ctx context.Context, budgetID, month, categoryID string, budgeted int64) (*Category, error) {
	body := map[string]any{"category": map[string]int64{"budgeted": budgeted}}
	var data struct {
		Category Category `json:"category"`
	}
	if err := s.do(ctx, http.MethodPatch, budgetPath(budgetID, "months", month, "categories", categoryID), nil, body, &data); err != nil {
		return nil, err
	}
	return &data.Category, nil
}

func (s *RESTService) GetMonth(ctx context.Context, budgetID, month string) (*MonthDetail, error) {
	var data struct {
		Month MonthDetail `json:"month"`
	}
	if err := s.do(ctx, http.MethodGet, budgetPath(budgetID, "months", month), nil, nil, &data); err != nil {
		return nil, err
	}
	return &data.Month, nil
}
