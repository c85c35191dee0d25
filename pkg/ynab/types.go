package ynab

import "encoding/json"

// Monetary amounts are integer milliunits: 1000 milliunits = one currency unit.

// ClearedStatus is the reconciliation state of a transaction.
type ClearedStatus string

const (
	Cleared    ClearedStatus = "cleared"
	Uncleared  ClearedStatus = "uncleared"
	Reconciled ClearedStatus = "reconciled"
)

// FlagColor is a transaction flag. FlagNone means "no flag" and is encoded as
// JSON null so that an update can clear an existing flag.
type FlagColor string

const (
	FlagNone   FlagColor = ""
	FlagRed    FlagColor = "red"
	FlagOrange FlagColor = "orange"
	FlagYellow FlagColor = "yellow"
	FlagGreen  FlagColor = "green"
	FlagBlue   FlagColor = "blue"
	FlagPurple FlagColor = "purple"
)

func (f FlagColor) MarshalJSON() ([]byte, error) {
	if f == FlagNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(f))
}

func (f *FlagColor) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = FlagNone
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*f = FlagColor(s)
	return nil
}

type CurrencyFormat struct {
	ISOCode string `json:"iso_code"`
}

type BudgetSummary struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	LastModifiedOn string          `json:"last_modified_on,omitempty"`
	CurrencyFormat *CurrencyFormat `json:"currency_format,omitempty"`
}

type Account struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	OnBudget         bool   `json:"on_budget"`
	Closed           bool   `json:"closed"`
	Balance          int64  `json:"balance"`
	ClearedBalance   int64  `json:"cleared_balance"`
	UnclearedBalance int64  `json:"uncleared_balance"`
	Deleted          bool   `json:"deleted"`
}

type Category struct {
	ID              string `json:"id"`
	CategoryGroupID string `json:"category_group_id"`
	Name            string `json:"name"`
	Hidden          bool   `json:"hidden"`
	Deleted         bool   `json:"deleted"`
	Budgeted        int64  `json:"budgeted"`
	Activity        int64  `json:"activity"`
	Balance         int64  `json:"balance"`
}

type CategoryGroup struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Hidden     bool       `json:"hidden"`
	Deleted    bool       `json:"deleted"`
	Categories []Category `json:"categories,omitempty"`
}

// BudgetDetail is a full budget export. Categories reference their group by ID.
type BudgetDetail struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Accounts       []Account       `json:"accounts"`
	CategoryGroups []CategoryGroup `json:"category_groups"`
	Categories     []Category      `json:"categories"`
}

// Transaction covers both the detailed and the hybrid transaction shapes
// returned by the API.
type Transaction struct {
	ID           string        `json:"id"`
	Date         string        `json:"date"`
	Amount       int64         `json:"amount"`
	Memo         *string       `json:"memo"`
	Cleared      ClearedStatus `json:"cleared"`
	Approved     bool          `json:"approved"`
	FlagColor    FlagColor     `json:"flag_color"`
	AccountID    string        `json:"account_id"`
	AccountName  string        `json:"account_name"`
	PayeeID      *string       `json:"payee_id"`
	PayeeName    *string       `json:"payee_name"`
	CategoryID   *string       `json:"category_id"`
	CategoryName *string       `json:"category_name"`
	Deleted      bool          `json:"deleted"`
}

// SaveTransaction is the write shape for create, update and bulk update.
// Nil fields are left unchanged by updates.
type SaveTransaction struct {
	ID         string         `json:"id,omitempty"`
	AccountID  *string        `json:"account_id,omitempty"`
	Date       *string        `json:"date,omitempty"`
	Amount     *int64         `json:"amount,omitempty"`
	PayeeName  *string        `json:"payee_name,omitempty"`
	CategoryID *string        `json:"category_id,omitempty"`
	Memo       *string        `json:"memo,omitempty"`
	Cleared    *ClearedStatus `json:"cleared,omitempty"`
	Approved   *bool          `json:"approved,omitempty"`
	FlagColor  *FlagColor     `json:"flag_color,omitempty"`
}

type Payee struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	TransferAccountID *string `json:"transfer_account_id"`
	Deleted           bool    `json:"deleted"`
}

type MonthDetail struct {
	Month        string     `json:"month"`
	Income       int64      `json:"income"`
	Budgeted     int64      `json:"budgeted"`
	Activity     int64      `json:"activity"`
	ToBeBudgeted int64      `json:"to_be_budgeted"`
	AgeOfMoney   *int       `json:"age_of_money"`
	Deleted      bool       `json:"deleted"`
	Categories   []Category `json:"categories"`
}

type ScheduledTransaction struct {
	ID           string    `json:"id"`
	DateFirst    string    `json:"date_first"`
	DateNext     string    `json:"date_next"`
	Frequency    string    `json:"frequency"`
	Amount       int64     `json:"amount"`
	Memo         *string   `json:"memo"`
	FlagColor    FlagColor `json:"flag_color"`
	AccountID    string    `json:"account_id"`
	AccountName  string    `json:"account_name"`
	PayeeName    *string   `json:"payee_name"`
	CategoryName *string   `json:"category_name"`
	Deleted      bool      `json:"deleted"`
}

// Ptr returns a pointer to v. Handy for building SaveTransaction values.
func Ptr[T any](v T) *T { return &v }

// Deref returns *p, or def when p is nil.
func Deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
