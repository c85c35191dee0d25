package format

import (
	"fmt"
	"strings"

	"github.com/isitobservable/ynab-mcp/pkg/ynab"
)

// EscapeCell escapes pipe characters so a value can sit inside a markdown table cell.
func EscapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// Table renders a titled markdown table followed by a "Total: N <noun>" line.
// Every cell is escaped. An empty row set renders "No <noun> found." instead
// of the table.
func Table(title, noun string, headers []string, rows [][]string) string {
	lines := []string{title}
	if len(rows) == 0 {
		lines = append(lines, fmt.Sprintf("No %s found.", noun))
	} else {
		lines = append(lines, tableRow(headers))
		sep := make([]string, len(headers))
		for i, h := range headers {
			sep[i] = strings.Repeat("-", len(h)+2)
		}
		lines = append(lines, "|"+strings.Join(sep, "|")+"|")
		for _, r := range rows {
			lines = append(lines, tableRow(r))
		}
	}
	lines = append(lines, fmt.Sprintf("\nTotal: %d %s", len(rows), noun))
	return strings.Join(lines, "\n")
}

func tableRow(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = EscapeCell(c)
	}
	return "| " + strings.Join(escaped, " | ") + " |"
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func code(s string) string { return "`" + s + "`" }

func Budgets(budgets []ynab.BudgetSummary) string {
	lines := []string{"# YNAB Budgets\n"}
	for _, b := range budgets {
		currency := "USD"
		if b.CurrencyFormat != nil && b.CurrencyFormat.ISOCode != "" {
			currency = b.CurrencyFormat.ISOCode
		}
		lines = append(lines, fmt.Sprintf("- **%s** (%s)", b.Name, currency))
		lines = append(lines, "  ID: "+code(b.ID))
		if b.LastModifiedOn != "" {
			lines = append(lines, "  Last modified: "+b.LastModifiedOn)
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func Accounts(accounts []ynab.Account) string {
	lines := []string{"# Accounts\n"}
	for _, a := range accounts {
		status := ""
		if a.Closed {
			status = " (CLOSED)"
		}
		lines = append(lines,
			fmt.Sprintf("- **%s**%s - %s", a.Name, status, Dollars(a.Balance)),
			fmt.Sprintf("  Type: %s  |  On budget: %s", a.Type, yesNo(a.OnBudget)),
			fmt.Sprintf("  Cleared: %s  |  Uncleared: %s", Dollars(a.ClearedBalance), Dollars(a.UnclearedBalance)),
			"  ID: "+code(a.ID),
			"",
		)
	}
	return strings.Join(lines, "\n")
}

// BudgetSummary renders the overview of one budget. Each group carries the
// categories to show under it.
func BudgetSummary(name string, accounts []ynab.Account, groups []ynab.CategoryGroup) string {
	lines := []string{fmt.Sprintf("# Budget: %s\n", name), "## Accounts\n"}
	for _, a := range accounts {
		lines = append(lines, fmt.Sprintf("- **%s**: %s", a.Name, Dollars(a.Balance)))
	}
	lines = append(lines, "", "## Category Groups\n")
	for _, g := range groups {
		lines = append(lines, "### "+g.Name)
		for _, c := range g.Categories {
			lines = append(lines, fmt.Sprintf("- %s: Budgeted %s | Activity %s | Available %s",
				c.Name, Dollars(c.Budgeted), Dollars(c.Activity), Dollars(c.Balance)))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func Categories(groups []ynab.CategoryGroup) string {
	lines := []string{"# Categories\n"}
	for _, g := range groups {
		lines = append(lines, "## "+g.Name)
		for _, c := range g.Categories {
			lines = append(lines, fmt.Sprintf("- **%s** %s", c.Name, code(c.ID)))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func MonthSummary(month string, m *ynab.MonthDetail, categories []ynab.Category) string {
	lines := []string{
		fmt.Sprintf("# Month: %s\n", month),
		"- Income: " + Dollars(m.Income),
		"- Budgeted: " + Dollars(m.Budgeted),
		"- Activity: " + Dollars(m.Activity),
		"- To Be Budgeted: " + Dollars(m.ToBeBudgeted),
	}
	if m.AgeOfMoney != nil {
		lines = append(lines, fmt.Sprintf("- Age of Money: %d days", *m.AgeOfMoney))
	}
	lines = append(lines, "")

	rows := make([][]string, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, []string{c.Name, Dollars(c.Budgeted), Dollars(c.Activity), Dollars(c.Balance)})
	}
	lines = append(lines, Table("## Categories\n", "categories", []string{"Category", "Budgeted", "Activity", "Available"}, rows))
	return strings.Join(lines, "\n")
}

func Payees(payees []ynab.Payee) string {
	rows := make([][]string, 0, len(payees))
	for _, p := range payees {
		name := p.Name
		if p.TransferAccountID != nil {
			name += " (transfer)"
		}
		rows = append(rows, []string{name, code(p.ID)})
	}
	return Table("# Payees\n", "payees", []string{"Name", "ID"}, rows)
}

func ScheduledTransactions(txns []ynab.ScheduledTransaction) string {
	rows := make([][]string, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, []string{
			ynab.Deref(t.PayeeName, "-"),
			Dollars(t.Amount),
			t.Frequency,
			t.DateNext,
			t.AccountName,
			ynab.Deref(t.CategoryName, "-"),
		})
	}
	return Table("# Scheduled Transactions\n", "scheduled transactions",
		[]string{"Payee", "Amount", "Frequency", "Next Date", "Account", "Category"}, rows)
}

// TransactionTable renders transactions without an account column.
func TransactionTable(txns []ynab.Transaction, title string) string {
	rows := make([][]string, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, []string{
			code(t.ID),
			t.Date,
			ynab.Deref(t.PayeeName, "-"),
			ynab.Deref(t.CategoryName, "-"),
			Dollars(t.Amount),
			string(t.Cleared),
			yesNo(t.Approved),
			ynab.Deref(t.Memo, ""),
		})
	}
	return Table(title, "transactions",
		[]string{"ID", "Date", "Payee", "Category", "Amount", "Cleared", "Approved", "Memo"}, rows)
}

// AccountTransactionTable renders transactions with an account column, for
// listings that span accounts.
func AccountTransactionTable(txns []ynab.Transaction, title string) string {
	rows := make([][]string, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, []string{
			code(t.ID),
			t.Date,
			t.AccountName,
			ynab.Deref(t.PayeeName, "-"),
			ynab.Deref(t.CategoryName, "-"),
			Dollars(t.Amount),
			string(t.Cleared),
			yesNo(t.Approved),
			ynab.Deref(t.Memo, ""),
		})
	}
	return Table(title, "transactions",
		[]string{"ID", "Date", "Account", "Payee", "Category", "Amount", "Cleared", "Approved", "Memo"}, rows)
}

func TransactionDetail(t *ynab.Transaction) string {
	lines := []string{
		"# Transaction\n",
		"- **ID**: " + code(t.ID),
		"- **Date**: " + t.Date,
		"- **Amount**: " + Dollars(t.Amount),
		"- **Account**: " + t.AccountName,
	}
	if t.PayeeName != nil {
		lines = append(lines, "- **Payee**: "+*t.PayeeName)
	}
	if t.CategoryName != nil {
		lines = append(lines, "- **Category**: "+*t.CategoryName)
	}
	lines = append(lines,
		"- **Cleared**: "+string(t.Cleared),
		"- **Approved**: "+yesNo(t.Approved),
	)
	if t.FlagColor != ynab.FlagNone {
		lines = append(lines, "- **Flag**: "+string(t.FlagColor))
	}
	if memo := ynab.Deref(t.Memo, ""); memo != "" {
		lines = append(lines, "- **Memo**: "+memo)
	}
	return strings.Join(lines, "\n")
}

func PayeeRenamed(p *ynab.Payee) string {
	return strings.Join([]string{
		"# Payee Renamed\n",
		"- **Name**: " + p.Name,
		"- **ID**: " + code(p.ID),
	}, "\n")
}

func CategoryBudgetUpdated(c *ynab.Category, month string) string {
	return strings.Join([]string{
		"# Category Budget Updated\n",
		"- **Category**: " + c.Name,
		"- **Month**: " + month,
		"- **Budgeted**: " + Dollars(c.Budgeted),
		"- **Activity**: " + Dollars(c.Activity),
		"- **Available**: " + Dollars(c.Balance),
	}, "\n")
}
