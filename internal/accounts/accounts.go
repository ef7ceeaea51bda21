// Package accounts loads the optional chart of accounts used to classify
// document expenses. The table is read once at startup and shared read-only
// with every worker.
package accounts

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

// Account is one row of the chart of accounts.
type Account struct {
	Code        string
	Description string
	Type        string
}

// Label renders the account the way it appears in filenames, e.g.
// "4400 - Einkauf Dienstleistungen".
func (a Account) Label() string {
	if a.Description == "" {
		return a.Code
	}
	return a.Code + " - " + a.Description
}

// Table is an immutable account lookup table.
type Table struct {
	accounts []Account
	byCode   map[string]Account
}

// Load reads a semicolon-delimited accounts file (code;description;type).
func Load(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open accounts file: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads semicolon-delimited rows. Blank lines, comment lines starting
// with '#', and rows whose code is not numeric are skipped rather than
// treated as errors; a partially usable table beats no table.
func Parse(r io.Reader) (*Table, error) {
	table := &Table{byCode: make(map[string]Account)}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ";")
		if len(fields) < 2 {
			continue
		}
		code := strings.TrimSpace(fields[0])
		if !isNumeric(code) {
			continue
		}
		acct := Account{
			Code:        code,
			Description: strings.TrimSpace(fields[1]),
		}
		if len(fields) > 2 {
			acct.Type = strings.TrimSpace(fields[2])
		}
		if _, exists := table.byCode[code]; exists {
			continue
		}
		table.accounts = append(table.accounts, acct)
		table.byCode[code] = acct
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read accounts: %w", err)
	}
	return table, nil
}

// Len reports the number of accounts in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.accounts)
}

// All returns the accounts in file order.
func (t *Table) All() []Account {
	if t == nil {
		return nil
	}
	out := make([]Account, len(t.accounts))
	copy(out, t.accounts)
	return out
}

// Lookup returns the account with the given code.
func (t *Table) Lookup(code string) (Account, bool) {
	if t == nil {
		return Account{}, false
	}
	acct, ok := t.byCode[strings.TrimSpace(code)]
	return acct, ok
}

// Match extracts the first account code embedded in free text (such as
// "4400 - Einkauf Dienstleistungen" returned by the analyzer) and resolves
// it against the table.
func (t *Table) Match(text string) (Account, bool) {
	if t == nil {
		return Account{}, false
	}
	var code strings.Builder
	for _, r := range text {
		if unicode.IsDigit(r) {
			code.WriteRune(r)
			continue
		}
		if code.Len() > 0 {
			break
		}
	}
	if code.Len() == 0 {
		return Account{}, false
	}
	return t.Lookup(code.String())
}

// PromptBlock renders the table as semicolon-delimited lines for inclusion
// in the analyzer prompt.
func (t *Table) PromptBlock() string {
	if t == nil || len(t.accounts) == 0 {
		return ""
	}
	var b strings.Builder
	for _, acct := range t.accounts {
		b.WriteString(acct.Code)
		b.WriteString(";")
		b.WriteString(acct.Description)
		if acct.Type != "" {
			b.WriteString(";")
			b.WriteString(acct.Type)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
