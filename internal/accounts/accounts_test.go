package accounts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleTable = `# Aufwandskonten
code;description;type
4400;Einkauf Dienstleistungen;Aufwand
6500;Büromaterial;Aufwand
6570;Informatikaufwand
notanumber;skip me
6500;Duplikat wird ignoriert;Aufwand
`

func TestParse(t *testing.T) {
	table, err := Parse(strings.NewReader(sampleTable))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("Len = %d, want 3", table.Len())
	}

	acct, ok := table.Lookup("4400")
	if !ok {
		t.Fatal("expected account 4400")
	}
	if acct.Description != "Einkauf Dienstleistungen" || acct.Type != "Aufwand" {
		t.Fatalf("unexpected account: %+v", acct)
	}

	acct, ok = table.Lookup("6570")
	if !ok || acct.Type != "" {
		t.Fatalf("expected typeless account 6570, got %+v ok=%v", acct, ok)
	}

	// First occurrence wins for duplicate codes.
	acct, _ = table.Lookup("6500")
	if acct.Description != "Büromaterial" {
		t.Fatalf("duplicate handling wrong: %+v", acct)
	}
}

func TestMatch(t *testing.T) {
	table, err := Parse(strings.NewReader(sampleTable))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	acct, ok := table.Match("4400 - Einkauf Dienstleistungen")
	if !ok || acct.Code != "4400" {
		t.Fatalf("Match = %+v ok=%v", acct, ok)
	}

	acct, ok = table.Match("Konto 6500 (Büromaterial)")
	if !ok || acct.Code != "6500" {
		t.Fatalf("Match = %+v ok=%v", acct, ok)
	}

	if _, ok := table.Match("kein Konto erkennbar"); ok {
		t.Fatal("expected no match without digits")
	}
	if _, ok := table.Match("9999 unbekannt"); ok {
		t.Fatal("expected no match for unknown code")
	}
}

func TestLabel(t *testing.T) {
	acct := Account{Code: "4400", Description: "Einkauf Dienstleistungen"}
	if got := acct.Label(); got != "4400 - Einkauf Dienstleistungen" {
		t.Fatalf("Label = %q", got)
	}
	if got := (Account{Code: "6500"}).Label(); got != "6500" {
		t.Fatalf("Label without description = %q", got)
	}
}

func TestPromptBlock(t *testing.T) {
	table, err := Parse(strings.NewReader(sampleTable))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	block := table.PromptBlock()
	if !strings.Contains(block, "4400;Einkauf Dienstleistungen;Aufwand") {
		t.Fatalf("PromptBlock missing row: %q", block)
	}
	if strings.Contains(block, "notanumber") {
		t.Fatalf("PromptBlock should not contain skipped rows: %q", block)
	}

	var empty *Table
	if empty.PromptBlock() != "" {
		t.Fatal("nil table should render empty block")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.csv")
	if err := os.WriteFile(path, []byte(sampleTable), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("Len = %d", table.Len())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
