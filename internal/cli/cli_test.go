package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type harness struct {
	db string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("DEBTBOOK_USER", "")
	h := &harness{db: filepath.Join(t.TempDir(), "cli.db")}
	h.mustRun(t, "user", "register", "alice", "--password", "password123", "--name", "Alice")
	return h
}

// run executes one CLI invocation against the harness database.
func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--db", h.db, "--user", "alice"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, args...)
	require.NoError(t, err, "debtbook %s\n%s", strings.Join(args, " "), out)
	return out
}

func TestMigrate(t *testing.T) {
	h := &harness{db: filepath.Join(t.TempDir(), "nested", "cli.db")}
	out := h.mustRun(t, "migrate")
	require.Contains(t, out, "Schema at version 1")
	_, err := os.Stat(h.db)
	require.NoError(t, err)
}

func TestDebtWorkflow(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "debt", "create", "1500", "--phone", "+254700000001", "--name", "Bob",
		"--direction", "owed_to_me", "--reason", "Lunch", "--due", "2026-12-01")
	require.Contains(t, out, "Created debt #1")
	require.Contains(t, out, "2026-12-01")

	out = h.mustRun(t, "debt", "pay", "1", "500", "--note", "M-Pesa QK12")
	require.Contains(t, out, "Paid 500.00 on debt #1")
	require.Contains(t, out, "active-partial")

	out = h.mustRun(t, "account", "show")
	require.Contains(t, out, "1000.00")

	out = h.mustRun(t, "debt", "pay", "1", "1200")
	require.Contains(t, out, "Overpaid by 200.00")
	require.Contains(t, out, "settled")

	_, err := h.run(t, "debt", "delete", "1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "settled")

	out = h.mustRun(t, "debt", "show", "1")
	require.Contains(t, out, "Bob (+254700000001)")
	require.Contains(t, out, "M-Pesa QK12")

	out = h.mustRun(t, "account", "transactions")
	require.Contains(t, out, "lend")
	require.Contains(t, out, "repayment")

	out = h.mustRun(t, "account", "reconcile")
	require.Contains(t, out, "is consistent")
}

func TestDebtUpdateAndDelete(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "contact", "add", "Carol", "+254700000002")
	h.mustRun(t, "debt", "create", "300", "--contact", "1", "--direction", "i_owe")

	out := h.mustRun(t, "debt", "update", "1", "--amount", "450.75", "--reason", "Fuel")
	require.Contains(t, out, "450.75")
	require.Contains(t, out, "Fuel")

	_, err := h.run(t, "debt", "update", "1")
	require.ErrorContains(t, err, "nothing to update")

	_, err = h.run(t, "debt", "create", "-5", "--contact", "1", "--direction", "i_owe")
	require.Error(t, err)

	h.mustRun(t, "debt", "delete", "1")
	out = h.mustRun(t, "debt", "list")
	require.Contains(t, out, "No debts.")
}

func TestContactCommands(t *testing.T) {
	h := newHarness(t)

	csvPath := filepath.Join(t.TempDir(), "contacts.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("name,phone\nDan,+254700000003\nEve,+254 700 000 004\nNo phone,\n"), 0o600))
	out := h.mustRun(t, "contact", "import", csvPath)
	require.Contains(t, out, "Imported 2 contacts")

	out = h.mustRun(t, "contact", "list")
	require.Contains(t, out, "+254700000004")

	h.mustRun(t, "debt", "create", "100", "--contact", "1", "--direction", "owed_to_me")

	out = h.mustRun(t, "contact", "list", "--summary")
	require.Contains(t, out, "100.00")

	_, err := h.run(t, "contact", "delete", "1")
	require.ErrorContains(t, err, "referenced")

	h.mustRun(t, "contact", "delete", "1", "--cascade")
	out = h.mustRun(t, "account", "show")
	require.NotContains(t, out, "100.00")
}

func TestIncome(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun(t, "income", "record", "2500.50", "--description", "Salary")
	require.Contains(t, out, "Recorded income of 2500.50")
}

func TestUnknownUser(t *testing.T) {
	h := &harness{db: filepath.Join(t.TempDir(), "cli.db")}
	_, err := h.run(t, "debt", "list")
	require.ErrorContains(t, err, `user "alice"`)
}
