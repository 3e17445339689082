// Package ofx parses OFX and QFX statement downloads into transactions.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"

	"tally/internal/model"
)

// SourceAccount identifies an account section found in a statement file.
type SourceAccount struct {
	ID   string
	Type model.AccountType
}

// Parser reads OFX/QFX statement files.
type Parser struct{}

// NewParser creates an OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

var (
	// Banks emit mixed-case severity values that strict parsers reject.
	severityCaseRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// SGML-style exports sometimes drop the closing bracket on a bare tag line.
	unclosedTagRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// preprocess repairs formatting quirks seen in real bank downloads before
// handing the content to ofxgo.
func preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityCaseRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	content = unclosedTagRegex.ReplaceAllString(content, "$1>")
	return content
}

func (p *Parser) parse(reader io.Reader) (*ofxgo.Response, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read statement: %w", err)
	}
	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX content: %w", err)
	}
	return resp, nil
}

// ParseFile extracts every transaction from the statement, bank and credit
// card sections alike. Amounts keep their sign: debits are negative.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.Transaction, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	var transactions []model.Transaction
	var bankStmts, cardStmts int

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		bankStmts++
		for _, row := range stmt.BankTranList.Transactions {
			transactions = append(transactions, convertTransaction(row))
		}
	}
	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		cardStmts++
		for _, row := range stmt.BankTranList.Transactions {
			transactions = append(transactions, convertTransaction(row))
		}
	}

	slog.Info("parsed OFX statement",
		"transactions", len(transactions),
		"bank_statements", bankStmts,
		"card_statements", cardStmts)

	return transactions, nil
}

// GetAccounts lists the accounts the statement covers, in file order. Bank
// sections report as checking and credit card sections as credit.
func (p *Parser) GetAccounts(ctx context.Context, reader io.Reader) ([]SourceAccount, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	var accounts []SourceAccount
	seen := make(map[string]bool)
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			id := string(stmt.BankAcctFrom.AcctID)
			if id != "" && !seen[id] {
				seen[id] = true
				accounts = append(accounts, SourceAccount{ID: id, Type: model.AccountTypeChecking})
			}
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			id := string(stmt.CCAcctFrom.AcctID)
			if id != "" && !seen[id] {
				seen[id] = true
				accounts = append(accounts, SourceAccount{ID: id, Type: model.AccountTypeCredit})
			}
		}
	}

	return accounts, nil
}

func convertTransaction(row ofxgo.Transaction) model.Transaction {
	amount, _ := row.TrnAmt.Float64()

	description := strings.TrimSpace(string(row.Name))
	if description == "" {
		description = strings.TrimSpace(string(row.Memo))
	}

	return model.Transaction{
		ID:          string(row.FiTID),
		Date:        row.DtPosted.Time,
		Description: description,
		Merchant:    merchantFor(row),
		Amount:      amount,
		RawPayload:  rawPayload(row),
	}
}

// merchantPrefixes are processor stamps that precede the actual payee.
var merchantPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"ACH DEBIT ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
	"DEBIT PURCHASE ",
}

// genericNames are NAME values too vague to identify a payee.
var genericNames = map[string]bool{
	"DEBIT":           true,
	"CREDIT":          true,
	"PURCHASE":        true,
	"PAYMENT":         true,
	"POS TRANSACTION": true,
	"CARD PURCHASE":   true,
}

// merchantFor picks the cleanest payee name available: PAYEE when present,
// otherwise NAME with MEMO substituted for generic values, minus processor
// prefixes and leading MM/DD stamps.
func merchantFor(row ofxgo.Transaction) string {
	if row.Payee != nil && row.Payee.Name != "" {
		return strings.TrimSpace(string(row.Payee.Name))
	}

	name := strings.TrimSpace(string(row.Name))
	if memo := strings.TrimSpace(string(row.Memo)); memo != "" && genericNames[strings.ToUpper(name)] {
		name = memo
	}

	for _, prefix := range merchantPrefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = strings.TrimSpace(name[len(prefix):])
			break
		}
	}

	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

// rawPayload preserves the source fields the model has no column for.
func rawPayload(row ofxgo.Transaction) string {
	parts := []string{fmt.Sprintf("%v", row.TrnType)}
	if memo := strings.TrimSpace(string(row.Memo)); memo != "" {
		parts = append(parts, memo)
	}
	if row.CheckNum != "" {
		parts = append(parts, "check "+string(row.CheckNum))
	}
	return strings.Join(parts, " | ")
}
