// Package mt940 parses the subset of the MT940 bank statement grammar
// this bridge needs: the account/statement header fields and each
// :61:/:86: transaction pair. No example in the retrieval pack imports
// an MT940 library, so this is a deliberate standard-library-only
// component: a line-oriented tag scanner over bufio.Scanner.
package mt940

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Statement is the parsed representation of one uploaded MT940 file.
type Statement struct {
	AccountNumber       string
	TransactionReference string
	StatementNumber     string
	SequenceNumber      string
	Transactions        []Transaction
}

// Transaction is one parsed :61:/:86: pair with debit/credit
// indicator "D" or "RD" (reversal of a prior debit).
type Transaction struct {
	EntrySequence     int
	Indicator         string
	Amount            int64
	ValueDate         time.Time
	EntryDate         time.Time
	CustomerReference string
	BankReference     string
	Narratives        []string
}

var tagRe = regexp.MustCompile(`^:(\d{2}[A-Z]?):(.*)$`)

// line61Re captures the SWIFT :61: statement line, simplified to the
// fields this bridge reads: value date, optional entry date, D/C
// indicator, amount, customer reference and bank reference.
var line61Re = regexp.MustCompile(
	`^(?P<valueDate>\d{6})(?P<entryDate>\d{4})?(?P<indicator>R?[DC])(?P<amount>[\d,]+)(?:[A-Z][A-Z0-9]{3})?(?P<customerRef>[^/]*)(?://(?P<bankRef>.*))?$`)

// Parse scans raw MT940 bytes and returns the header fields plus one
// Transaction per :61:/:86: pair whose indicator is D or RD.
func Parse(raw []byte) (*Statement, error) {
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	st := &Statement{}
	var curTag, curBody string
	var pendingTxn *Transaction
	entrySeq := 0

	flush := func() error {
		switch curTag {
		case "20":
			st.TransactionReference = strings.TrimSpace(curBody)
		case "25":
			st.AccountNumber = strings.TrimSpace(curBody)
		case "28C":
			parts := strings.SplitN(strings.TrimSpace(curBody), "/", 2)
			st.StatementNumber = parts[0]
			if len(parts) > 1 {
				st.SequenceNumber = parts[1]
			}
		case "61":
			entrySeq++
			txn, err := parseLine61(curBody, entrySeq)
			if err != nil {
				return fmt.Errorf("parsing :61: line %d: %w", entrySeq, err)
			}
			txn.Narratives = nil
			pendingTxn = txn
		case "86":
			if pendingTxn != nil {
				pendingTxn.Narratives = splitNarrative(curBody)
				if pendingTxn.Indicator == "D" || pendingTxn.Indicator == "RD" {
					st.Transactions = append(st.Transactions, *pendingTxn)
				}
				pendingTxn = nil
			}
		}
		return nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		if m := tagRe.FindStringSubmatch(line); m != nil {
			if err := flush(); err != nil {
				return nil, err
			}
			curTag, curBody = m[1], m[2]
			continue
		}
		curBody += "\n" + line
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return st, nil
}

func parseLine61(body string, entrySeq int) (*Transaction, error) {
	body = strings.TrimSpace(strings.SplitN(body, "\n", 2)[0])
	m := line61Re.FindStringSubmatch(body)
	if m == nil {
		return nil, fmt.Errorf("malformed :61: line: %q", body)
	}
	names := line61Re.SubexpNames()
	fields := map[string]string{}
	for i, n := range names {
		if i == 0 || n == "" {
			continue
		}
		fields[n] = m[i]
	}

	indicator := fields["indicator"]
	if !strings.HasSuffix(indicator, "D") {
		indicator = strings.TrimPrefix(indicator, "R") + "C"
	}

	valueDate, err := parseYYMMDD(fields["valueDate"])
	if err != nil {
		return nil, err
	}
	entryDate := valueDate
	if ed := fields["entryDate"]; ed != "" {
		entryDate, _ = parseMMDD(valueDate.Year(), ed)
	}

	amount, err := parseAmount(fields["amount"])
	if err != nil {
		return nil, err
	}

	return &Transaction{
		EntrySequence:     entrySeq,
		Indicator:         indicator,
		Amount:            amount,
		ValueDate:         valueDate,
		EntryDate:         entryDate,
		CustomerReference: strings.TrimSpace(fields["customerRef"]),
		BankReference:     strings.TrimSpace(fields["bankRef"]),
	}, nil
}

func parseYYMMDD(s string) (time.Time, error) {
	return time.Parse("060102", s)
}

func parseMMDD(year int, s string) (time.Time, error) {
	t, err := time.Parse("0102", s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(year, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// parseAmount converts a comma-decimal MT940 amount (e.g. "1234,56")
// into integer minor units.
func parseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	parts := strings.SplitN(s, ",", 2)
	whole, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, err
	}
	minor := int64(0)
	if len(parts) > 1 {
		frac := parts[1]
		for len(frac) < 2 {
			frac += "0"
		}
		minor, err = strconv.ParseInt(frac[:2], 10, 64)
		if err != nil {
			return 0, err
		}
	}
	return whole*100 + minor, nil
}

func splitNarrative(body string) []string {
	var out []string
	for _, l := range strings.Split(body, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}
