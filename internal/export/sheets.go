package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/LedyBacer/bs-budget-tracker-backend/internal/core"
)

// SheetsClient appends ledger rows to a single Google Sheets tab.
type SheetsClient struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewSheetsClient builds a Sheets service from inline service account
// credentials.
func NewSheetsClient(ctx context.Context, spreadsheetID, sheetName, credentialsJSON string) (*SheetsClient, error) {
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if credentialsJSON == "" {
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON([]byte(credentialsJSON)),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsClient{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// Row is one exported ledger line. Deleted transactions carry ids only;
// the remaining columns stay empty.
type Row struct {
	Event           string
	TransactionID   string
	BudgetID        string
	CategoryID      string
	Type            string
	Amount          core.Money
	Name            string
	TransactionDate time.Time
	AuthorUserID    int64
	ExportedAt      time.Time
}

func (r Row) values() []any {
	amount := any("")
	if r.Amount.Cents != 0 {
		amount = float64(r.Amount.Cents) / 100.0
	}
	date := any("")
	if !r.TransactionDate.IsZero() {
		date = r.TransactionDate.Format("2006-01-02")
	}
	author := any("")
	if r.AuthorUserID != 0 {
		author = r.AuthorUserID
	}
	return []any{
		r.ExportedAt.Format(time.RFC3339),
		r.Event,
		r.TransactionID,
		r.BudgetID,
		r.CategoryID,
		r.Type,
		amount,
		r.Name,
		date,
		author,
	}
}

// Append writes the rows after the last non-empty line of the sheet.
func (c *SheetsClient) Append(ctx context.Context, rows []Row) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if len(rows) == 0 {
		return nil
	}

	values := make([][]any, 0, len(rows))
	for _, r := range rows {
		values = append(values, r.values())
	}

	rng := fmt.Sprintf("%s!A:J", c.sheetName)
	vr := &gsheet.ValueRange{Values: values}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}
	return nil
}
