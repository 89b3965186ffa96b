package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Column layout of the mirror sheet. Row 1 holds the header.
var header = []any{"ID", "Date", "User", "Title", "Type", "Category", "Amount"}

const (
	lastColumn      = "G"
	defaultCacheTTL = 5 * time.Minute
)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// valuesAPI is the slice of the Sheets values API the client needs.
type valuesAPI interface {
	get(ctx context.Context, rng string) ([][]any, error)
	update(ctx context.Context, rng string, rows [][]any) error
	clear(ctx context.Context, rng string) error
}

type Client struct {
	values valuesAPI
	sheet  string

	// Row index cache: transaction id -> 1-based sheet row.
	mu       sync.Mutex
	rows     map[string]int
	nextRow  int
	loadedAt time.Time
	cacheTTL time.Duration
}

// Ensure interface conformance
var _ ports.LedgerMirror = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(&sheetsValues{svc: svc, spreadsheetID: cfg.SpreadsheetID}, cfg.SheetName), nil
}

func newClient(values valuesAPI, sheet string) *Client {
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		sheet = "Ledger"
	}
	return &Client{values: values, sheet: sheet, cacheTTL: defaultCacheTTL}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Falls back to GOOGLE_APPLICATION_CREDENTIALS when neither JSON nor file is configured.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	credentialsJSON, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func loadCredentials(cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// newHTTPClientWithPooling creates an HTTP client for the Sheets API with
// connection pooling and bounded timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// Upsert writes the transaction to its existing row, or to the first row
// after the data when the ID is new.
func (c *Client) Upsert(ctx context.Context, t core.Transaction) (string, error) {
	if t.ID == "" {
		return "", errors.New("mirror upsert: missing transaction id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureIndex(ctx); err != nil {
		return "", err
	}

	row, exists := c.rows[t.ID]
	if !exists {
		row = c.nextRow
	}

	rng := c.rowRange(row)
	if err := c.values.update(ctx, rng, [][]any{toRow(t)}); err != nil {
		c.invalidate()
		return "", fmt.Errorf("failed to write %s: %w", rng, err)
	}

	if !exists {
		c.rows[t.ID] = row
		c.nextRow++
	}
	return rng, nil
}

// Delete blanks the transaction's row. Unknown IDs are ignored so a
// redelivered delete event is harmless.
func (c *Client) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureIndex(ctx); err != nil {
		return err
	}
	row, ok := c.rows[id]
	if !ok {
		slog.DebugContext(ctx, "Mirror row not found for delete", "id", id, "sheet", c.sheet)
		return nil
	}

	rng := c.rowRange(row)
	if err := c.values.clear(ctx, rng); err != nil {
		c.invalidate()
		return fmt.Errorf("failed to clear %s: %w", rng, err)
	}
	delete(c.rows, id)
	return nil
}

// ensureIndex reloads the ID column when the cache is empty or stale.
// Must be called with c.mu held.
func (c *Client) ensureIndex(ctx context.Context) error {
	if c.rows != nil && time.Since(c.loadedAt) < c.cacheTTL {
		return nil
	}

	rng := fmt.Sprintf("%s!A:A", c.sheet)
	values, err := c.values.get(ctx, rng)
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}

	if len(values) == 0 {
		if err := c.values.update(ctx, fmt.Sprintf("%s!A1:%s1", c.sheet, lastColumn), [][]any{header}); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		values = [][]any{{header[0]}}
	}

	c.rows = indexRows(values)
	c.nextRow = len(values) + 1
	c.loadedAt = time.Now()
	return nil
}

func (c *Client) invalidate() {
	c.rows = nil
	c.loadedAt = time.Time{}
}

func (c *Client) rowRange(row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", c.sheet, row, lastColumn, row)
}

// indexRows maps IDs in column A to their 1-based row, skipping the header
// and blanked rows.
func indexRows(values [][]any) map[string]int {
	out := make(map[string]int, len(values))
	for i, row := range values {
		if i == 0 || len(row) == 0 {
			continue
		}
		id := strings.TrimSpace(fmt.Sprint(row[0]))
		if id == "" {
			continue
		}
		out[id] = i + 1
	}
	return out
}

func toRow(t core.Transaction) []any {
	return []any{
		t.ID,
		t.Date.UTC().Format("2006-01-02"),
		t.UserID,
		t.Title,
		string(t.Type),
		t.Category,
		t.Amount.String(),
	}
}

type sheetsValues struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (s *sheetsValues) get(ctx context.Context, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *sheetsValues) update(ctx context.Context, rng string, rows [][]any) error {
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (s *sheetsValues) clear(ctx context.Context, rng string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	return err
}
