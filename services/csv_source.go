package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kendall-kelly/customer-analytics-api/models"
	"github.com/kendall-kelly/customer-analytics-api/utils"
)

// File names and headers of the CSV dataset layout
const (
	ClientsFile  = "clients.csv"
	OrdersFile   = "orders.csv"
	MessagesFile = "messages.csv"
)

var (
	clientColumns  = []string{"client_id", "name", "city", "tenant_id"}
	orderColumns   = []string{"id", "client_id", "tenant_id", "date_commande", "montant_total", "statut_commande", "delivery_company_id"}
	messageColumns = []string{"id", "client_id", "tenant_id", "content", "created_at"}
)

// CSVRecordSource loads the datasets from clients.csv, orders.csv and messages.csv in Dir.
// A missing file loads as an empty dataset; an unparseable date loads as a missing date.
type CSVRecordSource struct {
	Dir string
}

// NewCSVRecordSource creates a source reading from dir
func NewCSVRecordSource(dir string) *CSVRecordSource {
	return &CSVRecordSource{Dir: dir}
}

func (s *CSVRecordSource) Name() string { return "csv" }

func (s *CSVRecordSource) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := &Snapshot{Source: s.Name(), Clients: []models.Client{}, Orders: []models.Order{}, Messages: []models.Message{}}

	err := readCSV(filepath.Join(s.Dir, ClientsFile), clientColumns, func(r csvRow) error {
		c := models.Client{Name: r.str("name"), City: r.str("city")}
		var err error
		if c.ClientID, err = r.uint("client_id"); err != nil {
			return err
		}
		if c.TenantID, err = r.uint("tenant_id"); err != nil {
			return err
		}
		snap.Clients = append(snap.Clients, c)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = readCSV(filepath.Join(s.Dir, OrdersFile), orderColumns, func(r csvRow) error {
		o := models.Order{Status: r.str("statut_commande"), OrderDate: utils.ParseOptionalDate(r.str("date_commande"))}
		var err error
		if o.ID, err = r.uint("id"); err != nil {
			return err
		}
		if o.ClientID, err = r.uint("client_id"); err != nil {
			return err
		}
		if o.TenantID, err = r.uint("tenant_id"); err != nil {
			return err
		}
		if o.TotalAmount, err = r.float("montant_total"); err != nil {
			return err
		}
		if v := r.str("delivery_company_id"); v != "" {
			id, err := r.uint("delivery_company_id")
			if err != nil {
				return err
			}
			o.DeliveryCompanyID = &id
		}
		snap.Orders = append(snap.Orders, o)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = readCSV(filepath.Join(s.Dir, MessagesFile), messageColumns, func(r csvRow) error {
		m := models.Message{Content: r.str("content"), CreatedAt: utils.ParseOptionalDate(r.str("created_at"))}
		var err error
		if m.ID, err = r.uint("id"); err != nil {
			return err
		}
		if m.ClientID, err = r.uint("client_id"); err != nil {
			return err
		}
		if m.TenantID, err = r.uint("tenant_id"); err != nil {
			return err
		}
		snap.Messages = append(snap.Messages, m)
		return nil
	})
	if err != nil {
		return nil, err
	}

	snap.LoadedAt = time.Now().UTC()
	return snap, nil
}

// ReplaceTenant rewrites the CSV files with the tenant's rows replaced by data
func (s *CSVRecordSource) ReplaceTenant(ctx context.Context, tenantID uint, data *Snapshot) error {
	current, err := s.Load(ctx)
	if err != nil {
		return err
	}

	merged := &Snapshot{}
	for _, c := range current.Clients {
		if c.TenantID != tenantID {
			merged.Clients = append(merged.Clients, c)
		}
	}
	var nextOrderID, nextMessageID uint
	for _, o := range current.Orders {
		if o.TenantID != tenantID {
			merged.Orders = append(merged.Orders, o)
			nextOrderID = max(nextOrderID, o.ID)
		}
	}
	for _, m := range current.Messages {
		if m.TenantID != tenantID {
			merged.Messages = append(merged.Messages, m)
			nextMessageID = max(nextMessageID, m.ID)
		}
	}

	// keep order and message ids unique across tenants
	merged.Clients = append(merged.Clients, data.Clients...)
	for _, o := range data.Orders {
		nextOrderID++
		o.ID = nextOrderID
		merged.Orders = append(merged.Orders, o)
	}
	for _, m := range data.Messages {
		nextMessageID++
		m.ID = nextMessageID
		merged.Messages = append(merged.Messages, m)
	}
	return WriteCSV(s.Dir, merged)
}

// WriteCSV writes snap as the three dataset files in dir, replacing existing files.
// Each file is written to a temporary name first and renamed into place.
func WriteCSV(dir string, snap *Snapshot) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	clients := make([][]string, 0, len(snap.Clients))
	for _, c := range snap.Clients {
		clients = append(clients, []string{formatUint(c.ClientID), c.Name, c.City, formatUint(c.TenantID)})
	}
	orders := make([][]string, 0, len(snap.Orders))
	for _, o := range snap.Orders {
		delivery := ""
		if o.DeliveryCompanyID != nil {
			delivery = formatUint(*o.DeliveryCompanyID)
		}
		orders = append(orders, []string{
			formatUint(o.ID), formatUint(o.ClientID), formatUint(o.TenantID), formatDate(o.OrderDate),
			strconv.FormatFloat(o.TotalAmount, 'f', 2, 64), o.Status, delivery,
		})
	}
	messages := make([][]string, 0, len(snap.Messages))
	for _, m := range snap.Messages {
		messages = append(messages, []string{formatUint(m.ID), formatUint(m.ClientID), formatUint(m.TenantID), m.Content, formatDate(m.CreatedAt)})
	}

	if err := writeCSVFile(filepath.Join(dir, ClientsFile), clientColumns, clients); err != nil {
		return err
	}
	if err := writeCSVFile(filepath.Join(dir, OrdersFile), orderColumns, orders); err != nil {
		return err
	}
	return writeCSVFile(filepath.Join(dir, MessagesFile), messageColumns, messages)
}

type csvRow struct {
	file   string
	line   int
	index  map[string]int
	record []string
}

func (r csvRow) str(column string) string {
	i, ok := r.index[column]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r csvRow) uint(column string) (uint, error) {
	v := r.str(column)
	// accept float-formatted integers such as 12.0
	v = strings.TrimSuffix(v, ".0")
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s line %d: %s %q is not a positive integer", r.file, r.line, column, v)
	}
	return uint(n), nil
}

func (r csvRow) float(column string) (float64, error) {
	v := r.str(column)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s line %d: %s %q is not a number", r.file, r.line, column, v)
	}
	return f, nil
}

func readCSV(path string, required []string, each func(csvRow) error) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s header: %w", path, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return fmt.Errorf("%s: missing column %q", path, col)
		}
	}

	name := filepath.Base(path)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if err := each(csvRow{file: name, line: line, index: index, record: record}); err != nil {
			return err
		}
	}
}

func writeCSVFile(path string, header []string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func formatUint(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
