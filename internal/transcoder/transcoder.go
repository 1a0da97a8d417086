package transcoder

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"addressbook/internal/apierr"
	"addressbook/internal/contacts"
	"addressbook/internal/dbctx"
	"addressbook/internal/logger"
	"addressbook/internal/models"
)

const (
	ExportFilename = "contacts_export.xlsx"
	ContentType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	SheetName      = "contacts"

	// Delimiter joins multi-valued cells. Values containing it are not
	// escaped, so they split into several methods on re-import.
	Delimiter = ";"
)

const (
	ColName       = "Name"
	ColPhones     = "Phones"
	ColEmails     = "Emails"
	ColSocials    = "Socials"
	ColAddresses  = "Addresses"
	ColBookmarked = "Bookmarked"
)

// Header is the exported column order.
var Header = []string{ColName, ColPhones, ColEmails, ColSocials, ColAddresses, ColBookmarked}

// methodColumns maps each multi-valued column to the method type it carries.
var methodColumns = []struct {
	column string
	kind   string
}{
	{ColPhones, models.MethodPhone},
	{ColEmails, models.MethodEmail},
	{ColSocials, models.MethodSocial},
	{ColAddresses, models.MethodAddress},
}

var allowedExtensions = map[string]bool{"xlsx": true, "xls": true}

// AllowedExtension reports whether filename looks like a spreadsheet upload.
func AllowedExtension(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	return allowedExtensions[ext]
}

type Transcoder struct {
	db       *gorm.DB
	contacts contacts.Repository
	log      *logger.Logger
}

func New(db *gorm.DB, repo contacts.Repository, baseLog *logger.Logger) *Transcoder {
	return &Transcoder{db: db, contacts: repo, log: baseLog.With("component", "Transcoder")}
}

// Row is one contact flattened into spreadsheet cells.
type Row struct {
	Name       string
	Phones     string
	Emails     string
	Socials    string
	Addresses  string
	Bookmarked bool
}

// Flatten partitions a contact's methods by type and joins each bucket.
// Methods of any other type have no column and are left out.
func Flatten(c *models.Contact) Row {
	join := func(kind string) string { return strings.Join(c.MethodValues(kind), Delimiter) }
	return Row{
		Name:       c.Name,
		Phones:     join(models.MethodPhone),
		Emails:     join(models.MethodEmail),
		Socials:    join(models.MethodSocial),
		Addresses:  join(models.MethodAddress),
		Bookmarked: c.Bookmarked,
	}
}

func (r Row) cells() []interface{} {
	flag := 0
	if r.Bookmarked {
		flag = 1
	}
	return []interface{}{r.Name, r.Phones, r.Emails, r.Socials, r.Addresses, flag}
}

// Export renders every contact of ownerID as an xlsx workbook.
func (t *Transcoder) Export(dbc dbctx.Context, ownerID uint) ([]byte, error) {
	list, err := t.contacts.List(dbc, ownerID, contacts.Filter{})
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(list))
	for _, c := range list {
		rows = append(rows, Flatten(c))
	}
	data, err := WriteWorkbook(rows)
	if err != nil {
		return nil, err
	}
	t.log.Info("contacts exported", "owner_id", ownerID, "rows", len(rows), "bytes", len(data))
	return data, nil
}

// WriteWorkbook encodes rows under the standard header on a single sheet.
func WriteWorkbook(rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		cells := row.cells()
		if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Table is a parsed sheet: a header index plus the data rows below it.
type Table struct {
	columns map[string]int
	rows    [][]string
}

func (tb *Table) Has(column string) bool {
	_, ok := tb.columns[column]
	return ok
}

func (tb *Table) Len() int { return len(tb.rows) }

// Cell returns the trimmed value of column in data row i, "" when absent.
func (tb *Table) Cell(i int, column string) string {
	idx, ok := tb.columns[column]
	if !ok || i < 0 || i >= len(tb.rows) || idx >= len(tb.rows[i]) {
		return ""
	}
	return strings.TrimSpace(tb.rows[i][idx])
}

// ReadTable parses the first sheet of an xlsx document. The first row is
// the header; when a header repeats, its first occurrence wins.
func ReadTable(r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, apierr.Format("read upload: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, apierr.Format("%v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apierr.Format("workbook has no sheets")
	}
	// raw values keep long digit strings such as phone numbers intact
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apierr.Format("read sheet %q: %v", sheets[0], err)
	}
	tb := &Table{columns: map[string]int{}}
	if len(rows) == 0 {
		return tb, nil
	}
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if _, dup := tb.columns[h]; !dup {
			tb.columns[h] = i
		}
	}
	tb.rows = rows[1:]
	return tb, nil
}

// SplitCell splits a multi-valued cell on the delimiter, trimming pieces
// and discarding empties.
func SplitCell(v string) []string {
	var out []string
	for _, p := range strings.Split(v, Delimiter) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseFlag reads a Bookmarked cell: any number other than zero is true,
// anything unparseable is false.
func parseFlag(v string) bool {
	if v == "" {
		return false
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n != 0
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return false
}

// Import creates one contact per named row of the uploaded workbook, all
// in a single transaction, and returns how many were created. A row that
// fails contact validation (an over-long name, type or value) aborts the
// whole import and the error names that row. An empty sheet has no header
// and so reports the missing Name column.
func (t *Transcoder) Import(dbc dbctx.Context, ownerID uint, r io.Reader) (int, error) {
	tb, err := ReadTable(r)
	if err != nil {
		return 0, err
	}
	if !tb.Has(ColName) {
		return 0, apierr.Schema("a %q column is required", ColName)
	}
	hasFlag := tb.Has(ColBookmarked)

	count := 0
	err = dbc.Transaction(t.db, func(tx *gorm.DB) error {
		txc := dbc.WithTx(tx)
		for i := 0; i < tb.Len(); i++ {
			name := tb.Cell(i, ColName)
			if name == "" {
				continue
			}
			in := contacts.Input{Name: name}
			for _, mc := range methodColumns {
				for _, v := range SplitCell(tb.Cell(i, mc.column)) {
					in.Methods = append(in.Methods, contacts.MethodInput{Type: mc.kind, Value: v})
				}
			}
			c, err := t.contacts.Create(txc, ownerID, in)
			if err != nil {
				return fmt.Errorf("row %d: %w", i+2, err)
			}
			if hasFlag && parseFlag(tb.Cell(i, ColBookmarked)) {
				if err := t.contacts.SetBookmarked(txc, c.ID, true); err != nil {
					return fmt.Errorf("row %d: %w", i+2, err)
				}
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	t.log.Info("contacts imported", "owner_id", ownerID, "created", count, "rows", tb.Len())
	return count, nil
}
