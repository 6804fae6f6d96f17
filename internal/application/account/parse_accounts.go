package account

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strconv"
	"strings"

	domain "github.com/mohammadpnp/account-admin/internal/domain/account"
)

const maxStoredDrops = 100

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
)

var errNotAnObject = errors.New("element is not an object")

var requiredColumns = []string{"account_id", "uid", "password"}

type ParseResult struct {
	Format       Format
	Batch        *domain.Batch
	DroppedCount int
	Dropped      []domain.DroppedRecord
}

func (r ParseResult) Accepted() int {
	return r.Batch.Len()
}

// DetectFormat picks the decoder for an uploaded document. Anything that is
// not clearly delimited text is treated as JSON.
func DetectFormat(filename, contentType string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV
	case ".tsv":
		return FormatTSV
	case ".json":
		return FormatJSON
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return FormatJSON
	}
	switch mediaType {
	case "text/csv":
		return FormatCSV
	case "text/tab-separated-values":
		return FormatTSV
	}
	return FormatJSON
}

func ParseAccounts(raw []byte, format Format) (ParseResult, error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))

	switch format {
	case FormatCSV:
		return parseDelimited(raw, ',', FormatCSV)
	case FormatTSV:
		return parseDelimited(raw, '\t', FormatTSV)
	default:
		return parseJSON(raw)
	}
}

func parseJSON(raw []byte) (ParseResult, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var document any
	if err := dec.Decode(&document); err != nil {
		return ParseResult{}, newParseError(ErrMalformedDocument, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}
		return ParseResult{}, newParseError(ErrMalformedDocument, err)
	}

	elements, ok := locateAccounts(document)
	if !ok {
		return ParseResult{}, newParseError(ErrUnrecognizedShape, errors.New("expected an array or an object with an accounts or users array"))
	}

	collector := &recordCollector{records: make([]domain.Record, 0, len(elements))}
	for i, element := range elements {
		record, err := recordFromJSON(element)
		collector.add(i, record, err)
	}

	return collector.result(FormatJSON)
}

func locateAccounts(document any) ([]any, bool) {
	if elements, ok := document.([]any); ok {
		return elements, true
	}

	object, ok := document.(map[string]any)
	if !ok {
		return nil, false
	}
	for _, field := range []string{"accounts", "users"} {
		if elements, ok := object[field].([]any); ok {
			return elements, true
		}
	}
	return nil, false
}

func recordFromJSON(element any) (domain.Record, error) {
	object, ok := element.(map[string]any)
	if !ok {
		return domain.Record{}, errNotAnObject
	}

	accountID, _ := scalarString(object["account_id"])
	uid, _ := scalarString(object["uid"])
	password, _ := scalarString(object["password"])

	var rareTypes []string
	if values, ok := object["rare_types"].([]any); ok {
		rareTypes = make([]string, 0, len(values))
		for _, value := range values {
			if s, ok := scalarString(value); ok {
				rareTypes = append(rareTypes, s)
			}
		}
	}

	return domain.NewRecord(accountID, uid, password, rareTypes)
}

func scalarString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

func parseDelimited(raw []byte, comma rune, format Format) (ParseResult, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = comma
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return ParseResult{}, newParseError(ErrMalformedDocument, err)
	}
	if len(rows) == 0 {
		return ParseResult{}, newParseError(ErrMalformedDocument, errors.New("missing header row"))
	}

	columns := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		name := normalizeHeader(header)
		if _, exists := columns[name]; !exists {
			columns[name] = i
		}
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return ParseResult{}, newParseError(ErrUnrecognizedShape, fmt.Errorf("missing columns: %s", strings.Join(missing, ", ")))
	}

	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	dataRows := rows[1:]
	collector := &recordCollector{records: make([]domain.Record, 0, len(dataRows))}
	for i, row := range dataRows {
		record, err := domain.NewRecord(
			cell(row, "account_id"),
			cell(row, "uid"),
			cell(row, "password"),
			splitRareTypes(cell(row, "rare_types")),
		)
		collector.add(i, record, err)
	}

	return collector.result(format)
}

func normalizeHeader(header string) string {
	name := strings.ToLower(strings.TrimSpace(header))
	name = strings.NewReplacer(" ", "_", "-", "_").Replace(name)
	switch name {
	case "accountid":
		return "account_id"
	case "raretypes":
		return "rare_types"
	}
	return name
}

func splitRareTypes(cell string) []string {
	parts := strings.FieldsFunc(cell, func(r rune) bool {
		return r == ';' || r == '|'
	})

	types := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			types = append(types, part)
		}
	}
	return types
}

type recordCollector struct {
	records      []domain.Record
	dropped      []domain.DroppedRecord
	droppedCount int
}

func (c *recordCollector) add(index int, record domain.Record, err error) {
	if err == nil {
		c.records = append(c.records, record)
		return
	}

	c.droppedCount++
	if len(c.dropped) < maxStoredDrops {
		c.dropped = append(c.dropped, domain.DroppedRecord{Index: index, Reason: err.Error()})
	}
}

func (c *recordCollector) result(format Format) (ParseResult, error) {
	if len(c.records) == 0 {
		return ParseResult{}, newParseError(ErrNoValidRecords, fmt.Errorf("%d elements dropped; required fields: account_id, uid, password", c.droppedCount))
	}

	return ParseResult{
		Format:       format,
		Batch:        domain.NewBatch(c.records),
		DroppedCount: c.droppedCount,
		Dropped:      c.dropped,
	}, nil
}
