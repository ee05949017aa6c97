// Package ingest normalizes heterogeneous spreadsheet exports into typed
// records. Sheets are classified into one of four schemas (subscriber list,
// FAT/OLT inventory, UPE links, BNG links) by sheet name and, failing that,
// by header heuristics; rows are normalized through per-field header alias
// lists. Classification and normalization are pure functions of the sheet
// name, header row, and data rows; only record identifiers vary between runs.
package ingest

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/haloteknika/fiberdesk/internal/types"
)

// ErrIngestionFailed wraps unparsable input. Nothing is written on failure.
var ErrIngestionFailed = errors.New("ingestion failed")

// Skip reason tags surfaced in the summary.
const (
	ReasonUnclassified = "unclassified"
	ReasonEmpty        = "empty"
)

// Result holds the typed output of one ingestion run.
type Result struct {
	Customers []types.CustomerRecord
	FATs      []types.FATRecord
	OLTs      []types.OLTRecord
	UPEs      []types.UPELink
	BNGs      []types.BNGLink
	Summary   Summary
}

// Summary reports what happened to each sheet.
type Summary struct {
	Processed []ProcessedSheet
	Skipped   []SkippedSheet
	Counts    map[Schema]int
}

// ProcessedSheet records one sheet→schema mapping.
type ProcessedSheet struct {
	Sheet  string
	Schema Schema
	Rows   int
}

// SkippedSheet records a sheet excluded from the import and why.
type SkippedSheet struct {
	Sheet  string
	Reason string
}

// Process reads an XLSX workbook and normalizes every classifiable sheet.
// Malformed input fails the whole operation; a sheet that matches no schema
// is merely skipped and surfaced in the summary.
func Process(r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIngestionFailed, err)
	}
	defer f.Close()

	result := &Result{
		Summary: Summary{Counts: make(map[Schema]int)},
	}

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("%w: read sheet %q: %v", ErrIngestionFailed, sheet, err)
		}

		if len(rows) == 0 {
			result.Summary.Skipped = append(result.Summary.Skipped, SkippedSheet{Sheet: sheet, Reason: ReasonEmpty})
			continue
		}

		headers := rows[0]
		schema, ok := Classify(sheet, headers)
		if !ok {
			result.Summary.Skipped = append(result.Summary.Skipped, SkippedSheet{Sheet: sheet, Reason: ReasonUnclassified})
			continue
		}

		count := normalizeSheet(result, schema, headers, rows[1:])
		result.Summary.Processed = append(result.Summary.Processed, ProcessedSheet{Sheet: sheet, Schema: schema, Rows: count})
		result.Summary.Counts[schema] += count
	}

	deriveOLTs(result)
	return result, nil
}

// normalizeSheet dispatches data rows to the schema's normalizer and returns
// the number of records kept.
func normalizeSheet(result *Result, schema Schema, headers []string, rows [][]string) int {
	switch schema {
	case SchemaCustomer:
		records := normalizeCustomers(headers, rows)
		result.Customers = append(result.Customers, records...)
		return len(records)
	case SchemaFAT:
		records := normalizeFATs(headers, rows)
		result.FATs = append(result.FATs, records...)
		return len(records)
	case SchemaUPE:
		records := normalizeUPEs(headers, rows)
		result.UPEs = append(result.UPEs, records...)
		return len(records)
	case SchemaBNG:
		records := normalizeBNGs(headers, rows)
		result.BNGs = append(result.BNGs, records...)
		return len(records)
	}
	return 0
}

func normalizeCustomers(headers []string, rows [][]string) []types.CustomerRecord {
	cols := newColumns(headers)
	customer := cols.field("Customer Name", "Customer", "Nama Pelanggan", "Pelanggan", "Nama")
	serviceID := cols.field("Service ID", "SID", "ID Layanan", "No Layanan")
	olt := cols.field("Hostname OLT", "OLT Hostname", "OLT")
	fatID := cols.field("ID FAT", "FAT ID", "FAT")
	ontSerial := cols.field("SN ONT", "ONT SN", "Serial ONT", "SN")

	var records []types.CustomerRecord
	for _, row := range rows {
		r := types.CustomerRecord{
			Customer:  customer.value(row),
			ServiceID: serviceID.value(row),
			OLT:       olt.value(row),
			FATID:     fatID.value(row),
			ONTSerial: ontSerial.value(row),
		}
		if allEmpty(r.Customer, r.ServiceID, r.OLT, r.FATID, r.ONTSerial) {
			continue
		}
		r.ID = types.NewID()
		records = append(records, r)
	}
	return records
}

func normalizeFATs(headers []string, rows [][]string) []types.FATRecord {
	cols := newColumns(headers)
	province := cols.field("Provinsi", "Province")
	city := cols.field("Kota", "Kab/Kota", "Kabupaten", "City")
	fatID := cols.field("ID FAT", "FAT ID", "FAT")
	coordinates := cols.field("Tikor", "Titik Koordinat", "Koordinat", "Coordinates")
	ports := cols.field("Jumlah Port", "Port", "Ports", "Kapasitas Port")
	olt := cols.field("Hostname OLT", "OLT Hostname", "OLT")

	var records []types.FATRecord
	for _, row := range rows {
		r := types.FATRecord{
			Province:    province.value(row),
			City:        city.value(row),
			FATID:       fatID.value(row),
			Coordinates: coordinates.value(row),
			Ports:       ports.value(row),
			OLT:         olt.value(row),
		}
		if allEmpty(r.Province, r.City, r.FATID, r.Coordinates, r.Ports, r.OLT) {
			continue
		}
		r.ID = types.NewID()
		records = append(records, r)
	}
	return records
}

func normalizeUPEs(headers []string, rows [][]string) []types.UPELink {
	cols := newColumns(headers)
	upe := cols.field("Hostname UPE", "UPE Hostname", "UPE")
	olt := cols.field("Hostname OLT", "OLT Hostname", "OLT")
	port := cols.field("Port", "Interface")
	capacity := cols.field("Kapasitas", "Capacity", "Bandwidth")

	var records []types.UPELink
	for _, row := range rows {
		r := types.UPELink{
			UPE:      upe.value(row),
			OLT:      olt.value(row),
			Port:     port.value(row),
			Capacity: capacity.value(row),
		}
		if allEmpty(r.UPE, r.OLT, r.Port, r.Capacity) {
			continue
		}
		r.ID = types.NewID()
		records = append(records, r)
	}
	return records
}

func normalizeBNGs(headers []string, rows [][]string) []types.BNGLink {
	cols := newColumns(headers)
	bng := cols.field("Hostname BNG", "BNG Hostname", "BNG")
	upe := cols.field("Hostname UPE", "UPE Hostname", "UPE")
	vlan := cols.field("VLAN", "Vlan ID", "VLAN ID")
	port := cols.field("Port", "Interface")

	var records []types.BNGLink
	for _, row := range rows {
		r := types.BNGLink{
			BNG:  bng.value(row),
			UPE:  upe.value(row),
			VLAN: vlan.value(row),
			Port: port.value(row),
		}
		if allEmpty(r.BNG, r.UPE, r.VLAN, r.Port) {
			continue
		}
		r.ID = types.NewID()
		records = append(records, r)
	}
	return records
}

// deriveOLTs builds the OLT inventory from hostnames seen in FAT and
// subscriber rows, deduplicated in first-seen order. Imports rarely carry a
// dedicated OLT sheet; the hostname columns are the source of truth.
func deriveOLTs(result *Result) {
	seen := make(map[string]bool)
	add := func(hostname, province string) {
		if hostname == "" || seen[hostname] {
			return
		}
		seen[hostname] = true
		result.OLTs = append(result.OLTs, types.OLTRecord{
			ID:       types.NewID(),
			Hostname: hostname,
			Province: province,
		})
	}

	for _, f := range result.FATs {
		add(f.OLT, f.Province)
	}
	for _, c := range result.Customers {
		add(c.OLT, "")
	}
}
