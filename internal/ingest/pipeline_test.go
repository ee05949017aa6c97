package ingest

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes an in-memory XLSX with the given sheets. Each sheet is
// a header row followed by data rows.
func buildWorkbook(t *testing.T, sheets map[string][][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
			first = false
		} else {
			if _, err := f.NewSheet(name); err != nil {
				t.Fatalf("new sheet: %v", err)
			}
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestProcess_CustomerSheetExampleScenario(t *testing.T) {
	// Sheet "Data Pelanggan", one fully blank row plus one data row: exactly
	// one record, the blank row dropped.
	data := buildWorkbook(t, map[string][][]interface{}{
		"Data Pelanggan": {
			{"Customer Name", "Service ID", "Hostname OLT", "ID FAT", "SN ONT"},
			{"", "", "", "", ""},
			{"Budi", "SVC-001", "OLT-1", "FAT-9", "SN-123"},
		},
	})

	result, err := Process(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(result.Customers) != 1 {
		t.Fatalf("customers = %d, want 1", len(result.Customers))
	}
	c := result.Customers[0]
	if c.Customer != "Budi" || c.ServiceID != "SVC-001" || c.OLT != "OLT-1" || c.FATID != "FAT-9" || c.ONTSerial != "SN-123" {
		t.Errorf("record = %+v", c)
	}
	if c.ID == "" {
		t.Error("record missing identifier")
	}

	if got := result.Summary.Counts[SchemaCustomer]; got != 1 {
		t.Errorf("customer count = %d, want 1", got)
	}
	if len(result.Summary.Processed) != 1 || result.Summary.Processed[0].Schema != SchemaCustomer {
		t.Errorf("processed = %v", result.Summary.Processed)
	}
}

func TestProcess_PartialRowsKept(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"Pelanggan": {
			{"Customer Name", "Service ID", "SN ONT"},
			{"Ani", "", ""}, // partial record is valid
		},
	})

	result, err := Process(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(result.Customers) != 1 {
		t.Fatalf("customers = %d, want 1", len(result.Customers))
	}
	if result.Customers[0].Customer != "Ani" || result.Customers[0].ServiceID != "" {
		t.Errorf("record = %+v", result.Customers[0])
	}
}

func TestProcess_CaseInsensitiveColumnFallback(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"Pelanggan": {
			{"CUSTOMER NAME", "service id"},
			{"Citra", "SVC-2"},
		},
	})

	result, err := Process(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(result.Customers) != 1 {
		t.Fatalf("customers = %d, want 1", len(result.Customers))
	}
	if result.Customers[0].Customer != "Citra" || result.Customers[0].ServiceID != "SVC-2" {
		t.Errorf("record = %+v", result.Customers[0])
	}
}

func TestProcess_UnclassifiedSheetSkipped(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"Rekap Bulanan": {
			{"No", "Keterangan"},
			{"1", "catatan"},
		},
	})

	result, err := Process(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(result.Summary.Processed) != 0 {
		t.Errorf("processed = %v", result.Summary.Processed)
	}
	if len(result.Summary.Skipped) != 1 || result.Summary.Skipped[0].Reason != ReasonUnclassified {
		t.Errorf("skipped = %v", result.Summary.Skipped)
	}
}

func TestProcess_LinkSheets(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"Mapping UPE": {
			{"Hostname UPE", "Hostname OLT", "Port", "Kapasitas"},
			{"UPE-BDG-1", "OLT-BDG-7", "xe-0/0/1", "10G"},
		},
		"BNG Uplink": {
			{"Hostname BNG", "Hostname UPE", "VLAN", "Port"},
			{"BNG-JKT-1", "UPE-BDG-1", "100", "et-0/0/0"},
		},
	})

	result, err := Process(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(result.UPEs) != 1 {
		t.Fatalf("upes = %v", result.UPEs)
	}
	u := result.UPEs[0]
	if u.UPE != "UPE-BDG-1" || u.OLT != "OLT-BDG-7" || u.Port != "xe-0/0/1" || u.Capacity != "10G" {
		t.Errorf("upe link = %+v", u)
	}

	if len(result.BNGs) != 1 {
		t.Fatalf("bngs = %v", result.BNGs)
	}
	b := result.BNGs[0]
	if b.BNG != "BNG-JKT-1" || b.UPE != "UPE-BDG-1" || b.VLAN != "100" || b.Port != "et-0/0/0" {
		t.Errorf("bng link = %+v", b)
	}
}

func TestProcess_FATSheetAndDerivedOLTs(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"Inventaris FAT": {
			{"Provinsi", "Kota", "ID FAT", "Tikor", "Jumlah Port", "Hostname OLT"},
			{"Jawa Barat", "Bandung", "FAT-01", "-6.9,107.6", "16", "OLT-BDG-7"},
			{"Jawa Barat", "Bandung", "FAT-02", "-6.8,107.5", "8", "OLT-BDG-7"},
		},
	})

	result, err := Process(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(result.FATs) != 2 {
		t.Fatalf("fats = %v", result.FATs)
	}
	if result.FATs[0].Province != "Jawa Barat" || result.FATs[0].Coordinates != "-6.9,107.6" {
		t.Errorf("fat = %+v", result.FATs[0])
	}

	// One OLT derived from two rows sharing a hostname
	if len(result.OLTs) != 1 {
		t.Fatalf("olts = %v", result.OLTs)
	}
	if result.OLTs[0].Hostname != "OLT-BDG-7" || result.OLTs[0].Province != "Jawa Barat" {
		t.Errorf("olt = %+v", result.OLTs[0])
	}
}

func TestProcess_DeterministicAcrossRuns(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"Data Pelanggan": {
			{"Customer Name", "Service ID"},
			{"Budi", "SVC-1"},
			{"Ani", "SVC-2"},
		},
		"Rekap": {
			{"No", "Keterangan"},
		},
	})

	first, err := Process(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := Process(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(first.Customers) != len(second.Customers) {
		t.Errorf("record counts differ: %d vs %d", len(first.Customers), len(second.Customers))
	}
	for schema, count := range first.Summary.Counts {
		if second.Summary.Counts[schema] != count {
			t.Errorf("count[%s] differs: %d vs %d", schema, count, second.Summary.Counts[schema])
		}
	}
	if len(first.Summary.Skipped) != len(second.Summary.Skipped) {
		t.Fatalf("skip lists differ")
	}
	for i := range first.Summary.Skipped {
		if first.Summary.Skipped[i] != second.Summary.Skipped[i] {
			t.Errorf("skip[%d] differs: %v vs %v", i, first.Summary.Skipped[i], second.Summary.Skipped[i])
		}
	}
}

func TestProcess_MalformedInputFailsWhole(t *testing.T) {
	_, err := Process(strings.NewReader("this is not a spreadsheet"))
	if !errors.Is(err, ErrIngestionFailed) {
		t.Errorf("expected ErrIngestionFailed, got %v", err)
	}
}
