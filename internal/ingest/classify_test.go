package ingest

import "testing"

func TestClassifyByName(t *testing.T) {
	tests := []struct {
		sheet string
		want  Schema
	}{
		{"Data Pelanggan", SchemaCustomer},
		{"CUSTOMER LIST", SchemaCustomer},
		{"Subscriber 2026", SchemaCustomer},
		{"Inventaris FAT", SchemaFAT},
		{"OLT Jakarta", SchemaFAT},
		{"Mapping UPE", SchemaUPE},
		{"Uplink OLT", SchemaUPE},
		{"BNG Uplink", SchemaBNG},
		{"bng-vlan", SchemaBNG},
	}

	for _, tt := range tests {
		got, ok := Classify(tt.sheet, nil)
		if !ok {
			t.Errorf("Classify(%q) unmatched, want %s", tt.sheet, tt.want)
			continue
		}
		if got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.sheet, got, tt.want)
		}
	}
}

func TestClassifyByHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    Schema
	}{
		{
			name:    "upe and olt headers",
			headers: []string{"Hostname UPE", "Hostname OLT", "Kapasitas"},
			want:    SchemaUPE,
		},
		{
			name:    "upe olt refined to bng by vlan",
			headers: []string{"Hostname UPE", "Hostname OLT", "VLAN"},
			want:    SchemaBNG,
		},
		{
			name:    "upe olt refined to bng by bng header",
			headers: []string{"Hostname BNG", "Hostname UPE", "Hostname OLT"},
			want:    SchemaBNG,
		},
		{
			name:    "provinsi plus fat",
			headers: []string{"Provinsi", "Kota", "ID FAT"},
			want:    SchemaFAT,
		},
		{
			name:    "provinsi plus tikor",
			headers: []string{"Provinsi", "Tikor"},
			want:    SchemaFAT,
		},
		{
			name:    "customer header",
			headers: []string{"Customer Name", "Address"},
			want:    SchemaCustomer,
		},
		{
			name:    "pelanggan header",
			headers: []string{"Nama Pelanggan", "Alamat"},
			want:    SchemaCustomer,
		},
		{
			name:    "service plus sn pair",
			headers: []string{"Service ID", "SN ONT"},
			want:    SchemaCustomer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify("Sheet1", tt.headers)
			if !ok {
				t.Fatalf("unmatched, want %s", tt.want)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassify_UnmatchedIsSkippedNotGuessed(t *testing.T) {
	cases := []struct {
		sheet   string
		headers []string
	}{
		{"Rekap", []string{"No", "Keterangan"}},
		{"Sheet1", nil},
		{"Sheet1", []string{"Provinsi"}}, // provinsi without fat/tikor
	}
	for _, c := range cases {
		if schema, ok := Classify(c.sheet, c.headers); ok {
			t.Errorf("Classify(%q, %v) = %s, want unmatched", c.sheet, c.headers, schema)
		}
	}
}
