package ingest

import "strings"

// Schema identifies one of the four record schemas a sheet can map to.
type Schema string

const (
	SchemaCustomer Schema = "customer"
	SchemaFAT      Schema = "fat"
	SchemaUPE      Schema = "upe"
	SchemaBNG      Schema = "bng"
)

// nameKeywords maps case-insensitive sheet-name substrings to schemas.
// Checked in order: BNG before UPE so "BNG Uplink" is not claimed by the
// UPE entry, UPE before FAT so mapping sheets go to the link schema.
var nameKeywords = []struct {
	schema   Schema
	keywords []string
}{
	{SchemaBNG, []string{"bng"}},
	{SchemaUPE, []string{"upe", "uplink"}},
	{SchemaFAT, []string{"fat", "inventaris", "inventory", "olt"}},
	{SchemaCustomer, []string{"pelanggan", "customer", "user", "subscriber"}},
}

// Classify determines a sheet's schema from its name, falling back to the
// header row. ok is false when neither tier matches; such sheets are skipped,
// never guessed.
func Classify(sheetName string, headers []string) (Schema, bool) {
	if schema, ok := classifyByName(sheetName); ok {
		return schema, true
	}
	return classifyByHeaders(headers)
}

// classifyByName matches the sheet's own name against the keyword table.
func classifyByName(sheetName string) (Schema, bool) {
	name := strings.ToLower(sheetName)
	for _, entry := range nameKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(name, kw) {
				return entry.schema, true
			}
		}
	}
	return "", false
}

// classifyByHeaders inspects the first-row headers. UPE links need both a
// "upe" and an "olt"-like header, refined to BNG when gateway headers are
// also present; FAT needs "provinsi" plus a "fat" or "tikor" header;
// customer needs a customer-ish header or the service+serial pair.
func classifyByHeaders(headers []string) (Schema, bool) {
	has := func(sub string) bool {
		for _, h := range headers {
			if strings.Contains(strings.ToLower(h), sub) {
				return true
			}
		}
		return false
	}

	if has("upe") && has("olt") {
		if has("bng") || has("vlan") || has("port") {
			return SchemaBNG, true
		}
		return SchemaUPE, true
	}

	if has("provinsi") && (has("fat") || has("tikor")) {
		return SchemaFAT, true
	}

	if has("customer") || has("pelanggan") || (has("service") && has("sn")) {
		return SchemaCustomer, true
	}

	return "", false
}
