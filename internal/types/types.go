package types

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Collection names as persisted in the local store. These are stable across
// schema versions; renaming one would orphan existing snapshots.
const (
	CollectionTickets   = "tickets"
	CollectionCustomers = "customers"
	CollectionOLT       = "olt"
	CollectionFAT       = "fat"
	CollectionUPE       = "upe"
	CollectionBNG       = "bng"
)

// Collections lists every known collection in a fixed order.
var Collections = []string{
	CollectionTickets,
	CollectionCustomers,
	CollectionOLT,
	CollectionFAT,
	CollectionUPE,
	CollectionBNG,
}

// TicketStatus represents the lifecycle state of a trouble ticket.
type TicketStatus string

const (
	StatusOnProgress TicketStatus = "On Progress"
	StatusCritical   TicketStatus = "Critical"
	StatusResolved   TicketStatus = "Resolved"
	StatusPending    TicketStatus = "Pending"
)

// ValidStatus reports whether s is one of the four known ticket statuses.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case StatusOnProgress, StatusCritical, StatusResolved, StatusPending:
		return true
	}
	return false
}

// Ticket is a trouble ticket. CreatedAt is assigned once at creation and
// never mutated; Status is the only field the lifecycle worker may change.
type Ticket struct {
	ID        string       `json:"id"`
	Customer  string       `json:"customer"`
	ServiceID string       `json:"service_id"`
	OLT       string       `json:"olt"`
	FATID     string       `json:"fat_id"`
	ONTSerial string       `json:"ont_serial"`
	Problem   string       `json:"problem"`
	Status    TicketStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// Age returns the elapsed time since the ticket was created.
func (t Ticket) Age(now time.Time) time.Duration {
	return now.Sub(t.CreatedAt)
}

// CustomerRecord is an imported subscriber row (the user/ticket-seed schema).
type CustomerRecord struct {
	ID        string `json:"id"`
	Customer  string `json:"customer"`
	ServiceID string `json:"service_id"`
	OLT       string `json:"olt"`
	FATID     string `json:"fat_id"`
	ONTSerial string `json:"ont_serial"`
}

// OLTRecord is an optical line terminal inventory row.
type OLTRecord struct {
	ID       string `json:"id"`
	Hostname string `json:"hostname"`
	Brand    string `json:"brand"`
	IP       string `json:"ip"`
	Site     string `json:"site"`
	Province string `json:"province"`
}

// FATRecord is a fiber access terminal inventory row.
type FATRecord struct {
	ID          string `json:"id"`
	Province    string `json:"province"`
	City        string `json:"city"`
	FATID       string `json:"fat_id"`
	Coordinates string `json:"coordinates"`
	Ports       string `json:"ports"`
	OLT         string `json:"olt"`
}

// UPELink is an uplink from an OLT to a UPE aggregation device.
type UPELink struct {
	ID       string `json:"id"`
	UPE      string `json:"upe"`
	OLT      string `json:"olt"`
	Port     string `json:"port"`
	Capacity string `json:"capacity"`
}

// BNGLink is an uplink from a UPE to a broadband network gateway.
type BNGLink struct {
	ID   string `json:"id"`
	BNG  string `json:"bng"`
	UPE  string `json:"upe"`
	VLAN string `json:"vlan"`
	Port string `json:"port"`
}

// NewID returns a fresh record identifier. ULIDs encode a millisecond
// timestamp plus a random suffix, so identifiers sort by creation time and
// are never reused.
func NewID() string {
	return ulid.Make().String()
}
