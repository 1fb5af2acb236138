package internal

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type CatalogItem struct {
	ID           string          `json:"id"`
	Category     string          `json:"category"`
	ItemName     string          `json:"itemName"`
	DefaultRate  decimal.Decimal `json:"defaultRate"`
	DefaultWidth string          `json:"defaultWidth,omitempty"`
}

type Customer struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email,omitempty"`
	ContactNo       string `json:"contactNo"`
	BillingAddress  string `json:"billingAddress"`
	DeliveryAddress string `json:"deliveryAddress"`
	SalesPersonID   string `json:"salesPersonId"`
	Branch          string `json:"branch,omitempty"`
}

// SalesPerson is a row of app_users. Ghost marks records synthesized by a
// customer import rather than registered by a person.
type SalesPerson struct {
	ID           string `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	BranchID     string `json:"branchId"`
	Ghost        bool   `json:"ghost,omitempty"`
}

func (s SalesPerson) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

type LineItem struct {
	ID              string          `json:"id"`
	Category        string          `json:"category"`
	ItemName        string          `json:"itemName"`
	ManualItemName  string          `json:"manualItemName"`
	Color           string          `json:"color"`
	Width           string          `json:"width"`
	UOM             string          `json:"uom"`
	QuantityText    string          `json:"quantity"`
	Quantity        decimal.Decimal `json:"quantityValue"`
	Rate            decimal.Decimal `json:"rate"`
	DiscountPercent decimal.Decimal `json:"discount"`
	DeliveryDate    string          `json:"deliveryDate"`
	Remark          string          `json:"remark"`
}

// DisplayName is the resolved catalog name, or the manual name when the
// line was not picked from the catalog.
func (l LineItem) DisplayName() string {
	if strings.TrimSpace(l.ItemName) != "" {
		return l.ItemName
	}
	return l.ManualItemName
}

var hundred = decimal.NewFromInt(100)

// Amount is quantity times rate, before discount.
func (l LineItem) Amount() decimal.Decimal {
	return l.Quantity.Mul(l.Rate)
}

func (l LineItem) NetAmount() decimal.Decimal {
	return l.Amount().Mul(hundred.Sub(l.DiscountPercent)).Div(hundred)
}

type OrderHeader struct {
	Branch            string `json:"branch"`
	SalesPerson       string `json:"salesPerson"`
	SalesContactNo    string `json:"salesContactNo"`
	CustomerName      string `json:"customerName"`
	CustomerEmail     string `json:"customerEmail"`
	CustomerContactNo string `json:"customerContactNo"`
	BillingAddress    string `json:"billingAddress"`
	DeliveryAddress   string `json:"deliveryAddress"`
	OrderDate         string `json:"orderDate"`
}

type SubmittedOrder struct {
	ID           string      `json:"id"`
	SubmissionID string      `json:"submissionId"`
	SubmittedAt  time.Time   `json:"submissionDate"`
	Header      OrderHeader `json:"formData"`
	Lines       []LineItem  `json:"items"`
}

type ItemUpsert struct {
	Category     string `json:"category"`
	ItemName     string `json:"item_name"`
	DefaultWidth string `json:"default_width,omitempty"`
}

type CustomerUpsert struct {
	SalesPersonID   string `json:"sales_person_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	ContactNo       string `json:"contact_no"`
	BillingAddress  string `json:"billing_address"`
	DeliveryAddress string `json:"delivery_address"`
	Branch          string `json:"branch"`
}

type ImportKind string

const (
	ImportItems     ImportKind = "items"
	ImportCustomers ImportKind = "customers"
)

type ImportResult struct {
	Kind              ImportKind `json:"kind"`
	RowsChecked       int        `json:"rowsChecked"`
	Emitted           int        `json:"emitted"`
	Committed         int        `json:"committed"`
	Batches           int        `json:"batches"`
	GhostUsersCreated int        `json:"ghostUsersCreated,omitempty"`
	GhostBranch       string     `json:"ghostBranch,omitempty"`
	Message           string     `json:"message"`
}

type ItemSource string

const (
	SourcePaste          ItemSource = "paste"
	SourceEmailText      ItemSource = "email_text"
	SourceEmailHTMLTable ItemSource = "email_html_table"
	SourceXLSX           ItemSource = "xlsx"
	SourcePDF            ItemSource = "pdf"
)

// ExtractedLine is one order line recovered from unstructured input.
type ExtractedLine struct {
	LineNo  int
	Source  ItemSource
	RawLine string
	Name    string
	Qty     *float64
	Unit    *string
	Meta    map[string]any
}

type EmailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

type MatchStatus string

const (
	MatchExact    MatchStatus = "EXACT"
	MatchPartial  MatchStatus = "PARTIAL"
	MatchNotFound MatchStatus = "NOT_FOUND"
)

// DraftLine pairs an extracted line with the line item it resolved to.
type DraftLine struct {
	Extracted ExtractedLine `json:"extracted"`
	Status    MatchStatus   `json:"status"`
	Line      LineItem      `json:"line"`
}

type InboxDraft struct {
	EmailID int         `json:"emailId"`
	Header  OrderHeader `json:"header"`
	Lines   []DraftLine `json:"lines"`
}

// SheetPayload is the submission body sent to the order spreadsheet. The
// header fields are flattened next to the submission id.
type SheetPayload struct {
	SubmissionID   string `json:"submissionId"`
	SubmissionDate string `json:"submissionDate"`
	OrderHeader
	Items []SheetItem `json:"items"`
}

type SheetItem struct {
	Category     string          `json:"category"`
	ItemName     string          `json:"itemName"`
	Color        string          `json:"color"`
	Width        string          `json:"width"`
	Quantity     string          `json:"quantity"`
	UOM          string          `json:"uom"`
	Rate         decimal.Decimal `json:"rate"`
	Discount     decimal.Decimal `json:"discount"`
	DeliveryDate string          `json:"deliveryDate"`
	Remark       string          `json:"remark"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
}

// HistoryEntry is an order as recorded in the local history after a
// submission attempt.
type HistoryEntry struct {
	ID            string         `json:"id"`
	SalesPersonID string         `json:"salesPersonId"`
	Order         SubmittedOrder `json:"order"`
	StoreSaved    bool           `json:"storeSaved"`
	SheetSaved    bool           `json:"sheetSaved"`
}
