package qbclient

import "encoding/json"

// Entity types used in linked-transaction and attachment owner references.
const (
	EntityTypeInvoice       = "Invoice"
	EntityTypePurchaseOrder = "PurchaseOrder"
)

// Line detail types. Only item-based lines are imported; account-based lines
// are ignored.
const (
	DetailTypeItemExpense = "ItemBasedExpenseLineDetail"
	DetailTypeSalesItem   = "SalesItemLineDetail"
)

// TaxCodeNone marks an untaxed line.
const TaxCodeNone = "NON"

type ReferenceValue struct {
	Value string `json:"value"`
	Name  string `json:"name,omitempty"`
}

type MemoRef struct {
	Value string `json:"value"`
}

type LinkedTxn struct {
	TxnId   string `json:"TxnId"`
	TxnType string `json:"TxnType"`
}

type TxnTaxDetail struct {
	TotalTax json.Number `json:"TotalTax"`
}

type ItemLineDetail struct {
	ItemRef    *ReferenceValue `json:"ItemRef,omitempty"`
	TaxCodeRef *ReferenceValue `json:"TaxCodeRef,omitempty"`
	Qty        json.Number     `json:"Qty,omitempty"`
	UnitPrice  json.Number     `json:"UnitPrice,omitempty"`
}

type Line struct {
	Id                         string          `json:"Id,omitempty"`
	Description                string          `json:"Description,omitempty"`
	DetailType                 string          `json:"DetailType"`
	ItemBasedExpenseLineDetail *ItemLineDetail `json:"ItemBasedExpenseLineDetail,omitempty"`
	SalesItemLineDetail        *ItemLineDetail `json:"SalesItemLineDetail,omitempty"`
}

// ItemDetail returns the item-based detail matching the line's detail type,
// or nil for account-based and other line kinds.
func (l Line) ItemDetail() *ItemLineDetail {
	switch l.DetailType {
	case DetailTypeItemExpense:
		return l.ItemBasedExpenseLineDetail
	case DetailTypeSalesItem:
		return l.SalesItemLineDetail
	}
	return nil
}

type Invoice struct {
	Id           string        `json:"Id"`
	DocNumber    string        `json:"DocNumber"`
	TxnDate      string        `json:"TxnDate"`
	DueDate      string        `json:"DueDate"`
	Balance      json.Number   `json:"Balance"`
	TotalAmt     json.Number   `json:"TotalAmt"`
	TxnTaxDetail *TxnTaxDetail `json:"TxnTaxDetail,omitempty"`
	CustomerMemo *MemoRef      `json:"CustomerMemo,omitempty"`
	PrivateNote  string        `json:"PrivateNote"`
	LinkedTxn    []LinkedTxn   `json:"LinkedTxn,omitempty"`
	Line         []Line        `json:"Line,omitempty"`
}

func (inv Invoice) CustomerMemoValue() string {
	if inv.CustomerMemo == nil {
		return ""
	}
	return inv.CustomerMemo.Value
}

type PurchaseOrder struct {
	Id           string          `json:"Id"`
	DocNumber    string          `json:"DocNumber"`
	TxnDate      string          `json:"TxnDate"`
	POStatus     string          `json:"POStatus"`
	TotalAmt     json.Number     `json:"TotalAmt"`
	TxnTaxDetail *TxnTaxDetail   `json:"TxnTaxDetail,omitempty"`
	PrivateNote  string          `json:"PrivateNote"`
	Memo         string          `json:"Memo"`
	VendorRef    *ReferenceValue `json:"VendorRef,omitempty"`
	Line         []Line          `json:"Line,omitempty"`
}

type EmailAddress struct {
	Address string `json:"Address"`
}

type TelephoneNumber struct {
	FreeFormNumber string `json:"FreeFormNumber"`
}

type Vendor struct {
	Id               string           `json:"Id"`
	DisplayName      string           `json:"DisplayName"`
	PrimaryEmailAddr *EmailAddress    `json:"PrimaryEmailAddr,omitempty"`
	PrimaryPhone     *TelephoneNumber `json:"PrimaryPhone,omitempty"`
}

func (v Vendor) EmailAddress() string {
	if v.PrimaryEmailAddr == nil {
		return ""
	}
	return v.PrimaryEmailAddr.Address
}

func (v Vendor) PhoneNumber() string {
	if v.PrimaryPhone == nil {
		return ""
	}
	return v.PrimaryPhone.FreeFormNumber
}

type Item struct {
	Id   string `json:"Id"`
	Name string `json:"Name"`
	Type string `json:"Type"` // "Service", "Inventory", "NonInventory", ...
}

type Attachable struct {
	Id            string `json:"Id"`
	FileName      string `json:"FileName"`
	FileAccessUri string `json:"FileAccessUri"`
	ContentType   string `json:"ContentType,omitempty"`
}

type CompanyInfo struct {
	CompanyName string `json:"CompanyName"`
}

// queryResponse is the envelope of the /query endpoint. Only the entity
// collections this importer reads are declared.
type queryResponse struct {
	QueryResponse struct {
		Invoice       []Invoice     `json:"Invoice,omitempty"`
		Attachable    []Attachable  `json:"Attachable,omitempty"`
		CompanyInfo   []CompanyInfo `json:"CompanyInfo,omitempty"`
		StartPosition int           `json:"startPosition,omitempty"`
		MaxResults    int           `json:"maxResults,omitempty"`
	} `json:"QueryResponse"`
}

// read envelopes for point lookups.
type purchaseOrderEnvelope struct {
	PurchaseOrder PurchaseOrder `json:"PurchaseOrder"`
}

type vendorEnvelope struct {
	Vendor Vendor `json:"Vendor"`
}

type itemEnvelope struct {
	Item Item `json:"Item"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}
