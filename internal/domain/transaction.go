package domain

// FallbackRate is the GBP->THB rate used when the rate API is unavailable and
// when a transaction date has no matching rate row.
const FallbackRate = 42.0

// Column names shared by the extract, transform and output tables.
const (
	ColTransactionID   = "transaction_id"
	ColDate            = "date"
	ColProductID       = "product_id"
	ColPrice           = "price"
	ColQuantity        = "quantity"
	ColCustomerID      = "customer_id"
	ColProductName     = "product_name"
	ColCustomerCountry = "customer_country"
	ColCustomerName    = "customer_name"
	ColTotalAmount     = "total_amount"
	ColJoinDate        = "join_date"
	ColGBPTHB          = "gbp_thb"
	ColTHBAmount       = "thb_amount"
)

// TransactionColumns is the full column set of a non-empty transaction extract.
var TransactionColumns = []string{
	ColTransactionID,
	ColDate,
	ColProductID,
	ColPrice,
	ColQuantity,
	ColCustomerID,
	ColProductName,
	ColCustomerCountry,
	ColCustomerName,
	ColTotalAmount,
	ColJoinDate,
}

// EmptyTransactionColumns is what an extract with no rows carries.
var EmptyTransactionColumns = []string{ColDate, ColPrice, ColQuantity}

// OutputColumns is the fixed column order of the published dataset.
var OutputColumns = []string{
	ColTransactionID,
	ColDate,
	ColProductID,
	ColPrice,
	ColQuantity,
	ColCustomerID,
	ColProductName,
	ColCustomerCountry,
	ColCustomerName,
	ColTotalAmount,
	ColTHBAmount,
}

// TransactionRecord is one (transaction_id, product_id) line item as read
// from the relational store.
type TransactionRecord struct {
	TransactionID   string  `json:"transaction_id"`
	Date            *string `json:"date"` // as extracted; nil when the source value is NULL
	ProductID       string  `json:"product_id"`
	Price           float64 `json:"price"`
	Quantity        int64   `json:"quantity"`
	CustomerID      *string `json:"customer_id"`
	ProductName     *string `json:"product_name"`
	CustomerCountry *string `json:"customer_country"`
	CustomerName    *string `json:"customer_name"`
	TotalAmount     float64 `json:"total_amount"` // price * quantity, computed by the query
	JoinDate        string  `json:"join_date"`    // YYYY-MM-DD or "" when date is nil
}

// TransactionTable is a transaction extract plus the columns it physically has.
type TransactionTable struct {
	Columns []string
	Rows    []TransactionRecord
}

// JoinedRecord is a transaction with its conversion rate attached.
// GBPTHB is nil until the converter fills the fallback in.
type JoinedRecord struct {
	TransactionRecord
	GBPTHB    *float64 `json:"gbp_thb"`
	THBAmount float64  `json:"thb_amount"`
}

// JoinedTable is the working table between the joiner and the projector.
type JoinedTable struct {
	Columns []string
	Rows    []JoinedRecord
}

// OutputRecord is one row of the published dataset.
type OutputRecord struct {
	TransactionID   string  `json:"transaction_id"`
	Date            *string `json:"date"`
	ProductID       string  `json:"product_id"`
	Price           float64 `json:"price"`
	Quantity        int64   `json:"quantity"`
	CustomerID      *string `json:"customer_id"`
	ProductName     *string `json:"product_name"`
	CustomerCountry *string `json:"customer_country"`
	CustomerName    *string `json:"customer_name"`
	TotalAmount     float64 `json:"total_amount"`
	THBAmount       float64 `json:"thb_amount"`
}

// OutputTable is the projected table the DQ stages filter and persistence writes.
type OutputTable struct {
	Columns []string
	Rows    []OutputRecord
}

// HasColumn reports whether name is one of columns.
func HasColumn(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}
