package types

// EventType is the category column of the event log.
type EventType string

const (
	EventTypeDaily    EventType = "Daily"
	EventTypeOrder    EventType = "Order"
	EventTypeTrade    EventType = "Trade"
	EventTypeStrategy EventType = "Strategy"
)

// EventRecord is one row of the event log. Empty numeric columns are written as blanks,
// which is why they are strings.
type EventRecord struct {
	Date            string `csv:"Date"`
	Ticker          string `csv:"Ticker"`
	EventType       string `csv:"Event Type"`
	Details         string `csv:"Details"`
	OrderType       string `csv:"Order Type"`
	OrderStatus     string `csv:"Order Status"`
	OrderSize       string `csv:"Order Size"`
	TradePnL        string `csv:"Trade PnL"`
	OrderEquityPct  string `csv:"Order Equity %"`
	OrderCashPct    string `csv:"Order Cash %"`
	OrderTotalPct   string `csv:"Order Total %"`
	PortfolioCash   string `csv:"Portfolio Cash"`
	CashPct         string `csv:"Cash %"`
	PortfolioEquity string `csv:"Portfolio Equity"`
	EquityPct       string `csv:"Equity %"`
	TotalPositions  string `csv:"Total Positions"`
	TotalOrders     string `csv:"Total Orders"`
}

// EventLogHeader is the column order of the event log.
var EventLogHeader = []string{
	"Date", "Ticker", "Event Type", "Details", "Order Type", "Order Status", "Order Size", "Trade PnL",
	"Order Equity %", "Order Cash %", "Order Total %", "Portfolio Cash", "Cash %", "Portfolio Equity",
	"Equity %", "Total Positions", "Total Orders",
}
