package crm

// Customer is a CRM account. Levels are A, B or C.
type Customer struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Industry  string `json:"industry,omitempty"`
	Level     string `json:"level"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Address   string `json:"address,omitempty"`
	Owner     string `json:"owner,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Order carries a denormalized customer name, which may go stale between a
// customer rename and the next full refresh.
type Order struct {
	ID           int64   `json:"id"`
	CustomerID   int64   `json:"customerId"`
	CustomerName string  `json:"customerName"`
	Title        string  `json:"title"`
	Amount       float64 `json:"amount"`
	Status       string  `json:"status"` // draft, confirmed, delivered, cancelled
	CreatedAt    string  `json:"createdAt,omitempty"`
}

type Visit struct {
	ID           int64  `json:"id"`
	CustomerID   int64  `json:"customerId"`
	CustomerName string `json:"customerName"`
	Date         string `json:"date"`
	Method       string `json:"method"` // call, onsite, online
	Summary      string `json:"summary"`
	NextAction   string `json:"nextAction,omitempty"`
	Owner        string `json:"owner,omitempty"`
}

type FinanceRecord struct {
	ID           int64   `json:"id"`
	CustomerID   int64   `json:"customerId"`
	CustomerName string  `json:"customerName"`
	Type         string  `json:"type"` // invoice, payment, refund
	Amount       float64 `json:"amount"`
	Date         string  `json:"date"`
	Status       string  `json:"status"` // pending, done
	Note         string  `json:"note,omitempty"`
}

type Employee struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role,omitempty"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

type NewsItem struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Summary   string `json:"summary,omitempty"`
	Content   string `json:"content,omitempty"`
	Source    string `json:"source,omitempty"`
	Status    string `json:"status"` // DRAFT, PUBLISHED
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Write payloads. Ids and audit timestamps are server-assigned.

type CustomerInput struct {
	Name     string `json:"name" binding:"required"`
	Industry string `json:"industry,omitempty"`
	Level    string `json:"level" binding:"required,oneof=A B C"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Address  string `json:"address,omitempty"`
	Owner    string `json:"owner,omitempty"`
}

type OrderInput struct {
	CustomerID int64   `json:"customerId" binding:"required"`
	Title      string  `json:"title" binding:"required"`
	Amount     float64 `json:"amount"`
	Status     string  `json:"status" binding:"required"`
}

type VisitInput struct {
	CustomerID int64  `json:"customerId" binding:"required"`
	Date       string `json:"date" binding:"required"`
	Method     string `json:"method" binding:"required"`
	Summary    string `json:"summary" binding:"required"`
	NextAction string `json:"nextAction,omitempty"`
	Owner      string `json:"owner,omitempty"`
}

type FinanceInput struct {
	CustomerID int64   `json:"customerId" binding:"required"`
	Type       string  `json:"type" binding:"required"`
	Amount     float64 `json:"amount"`
	Date       string  `json:"date" binding:"required"`
	Status     string  `json:"status" binding:"required"`
	Note       string  `json:"note,omitempty"`
}

type EmployeeInput struct {
	Name   string `json:"name" binding:"required"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Role   string `json:"role,omitempty"`
	Status string `json:"status,omitempty"`
}

type NewsInput struct {
	Title   string `json:"title" binding:"required"`
	Summary string `json:"summary,omitempty"`
	Content string `json:"content,omitempty"`
	Source  string `json:"source,omitempty"`
	Status  string `json:"status" binding:"required,oneof=DRAFT PUBLISHED"`
}

// Summary is the dashboard rollup computed from the cached collections.
type Summary struct {
	Customers      int     `json:"customers"`
	Orders         int     `json:"orders"`
	Visits         int     `json:"visits"`
	Employees      int     `json:"employees"`
	TotalOrder     float64 `json:"totalOrder"`
	PendingInvoice float64 `json:"pendingInvoice"`
	DonePayment    float64 `json:"donePayment"`
}
