package crm

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/crmkit/portal-api/pkg/response"
)

// GinHandlers contains HTTP handlers for the CRM collections
type GinHandlers struct {
	store *Store
}

// NewGinHandlers creates a new set of HTTP handlers over the domain store
func NewGinHandlers(store *Store) *GinHandlers {
	return &GinHandlers{store: store}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid id")
		return 0, false
	}
	return id, true
}

// DashboardHandler serves the cached rollup for the landing page
func (h *GinHandlers) DashboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, h.store.Summarize())
	}
}

func (h *GinHandlers) ListCustomersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, h.store.Customers())
	}
}

func (h *GinHandlers) CreateCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in CustomerInput
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		created, err := h.store.CreateCustomer(c.Request.Context(), in)
		response.Handle(c, created, err)
	}
}

func (h *GinHandlers) UpdateCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var in CustomerInput
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		updated, err := h.store.UpdateCustomer(c.Request.Context(), id, in)
		response.Handle(c, updated, err)
	}
}

func (h *GinHandlers) DeleteCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		err := h.store.DeleteCustomer(c.Request.Context(), id)
		response.Handle(c, gin.H{"deleted": id}, err)
	}
}

func (h *GinHandlers) ListOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, h.store.Orders())
	}
}

func (h *GinHandlers) CreateOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in OrderInput
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		created, err := h.store.CreateOrder(c.Request.Context(), in)
		response.Handle(c, created, err)
	}
}

func (h *GinHandlers) UpdateOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var in OrderInput
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		updated, err := h.store.UpdateOrder(c.Request.Context(), id, in)
		response.Handle(c, updated, err)
	}
}

func (h *GinHandlers) DeleteOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		err := h.store.DeleteOrder(c.Request.Context(), id)
		response.Handle(c, gin.H{"deleted": id}, err)
	}
}

func (h *GinHandlers) ListVisitsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, h.store.Visits())
	}
}

func (h *GinHandlers) CreateVisitHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in VisitInput
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		created, err := h.store.CreateVisit(c.Request.Context(), in)
		response.Handle(c, created, err)
	}
}

func (h *GinHandlers) UpdateVisitHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var in VisitInput
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		updated, err := h.store.UpdateVisit(c.Request.Context(), id, in)
		response.Handle(c, updated, err)
	}
}

func (h *GinHandlers) DeleteVisitHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		err := h.store.DeleteVisit(c.Request.Context(), id)
		response.Handle(c, gin.H{"deleted": id}, err)
	}
}

func (h *GinHandlers) ListFinanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, h.store.Finance())
	}
}

func (h *GinHandlers) CreateFinanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in FinanceInput
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		created, err := h.store.CreateFinanceRecord(c.Request.Context(), in)
		response.Handle(c, created, err)
	}
}

func (h *GinHandlers) UpdateFinanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var in FinanceInput
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		updated, err := h.store.UpdateFinanceRecord(c.Request.Context(), id, in)
		response.Handle(c, updated, err)
	}
}

func (h *GinHandlers) DeleteFinanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		err := h.store.DeleteFinanceRecord(c.Request.Context(), id)
		response.Handle(c, gin.H{"deleted": id}, err)
	}
}

func (h *GinHandlers) ListEmployeesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, h.store.Employees())
	}
}

func (h *GinHandlers) CreateEmployeeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in EmployeeInput
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		created, err := h.store.CreateEmployee(c.Request.Context(), in)
		response.Handle(c, created, err)
	}
}

func (h *GinHandlers) UpdateEmployeeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var in EmployeeInput
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		updated, err := h.store.UpdateEmployee(c.Request.Context(), id, in)
		response.Handle(c, updated, err)
	}
}

func (h *GinHandlers) DeleteEmployeeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		err := h.store.DeleteEmployee(c.Request.Context(), id)
		response.Handle(c, gin.H{"deleted": id}, err)
	}
}

func (h *GinHandlers) ListNewsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := h.store.ListNews(c.Request.Context(), c.Query("status"))
		response.Handle(c, list, err)
	}
}

func (h *GinHandlers) CreateNewsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in NewsInput
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		created, err := h.store.CreateNews(c.Request.Context(), in)
		response.Handle(c, created, err)
	}
}

func (h *GinHandlers) UpdateNewsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var in NewsInput
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		updated, err := h.store.UpdateNews(c.Request.Context(), id, in)
		response.Handle(c, updated, err)
	}
}

func (h *GinHandlers) DeleteNewsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		err := h.store.DeleteNews(c.Request.Context(), id)
		response.Handle(c, gin.H{"deleted": id}, err)
	}
}
