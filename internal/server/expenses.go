package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	expensedomain "github.com/groundplan/groundplan/internal/expense/domain"
	"github.com/shopspring/decimal"
)

type createExpenseRequest struct {
	Amount      string `json:"amount" binding:"required"`
	TaxAmount   string `json:"tax_amount"`
	Currency    string `json:"currency"`
	ExpenseType string `json:"expense_type"`
	Category    string `json:"category"`
	ExpenseDate string `json:"expense_date"`
}

func (s *Server) createExpense(c *gin.Context) {
	var req createExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		AbortWithError(c, expensedomain.ErrInvalidAmount)
		return
	}
	taxAmount := decimal.Zero
	if req.TaxAmount != "" {
		taxAmount, err = decimal.NewFromString(req.TaxAmount)
		if err != nil {
			AbortWithError(c, expensedomain.ErrInvalidAmount)
			return
		}
	}

	create := expensedomain.CreateExpenseRequest{
		ProjectID:   c.Param("project_id"),
		Amount:      amount,
		TaxAmount:   taxAmount,
		Currency:    req.Currency,
		ExpenseType: req.ExpenseType,
		Category:    req.Category,
	}
	if req.ExpenseDate != "" {
		expenseDate, err := parseDateParam(req.ExpenseDate)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		create.ExpenseDate = &expenseDate
	}

	record, err := s.expenseSvc.Create(c.Request.Context(), create)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (s *Server) listExpenses(c *gin.Context) {
	records, err := s.expenseSvc.ListByProject(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expense_records": records})
}

type markExpensePaidRequest struct {
	PaidDate string `json:"paid_date" binding:"required"`
}

func (s *Server) markExpensePaid(c *gin.Context) {
	var req markExpensePaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	paidDate, err := parseDateParam(req.PaidDate)
	if err != nil {
		AbortWithError(c, expensedomain.ErrMissingPaidDate)
		return
	}

	record, err := s.expenseSvc.MarkPaid(c.Request.Context(), expensedomain.MarkPaidRequest{
		ID:       c.Param("id"),
		PaidDate: paidDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}
