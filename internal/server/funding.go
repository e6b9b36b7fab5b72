package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	fundingdomain "github.com/groundplan/groundplan/internal/funding/domain"
	"github.com/shopspring/decimal"
)

type createFundingRequest struct {
	CustomerID      string `json:"customer_id"`
	Amount          string `json:"amount" binding:"required"`
	Currency        string `json:"currency"`
	FundingType     string `json:"funding_type" binding:"required"`
	ExpectedDate    string `json:"expected_date"`
	ReferenceNumber string `json:"reference_number"`
	Description     string `json:"description"`
}

func (s *Server) createFunding(c *gin.Context) {
	var req createFundingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		AbortWithError(c, fundingdomain.ErrInvalidAmount)
		return
	}

	create := fundingdomain.CreateFundingRequest{
		ProjectID:       c.Param("project_id"),
		CustomerID:      req.CustomerID,
		Amount:          amount,
		Currency:        req.Currency,
		FundingType:     fundingdomain.FundingType(req.FundingType),
		ReferenceNumber: req.ReferenceNumber,
		Description:     req.Description,
	}
	if req.ExpectedDate != "" {
		expected, err := parseDateParam(req.ExpectedDate)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		create.ExpectedDate = &expected
	}

	record, err := s.fundingSvc.Create(c.Request.Context(), create)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (s *Server) listFunding(c *gin.Context) {
	records, err := s.fundingSvc.ListByProject(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"funding_records": records})
}

type markFundingReceivedRequest struct {
	ReceivedDate string `json:"received_date" binding:"required"`
	Partial      bool   `json:"partial"`
}

func (s *Server) markFundingReceived(c *gin.Context) {
	var req markFundingReceivedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	receivedDate, err := parseDateParam(req.ReceivedDate)
	if err != nil {
		AbortWithError(c, fundingdomain.ErrMissingReceiveDate)
		return
	}

	record, err := s.fundingSvc.MarkReceived(c.Request.Context(), fundingdomain.MarkReceivedRequest{
		ID:           c.Param("id"),
		ReceivedDate: receivedDate,
		Partial:      req.Partial,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}
