package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mpalmer79/dealdesk/finance"
)

// CalculatorHandler serves the stateless payment calculator. Nothing here
// touches a worksheet; the kiosk's calculator screen calls these directly.
type CalculatorHandler struct{}

func NewCalculatorHandler() *CalculatorHandler {
	return &CalculatorHandler{}
}

type FinanceRequest struct {
	Principal  float64 `json:"principal"`
	APR        float64 `json:"apr"`
	TermMonths int     `json:"term_months"`
}

type LeaseRequest struct {
	MSRP            float64 `json:"msrp"`
	SellingPrice    float64 `json:"selling_price"`
	DownPayment     float64 `json:"down_payment"`
	TermMonths      int     `json:"term_months"`
	ResidualPercent float64 `json:"residual_percent"`
	MoneyFactor     float64 `json:"money_factor"`
}

type BuyingPowerRequest struct {
	MonthlyBudget      float64 `json:"monthly_budget"`
	TermMonths         int     `json:"term_months"`
	APR                float64 `json:"apr"`
	DownPaymentPercent float64 `json:"down_payment_percent"`
}

func validTerm(months int) bool {
	return months >= finance.MinTermMonths && months <= finance.MaxTermMonths
}

func validAPR(apr float64) bool {
	return apr >= 0 && apr <= finance.MaxAPR
}

// Finance computes a forward payment quote.
func (h *CalculatorHandler) Finance(c *gin.Context) {
	var req FinanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.Principal > finance.MaxAmount {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Principal exceeds maximum"})
		return
	}
	if !validAPR(req.APR) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "APR out of range"})
		return
	}
	if !validTerm(req.TermMonths) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Term out of range"})
		return
	}

	c.JSON(http.StatusOK, finance.FinancePayment(req.Principal, req.APR, req.TermMonths))
}

// Lease computes a lease quote.
func (h *CalculatorHandler) Lease(c *gin.Context) {
	var req LeaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.MSRP > finance.MaxAmount {
		c.JSON(http.StatusBadRequest, gin.H{"error": "MSRP exceeds maximum"})
		return
	}
	if !validTerm(req.TermMonths) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Term out of range"})
		return
	}
	if req.ResidualPercent < 0 || req.ResidualPercent > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Residual percent must be between 0 and 1"})
		return
	}
	if req.MoneyFactor < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Money factor must not be negative"})
		return
	}

	c.JSON(http.StatusOK, finance.LeasePayment(
		req.MSRP, req.SellingPrice, req.DownPayment,
		req.TermMonths, req.ResidualPercent, req.MoneyFactor,
	))
}

// BuyingPower solves the vehicle price a monthly budget supports.
func (h *CalculatorHandler) BuyingPower(c *gin.Context) {
	var req BuyingPowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.MonthlyBudget > finance.MaxAmount {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Monthly budget exceeds maximum"})
		return
	}
	if !validAPR(req.APR) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "APR out of range"})
		return
	}
	if !validTerm(req.TermMonths) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Term out of range"})
		return
	}
	if req.DownPaymentPercent < 0 || req.DownPaymentPercent >= 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Down payment percent must be between 0 and 1"})
		return
	}

	c.JSON(http.StatusOK, finance.ComputeBuyingPower(
		req.MonthlyBudget, req.TermMonths, req.APR, req.DownPaymentPercent,
	))
}
