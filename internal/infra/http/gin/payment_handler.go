package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"heavenly/internal/app/commands"
	"heavenly/internal/app/dto"
	PaymentApp "heavenly/internal/app/handlers/payments"
	"heavenly/internal/app/queries"
)

type PaymentHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h PaymentHandler) Pay(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, err := int64Param(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := commands.Dispatch[PaymentApp.ProcessPaymentCommand, dto.PaymentView](c.Request.Context(), h.Commands, PaymentApp.ProcessPaymentCommand{
		BookingID: id,
		UserID:    user.UserID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h PaymentHandler) ListForBooking(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, err := int64Param(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	views, err := queries.Ask[PaymentApp.ListBookingPaymentsQuery, []dto.PaymentView](c.Request.Context(), h.Queries, PaymentApp.ListBookingPaymentsQuery{
		BookingID: id,
		UserID:    user.UserID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": views})
}

var _ PaymentHTTP = PaymentHandler{}
