package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	domainbooking "heavenly/internal/domain/booking"
	domaincalendar "heavenly/internal/domain/calendar"
	domainpayment "heavenly/internal/domain/payment"
	domainproperty "heavenly/internal/domain/property"
	"heavenly/internal/domain/shared/daterange"
)

// respondError maps domain sentinels to HTTP statuses. Anything unmapped is
// an internal failure and stays opaque to the client.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, domaincalendar.ErrInvalidBounds),
		errors.Is(err, domainbooking.ErrPastDate),
		errors.Is(err, domainbooking.ErrInvalidGuests),
		errors.Is(err, domainbooking.ErrCapacityExceeded):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domainbooking.ErrNotFound),
		errors.Is(err, domaincalendar.ErrNotFound),
		errors.Is(err, domainproperty.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domainbooking.ErrUnavailable),
		errors.Is(err, domainbooking.ErrDuplicateBooking),
		errors.Is(err, domainbooking.ErrAlreadyStarted),
		errors.Is(err, domainbooking.ErrInvalidTransition),
		errors.Is(err, domaincalendar.ErrConflict),
		errors.Is(err, domaincalendar.ErrSplitInvariant),
		errors.Is(err, domainpayment.ErrAlreadyPaid):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
