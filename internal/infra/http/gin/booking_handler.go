package ginserver

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	gin "github.com/gin-gonic/gin"

	"heavenly/internal/app/commands"
	"heavenly/internal/app/dto"
	BookingApp "heavenly/internal/app/handlers/booking"
	"heavenly/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type createBookingRequest struct {
	PropertyID int64  `json:"property_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Adults     int    `json:"adults"`
	Children   int    `json:"children"`
	Infants    int    `json:"infants"`
	Pets       int    `json:"pets"`
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkIn, checkOut, err := parseStayDates(req.CheckIn, req.CheckOut)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := BookingApp.CreateBookingCommand{
		PropertyID: req.PropertyID,
		UserID:     user.UserID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Adults:     req.Adults,
		Children:   req.Children,
		Infants:    req.Infants,
		Pets:       req.Pets,
	}
	view, err := commands.Dispatch[BookingApp.CreateBookingCommand, dto.BookingView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h BookingHandler) ListMine(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	q := BookingApp.ListMyBookingsQuery{
		UserID: user.UserID,
		Status: c.Query("status"),
		Limit:  intQuery(c, "limit"),
		Offset: intQuery(c, "offset"),
	}
	views, err := queries.Ask[BookingApp.ListMyBookingsQuery, []dto.BookingView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": views})
}

func (h BookingHandler) Get(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, err := int64Param(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := queries.Ask[BookingApp.GetBookingQuery, dto.BookingView](c.Request.Context(), h.Queries, BookingApp.GetBookingQuery{
		BookingID: id,
		UserID:    user.UserID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h BookingHandler) Cancel(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, err := int64Param(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := BookingApp.UpdateStatusCommand{
		BookingID: id,
		UserID:    user.UserID,
		Status:    "CANCELED",
	}
	view, err := commands.Dispatch[BookingApp.UpdateStatusCommand, dto.BookingView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type validateBookingRequest struct {
	PropertyID int64  `json:"property_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Adults     int    `json:"adults"`
	Children   int    `json:"children"`
	Infants    int    `json:"infants"`
	Pets       int    `json:"pets"`
}

func (h BookingHandler) Validate(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req validateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkIn, checkOut, err := parseStayDates(req.CheckIn, req.CheckOut)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := queries.Ask[BookingApp.ValidateBookingQuery, dto.ValidationResult](c.Request.Context(), h.Queries, BookingApp.ValidateBookingQuery{
		PropertyID: req.PropertyID,
		UserID:     user.UserID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Adults:     req.Adults,
		Children:   req.Children,
		Infants:    req.Infants,
		Pets:       req.Pets,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ListForProperty(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	id, err := int64Param(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	from, _ := parseDate(c.Query("from"))
	to, _ := parseDate(c.Query("to"))
	views, err := queries.Ask[BookingApp.ListPropertyBookingsQuery, []dto.BookingView](c.Request.Context(), h.Queries, BookingApp.ListPropertyBookingsQuery{
		PropertyID: id,
		From:       from,
		To:         to,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": views})
}

func (h BookingHandler) CheckAvailability(c *gin.Context) {
	propertyID, err := strconv.ParseInt(c.Query("property_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property_id"})
		return
	}
	checkIn, checkOut, err := parseStayDates(c.Query("check_in"), c.Query("check_out"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	available, err := queries.Ask[BookingApp.CheckAvailabilityQuery, bool](c.Request.Context(), h.Queries, BookingApp.CheckAvailabilityQuery{
		PropertyID: propertyID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": available})
}

func (h BookingHandler) AvailabilityGrid(c *gin.Context) {
	propertyID, err := strconv.ParseInt(c.Query("property_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property_id"})
		return
	}
	from, err := parseDate(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	to, err := parseDate(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	grid, err := queries.Ask[BookingApp.AvailabilityGridQuery, []dto.DayAvailability](c.Request.Context(), h.Queries, BookingApp.AvailabilityGridQuery{
		PropertyID: propertyID,
		From:       from,
		To:         to,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": grid})
}

func int64Param(c *gin.Context, name string) (int64, error) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return v, nil
}

func intQuery(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}

// parseDate accepts calendar dates ("2006-01-02") and full RFC 3339
// timestamps.
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return t, nil
}

func parseStayDates(inRaw, outRaw string) (time.Time, time.Time, error) {
	if inRaw == "" || outRaw == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("check_in and check_out are required")
	}
	checkIn, err := parseDate(inRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	checkOut, err := parseDate(outRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return checkIn, checkOut, nil
}

var _ BookingHTTP = BookingHandler{}
