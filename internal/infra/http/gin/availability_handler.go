package ginserver

import (
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"heavenly/internal/app/commands"
	"heavenly/internal/app/dto"
	AvailabilityApp "heavenly/internal/app/handlers/availability"
	"heavenly/internal/app/queries"
)

type AvailabilityHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type intervalRequest struct {
	PropertyID int64  `json:"property_id"`
	Region     int32  `json:"region_id"`
	Start      string `json:"start_date"`
	End        string `json:"end_date"`
	Available  bool   `json:"is_available"`
}

func (h AvailabilityHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req intervalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := parseDate(req.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	end, err := parseDate(req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := commands.Dispatch[AvailabilityApp.CreateIntervalCommand, dto.IntervalView](c.Request.Context(), h.Commands, AvailabilityApp.CreateIntervalCommand{
		PropertyID: req.PropertyID,
		Region:     req.Region,
		OwnerID:    user.UserID,
		Start:      start,
		End:        end,
		Available:  req.Available,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

type batchRequest struct {
	PropertyID int64 `json:"property_id"`
	Region     int32 `json:"region_id"`
	Ranges     []struct {
		Start     string `json:"start_date"`
		End       string `json:"end_date"`
		Available bool   `json:"is_available"`
	} `json:"ranges"`
}

func (h AvailabilityHandler) CreateBatch(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := AvailabilityApp.CreateBatchCommand{
		PropertyID: req.PropertyID,
		Region:     req.Region,
		OwnerID:    user.UserID,
	}
	for _, r := range req.Ranges {
		start, err := parseDate(r.Start)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		end, err := parseDate(r.End)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cmd.Ranges = append(cmd.Ranges, AvailabilityApp.BatchRange{Start: start, End: end, Available: r.Available})
	}
	views, err := commands.Dispatch[AvailabilityApp.CreateBatchCommand, []dto.IntervalView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"created": views})
}

func (h AvailabilityHandler) Calendar(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	propertyID, err := int64Param(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	region, err := regionParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q := AvailabilityApp.GetPropertyCalendarQuery{
		PropertyID: propertyID,
		Region:     region,
		OwnerID:    user.UserID,
	}
	if from, err := parseDate(c.Query("from")); err == nil {
		q.From = from
	}
	if to, err := parseDate(c.Query("to")); err == nil {
		q.To = to
	}
	if raw := c.Query("is_available"); raw != "" {
		available := raw == "true" || raw == "1"
		q.Available = &available
	}
	views, err := queries.Ask[AvailabilityApp.GetPropertyCalendarQuery, []dto.IntervalView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": views})
}

type updateIntervalRequest struct {
	Start     string `json:"start_date"`
	End       string `json:"end_date"`
	Available bool   `json:"is_available"`
}

func (h AvailabilityHandler) Update(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, err := int64Param(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	region, err := regionParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var req updateIntervalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := parseDate(req.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	end, err := parseDate(req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := commands.Dispatch[AvailabilityApp.UpdateIntervalCommand, dto.IntervalView](c.Request.Context(), h.Commands, AvailabilityApp.UpdateIntervalCommand{
		IntervalID: id,
		Region:     region,
		OwnerID:    user.UserID,
		Start:      start,
		End:        end,
		Available:  req.Available,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h AvailabilityHandler) Delete(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, err := int64Param(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	region, err := regionParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := commands.Dispatch[AvailabilityApp.DeleteIntervalCommand, struct{}](c.Request.Context(), h.Commands, AvailabilityApp.DeleteIntervalCommand{
		IntervalID: id,
		Region:     region,
		OwnerID:    user.UserID,
	}); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func regionParam(c *gin.Context) (int32, error) {
	v, err := strconv.ParseInt(c.Param("region"), 10, 32)
	if err != nil {
		return 0, errInvalidRegion
	}
	return int32(v), nil
}

var errInvalidRegion = &paramError{"invalid region"}

type paramError struct{ msg string }

func (e *paramError) Error() string { return e.msg }

var _ AvailabilityHTTP = AvailabilityHandler{}
