package httpgin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/coachseat/internal/chart"
	redisrepo "github.com/kirinyoku/coachseat/internal/repository/redis"
	"github.com/kirinyoku/coachseat/internal/service"
	"github.com/kirinyoku/coachseat/internal/service/booking"
	"github.com/kirinyoku/coachseat/internal/service/query"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Idempotency makes POST /bookings safe to retry. Implemented by
// redisrepo.IdempotencyStore.
type Idempotency interface {
	Begin(ctx context.Context, key string) (redisrepo.IdemState, string, error)
	Save(ctx context.Context, key string, jsonPayload string) error
	Release(ctx context.Context, key string) error
}

// NewRouter wires the HTTP API. idem may be nil, in which case the
// Idempotency-Key header is ignored.
func NewRouter(
	svcs *service.Services,
	idem Idempotency,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/chart", handleGetChart(svcs))
	r.GET("/chart/availability", handleGetAvailability(svcs))
	r.GET("/chart/rows/:row", handleGetRow(svcs))

	r.POST("/bookings", handleCreateBooking(svcs, idem))

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  Get seat chart
// @Param    format  query  string  false  "text for the terminal rendering"
// @Produce  json
// @Produce  plain
// @Success  200  {object}  domain.Chart
// @Failure  503  {object}  ErrorResponse "chart not initialized"
// @Router   /chart [get]
func handleGetChart(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ch, err := svcs.Query.Chart(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}

		if c.Query("format") == "text" {
			writeWithCache(c, http.StatusOK, contentText, []byte(chart.String(*ch)), "public, max-age=5")
			return
		}

		writeJSONWithCache(c, http.StatusOK, ch, "public, max-age=5")
	}
}

// @Summary  Get availability counters
// @Success  200  {object}  domain.ChartCounts
// @Router   /chart/availability [get]
func handleGetAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		cnt, err := svcs.Query.Counts(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}

		writeJSONWithCache(c, http.StatusOK, cnt, "public, max-age=5")
	}
}

// @Summary  Get one row of the chart
// @Param    row  path  int  true  "Row number, 1..11"
// @Success  200  {object}  RowResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /chart/rows/{row} [get]
func handleGetRow(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		idx, ok := parseIntParam(c, "row")
		if !ok {
			return
		}

		row, err := svcs.Query.Row(c.Request.Context(), idx)
		if err != nil {
			respondErr(c, err)
			return
		}

		writeJSONWithCache(c, http.StatusOK, toRowResponse(row), "public, max-age=5")
	}
}

// @Summary  Book seats (idempotent)
// @Param    req body  CreateBookingRequest true "payload"
// @Param    Idempotency-Key header string false "retry key"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} BookingResponse
// @Failure  400 {object} ErrorResponse "invalid seat count"
// @Failure  409 {object} ErrorResponse "not enough seats / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /bookings [post]
func handleCreateBooking(svcs *service.Services, idem Idempotency) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		ctx := c.Request.Context()

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemBooking(idemKey)

			state, payload, err := idem.Begin(ctx, idemStorageKey)
			if err != nil {
				c.Error(err)
				c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "idempotency store unavailable"})
				return
			}

			switch state {
			case redisrepo.IdemReplay:
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusCreated, contentJSON, []byte(payload))
				return
			case redisrepo.IdemInProgress:
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		b, err := svcs.Booking.Book(ctx, req.Seats, "ip:"+c.ClientIP())
		if err != nil {
			if idemStorageKey != "" {
				_ = idem.Release(ctx, idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		resp := toBookingResponse(b)

		if idemStorageKey != "" {
			payload, _ := json.Marshal(resp)
			_ = idem.Save(ctx, idemStorageKey, string(payload))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// --- Helpers ---

func parseIntParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var (
		insufficient booking.InsufficientSeatsError
		tooMany      booking.TooManySeatsError
		limited      booking.RateLimitedError
	)

	switch {
	// booking service
	case errors.Is(err, booking.ErrInvalidSeatCount):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: booking.ErrInvalidSeatCount.Error()})
	case errors.As(err, &tooMany):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: tooMany.Error()})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusConflict, ErrorResponse{Error: insufficient.Error()})
	case errors.Is(err, booking.ErrCoachFull):
		c.JSON(http.StatusConflict, ErrorResponse{Error: booking.ErrCoachFull.Error()})
	case errors.As(err, &limited):
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(limited.RetryAfter.Seconds()))))
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited"})
	// query service
	case errors.Is(err, query.ErrRowNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "row not found"})
	case errors.Is(err, query.ErrNotInitialized):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "seat chart not initialized"})
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
