// Package http is the thin echo façade over query/usecase.Service: it only
// parses query parameters, calls the service, and serializes the result
// (grounded on the teacher's router/delivery/http/router_handler.go
// handler shape).
package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"cosmossdk.io/math"

	"github.com/jexdex/aggregator-engine/domain"
	queryusecase "github.com/jexdex/aggregator-engine/query/usecase"
)

const queryResource = "/query"

func formatQueryResource(resource string) string {
	return queryResource + resource
}

// QueryHandler is the HTTP delivery for the query façade (spec.md §6).
type QueryHandler struct {
	service *queryusecase.Service
}

// NewQueryHandler registers the query façade's routes on e.
func NewQueryHandler(e *echo.Echo, service *queryusecase.Service) {
	handler := &QueryHandler{service: service}
	e.GET(formatQueryResource("/routes"), handler.Routes)
	e.GET(formatQueryResource("/evaluate"), handler.Evaluate)
	e.POST(formatQueryResource("/multi_eval"), handler.MultiEval)
	e.GET(formatQueryResource("/tokens"), handler.Tokens)
	e.GET(formatQueryResource("/ready"), handler.Ready)
}

func (h *QueryHandler) Routes(c echo.Context) error {
	tokenIn := c.QueryParam("token_in")
	tokenOut := c.QueryParam("token_out")
	if tokenIn == "" || tokenOut == "" {
		return c.JSON(http.StatusBadRequest, domain.ResponseError{Message: "token_in and token_out are required"})
	}

	maxHops := 0
	if v := c.QueryParam("max_hops"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, domain.ResponseError{Message: "max_hops must be an integer"})
		}
		maxHops = parsed
	}

	routes, err := h.service.Routes(c.Request().Context(), tokenIn, tokenOut, maxHops)
	if err != nil {
		return c.JSON(domain.GetStatusCode(err), domain.ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, routes)
}

func (h *QueryHandler) Evaluate(c echo.Context) error {
	tokenIn := c.QueryParam("token_in")
	tokenOut := c.QueryParam("token_out")
	if tokenIn == "" || tokenOut == "" {
		return c.JSON(http.StatusBadRequest, domain.ResponseError{Message: "token_in and token_out are required"})
	}

	var amountIn, netAmountOut *math.Int
	if v := c.QueryParam("amount_in"); v != "" {
		parsed, ok := math.NewIntFromString(v)
		if !ok {
			return c.JSON(http.StatusBadRequest, domain.ResponseError{Message: "amount_in is not a valid integer"})
		}
		amountIn = &parsed
	}
	if v := c.QueryParam("net_amount_out"); v != "" {
		parsed, ok := math.NewIntFromString(v)
		if !ok {
			return c.JSON(http.StatusBadRequest, domain.ResponseError{Message: "net_amount_out is not a valid integer"})
		}
		netAmountOut = &parsed
	}

	maxHops := 0
	if v := c.QueryParam("max_hops"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, domain.ResponseError{Message: "max_hops must be an integer"})
		}
		maxHops = parsed
	}

	withDynRouting, _ := strconv.ParseBool(c.QueryParam("with_dyn_routing"))

	result, err := h.service.Evaluate(c.Request().Context(), tokenIn, tokenOut, amountIn, netAmountOut, maxHops, withDynRouting)
	if err != nil {
		return c.JSON(domain.GetStatusCode(err), domain.ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, result)
}

// multiEvalRequestBody is the POST /query/multi_eval body shape.
type multiEvalRequestBody struct {
	TokenOut string `json:"token_out"`
	Requests []struct {
		TokenIdentifier string `json:"token_id"`
		Amount          string `json:"amount"`
	} `json:"requests"`
}

func (h *QueryHandler) MultiEval(c echo.Context) error {
	var body multiEvalRequestBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, domain.ResponseError{Message: err.Error()})
	}

	requests := make([]queryusecase.MultiEvalRequest, 0, len(body.Requests))
	for _, r := range body.Requests {
		amt, ok := math.NewIntFromString(r.Amount)
		if !ok {
			return c.JSON(http.StatusBadRequest, domain.ResponseError{Message: "amount is not a valid integer: " + r.Amount})
		}
		requests = append(requests, queryusecase.MultiEvalRequest{TokenIdentifier: r.TokenIdentifier, AmountIn: amt})
	}

	results, err := h.service.MultiEval(c.Request().Context(), body.TokenOut, requests)
	if err != nil {
		return c.JSON(domain.GetStatusCode(err), domain.ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, results)
}

func (h *QueryHandler) Tokens(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Tokens(c.Request().Context()))
}

func (h *QueryHandler) Ready(c echo.Context) error {
	ready := h.service.Ready()
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, map[string]bool{"ready": ready})
}
