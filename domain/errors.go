package domain

import (
	"errors"
	"fmt"
	"net/http"

	"cosmossdk.io/math"
)

// Sentinel errors for the conditions spec.md §7 groups under "InvalidInput".
var (
	ErrBothAmountsSupplied  = errors.New("exactly one of amountIn or netAmountOut must be supplied")
	ErrNeitherAmountSupplied = errors.New("one of amountIn or netAmountOut must be supplied")
	ErrMaxHopsOutOfRange    = errors.New("maxHops must be in [1, 4]")
	ErrMultiEvalSizeOutOfRange = errors.New("multi_eval requests must contain between 1 and 10 entries")
	ErrUnknownToken         = errors.New("unknown token identifier")
	ErrNotReady             = errors.New("query issued before the first successful sync")
)

// InvalidTokenError is raised when a hop's declared token_in/token_out is not
// in the pool's token set.
type InvalidTokenError struct {
	PoolAddress string
	Token       string
}

func (e InvalidTokenError) Error() string {
	return fmt.Sprintf("token %q is not part of pool %q", e.Token, e.PoolAddress)
}

// InsufficientLiquidityError is raised when the requested output would
// exceed a pool's reserve of the output token, or a curve solver
// post-condition about reserve bounds fails.
type InsufficientLiquidityError struct {
	PoolAddress string
	AmountOut   math.Int
	ReserveOut  math.Int
}

func (e InsufficientLiquidityError) Error() string {
	return fmt.Sprintf("pool %q: amount out %s exceeds reserve %s", e.PoolAddress, e.AmountOut, e.ReserveOut)
}

// InsufficientInputError is raised when a venue-specific minimum input is
// not met (e.g. XOXNO liquid staking).
type InsufficientInputError struct {
	PoolAddress string
	AmountIn    math.Int
	MinimumIn   math.Int
}

func (e InsufficientInputError) Error() string {
	return fmt.Sprintf("pool %q: amount in %s is below the minimum %s", e.PoolAddress, e.AmountIn, e.MinimumIn)
}

// UnsafeValueError is raised when a curve solver's pre- or post-condition is
// violated.
type UnsafeValueError struct {
	Solver string
	Reason string
}

func (e UnsafeValueError) Error() string {
	return fmt.Sprintf("%s: unsafe value (%s)", e.Solver, e.Reason)
}

// DidNotConvergeError is raised when a Newton/curve iteration exhausts its
// iteration budget without converging.
type DidNotConvergeError struct {
	Solver     string
	Iterations int
}

func (e DidNotConvergeError) Error() string {
	return fmt.Sprintf("%s did not converge after %d iterations", e.Solver, e.Iterations)
}

// ErrUnsupportedOperation is returned by a PricingModel variant that does not
// implement a given capability (e.g. QuoteIn on a one-way venue).
var ErrUnsupportedOperation = errors.New("operation not supported by this pricing model")

// ExternalFailureError wraps an RPC error, a malformed response, or an
// upstream timeout. It is always local to the collaborator that produced it.
type ExternalFailureError struct {
	Collaborator string
	Err          error
}

func (e ExternalFailureError) Error() string {
	return fmt.Sprintf("%s: external failure: %v", e.Collaborator, e.Err)
}

func (e ExternalFailureError) Unwrap() error {
	return e.Err
}

// ResponseError is the JSON error body every HTTP handler in delivery/http
// returns on failure (spec.md §7, grounded on the teacher's own
// domain.ResponseError).
type ResponseError struct {
	Message string `json:"message"`
}

// GetStatusCode maps a core error to an HTTP status code for delivery/http
// handlers, grounded on the teacher's domain.GetStatusCode.
func GetStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch {
	case errors.Is(err, ErrBothAmountsSupplied),
		errors.Is(err, ErrNeitherAmountSupplied),
		errors.Is(err, ErrMaxHopsOutOfRange),
		errors.Is(err, ErrMultiEvalSizeOutOfRange),
		errors.Is(err, ErrUnknownToken):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotReady):
		return http.StatusServiceUnavailable
	}

	switch err.(type) {
	case InvalidTokenError, InsufficientInputError:
		return http.StatusBadRequest
	case InsufficientLiquidityError:
		return http.StatusUnprocessableEntity
	case ExternalFailureError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
