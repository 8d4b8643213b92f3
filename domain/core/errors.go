package core

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors - centralized error definitions
var (
	// Distance provider errors
	ErrModelFit           = errors.New("propensity model failed to converge")
	ErrSingularCovariance = errors.New("covariance matrix not invertible")

	// Solver errors
	ErrNonconvergence = errors.New("solver exceeded iteration budget")

	// Weight derivation errors
	ErrDegenerateStratum = errors.New("degenerate stratum in weight derivation")

	// Input validation errors
	ErrInvalidConfig     = errors.New("invalid matching configuration")
	ErrInsufficientData  = errors.New("insufficient data for matching")
	ErrUnknownMethod     = errors.New("unknown matching method")
	ErrUnknownCovariate  = errors.New("covariate not present in dataset")
	ErrResultNotFound    = errors.New("match result not found")
	ErrMalformedDataset  = errors.New("malformed dataset")
	ErrMissingTreatGroup = fmt.Errorf("%w: no treated units", ErrInsufficientData)
	ErrMissingCtrlGroup  = fmt.Errorf("%w: no control units", ErrInsufficientData)
)

// NewModelFitError reports a scoring model that did not converge, with
// enough context (covariates, iterations reached) to diagnose without
// retrying internally.
func NewModelFitError(link string, covariates []string, iterations int, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: %s fit on [%s] after %d iterations: %v",
			ErrModelFit, link, strings.Join(covariates, ", "), iterations, cause)
	}
	return fmt.Errorf("%w: %s fit on [%s] after %d iterations",
		ErrModelFit, link, strings.Join(covariates, ", "), iterations)
}

// NewSingularCovarianceError reports a non-invertible pooled covariance.
// The caller must regularize or drop collinear covariates.
func NewSingularCovarianceError(covariates []string) error {
	return fmt.Errorf("%w: covariates [%s]; drop collinear terms or regularize",
		ErrSingularCovariance, strings.Join(covariates, ", "))
}

func NewDegenerateStratumError(stratum int, treated, size int) error {
	return fmt.Errorf("%w: stratum %d has %d treated of %d units",
		ErrDegenerateStratum, stratum, treated, size)
}

func NewConfigError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, reason)
}

// Error checking helpers
func IsModelFitError(err error) bool {
	return errors.Is(err, ErrModelFit)
}

func IsSingularCovarianceError(err error) bool {
	return errors.Is(err, ErrSingularCovariance)
}

func IsNonconvergenceError(err error) bool {
	return errors.Is(err, ErrNonconvergence)
}

func IsDegenerateStratumError(err error) bool {
	return errors.Is(err, ErrDegenerateStratum)
}

func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig) || errors.Is(err, ErrUnknownMethod)
}
