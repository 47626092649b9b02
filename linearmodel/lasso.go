package linearmodel

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultLambda     = 1.0
	DefaultIterations = 1000
	DefaultTolerance  = 1e-4
)

var (
	ErrNegativeLambda      = errors.New("negative lambda")
	ErrNegativeIterations  = errors.New("negative iterations")
	ErrNegativeTolerance   = errors.New("negative tolerance")
	ErrNegativePenalty     = errors.New("negative penalty factor")
	ErrPenaltyFactorsSize  = errors.New("penalty factors do not have the same number of entries as training features")
	ErrWarmStartBetaSize   = errors.New("warm start beta does not have the same number of coefficients as training features")
	ErrNonFiniteCoefficent = errors.New("non-finite coefficient after fit")
)

// LassoOptions represents input options to run the Lasso Regression
type LassoOptions struct {
	// WarmStartBeta primes the coordinate descent with coefficients from a previous fit. Includes
	// the intercept as the first value when FitIntercept is set.
	WarmStartBeta []float64

	// Lambda is the L1 multiplier. 0.0 converges to Ordinary Least Squares (OLS).
	Lambda float64

	// PenaltyFactors scales Lambda per feature column. A factor of 0 leaves that feature
	// unpenalized. Defaults to 1 for every feature when empty. The intercept is never penalized.
	PenaltyFactors []float64

	// Iterations is the maximum number of full passes over all coefficients.
	Iterations int

	// Tolerance stops iterating once the largest coefficient update is below this fraction of
	// the largest coefficient.
	Tolerance float64

	// FitIntercept adds a constant 1.0 feature as the first column if set to true
	FitIntercept bool
}

// NewDefaultLassoOptions returns a default set of Lasso Regression options
func NewDefaultLassoOptions() *LassoOptions {
	return &LassoOptions{
		Lambda:       DefaultLambda,
		Iterations:   DefaultIterations,
		Tolerance:    DefaultTolerance,
		FitIntercept: true,
	}
}

// Validate runs basic validation on Lasso options
func (l *LassoOptions) Validate() (*LassoOptions, error) {
	if l == nil {
		l = NewDefaultLassoOptions()
	}
	if l.Lambda < 0 {
		return nil, ErrNegativeLambda
	}
	if l.Iterations < 0 {
		return nil, ErrNegativeIterations
	}
	if l.Tolerance < 0 {
		return nil, ErrNegativeTolerance
	}
	for _, pf := range l.PenaltyFactors {
		if pf < 0 {
			return nil, ErrNegativePenalty
		}
	}
	return l, nil
}

// LassoRegression computes the lasso regression using cyclic coordinate descent
type LassoRegression struct {
	opt *LassoOptions

	coef       []float64
	intercept  float64
	iterations int
	converged  bool
}

// NewLassoRegression initializes a Lasso model ready for fitting
func NewLassoRegression(opt *LassoOptions) (*LassoRegression, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &LassoRegression{opt: opt}, nil
}

// Fit the model according to the given training data. x is m observations by n features and
// y is m observations by 1 target.
func (l *LassoRegression) Fit(x, y mat.Matrix) error {
	if l.opt == nil {
		return ErrNoOptions
	}
	if x == nil {
		return ErrNoTrainingMatrix
	}
	if y == nil {
		return ErrNoTargetMatrix
	}

	m, n := x.Dims()
	ym, _ := y.Dims()
	if ym != m {
		return fmt.Errorf("training data has %d rows and target has %d row, %w", m, ym, ErrTargetLenMismatch)
	}
	if len(l.opt.PenaltyFactors) != 0 && len(l.opt.PenaltyFactors) != n {
		return fmt.Errorf("got %d penalty factors for %d features, %w", len(l.opt.PenaltyFactors), n, ErrPenaltyFactorsSize)
	}

	cols := make([][]float64, 0, n+1)
	penalty := make([]float64, 0, n+1)
	if l.opt.FitIntercept {
		ones := make([]float64, m)
		floats.AddConst(1.0, ones)
		cols = append(cols, ones)
		penalty = append(penalty, 0.0)
	}
	for j := 0; j < n; j++ {
		cols = append(cols, mat.Col(nil, j, x))
		pf := 1.0
		if len(l.opt.PenaltyFactors) != 0 {
			pf = l.opt.PenaltyFactors[j]
		}
		penalty = append(penalty, pf)
	}
	n = len(cols)

	if l.opt.WarmStartBeta != nil && len(l.opt.WarmStartBeta) != n {
		return fmt.Errorf("warm start beta has %d coefficients instead of %d, %w", len(l.opt.WarmStartBeta), n, ErrWarmStartBetaSize)
	}

	beta := make([]float64, n)
	copy(beta, l.opt.WarmStartBeta)

	xdot := make([]float64, n)
	for j, col := range cols {
		xdot[j] = floats.Dot(col, col)
	}

	// residual is kept in sync with beta so each coordinate update is a single dot product
	residual := mat.Col(nil, 0, y)
	for j, b := range beta {
		if b != 0 {
			floats.AddScaled(residual, -b, cols[j])
		}
	}

	l.converged = false
	l.iterations = 0
	for i := 0; i < l.opt.Iterations; i++ {
		maxCoef := 0.0
		maxUpdate := 0.0
		for j, col := range cols {
			// all zero column, e.g. a changepoint with no observations after it
			if xdot[j] == 0 {
				beta[j] = 0
				continue
			}
			rho := floats.Dot(col, residual) + xdot[j]*beta[j]
			next := SoftThreshold(rho, l.opt.Lambda*penalty[j]) / xdot[j]
			delta := next - beta[j]
			if delta != 0 {
				floats.AddScaled(residual, -delta, col)
			}
			beta[j] = next

			maxCoef = math.Max(maxCoef, math.Abs(next))
			maxUpdate = math.Max(maxUpdate, math.Abs(delta))
		}
		l.iterations = i + 1
		if maxUpdate <= l.opt.Tolerance*maxCoef {
			l.converged = true
			break
		}
	}

	for _, b := range beta {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return ErrNonFiniteCoefficent
		}
	}

	if l.opt.FitIntercept {
		l.intercept = beta[0]
		l.coef = beta[1:]
		return nil
	}
	l.intercept = 0
	l.coef = beta
	return nil
}

// Predict using the Lasso model
func (l *LassoRegression) Predict(x mat.Matrix) ([]float64, error) {
	if l.opt == nil {
		return nil, ErrNoOptions
	}
	if x == nil {
		return nil, ErrNoDesignMatrix
	}

	m, n := x.Dims()
	if n != len(l.coef) {
		return nil, fmt.Errorf("got %d features in design matrix, but expected %d, %w", n, len(l.coef), ErrFeatureLenMismatch)
	}

	res := mat.NewVecDense(m, nil)
	res.MulVec(x, mat.NewVecDense(n, l.Coef()))
	out := res.RawVector().Data
	floats.AddConst(l.intercept, out)
	return out, nil
}

// Score computes the coefficient of determination of the prediction
func (l *LassoRegression) Score(x, y mat.Matrix) (float64, error) {
	if y == nil {
		return 0.0, ErrNoTargetMatrix
	}
	res, err := l.Predict(x)
	if err != nil {
		return 0.0, err
	}
	ym, _ := y.Dims()
	if ym != len(res) {
		return 0.0, fmt.Errorf("design matrix has %d rows and target has %d rows, %w", len(res), ym, ErrTargetLenMismatch)
	}

	score := stat.RSquaredFrom(res, mat.Col(nil, 0, y), nil)
	if math.IsNaN(score) {
		score = 1.0
	}
	return score, nil
}

// Intercept returns the computed intercept if FitIntercept is set to true. Defaults to 0.0 if not set.
func (l *LassoRegression) Intercept() float64 {
	return l.intercept
}

// Coef returns a copy of the trained coefficients in the same order as the training matrix columns.
func (l *LassoRegression) Coef() []float64 {
	c := make([]float64, len(l.coef))
	copy(c, l.coef)
	return c
}

// Iterations returns the number of coordinate descent passes run by the last fit
func (l *LassoRegression) Iterations() int {
	return l.iterations
}

// Converged reports whether the last fit met the tolerance before running out of iterations
func (l *LassoRegression) Converged() bool {
	return l.converged
}

// SoftThreshold shrinks x towards zero by gamma, returning 0 when |x| <= gamma
func SoftThreshold(x, gamma float64) float64 {
	res := math.Max(0, math.Abs(x)-gamma)
	if math.Signbit(x) {
		return -res
	}
	return res
}
