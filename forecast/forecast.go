// Package forecast fits a single decomposable linear model of a univariate time series made
// of a piecewise linear trend, Fourier seasonality and holiday events.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/aouyang1/revforecast/feature"
	"github.com/aouyang1/revforecast/forecast/options"
	"github.com/aouyang1/revforecast/linearmodel"
	"github.com/aouyang1/revforecast/timedataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrUninitializedForecast    = errors.New("uninitialized forecast")
	ErrInsufficientTrainingData = errors.New("insufficient training data after removing Nans")
	ErrNoModelCoefficients      = errors.New("no model coefficients from fit")
	ErrUntrainedForecast        = errors.New("forecast has not been trained yet")
	ErrDegenerateSeries         = errors.New("training data has no variance")
	ErrNonFiniteFit             = errors.New("fit produced non-finite values")
)

// Forecast represents a single forecast model of a time series. This is a linear model using
// coordinate descent to calculate the weights. This will decompose the series into an intercept,
// trend components (based on changepoint times), seasonal components and holiday events.
type Forecast struct {
	opt    *options.Options
	scores *Scores // score calculations after training

	resolved options.Resolved
	fLabels  *feature.Labels

	trainStartTime  time.Time
	trainEndTime    time.Time
	residual        []float64
	trainComponents Components

	coef    []float64
	trained bool
}

// New creates a new forecast instance with the given options. If none are provided, a default
// is used
func New(opt *options.Options) (*Forecast, error) {
	if opt == nil {
		opt = options.NewDefaultOptions()
	}
	if err := opt.Validate(); err != nil {
		return nil, fmt.Errorf("invalid forecast options, %w", err)
	}
	return &Forecast{opt: opt}, nil
}

// NewFromModel creates a new forecast instance given a forecast Model to initialize. This
// instance can be used for inference immediately and does not need to be trained again.
func NewFromModel(model Model) (*Forecast, error) {
	labels, coef, err := model.Weights.Split()
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, ErrNoModelCoefficients
	}
	opt := model.Options
	if opt == nil {
		opt = options.NewDefaultOptions()
	}

	f := &Forecast{
		opt:            opt,
		resolved:       model.Resolved,
		fLabels:        feature.NewLabels(labels),
		trainStartTime: model.TrainStartTime,
		trainEndTime:   model.TrainEndTime,
		coef:           coef,
		scores:         model.Scores,
		trained:        true,
	}
	return f, nil
}

func (f *Forecast) generateFeatures(t []time.Time) (*feature.Set, error) {
	return f.opt.GenerateFeatures(t, f.trainStartTime, f.trainEndTime, f.resolved)
}

// Fit takes the input training data and fits a forecast model for possible changepoints,
// seasonal components, and intercept. NaN observations are ignored during training.
func (f *Forecast) Fit(t []time.Time, y []float64) error {
	if f == nil {
		return ErrUninitializedForecast
	}

	trainingData, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return err
	}
	cleaned := trainingData.DropNan()
	if cleaned.Len() <= 1 {
		return ErrInsufficientTrainingData
	}
	for _, v := range cleaned.Y {
		if math.IsInf(v, 0) {
			return fmt.Errorf("infinite observation, %w", ErrNonFiniteFit)
		}
	}
	if floats.Max(cleaned.Y) == floats.Min(cleaned.Y) {
		return ErrDegenerateSeries
	}

	f.trained = false
	f.trainStartTime = cleaned.T[0]
	f.trainEndTime = cleaned.T[len(cleaned.T)-1]
	f.resolved = f.opt.Resolve(cleaned.T)

	x, err := f.generateFeatures(cleaned.T)
	if err != nil {
		return err
	}
	labels := x.Labels()
	f.fLabels = labels

	// scale observations so the regularization strength does not depend on revenue magnitude
	yScale := math.Max(math.Abs(floats.Max(cleaned.Y)), math.Abs(floats.Min(cleaned.Y)))
	scaledY := make([]float64, cleaned.Len())
	floats.ScaleTo(scaledY, 1.0/yScale, cleaned.Y)

	lasso, err := linearmodel.NewLassoRegression(f.opt.NewLassoOptions(cleaned.Len(), labels.Labels()))
	if err != nil {
		return fmt.Errorf("unable to initialize regression, %w", err)
	}
	if err := lasso.Fit(x.Matrix(), mat.NewDense(cleaned.Len(), 1, scaledY)); err != nil {
		if errors.Is(err, linearmodel.ErrNonFiniteCoefficent) {
			return fmt.Errorf("unable to fit regression, %w, %w", err, ErrNonFiniteFit)
		}
		return fmt.Errorf("unable to fit regression, %w", err)
	}

	coef := lasso.Coef()
	floats.Scale(yScale, coef)
	for _, c := range coef {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return ErrNonFiniteFit
		}
	}
	f.coef = coef
	f.trained = true

	// use input training to include NaNs
	predicted, comp, err := f.Predict(trainingData.T)
	if err != nil {
		return err
	}
	f.trainComponents = comp

	scores, err := NewScores(predicted, trainingData.Y)
	if err != nil {
		return err
	}
	f.scores = scores

	residual := make([]float64, len(trainingData.T))
	floats.SubTo(residual, trainingData.Y, predicted)
	f.residual = residual

	return nil
}

// Predict takes a slice of times in any order and produces the predicted value for those
// times given a pre-trained model.
func (f *Forecast) Predict(t []time.Time) ([]float64, Components, error) {
	if f == nil {
		return nil, Components{}, ErrUninitializedForecast
	}
	if !f.trained {
		return nil, Components{}, ErrUntrainedForecast
	}

	x, err := f.generateFeatures(t)
	if err != nil {
		return nil, Components{}, err
	}

	comp := Components{
		Trend:       f.runInference(x.Filter(feature.FeatureTypeGrowth, feature.FeatureTypeChangepoint), len(t)),
		Seasonality: make(map[string][]float64, len(f.resolved.Seasonalities)),
	}
	for _, seas := range f.resolved.Seasonalities {
		seasFeat := feature.NewSet()
		for _, label := range x.Filter(feature.FeatureTypeSeasonality).Labels().Labels() {
			if name, _ := label.Get("name"); name == seas.Name {
				data, _ := x.Get(label)
				seasFeat.Set(label, data)
			}
		}
		comp.Seasonality[seas.Name] = f.runInference(seasFeat, len(t))
	}
	if len(f.resolved.Holidays) > 0 {
		comp.Event = f.runInference(x.Filter(feature.FeatureTypeEvent), len(t))
	}

	res := f.runInference(x, len(t))
	for _, v := range res {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, Components{}, ErrNonFiniteFit
		}
	}
	return res, comp, nil
}

// runInference multiplies the features by their fitted weights. Features without a weight
// contribute nothing.
func (f *Forecast) runInference(x *feature.Set, m int) []float64 {
	yhat := make([]float64, m)
	if x.Len() == 0 || x.Rows() != m {
		return yhat
	}

	xLabels := x.Labels().Labels()
	w := make([]float64, len(xLabels))
	for i, xFeat := range xLabels {
		if wIdx, exists := f.fLabels.Index(xFeat); exists {
			w[i] = f.coef[wIdx]
		}
	}

	res := mat.NewVecDense(m, yhat)
	res.MulVec(x.Matrix(), mat.NewVecDense(len(w), w))
	return yhat
}

// Coefficients returns a forecast model map of coefficients keyed by the string
// representation of each feature label
func (f *Forecast) Coefficients() (map[string]float64, error) {
	if f == nil {
		return nil, ErrUninitializedForecast
	}

	labels := f.fLabels.Labels()
	if len(labels) == 0 || len(f.coef) == 0 {
		return nil, ErrNoModelCoefficients
	}
	coef := make(map[string]float64, len(labels))
	for i, label := range labels {
		coef[label.String()] = f.coef[i]
	}
	return coef, nil
}

// Intercept returns the weight of the constant growth feature
func (f *Forecast) Intercept() float64 {
	if f == nil {
		return 0
	}
	if i, exists := f.fLabels.Index(feature.Intercept()); exists {
		return f.coef[i]
	}
	return 0
}

// Resolved returns the changepoints, seasonalities and holidays chosen during training
func (f *Forecast) Resolved() options.Resolved {
	if f == nil {
		return options.Resolved{}
	}
	return f.resolved
}

// Model returns the serializeable format of the forecast model composing of the
// forecast options, coefficients with their feature labels, and the model fit scores
func (f *Forecast) Model() (Model, error) {
	if f == nil {
		return Model{}, ErrUninitializedForecast
	}
	if !f.trained {
		return Model{}, ErrUntrainedForecast
	}

	labels := f.fLabels.Labels()
	fws := make([]FeatureWeight, 0, len(f.coef))
	for i, c := range f.coef {
		fws = append(fws, NewFeatureWeight(labels[i], c))
	}
	m := Model{
		TrainStartTime: f.trainStartTime,
		TrainEndTime:   f.trainEndTime,
		Options:        f.opt,
		Resolved:       f.resolved,
		Weights:        Weights{Coef: fws},
		Scores:         f.scores,
	}
	return m, nil
}

// ModelEq returns a string representation of the model linear equation in the format of
// y ~ m1x1 + m2x2 + ... skipping zero weights
func (f *Forecast) ModelEq() (string, error) {
	if f == nil {
		return "", ErrUninitializedForecast
	}

	coef, err := f.Coefficients()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("y ~ ")
	var terms int
	for _, label := range f.fLabels.Labels() {
		w := coef[label.String()]
		if w == 0 {
			continue
		}
		if terms > 0 {
			sb.WriteString("+")
		}
		fmt.Fprintf(&sb, "%.2f*%s", w, label)
		terms++
	}
	if terms == 0 {
		sb.WriteString("0")
	}
	return sb.String(), nil
}

// Scores returns the fit scores for evaluating how well the resulting model
// fit the training data
func (f *Forecast) Scores() Scores {
	if f == nil || f.scores == nil {
		return Scores{}
	}
	return *f.scores
}

// Residuals returns a slice of values representing the difference between the
// training data and the fit data
func (f *Forecast) Residuals() []float64 {
	if f == nil {
		return nil
	}
	res := make([]float64, len(f.residual))
	copy(res, f.residual)
	return res
}

// TrendComponent represents the overall trend component of the training fit which is
// determined by the growth and changepoints.
func (f *Forecast) TrendComponent() []float64 {
	if f == nil {
		return nil
	}
	res := make([]float64, len(f.trainComponents.Trend))
	copy(res, f.trainComponents.Trend)
	return res
}

// Components returns a copy of every component of the training fit
func (f *Forecast) Components() Components {
	if f == nil {
		return Components{}
	}
	return f.trainComponents.copy()
}
