package feature

import (
	"fmt"
	"math"
	"strconv"
)

type FourierComp string

const (
	FourierCompSin FourierComp = "sin"
	FourierCompCos FourierComp = "cos"
)

// Seasonality is one sine or cosine term of a Fourier series for a named period
type Seasonality struct {
	Name        string      `json:"name"`
	FourierComp FourierComp `json:"fourier_component"`
	Order       int         `json:"order"`
}

func NewSeasonality(name string, fcomp FourierComp, order int) *Seasonality {
	return &Seasonality{name, fcomp, order}
}

func (s Seasonality) String() string {
	return fmt.Sprintf("seas_%s_%02d_%s", s.Name, s.Order, s.FourierComp)
}

func (s Seasonality) Get(label string) (string, bool) {
	return lookup(s, label)
}

func (s Seasonality) Type() FeatureType {
	return FeatureTypeSeasonality
}

func (s Seasonality) Decode() map[string]string {
	return map[string]string{
		"name":              s.Name,
		"fourier_component": string(s.FourierComp),
		"order":             strconv.Itoa(s.Order),
	}
}

// Generate evaluates the Fourier term on epoch seconds for a period in seconds
func (s Seasonality) Generate(epoch []float64, periodSec float64) []float64 {
	omega := 2.0 * math.Pi * float64(s.Order) / periodSec
	res := make([]float64, len(epoch))
	for i, e := range epoch {
		rad := omega * e
		if s.FourierComp == FourierCompCos {
			res[i] = math.Cos(rad)
			continue
		}
		res[i] = math.Sin(rad)
	}
	return res
}
