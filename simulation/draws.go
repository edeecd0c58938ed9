// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package simulation

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// relative tolerance below which a negative eigenvalue is treated as rounding
// noise of a singular covariance matrix
const psdTolerance = 1e-10

// factorSource produces the gross portfolio return factors for one year
type factorSource interface {
	// drawYear fills dst with one gross factor per simulation
	drawYear(dst []float64)
}

// logMean is the mean of the underlying normal that gives a lognormal
// variable an arithmetic mean of 1+mean
func logMean(mean, variance float64) float64 {
	return math.Log1p(mean) - 0.5*variance
}

// lognormalFactors draws exp(N(mu, sigma)) from a single rand.Rand wrapped
// around the stream source, so a year of draws does not allocate
type lognormalFactors struct {
	mu    float64
	sigma float64
	rnd   *rand.Rand
}

func newLognormalFactors(mean, volatility float64, src rand.Source) *lognormalFactors {
	return &lognormalFactors{
		mu:    logMean(mean, volatility*volatility),
		sigma: volatility,
		rnd:   rand.New(src),
	}
}

func (f *lognormalFactors) drawYear(dst []float64) {
	for ii := range dst {
		dst[ii] = math.Exp(f.rnd.NormFloat64()*f.sigma + f.mu)
	}
}

func (SingleAsset) newFactorSource(req Request, src rand.Source) (factorSource, error) {
	return newLognormalFactors(req.MeanReturn, req.Volatility, src), nil
}

func (Retirement) newFactorSource(req Request, src rand.Source) (factorSource, error) {
	return newLognormalFactors(req.MeanReturn, req.Volatility, src), nil
}

func (s MultiAsset) newFactorSource(req Request, src rand.Source) (factorSource, error) {
	return newCorrelatedFactors(req.MeanReturn, req.Volatility, s, src)
}

// correlatedFactors blends per-asset lognormal factors with equal weights
type correlatedFactors struct {
	sampler multivariateSampler
	weights []float64
	draw    []float64
}

func newCorrelatedFactors(mean, volatility float64, s MultiAsset, src rand.Source) (*correlatedFactors, error) {
	cov := covariance(s.Assets, volatility, s.Correlation)

	mu := make([]float64, s.Assets)
	for ii := range mu {
		mu[ii] = logMean(mean, cov.At(ii, ii))
	}

	sampler, err := newMultivariateNormal(mu, cov, src)
	if err != nil {
		if minEig, ok := err.(notPSDError); ok {
			return nil, &DegeneracyError{
				Assets:        s.Assets,
				Correlation:   s.Correlation,
				MinEigenvalue: float64(minEig),
			}
		}
		return nil, err
	}

	weights := make([]float64, s.Assets)
	floats.AddConst(1/float64(s.Assets), weights)

	return &correlatedFactors{
		sampler: sampler,
		weights: weights,
		draw:    make([]float64, s.Assets),
	}, nil
}

func (f *correlatedFactors) drawYear(dst []float64) {
	for ii := range dst {
		f.draw = f.sampler.Rand(f.draw)
		for jj, x := range f.draw {
			f.draw[jj] = math.Exp(x)
		}
		dst[ii] = floats.Dot(f.draw, f.weights)
	}
}

// covariance builds outer(vol, vol) element-wise multiplied by a correlation
// matrix with ones on the diagonal and corr everywhere else
func covariance(assets int, volatility, corr float64) *mat.SymDense {
	vol := make([]float64, assets)
	floats.AddConst(volatility, vol)

	cov := mat.NewSymDense(assets, nil)
	for ii := 0; ii < assets; ii++ {
		for jj := ii; jj < assets; jj++ {
			rho := corr
			if ii == jj {
				rho = 1.0
			}
			cov.SetSym(ii, jj, vol[ii]*vol[jj]*rho)
		}
	}
	return cov
}

// multivariateSampler draws one correlated normal vector per call; it is
// satisfied by *distmv.Normal
type multivariateSampler interface {
	Rand(x []float64) []float64
}

// notPSDError carries the offending minimum eigenvalue
type notPSDError float64

func (e notPSDError) Error() string {
	return fmt.Sprintf("covariance has negative eigenvalue %g", float64(e))
}

// newMultivariateNormal samples positive definite covariances through
// distmv.Normal. Singular but positive semi-definite covariances (perfect
// correlation, zero volatility) have no Cholesky factor and are sampled
// through the square root of their eigen decomposition instead.
func newMultivariateNormal(mu []float64, cov *mat.SymDense, src rand.Source) (multivariateSampler, error) {
	var eig mat.EigenSym
	if ok := eig.Factorize(cov, true); !ok {
		return nil, fmt.Errorf("%w: eigen decomposition of covariance did not converge", ErrInternal)
	}

	values := eig.Values(nil)
	minEig := floats.Min(values)
	tol := psdTolerance * math.Max(1, math.Abs(floats.Max(values)))
	if minEig < -tol {
		return nil, notPSDError(minEig)
	}

	if normal, ok := distmv.NewNormal(mu, cov, src); ok {
		log.Debug().Int("Dim", len(mu)).Msg("sampling correlated returns with cholesky factor")
		return normal, nil
	}

	log.Debug().Int("Dim", len(mu)).Float64("MinEigenvalue", minEig).Msg("covariance is singular; sampling with eigen decomposition")

	var vectors mat.Dense
	eig.VectorsTo(&vectors)
	dim := len(mu)
	for jj, val := range values {
		scale := math.Sqrt(math.Max(val, 0))
		for ii := 0; ii < dim; ii++ {
			vectors.Set(ii, jj, vectors.At(ii, jj)*scale)
		}
	}

	return &eigenNormal{
		mu:     mu,
		factor: &vectors,
		rnd:    rand.New(src),
		z:      make([]float64, dim),
	}, nil
}

// eigenNormal draws mu + A z where A A^T equals the covariance and z is a
// vector of independent standard normals
type eigenNormal struct {
	mu     []float64
	factor *mat.Dense
	rnd    *rand.Rand
	z      []float64
}

func (n *eigenNormal) Rand(x []float64) []float64 {
	if len(x) != len(n.mu) {
		x = make([]float64, len(n.mu))
	}
	for ii := range n.z {
		n.z[ii] = n.rnd.NormFloat64()
	}

	dst := mat.NewVecDense(len(x), x)
	dst.MulVec(n.factor, mat.NewVecDense(len(n.z), n.z))
	floats.Add(x, n.mu)
	return x
}
