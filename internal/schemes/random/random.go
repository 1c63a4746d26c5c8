// Package random serves the random: scheme, which samples from common
// distributions:
//
//	random:uniform?n=8&min=0&max=10
//	random:normal.json?n=100&mu=0&sigma=1
//	random://exponential.toml?rate=2
//
// The response carries the samples plus their mean and standard deviation.
// A fixed seed makes the sequence reproducible.
package random

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/module"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/resource"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/executive/internal/schemes"
	"github.com/GriffinCanCode/AgentOS/executive/internal/schemes/encode"
)

// MaxSamples caps n.
const MaxSamples = 4096

// Document is the rendered sample set.
type Document struct {
	Distribution string             `json:"distribution" yaml:"distribution" toml:"distribution"`
	Params       map[string]float64 `json:"params" yaml:"params" toml:"params"`
	Samples      []float64          `json:"samples" yaml:"samples" toml:"samples"`
	Mean         float64            `json:"mean" yaml:"mean" toml:"mean"`
	StdDev       float64            `json:"stddev" yaml:"stddev" toml:"stddev"`
}

// Scheme is the random: module.
type Scheme struct {
	*schemes.Base
	src    rand.Source
	logger *logging.Logger
}

// New seeds the generator. A zero seed uses the clock.
func New(seed uint64, logger *logging.Logger) *Scheme {
	if logger == nil {
		logger = logging.NewNop()
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Scheme{
		Base:   schemes.NewBase("random", "random"),
		src:    rand.NewPCG(seed, seed^0x9E3779B97F4A7C15),
		logger: logger.Named("random"),
	}
}

// Fetch draws the samples and queues the document.
func (s *Scheme) Fetch(ctx context.Context, u resource.URL, deliver module.Deliver) {
	resp, err := s.Sample(u)
	if err != nil {
		s.logger.Warn("fetch failed", zap.String("url", u.String()), zap.Error(err))
		return
	}
	s.Complete(deliver, resp)
}

// Sample draws synchronously.
func (s *Scheme) Sample(u resource.URL) (resource.Response, error) {
	target := schemes.Target(u)
	q := u.Query()

	n, err := intParam(q, "n", 1)
	if err != nil {
		return resource.Response{}, err
	}
	if n < 1 || n > MaxSamples {
		return resource.Response{}, fmt.Errorf("n=%d out of range [1,%d]", n, MaxSamples)
	}

	name := encode.Trim(target)
	if name == "" {
		name = "uniform"
	}
	dist, params, err := s.distribution(name, q)
	if err != nil {
		return resource.Response{}, err
	}

	samples := make([]float64, n)
	for i := range samples {
		samples[i] = dist.Rand()
	}
	doc := Document{
		Distribution: name,
		Params:       params,
		Samples:      samples,
		Mean:         stat.Mean(samples, nil),
	}
	if n > 1 {
		doc.StdDev = stat.StdDev(samples, nil)
	}

	format := encode.ForPath(target)
	data, err := encode.Marshal(format, doc)
	if err != nil {
		return resource.Response{}, err
	}
	return resource.Response{
		URL:  u,
		Data: data,
		MIME: format.MIME(),
		Meta: map[string]string{"format": string(format), "distribution": name},
	}, nil
}

type sampler interface {
	Rand() float64
}

func (s *Scheme) distribution(name string, q url.Values) (sampler, map[string]float64, error) {
	switch name {
	case "uniform":
		lo, err := floatParam(q, "min", 0)
		if err != nil {
			return nil, nil, err
		}
		hi, err := floatParam(q, "max", 1)
		if err != nil {
			return nil, nil, err
		}
		if hi <= lo {
			return nil, nil, fmt.Errorf("uniform: max %g must exceed min %g", hi, lo)
		}
		return distuv.Uniform{Min: lo, Max: hi, Src: s.src}, map[string]float64{"min": lo, "max": hi}, nil
	case "normal":
		mu, err := floatParam(q, "mu", 0)
		if err != nil {
			return nil, nil, err
		}
		sigma, err := floatParam(q, "sigma", 1)
		if err != nil {
			return nil, nil, err
		}
		if sigma <= 0 {
			return nil, nil, fmt.Errorf("normal: sigma must be positive")
		}
		return distuv.Normal{Mu: mu, Sigma: sigma, Src: s.src}, map[string]float64{"mu": mu, "sigma": sigma}, nil
	case "exponential":
		rate, err := floatParam(q, "rate", 1)
		if err != nil {
			return nil, nil, err
		}
		if rate <= 0 {
			return nil, nil, fmt.Errorf("exponential: rate must be positive")
		}
		return distuv.Exponential{Rate: rate, Src: s.src}, map[string]float64{"rate": rate}, nil
	default:
		return nil, nil, fmt.Errorf("unknown distribution %q", name)
	}
}

func intParam(q url.Values, key string, def int) (int, error) {
	v := q.Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func floatParam(q url.Values, key string, def float64) (float64, error) {
	v := q.Get(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}
