// Copyright 2024 comrec Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package community detects communities in weighted similarity graphs and
// normalizes the results of different algorithms into one sparse membership
// representation.
package community

import (
	"context"
	"strconv"
	"time"

	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/comrec-io/comrec/base/log"
	"github.com/comrec-io/comrec/base/progress"
	"github.com/comrec-io/comrec/graph"
)

// Algorithm selects a community detection backend.
type Algorithm string

const (
	WalktrapAlgorithm Algorithm = "walktrap"
	DMIDAlgorithm     Algorithm = "dmid"
	SLPAAlgorithm     Algorithm = "slpa"
)

// Detector runs a community detection backend over a weighted graph and
// normalizes the result into a membership matrix plus a dominant-community
// vector. A detector is configured via setters, run once per graph and
// reusable: a second detection overwrites the previous result.
type Detector struct {
	algorithm   Algorithm
	overlapping bool
	graph       *graph.Graph

	memberships *graph.Memberships
	vector      []int32
	elapsed     int

	// DMID parameters
	dmidLeadershipIterationBound  int
	dmidLeadershipPrecisionFactor float32
	dmidProfitabilityDelta        float32

	// Walktrap parameters
	walktrapSteps int

	// SLPA parameters
	slpaProbabilityThreshold float32
	slpaMemorySize           int
}

// NewDetector creates a Detector with default parameters for all backends.
func NewDetector() *Detector {
	return &Detector{
		algorithm:                     WalktrapAlgorithm,
		overlapping:                   true,
		dmidLeadershipIterationBound:  1000,
		dmidLeadershipPrecisionFactor: 0.001,
		dmidProfitabilityDelta:        0.1,
		walktrapSteps:                 2,
		slpaProbabilityThreshold:      0.15,
		slpaMemorySize:                100,
	}
}

func (d *Detector) SetAlgorithm(algorithm Algorithm) {
	d.algorithm = algorithm
}

func (d *Detector) SetGraph(g *graph.Graph) {
	d.graph = g
}

func (d *Detector) SetOverlapping(overlapping bool) {
	d.overlapping = overlapping
}

func (d *Detector) SetDMIDParameters(iterationBound int, precisionFactor, profitabilityDelta float32) {
	d.dmidLeadershipIterationBound = iterationBound
	d.dmidLeadershipPrecisionFactor = precisionFactor
	d.dmidProfitabilityDelta = profitabilityDelta
}

func (d *Detector) SetWalktrapParameters(steps int) {
	d.walktrapSteps = steps
}

func (d *Detector) SetSLPAParameters(probabilityThreshold float32, memorySize int) {
	d.slpaProbabilityThreshold = probabilityThreshold
	d.slpaMemorySize = memorySize
}

// DetectCommunities dispatches to the selected backend and stores the
// normalized result. Backend failures and cancellation propagate unchanged;
// no partial result is kept on error.
func (d *Detector) DetectCommunities(ctx context.Context) error {
	backend, params, err := d.backend()
	if err != nil {
		return errors.Trace(err)
	}
	start := time.Now()
	ctx, span := progress.Start(ctx, "Detector.DetectCommunities", 1)
	cover, err := backend.Detect(ctx, d.graph, params)
	if err != nil {
		span.Fail(err)
		return errors.Trace(err)
	}
	memberships := cover.Memberships
	vector := cover.Partition
	if vector == nil {
		if !d.overlapping {
			memberships = memberships.Collapse()
		}
		vector = memberships.Vector()
	}
	d.memberships = memberships
	d.vector = vector
	// coarse wall-clock metric, whole seconds
	d.elapsed = int(time.Since(start).Seconds())
	span.End()
	log.Logger().Info("detected communities",
		zap.String("algorithm", backend.Name()),
		zap.Int("num_nodes", memberships.NumRows()),
		zap.Int("num_communities", memberships.NumColumns()),
		zap.Int("num_memberships", memberships.Count()),
		zap.Bool("overlapping", d.overlapping),
		zap.Int("computation_time", d.elapsed))
	return nil
}

func (d *Detector) backend() (Backend, map[string]string, error) {
	switch d.algorithm {
	case WalktrapAlgorithm:
		return &Walktrap{}, map[string]string{
			"steps": strconv.Itoa(d.walktrapSteps),
		}, nil
	case DMIDAlgorithm:
		return &LeadershipPropagation{}, map[string]string{
			"leadershipIterationBound":  strconv.Itoa(d.dmidLeadershipIterationBound),
			"leadershipPrecisionFactor": strconv.FormatFloat(float64(d.dmidLeadershipPrecisionFactor), 'f', -1, 32),
			"profitabilityDelta":        strconv.FormatFloat(float64(d.dmidProfitabilityDelta), 'f', -1, 32),
		}, nil
	case SLPAAlgorithm:
		return &SpeakerListener{}, map[string]string{
			"probabilityThreshold": strconv.FormatFloat(float64(d.slpaProbabilityThreshold), 'f', -1, 32),
			"memorySize":           strconv.Itoa(d.slpaMemorySize),
		}, nil
	default:
		return nil, nil, errors.NotValidf("community detection algorithm %q", d.algorithm)
	}
}

// Memberships returns the membership matrix of the last detection.
func (d *Detector) Memberships() *graph.Memberships {
	return d.memberships
}

// MembershipsVector returns the dominant community per node of the last
// detection.
func (d *Detector) MembershipsVector() []int32 {
	return d.vector
}

// NumCommunities returns the community count of the last detection.
func (d *Detector) NumCommunities() int {
	return d.memberships.NumColumns()
}

// ComputationTime returns the elapsed seconds of the last detection.
func (d *Detector) ComputationTime() int {
	return d.elapsed
}
