// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analytics

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultSeed makes clustering reproducible between runs.
	DefaultSeed    = 42
	maxClusters    = 3
	kmeansRestarts = 10
	kmeansMaxIter  = 300
)

// Clustering is the outcome of KMeans.
type Clustering struct {
	K       int
	Labels  []int
	Inertia float64
}

// KMeans clusters points into min(3, n) groups after standardising each
// column. The best of ten k-means++ restarts by inertia wins.
//
// # Inputs
//
//   - points: row vectors of equal length.
//   - seed: RNG seed; equal seeds give equal labels.
//
// # Outputs
//
//   - Clustering: K is zero for empty input.
//
// # Limitations
//
//   - Columns with zero variance are centred but not scaled.
func KMeans(points [][]float64, seed uint64) Clustering {
	n := len(points)
	if n == 0 {
		return Clustering{}
	}
	k := min(maxClusters, n)
	data := standardize(points)
	rng := rand.New(rand.NewPCG(seed, seed))

	best := Clustering{K: k, Inertia: math.Inf(1)}
	for range kmeansRestarts {
		labels, inertia := lloyd(data, seedCentroids(data, k, rng))
		if inertia < best.Inertia {
			best.Labels, best.Inertia = labels, inertia
		}
	}
	return best
}

func standardize(points [][]float64) [][]float64 {
	dims := len(points[0])
	out := make([][]float64, len(points))
	for i := range out {
		out[i] = make([]float64, dims)
	}
	col := make([]float64, len(points))
	for d := range dims {
		for i, p := range points {
			col[i] = p[d]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		for i, p := range points {
			out[i][d] = (p[d] - mean) / std
		}
	}
	return out
}

// seedCentroids is k-means++ initialisation.
func seedCentroids(data [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(data[rng.IntN(len(data))]))
	dist := make([]float64, len(data))
	for len(centroids) < k {
		total := 0.0
		for i, p := range data {
			dist[i] = nearest(p, centroids)
			total += dist[i]
		}
		if total == 0 {
			centroids = append(centroids, clone(data[rng.IntN(len(data))]))
			continue
		}
		target := rng.Float64() * total
		pick := len(data) - 1
		for i, d := range dist {
			target -= d
			if target <= 0 {
				pick = i
				break
			}
		}
		centroids = append(centroids, clone(data[pick]))
	}
	return centroids
}

func lloyd(data [][]float64, centroids [][]float64) ([]int, float64) {
	labels := make([]int, len(data))
	for i := range labels {
		labels[i] = -1
	}
	dims := len(data[0])
	for range kmeansMaxIter {
		changed := false
		for i, p := range data {
			c := closest(p, centroids)
			if c != labels[i] {
				labels[i], changed = c, true
			}
		}
		if !changed {
			break
		}
		sums := make([][]float64, len(centroids))
		counts := make([]int, len(centroids))
		for c := range sums {
			sums[c] = make([]float64, dims)
		}
		for i, p := range data {
			floats.Add(sums[labels[i]], p)
			counts[labels[i]]++
		}
		for c := range centroids {
			// Empty clusters keep their previous centroid.
			if counts[c] > 0 {
				floats.Scale(1/float64(counts[c]), sums[c])
				centroids[c] = sums[c]
			}
		}
	}
	inertia := 0.0
	for i, p := range data {
		inertia += sqDist(p, centroids[labels[i]])
	}
	return labels, inertia
}

func closest(p []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := sqDist(p, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func nearest(p []float64, centroids [][]float64) float64 {
	return sqDist(p, centroids[closest(p, centroids)])
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clone(p []float64) []float64 {
	return append([]float64(nil), p...)
}

// PopularityIndex maps cluster labels to a 1-based index ordered by the
// mean of score within each cluster, so the cluster that sells most gets
// the highest index. Only non-empty clusters are ranked; the second
// return value is how many there were.
func PopularityIndex(labels []int, score []float64) ([]int, int) {
	sum := map[int]float64{}
	count := map[int]int{}
	for i, l := range labels {
		sum[l] += score[i]
		count[l]++
	}
	clusters := make([]int, 0, len(count))
	for l := range count {
		clusters = append(clusters, l)
	}
	sort.Slice(clusters, func(i, j int) bool {
		mi := sum[clusters[i]] / float64(count[clusters[i]])
		mj := sum[clusters[j]] / float64(count[clusters[j]])
		if mi != mj {
			return mi < mj
		}
		return clusters[i] < clusters[j]
	})
	rank := make(map[int]int, len(clusters))
	for i, l := range clusters {
		rank[l] = i + 1
	}
	out := make([]int, len(labels))
	for i, l := range labels {
		out[i] = rank[l]
	}
	return out, len(clusters)
}
