package metrics

import (
	"sort"
	"sync"
	"time"
)

const maxSamples = 1000

type Metrics struct {
	mutex       sync.RWMutex
	renders     map[string]int64
	successes   map[string]int64
	failures    map[string]map[string]int64
	renderTimes map[string][]time.Duration
	startTime   time.Time
}

type Snapshot struct {
	TotalRenders  int64                 `json:"total_renders"`
	TotalFailures int64                 `json:"total_failures"`
	Uptime        time.Duration         `json:"uptime"`
	Jobs          map[string]JobMetrics `json:"jobs"`
	Namespace     string                `json:"namespace"`
}

type JobMetrics struct {
	Renders   int64            `json:"renders"`
	Successes int64            `json:"successes"`
	Failures  map[string]int64 `json:"failures"`
	AvgRender time.Duration    `json:"avg_render"`
	P50Render time.Duration    `json:"p50_render"`
	P95Render time.Duration    `json:"p95_render"`
	P99Render time.Duration    `json:"p99_render"`
}

func (m *Metrics) IncrementRenders(job string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.renders[job]++
}

func (m *Metrics) RecordSuccess(job string, duration time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.successes[job]++
	m.recordDuration(job, duration)
}

// RecordFailure counts a failed render under reason, e.g. "missing_property".
func (m *Metrics) RecordFailure(job string, duration time.Duration, reason string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.failures[job] == nil {
		m.failures[job] = make(map[string]int64)
	}
	m.failures[job][reason]++
	m.recordDuration(job, duration)
}

func (m *Metrics) recordDuration(job string, duration time.Duration) {
	m.renderTimes[job] = append(m.renderTimes[job], duration)

	if len(m.renderTimes[job]) > maxSamples {
		m.renderTimes[job] = m.renderTimes[job][1:]
	}
}

func (m *Metrics) Snapshot(namespace string) Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:    time.Since(m.startTime),
		Jobs:      make(map[string]JobMetrics),
		Namespace: namespace,
	}

	allJobs := make(map[string]bool)
	for job := range m.renders {
		allJobs[job] = true
	}
	for job := range m.successes {
		allJobs[job] = true
	}
	for job := range m.failures {
		allJobs[job] = true
	}

	for job := range allJobs {
		snap.TotalRenders += m.renders[job]

		jm := JobMetrics{
			Renders:   m.renders[job],
			Successes: m.successes[job],
			Failures:  make(map[string]int64, len(m.failures[job])),
		}
		for reason, count := range m.failures[job] {
			jm.Failures[reason] = count
			snap.TotalFailures += count
		}

		durations := m.renderTimes[job]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			jm.AvgRender = average(sorted)
			jm.P50Render = percentile(sorted, 0.50)
			jm.P95Render = percentile(sorted, 0.95)
			jm.P99Render = percentile(sorted, 0.99)
		}

		snap.Jobs[job] = jm
	}

	return snap
}

func NewMetrics() *Metrics {
	return &Metrics{
		renders:     make(map[string]int64),
		successes:   make(map[string]int64),
		failures:    make(map[string]map[string]int64),
		renderTimes: make(map[string][]time.Duration),
		startTime:   time.Now(),
	}
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
