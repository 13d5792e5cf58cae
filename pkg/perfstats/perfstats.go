package perfstats

import "time"

// Two scalars (N samples and X total amount), which can measure total and average values.
type Accumulator struct {
	Samples int64
	Total   float64
}

func (a *Accumulator) Reset() {
	a.Samples = 0
	a.Total = 0
}

func (a *Accumulator) AddSample(v float64) {
	a.Samples++
	a.Total += v
}

func (a *Accumulator) Average() float64 {
	if a.Samples == 0 {
		return 0
	}
	return a.Total / float64(a.Samples)
}

// AverageOr returns the average, or 'fallback' if no samples have been recorded.
// Useful when an upstream feed has gone quiet and we'd rather report the last
// known figure than zero.
func (a *Accumulator) AverageOr(fallback float64) float64 {
	if a.Samples == 0 {
		return fallback
	}
	return a.Average()
}

// Accumulate samples of how long something took
type TimeAccumulator struct {
	Samples int64
	Total   time.Duration
}

func (a *TimeAccumulator) Reset() {
	a.Samples = 0
	a.Total = 0
}

func (a *TimeAccumulator) AddSample(v time.Duration) {
	a.Samples++
	a.Total += v
}

func (a *TimeAccumulator) Average() time.Duration {
	if a.Samples == 0 {
		return 0
	}
	return time.Duration(a.Total.Nanoseconds() / a.Samples)
}
