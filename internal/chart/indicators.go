package chart

// MovingAverage returns the simple moving average of values over period. The
// result starts at the first full window, so it has len(values)-period+1
// entries, or none when there is not enough data.
func MovingAverage(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}

	out := make([]float64, 0, len(values)-period+1)
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out = append(out, sum/float64(period))
		}
	}
	return out
}

// RSI returns the relative strength index using simple averages of gains and
// losses over period. The first value needs period price changes, so the
// result has len(values)-period entries.
func RSI(values []float64, period int) []float64 {
	if period <= 0 || len(values) <= period {
		return nil
	}

	deltas := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		deltas[i-1] = values[i] - values[i-1]
	}

	out := make([]float64, 0, len(deltas)-period+1)
	for end := period; end <= len(deltas); end++ {
		var gain, loss float64
		for _, d := range deltas[end-period : end] {
			if d > 0 {
				gain += d
			} else {
				loss -= d
			}
		}
		gain /= float64(period)
		loss /= float64(period)

		switch {
		case loss == 0 && gain == 0:
			out = append(out, 50)
		case loss == 0:
			out = append(out, 100)
		default:
			out = append(out, 100-100/(1+gain/loss))
		}
	}
	return out
}
