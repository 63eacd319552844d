package game

// Sum ...
func Sum(data []float64) (result float64) {
	for _, v := range data {
		result += v
	}
	return result
}

// Mean ...
func Mean(data []float64) float64 {
	count := float64(len(data))
	if count == 0 {
		return 0
	}
	return Sum(data) / count
}

// MeanAbsoluteDeviation returns the average distance of every sample from the mean. It is used as the
// jitter estimate of a connection's round-trip samples.
func MeanAbsoluteDeviation(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	mean := Mean(data)

	var dev float64
	for _, v := range data {
		if v > mean {
			dev += v - mean
		} else {
			dev += mean - v
		}
	}
	return dev / float64(len(data))
}
