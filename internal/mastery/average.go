package mastery

// WeightedAverage folds one weighted review outcome into an existing mastery
// score. With zero prior exposure the result is exactly the review score
// (the average of nothing plus one weighted sample): early reviews swing the
// score hard, and it stabilizes as exposure grows. Quick to establish low
// confidence, slow to certify high confidence.
func WeightedAverage(oldScore float64, oldExposure int, reviewScore, weight float64) float64 {
	return (oldScore*float64(oldExposure) + reviewScore*weight) / (float64(oldExposure) + weight)
}

// ReviewScore maps a correctness outcome to the score folded into the
// average.
func ReviewScore(correct bool) float64 {
	if correct {
		return 1.0
	}
	return 0.0
}
