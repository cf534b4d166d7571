package opportunity

// TrendWindow is the number of most recent months considered by Trend
const TrendWindow = 6

// Trend returns the percentage change between the earlier and later half of
// the most recent TrendWindow months. The series must be chronological.
// Odd windows leave the middle month out of both halves.
func Trend(months []MonthlySearch) float64 {
	if len(months) > TrendWindow {
		months = months[len(months)-TrendWindow:]
	}
	if len(months) < 2 {
		return 0
	}

	half := len(months) / 2
	earlier := average(months[:half])
	later := average(months[len(months)-half:])

	if earlier == 0 {
		return 0
	}
	return (later - earlier) / earlier * 100
}

func average(months []MonthlySearch) float64 {
	if len(months) == 0 {
		return 0
	}
	var sum float64
	for _, m := range months {
		sum += float64(m.SearchVolume)
	}
	return sum / float64(len(months))
}
