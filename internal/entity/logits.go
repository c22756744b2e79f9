package entity

// argmaxLabels picks the highest scoring label for each of the first n real tokens in
// logits, a [1, maxTokens, len(labels)] tensor whose position 0 is [CLS].
func argmaxLabels(logits []float32, n int, labels []string) []string {
	width := len(labels)
	out := make([]string, n)
	for i := 0; i < n; i++ {
		row := logits[(i+1)*width : (i+2)*width]
		best := 0
		for j, v := range row {
			if v > row[best] {
				best = j
			}
		}
		out[i] = labels[best]
	}
	return out
}
