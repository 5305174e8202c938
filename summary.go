package logprobs

import "math"

// Summary aggregates the log-probabilities of a scored sequence.
type Summary struct {
	// Scored is the number of tokens that carry a log-probability.
	Scored int `json:"scored"`
	// TotalLogprob is the sum of all present log-probabilities.
	TotalLogprob float64 `json:"total_logprob"`
	// MeanLogprob is TotalLogprob / Scored.
	MeanLogprob float64 `json:"mean_logprob"`
	// Perplexity is exp(-MeanLogprob).
	Perplexity float64 `json:"perplexity"`
}

// Summarize computes a Summary over tokens. Tokens without a
// log-probability are skipped. With nothing to score, the zero Summary
// is returned.
func Summarize(tokens []TokenProbability) Summary {
	var s Summary
	for _, t := range tokens {
		if t.Logprob == nil {
			continue
		}
		s.Scored++
		s.TotalLogprob += *t.Logprob
	}
	if s.Scored == 0 {
		return Summary{}
	}
	s.MeanLogprob = s.TotalLogprob / float64(s.Scored)
	s.Perplexity = math.Exp(-s.MeanLogprob)
	return s
}
