package emotion

import (
	"github.com/easeaico/crystal-sanctuary/internal/utils"
)

type tier struct {
	intensity int
	weight    float64
	terms     []string
}

var (
	positiveTiers = []tier{
		{9, 0.8, []string{"amazing", "wonderful", "fantastic", "excellent", "love", "ecstatic", "thrilled"}},
		{7, 0.5, []string{"happy", "good", "nice", "pleased", "content", "satisfied", "glad"}},
		{5, 0.2, []string{"okay", "fine", "alright", "decent", "not bad"}},
	}
	negativeTiers = []tier{
		{9, 0.8, []string{"terrible", "horrible", "awful", "hate", "furious", "devastated", "miserable"}},
		{7, 0.5, []string{"sad", "upset", "angry", "frustrated", "disappointed", "annoyed", "worried"}},
		{5, 0.2, []string{"concerned", "unsure", "uncomfortable", "uneasy", "tired"}},
	}

	anxiousMarkers  = []string{"anxious", "anxiety", "nervous", "stressed", "panicking", "overwhelmed"}
	confusedMarkers = []string{"confused", "lost", "don't understand", "puzzled"}
	curiousMarkers  = []string{"curious", "wonder", "wondering", "interested"}
)

// Analyzer classifies the emotional tone of a message from lexicons.
type Analyzer struct{}

// NewAnalyzer returns an Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze returns the tone reading for text. It never fails; text with no
// markers reads as neutral at baseline intensity.
func (a *Analyzer) Analyze(text utils.Text) Reading {
	intensity := BaselineIntensity
	positive, negative := 0, 0
	posWeight, negWeight := 0.0, 0.0

	for _, t := range positiveTiers {
		for _, term := range t.terms {
			if text.Has(term) {
				positive++
				intensity = max(intensity, t.intensity)
				posWeight += t.weight
			}
		}
	}
	for _, t := range negativeTiers {
		for _, term := range t.terms {
			if text.Has(term) {
				negative++
				intensity = max(intensity, t.intensity)
				negWeight += t.weight
			}
		}
	}

	// Polarity is the sign of the weighted sums, not of the hit counts.
	tone := ToneNeutral
	switch {
	case posWeight > negWeight:
		tone = TonePositive
	case negWeight > posWeight:
		tone = ToneNegative
	case positive == 0 && negative == 0:
		// Secondary states only apply when no polarity fired.
		switch {
		case text.Any(anxiousMarkers):
			return Reading{Tone: ToneAnxious, Intensity: 7, Sentiment: -0.3}
		case text.Any(confusedMarkers):
			return Reading{Tone: ToneConfused, Intensity: 6, Sentiment: -0.1}
		case text.Any(curiousMarkers):
			return Reading{Tone: ToneCurious, Intensity: 6, Sentiment: 0.2}
		}
	}

	hits := max(1, positive+negative)
	return Reading{
		Tone:      tone,
		Intensity: ClampIntensity(intensity),
		Sentiment: ClampSentiment((posWeight - negWeight) / float64(hits)),
	}
}
