package reviews

import (
	"unicode"

	"github.com/vaanya-sarees/storefront/internal/config"
)

// Input is everything the scorer sees for one review. Images live on the
// CDN; only their metadata is scored here.
type Input struct {
	Rating           int
	Title            string
	Body             string
	ImageCount       int
	ImageBytesTotal  int64
	VerifiedPurchase bool
	History          UserHistory
}

type Result struct {
	Score   float64
	Status  Status
	Reasons []string
}

// Score computes the 0..1 risk for a review as the weighted mean of the
// text, image-metadata and user-history signals, then maps it to a verdict.
func Score(rules config.ModerationRules, in Input) Result {
	var reasons []string

	text, r := textSignal(rules, in)
	reasons = append(reasons, r...)
	image, r := imageSignal(rules, in)
	reasons = append(reasons, r...)
	history, r := historySignal(rules, in.History)
	reasons = append(reasons, r...)

	wSum := rules.Weights.Text + rules.Weights.Image + rules.Weights.History
	var risk float64
	if wSum > 0 {
		risk = (rules.Weights.Text*text + rules.Weights.Image*image + rules.Weights.History*history) / wSum
	}
	risk = clamp(risk)

	return Result{
		Score:   risk,
		Status:  Verdict(rules, risk, in.VerifiedPurchase),
		Reasons: reasons,
	}
}

// Verdict applies the thresholds: auto-reject at or above the reject
// threshold, auto-approve at or below the approve threshold only for
// verified purchases, manual review otherwise.
func Verdict(rules config.ModerationRules, risk float64, verified bool) Status {
	switch {
	case risk >= rules.RejectThreshold:
		return StatusRejected
	case risk <= rules.ApproveThreshold && verified:
		return StatusApproved
	default:
		return StatusManualReview
	}
}

func textSignal(rules config.ModerationRules, in Input) (float64, []string) {
	var score float64
	var reasons []string
	text := in.Title + " " + in.Body

	for _, re := range rules.SpamRegexps() {
		if re.MatchString(text) {
			score += 0.6
			reasons = append(reasons, "spam_pattern")
			break
		}
	}

	letters, uppers := 0, 0
	for _, c := range text {
		if unicode.IsLetter(c) {
			letters++
			if unicode.IsUpper(c) {
				uppers++
			}
		}
	}
	if letters >= 20 && float64(uppers)/float64(letters) > rules.ShoutingRatio {
		score += 0.3
		reasons = append(reasons, "shouting")
	}

	if longestRun(text) >= rules.RepeatRun {
		score += 0.2
		reasons = append(reasons, "repeated_chars")
	}

	if len([]rune(in.Body)) < rules.MinBodyRunes && (in.Rating == 1 || in.Rating == 5) {
		score += 0.3
		reasons = append(reasons, "short_extreme_rating")
	}

	return clamp(score), reasons
}

func imageSignal(rules config.ModerationRules, in Input) (float64, []string) {
	if in.ImageCount == 0 {
		return 0, nil
	}
	var score float64
	var reasons []string
	if in.ImageCount > rules.MaxImages {
		score += 0.5
		reasons = append(reasons, "too_many_images")
	}
	if in.ImageBytesTotal/int64(in.ImageCount) > rules.MaxImageBytes {
		score += 0.5
		reasons = append(reasons, "oversized_images")
	}
	return clamp(score), reasons
}

func historySignal(rules config.ModerationRules, h UserHistory) (float64, []string) {
	var score float64
	var reasons []string
	if h.TotalReviews > 0 && h.RejectedReviews > 0 {
		score += float64(h.RejectedReviews) / float64(h.TotalReviews) * 0.7
		reasons = append(reasons, "prior_rejections")
	}
	if h.ConfirmedOrders == 0 {
		score += 0.3
		reasons = append(reasons, "no_purchase_history")
	}
	if h.SubmissionsInWindow > rules.BurstMax {
		score += 0.4
		reasons = append(reasons, "submission_burst")
	}
	return clamp(score), reasons
}

func longestRun(s string) int {
	best, run := 0, 0
	var prev rune
	for i, c := range s {
		if i > 0 && c == prev {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
		prev = c
	}
	return best
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
