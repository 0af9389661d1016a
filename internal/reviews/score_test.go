package reviews

import (
	"testing"

	"github.com/vaanya-sarees/storefront/internal/config"
)

func defaultRules(t *testing.T) config.ModerationRules {
	t.Helper()
	rules, err := config.LoadModerationRules("")
	if err != nil {
		t.Fatalf("load default rules: %v", err)
	}
	return rules
}

func cleanHistory() UserHistory {
	return UserHistory{TotalReviews: 3, RejectedReviews: 0, ConfirmedOrders: 2, SubmissionsInWindow: 1}
}

func TestScoreCleanVerifiedReviewAutoApproves(t *testing.T) {
	res := Score(defaultRules(t), Input{
		Rating:           4,
		Title:            "Lovely kanjivaram",
		Body:             "Beautiful saree, rich zari border and the colour matches the photos.",
		ImageCount:       2,
		ImageBytesTotal:  200 << 10,
		VerifiedPurchase: true,
		History:          cleanHistory(),
	})
	if res.Score != 0 {
		t.Fatalf("expected zero risk, got %v (reasons %v)", res.Score, res.Reasons)
	}
	if res.Status != StatusApproved {
		t.Fatalf("expected APPROVED, got %s", res.Status)
	}
}

func TestScoreCleanUnverifiedGoesToManualReview(t *testing.T) {
	res := Score(defaultRules(t), Input{
		Rating:  4,
		Body:    "Comfortable fabric, drapes well and arrived on time.",
		History: cleanHistory(),
	})
	if res.Status != StatusManualReview {
		t.Fatalf("expected MANUAL_REVIEW for unverified low-risk review, got %s", res.Status)
	}
}

func TestScoreSpamUnverifiedIsElevated(t *testing.T) {
	res := Score(defaultRules(t), Input{
		Rating: 5,
		Body:   "Best prices, visit www.sareedeals.example for the real catalogue",
		History: UserHistory{
			TotalReviews: 0, ConfirmedOrders: 0, SubmissionsInWindow: 1,
		},
	})
	// text 0.6 * 0.5 + history 0.3 * 0.3 = 0.39
	if res.Score < 0.3 || res.Score >= 0.8 {
		t.Fatalf("expected mid-range risk, got %v (reasons %v)", res.Score, res.Reasons)
	}
	if res.Status != StatusManualReview {
		t.Fatalf("expected MANUAL_REVIEW, got %s", res.Status)
	}
	if !hasReason(res.Reasons, "spam_pattern") || !hasReason(res.Reasons, "no_purchase_history") {
		t.Fatalf("missing expected reasons: %v", res.Reasons)
	}
}

func TestScoreWorstCaseAutoRejects(t *testing.T) {
	res := Score(defaultRules(t), Input{
		Rating:          5,
		Title:           "FREE GIFT",
		Body:            "BUY NOW!!!!!! CALL 9876543210 VISIT WWW.SPAMMY.EXAMPLE TODAY",
		ImageCount:      9,
		ImageBytesTotal: 9 * (6 << 20),
		History: UserHistory{
			TotalReviews: 4, RejectedReviews: 3, ConfirmedOrders: 0, SubmissionsInWindow: 6,
		},
	})
	if res.Score != 1 {
		t.Fatalf("expected clamped max risk, got %v", res.Score)
	}
	if res.Status != StatusRejected {
		t.Fatalf("expected REJECTED, got %s", res.Status)
	}
	for _, want := range []string{"spam_pattern", "shouting", "repeated_chars", "too_many_images", "oversized_images", "prior_rejections", "no_purchase_history", "submission_burst"} {
		if !hasReason(res.Reasons, want) {
			t.Fatalf("missing reason %q in %v", want, res.Reasons)
		}
	}
}

func TestVerdictBoundaries(t *testing.T) {
	rules := defaultRules(t)

	if got := Verdict(rules, 0.8, true); got != StatusRejected {
		t.Fatalf("score at reject threshold should reject, got %s", got)
	}
	if got := Verdict(rules, 0.2, true); got != StatusApproved {
		t.Fatalf("score at approve threshold with verified purchase should approve, got %s", got)
	}
	if got := Verdict(rules, 0.2, false); got != StatusManualReview {
		t.Fatalf("unverified purchase must not auto-approve, got %s", got)
	}
	if got := Verdict(rules, 0.5, true); got != StatusManualReview {
		t.Fatalf("mid score should queue for manual review, got %s", got)
	}
}

func TestShortExtremeRatingSignal(t *testing.T) {
	rules := defaultRules(t)

	res := Score(rules, Input{Rating: 1, Body: "bad", History: cleanHistory()})
	if !hasReason(res.Reasons, "short_extreme_rating") {
		t.Fatalf("expected short_extreme_rating, got %v", res.Reasons)
	}

	// same body with a middling rating does not fire
	res = Score(rules, Input{Rating: 3, Body: "bad", History: cleanHistory()})
	if hasReason(res.Reasons, "short_extreme_rating") {
		t.Fatalf("signal should not fire for rating 3: %v", res.Reasons)
	}
}

func hasReason(reasons []string, want string) bool {
	for _, r := range reasons {
		if r == want {
			return true
		}
	}
	return false
}
