package orders

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusPaymentReview, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPaymentReview, StatusConfirmed, true},
		{StatusPaymentReview, StatusCancelled, true},
		{StatusPaymentReview, StatusFailed, false},
		{StatusConfirmed, StatusFailed, false},
		{StatusConfirmed, StatusCancelled, false},
		{StatusFailed, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{Status("UNKNOWN"), StatusConfirmed, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestTerminalStatusesHaveNoSuccessors(t *testing.T) {
	for _, s := range []Status{StatusConfirmed, StatusFailed, StatusCancelled} {
		if len(validNext[s]) != 0 {
			t.Fatalf("%s should be terminal", s)
		}
	}
}
