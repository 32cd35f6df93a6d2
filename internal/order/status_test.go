package order

import "testing"

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipping, false},
		{StatusProcessing, StatusShipping, true},
		{StatusProcessing, StatusCancelled, false},
		{StatusShipping, StatusCompleted, true},
		{StatusShipping, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusProcessing, StatusShipping, StatusCompleted, StatusCancelled} {
		if !s.Valid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if Status("refunded").Valid() {
		t.Error("expected unknown status to be invalid")
	}
}

func TestStatusDisplay(t *testing.T) {
	if got := StatusPending.Display(); got != "Chờ xác nhận" {
		t.Errorf("unexpected display for pending: %s", got)
	}
	if got := StatusCancelled.Display(); got != "Đã hủy" {
		t.Errorf("unexpected display for cancelled: %s", got)
	}
	if got := Status("refunded").Display(); got != "refunded" {
		t.Errorf("expected raw token fallback, got %s", got)
	}
}
