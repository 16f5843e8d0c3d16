package model

import "testing"

func TestOrderStatus_Outstanding(t *testing.T) {
	cases := map[OrderStatus]bool{
		StatusNew:            false,
		StatusConfirmed:      true,
		StatusPreparing:      true,
		StatusReady:          true,
		StatusOutForDelivery: true,
		StatusDelivered:      false,
		StatusCancelled:      false,
	}
	for status, want := range cases {
		if got := status.Outstanding(); got != want {
			t.Errorf("%s: Outstanding() = %v, want %v", status, got, want)
		}
	}
}

func TestOrderStatus_Rank(t *testing.T) {
	if StatusNew.Rank() >= StatusConfirmed.Rank() {
		t.Errorf("new should rank below confirmed")
	}
	if StatusCancelled.Rank() != -1 {
		t.Errorf("cancelled should sit outside the lifecycle")
	}
	if OrderStatus("bogus").Rank() != -1 {
		t.Errorf("unknown status should rank -1")
	}
}

func TestOrder_TotalUnits(t *testing.T) {
	o := Order{Items: []OrderItem{{ProductID: "p1", Quantity: 3}, {ProductID: "p2", Quantity: 4}}}
	if got := o.TotalUnits(); got != 7 {
		t.Errorf("TotalUnits() = %d, want 7", got)
	}
}
