package returns

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAllocateRefundProportionalSplit(t *testing.T) {
	subtotal := dec("1000")
	discount := dec("100")

	first := AllocateRefund(dec("250"), subtotal, discount)
	require.True(t, first.DiscountShare.Equal(dec("25")), "got %s", first.DiscountShare)
	require.True(t, first.RefundAmount.Equal(dec("225")), "got %s", first.RefundAmount)

	second := AllocateRefund(dec("750"), subtotal, discount)
	require.True(t, second.DiscountShare.Equal(dec("75")), "got %s", second.DiscountShare)
	require.True(t, second.RefundAmount.Equal(dec("675")), "got %s", second.RefundAmount)

	// The two shares recover exactly the original discount.
	require.True(t, first.DiscountShare.Add(second.DiscountShare).Equal(discount))
}

func TestAllocateRefundNoDiscount(t *testing.T) {
	got := AllocateRefund(dec("120"), dec("500"), decimal.Zero)
	require.True(t, got.DiscountShare.IsZero())
	require.True(t, got.RefundAmount.Equal(dec("120")))
}

func TestAllocateRefundZeroSubtotal(t *testing.T) {
	got := AllocateRefund(dec("50"), decimal.Zero, dec("10"))
	require.True(t, got.DiscountShare.IsZero())
	require.True(t, got.RefundAmount.Equal(dec("50")))
}

func TestAllocateRefundRoundsShare(t *testing.T) {
	// 10 * (100/300) = 3.333... rounds to 3.33
	got := AllocateRefund(dec("100"), dec("300"), dec("10"))
	require.True(t, got.DiscountShare.Equal(dec("3.33")), "got %s", got.DiscountShare)
	require.True(t, got.RefundAmount.Equal(dec("96.67")), "got %s", got.RefundAmount)
}
