//go:build unit

package ledger_test

import (
	"testing"
	"time"

	"mentorbook/internal/domain/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func entry(t *testing.T, account ledger.Account, dir ledger.Direction, amount string, refID uuid.UUID) ledger.Entry {
	t.Helper()
	e, err := ledger.NewEntry(account, nil, dir, dec(amount), "USD", ledger.RefOrderPayment, refID, now)
	require.NoError(t, err)
	return e
}

func TestNewEntry_Validation(t *testing.T) {
	refID := uuid.New()

	_, err := ledger.NewEntry("vault", nil, ledger.Credit, dec("10"), "USD", ledger.RefOrderPayment, refID, now)
	assert.ErrorIs(t, err, ledger.ErrInvalidAccount)

	_, err = ledger.NewEntry(ledger.AccountPlatform, nil, "sideways", dec("10"), "USD", ledger.RefOrderPayment, refID, now)
	assert.ErrorIs(t, err, ledger.ErrInvalidDirection)

	_, err = ledger.NewEntry(ledger.AccountPlatform, nil, ledger.Credit, decimal.Zero, "USD", ledger.RefOrderPayment, refID, now)
	assert.ErrorIs(t, err, ledger.ErrNonPositiveAmount)
}

func TestBalance(t *testing.T) {
	refID := uuid.New()
	entries := []ledger.Entry{
		entry(t, ledger.AccountMentorEscrow, ledger.Credit, "85.00", refID),
		entry(t, ledger.AccountPlatform, ledger.Credit, "15.00", refID),
		entry(t, ledger.AccountMentorEscrow, ledger.Debit, "85.00", refID),
		entry(t, ledger.AccountMentorAvailable, ledger.Credit, "85.00", refID),
	}

	assert.True(t, ledger.Balance(entries, ledger.AccountMentorEscrow).IsZero())
	assert.True(t, ledger.Balance(entries, ledger.AccountMentorAvailable).Equal(dec("85.00")))
	assert.True(t, ledger.Balance(entries, ledger.AccountPlatform).Equal(dec("15.00")))
	assert.True(t, ledger.Balance(entries, ledger.AccountMentorPayout).IsZero())
}

// Money conservation: a payment that is later fully refunded nets to zero
// across every account referencing the order.
func TestLedgerClosure_FullRefund(t *testing.T) {
	refID := uuid.New()

	split, err := ledger.CommissionSplit(dec("100.00"), decimal.Zero, false, dec("0.15"))
	require.NoError(t, err)

	refund, err := ledger.RefundSplit(dec("100.00"), split.MentorNet, dec("100.00"))
	require.NoError(t, err)

	entries := []ledger.Entry{
		entry(t, ledger.AccountMentorEscrow, ledger.Credit, split.MentorNet.String(), refID),
		entry(t, ledger.AccountPlatform, ledger.Credit, split.PlatformShare.String(), refID),
		entry(t, ledger.AccountMentorEscrow, ledger.Debit, refund.MentorNet.String(), refID),
		entry(t, ledger.AccountPlatform, ledger.Debit, refund.PlatformShare.String(), refID),
		entry(t, ledger.AccountStudentRefund, ledger.Credit, "100.00", refID),
	}

	// StudentRefund is credited from outside the platform accounts, so the
	// internal accounts sum to the negative of the student credit.
	internal := entries[:4]
	assert.True(t, ledger.Net(internal).IsZero(), "internal accounts must cancel, got %s", ledger.Net(internal))
}

func TestCommissionSplit(t *testing.T) {
	testCases := []struct {
		name        string
		paid        string
		discount    string
		adminFunded bool
		rate        string
		wantNet     string
		wantFee     string
	}{
		{
			name: "no coupon, default rate",
			paid: "100.00", discount: "0", adminFunded: false, rate: "0.15",
			wantNet: "85.00", wantFee: "15.00",
		},
		{
			name: "mentor coupon reduces mentor net",
			paid: "80.00", discount: "20.00", adminFunded: false, rate: "0.15",
			wantNet: "68.00", wantFee: "12.00",
		},
		{
			name: "admin coupon, commission on pre-discount price",
			paid: "80.00", discount: "20.00", adminFunded: true, rate: "0.15",
			// mentor paid as if full price: 100 * 0.85 = 85, platform absorbs
			wantNet: "85.00", wantFee: "-5.00",
		},
		{
			name: "admin coupon smaller than commission",
			paid: "90.00", discount: "10.00", adminFunded: true, rate: "0.15",
			wantNet: "85.00", wantFee: "5.00",
		},
		{
			name: "zero rate",
			paid: "50.00", discount: "0", adminFunded: false, rate: "0",
			wantNet: "50.00", wantFee: "0.00",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			split, err := ledger.CommissionSplit(dec(tc.paid), dec(tc.discount), tc.adminFunded, dec(tc.rate))
			require.NoError(t, err)

			assert.True(t, split.MentorNet.Equal(dec(tc.wantNet)), "net: want %s got %s", tc.wantNet, split.MentorNet)
			assert.True(t, split.PlatformShare.Equal(dec(tc.wantFee)), "fee: want %s got %s", tc.wantFee, split.PlatformShare)
			assert.True(t, split.MentorNet.Add(split.PlatformShare).Equal(dec(tc.paid)), "split must conserve the paid amount")
		})
	}
}

func TestCommissionSplit_Validation(t *testing.T) {
	_, err := ledger.CommissionSplit(decimal.Zero, decimal.Zero, false, dec("0.15"))
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = ledger.CommissionSplit(dec("100"), decimal.Zero, false, dec("1.5"))
	assert.ErrorIs(t, err, ledger.ErrInvalidRate)

	_, err = ledger.CommissionSplit(dec("100"), decimal.Zero, false, dec("-0.1"))
	assert.ErrorIs(t, err, ledger.ErrInvalidRate)
}

func TestRefundSplit(t *testing.T) {
	t.Run("partial refund keeps proportions", func(t *testing.T) {
		// original: 100 paid, 85 mentor / 15 platform; refund 50
		split, err := ledger.RefundSplit(dec("50.00"), dec("85.00"), dec("100.00"))
		require.NoError(t, err)

		assert.True(t, split.MentorNet.Equal(dec("42.50")))
		assert.True(t, split.PlatformShare.Equal(dec("7.50")))
	})

	t.Run("subsidized order gives platform a negative debit", func(t *testing.T) {
		// admin coupon order: 80 paid, mentor net 85
		split, err := ledger.RefundSplit(dec("80.00"), dec("85.00"), dec("80.00"))
		require.NoError(t, err)

		assert.True(t, split.MentorNet.Equal(dec("85.00")))
		assert.True(t, split.PlatformShare.Equal(dec("-5.00")))
		assert.True(t, split.MentorNet.Add(split.PlatformShare).Equal(dec("80.00")))
	})

	t.Run("zero amount rejected", func(t *testing.T) {
		_, err := ledger.RefundSplit(decimal.Zero, dec("85.00"), dec("100.00"))
		assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
	})
}
