package economy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tavernworks/treasury/internal/economy/domain"
	apperrors "github.com/tavernworks/treasury/internal/errors"
	"github.com/tavernworks/treasury/internal/storage"
)

func TestRequestLoanDisbursesPrincipal(t *testing.T) {
	ledger, fault := newTestLedger(t, DefaultSettings())
	ledger.now = stepClock(engineNow, time.Second)
	ctx := context.Background()

	if _, err := ledger.Load(ctx, "actor-1"); err != nil {
		t.Fatalf("load: %v", err)
	}

	got, err := ledger.RequestLoan(ctx, "actor-1", money("500"), 30)
	if err != nil {
		t.Fatalf("request loan: %v", err)
	}
	if !got.Loan.Remaining.Equal(money("550")) {
		t.Fatalf("remaining = %s, want 550", got.Loan.Remaining)
	}
	if got.Loan.Status != domain.LoanStatusActive {
		t.Fatalf("status = %s, want active", got.Loan.Status)
	}
	if want := got.Loan.IssuedAt.Add(30 * 24 * time.Hour); !got.Loan.DueAt.Equal(want) {
		t.Fatalf("due at = %v, want %v", got.Loan.DueAt, want)
	}
	if !got.Balance.Equal(money("1500")) {
		t.Fatalf("balance = %s, want 1500", got.Balance)
	}

	stored, err := fault.ActiveLoanByActor(ctx, "actor-1")
	if err != nil {
		t.Fatalf("active loan: %v", err)
	}
	if !stored.Remaining.Equal(money("550")) {
		t.Fatalf("stored remaining = %s, want 550", stored.Remaining)
	}

	history, err := ledger.History(ctx, "actor-1", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Kind != domain.KindLoanDisbursement {
		t.Fatalf("history = %+v, want one disbursement row", history)
	}
	if !history[0].Amount.Equal(money("500")) {
		t.Fatalf("journal amount = %s, want 500", history[0].Amount)
	}
}

func TestRequestLoanRejectsSecondActive(t *testing.T) {
	ledger, _ := newTestLedger(t, DefaultSettings())
	ctx := context.Background()

	if _, err := ledger.Load(ctx, "actor-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := ledger.RequestLoan(ctx, "actor-1", money("500"), 30); err != nil {
		t.Fatalf("first loan: %v", err)
	}
	_, err := ledger.RequestLoan(ctx, "actor-1", money("100"), 30)
	if !errors.Is(err, domain.ErrLoanOutstanding) {
		t.Fatalf("err = %v, want loan outstanding", err)
	}
}

func TestRequestLoanValidatesDuration(t *testing.T) {
	ledger, _ := newTestLedger(t, DefaultSettings())
	ctx := context.Background()

	if _, err := ledger.Load(ctx, "actor-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, days := range []int{0, -1, 366} {
		_, err := ledger.RequestLoan(ctx, "actor-1", money("100"), days)
		if !apperrors.IsCode(err, apperrors.CodeLoanDurationInvalid) {
			t.Fatalf("days %d: err = %v, want loan duration invalid", days, err)
		}
	}
}

func TestRequestLoanRejectsOverMax(t *testing.T) {
	ledger, _ := newTestLedger(t, DefaultSettings())
	ctx := context.Background()

	if _, err := ledger.Load(ctx, "actor-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	_, err := ledger.RequestLoan(ctx, "actor-1", money("10000.01"), 30)
	if !apperrors.IsCode(err, apperrors.CodeLoanTooLarge) {
		t.Fatalf("err = %v, want loan too large", err)
	}
}

func TestRequestLoanRejectsNonPositiveAmount(t *testing.T) {
	ledger, _ := newTestLedger(t, DefaultSettings())
	ctx := context.Background()

	if _, err := ledger.Load(ctx, "actor-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	_, err := ledger.RequestLoan(ctx, "actor-1", money("0"), 30)
	if !errors.Is(err, domain.ErrAmountNotPositive) {
		t.Fatalf("err = %v, want amount not positive", err)
	}
}

func TestRepayLoanPartialThenSettles(t *testing.T) {
	ledger, fault := newTestLedger(t, DefaultSettings())
	ledger.now = stepClock(engineNow, time.Second)
	ctx := context.Background()

	if _, err := ledger.Load(ctx, "actor-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := ledger.RequestLoan(ctx, "actor-1", money("500"), 30); err != nil {
		t.Fatalf("request loan: %v", err)
	}

	partial, err := ledger.RepayLoan(ctx, "actor-1", money("200"))
	if err != nil {
		t.Fatalf("partial repay: %v", err)
	}
	if partial.Settled {
		t.Fatal("expected loan to stay active after partial repayment")
	}
	if !partial.Loan.Remaining.Equal(money("350")) {
		t.Fatalf("remaining = %s, want 350", partial.Loan.Remaining)
	}
	if !partial.Balance.Equal(money("1300")) {
		t.Fatalf("balance = %s, want 1300", partial.Balance)
	}

	final, err := ledger.RepayLoan(ctx, "actor-1", money("350"))
	if err != nil {
		t.Fatalf("final repay: %v", err)
	}
	if !final.Settled {
		t.Fatal("expected loan to settle")
	}
	if final.Loan.Status != domain.LoanStatusPaid {
		t.Fatalf("status = %s, want paid", final.Loan.Status)
	}
	if !final.Balance.Equal(money("950")) {
		t.Fatalf("balance = %s, want 950", final.Balance)
	}

	if _, err := fault.ActiveLoanByActor(ctx, "actor-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("active loan err = %v, want not found", err)
	}

	history, err := ledger.History(ctx, "actor-1", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	repayments := 0
	for _, txn := range history {
		if txn.Kind == domain.KindLoanRepayment {
			repayments++
		}
	}
	if repayments != 2 {
		t.Fatalf("repayment rows = %d, want 2", repayments)
	}
}

func TestRepayLoanOverpaymentChargesFullAmount(t *testing.T) {
	ledger, _ := newTestLedger(t, DefaultSettings())
	ctx := context.Background()

	if _, err := ledger.Load(ctx, "actor-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := ledger.RequestLoan(ctx, "actor-1", money("500"), 30); err != nil {
		t.Fatalf("request loan: %v", err)
	}

	got, err := ledger.RepayLoan(ctx, "actor-1", money("600"))
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	if !got.Settled {
		t.Fatal("expected loan to settle")
	}
	if !got.Paid.Equal(money("600")) {
		t.Fatalf("paid = %s, want the full 600", got.Paid)
	}
	if !got.Balance.Equal(money("900")) {
		t.Fatalf("balance = %s, want 900", got.Balance)
	}
}

func TestRepayLoanWithoutActiveLoan(t *testing.T) {
	ledger, _ := newTestLedger(t, DefaultSettings())
	ctx := context.Background()

	if _, err := ledger.Load(ctx, "actor-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	_, err := ledger.RepayLoan(ctx, "actor-1", money("100"))
	if !apperrors.IsCode(err, apperrors.CodeLoanNotFound) {
		t.Fatalf("err = %v, want loan not found", err)
	}
}

func TestRepayLoanInsufficientFunds(t *testing.T) {
	ledger, fault := newTestLedger(t, DefaultSettings())
	ctx := context.Background()

	if _, err := ledger.Load(ctx, "actor-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := ledger.RequestLoan(ctx, "actor-1", money("500"), 30); err != nil {
		t.Fatalf("request loan: %v", err)
	}
	if _, err := ledger.SetBalance(ctx, "actor-1", money("100")); err != nil {
		t.Fatalf("set balance: %v", err)
	}

	_, err := ledger.RepayLoan(ctx, "actor-1", money("200"))
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want insufficient funds", err)
	}

	loan, err := fault.ActiveLoanByActor(ctx, "actor-1")
	if err != nil {
		t.Fatalf("active loan: %v", err)
	}
	if !loan.Remaining.Equal(money("550")) {
		t.Fatalf("remaining = %s, want unchanged 550", loan.Remaining)
	}
}
