package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestInstallmentCount_Weekly(t *testing.T) {
	n, err := InstallmentCount(6, FrequencyWeekly)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if n != 6 {
		t.Errorf("Expected 6 installments, got %d", n)
	}
}

func TestInstallmentCount_BiweeklyRoundsUp(t *testing.T) {
	// 5 weeks at two weeks per installment needs 3 installments
	n, err := InstallmentCount(5, FrequencyBiweekly)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 installments for 5 weeks, got %d", n)
	}

	n, _ = InstallmentCount(6, FrequencyBiweekly)
	if n != 3 {
		t.Errorf("Expected 3 installments for 6 weeks, got %d", n)
	}

	n, _ = InstallmentCount(1, FrequencyBiweekly)
	if n != 1 {
		t.Errorf("Expected 1 installment for 1 week, got %d", n)
	}
}

func TestInstallmentCount_UnknownFrequency(t *testing.T) {
	if _, err := InstallmentCount(4, "fortnightly"); err != ErrFrequencyInvalid {
		t.Errorf("Expected ErrFrequencyInvalid, got %v", err)
	}
}

func TestGenerateSchedule_EvenSplit(t *testing.T) {
	// 1200 total, 200 deposit, 5 monthly installments of 200 each
	first := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	schedule, err := GenerateSchedule(PlanInput{
		TotalAmount:      decimal.NewFromInt(1200),
		Deposit:          decimal.NewFromInt(200),
		TermCount:        5,
		Frequency:        FrequencyMonthly,
		FirstPaymentDate: first,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(schedule) != 5 {
		t.Fatalf("Expected 5 installments, got %d", len(schedule))
	}
	for i, inst := range schedule {
		if !inst.Amount.Equal(decimal.NewFromInt(200)) {
			t.Errorf("Installment %d: expected 200, got %s", i+1, inst.Amount.String())
		}
		expectedDue := first.AddDate(0, i, 0)
		if !inst.DueDate.Equal(expectedDue) {
			t.Errorf("Installment %d: expected due %s, got %s", i+1, expectedDue, inst.DueDate)
		}
	}
	final := schedule[len(schedule)-1]
	if !final.RunningBalance.IsZero() {
		t.Errorf("Expected final running balance 0, got %s", final.RunningBalance.String())
	}
}

func TestGenerateSchedule_RemainderOnLastInstallment(t *testing.T) {
	// 1000 over 3 installments: 333.33 + 333.33 + 333.34
	schedule, err := GenerateSchedule(PlanInput{
		TotalAmount:      decimal.NewFromInt(1000),
		Deposit:          decimal.Zero,
		TermCount:        3,
		Frequency:        FrequencyMonthly,
		FirstPaymentDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(schedule) != 3 {
		t.Fatalf("Expected 3 installments, got %d", len(schedule))
	}
	if !schedule[0].Amount.Equal(decimal.NewFromFloat(333.33)) {
		t.Errorf("Expected 333.33, got %s", schedule[0].Amount.String())
	}
	if !schedule[2].Amount.Equal(decimal.NewFromFloat(333.34)) {
		t.Errorf("Expected last installment 333.34, got %s", schedule[2].Amount.String())
	}

	sum := decimal.Zero
	for _, inst := range schedule {
		sum = sum.Add(inst.Amount)
	}
	if !sum.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected schedule to sum to 1000 exactly, got %s", sum.String())
	}
}

func TestGenerateSchedule_SumsExactlyAcrossAwkwardSplits(t *testing.T) {
	cases := []struct {
		total string
		terms int
	}{
		{"100", 3},
		{"999.99", 7},
		{"1", 12},
		{"250.01", 6},
	}
	for _, tc := range cases {
		total, _ := decimal.NewFromString(tc.total)
		schedule, err := GenerateSchedule(PlanInput{
			TotalAmount:      total,
			Deposit:          decimal.Zero,
			TermCount:        tc.terms,
			Frequency:        FrequencyWeekly,
			FirstPaymentDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("%s/%d: expected no error, got %v", tc.total, tc.terms, err)
		}
		sum := decimal.Zero
		for _, inst := range schedule {
			sum = sum.Add(inst.Amount)
		}
		if !sum.Equal(total) {
			t.Errorf("%s/%d: expected sum %s, got %s", tc.total, tc.terms, total.String(), sum.String())
		}
	}
}

func TestGenerateSchedule_DepositCoversTotal(t *testing.T) {
	schedule, err := GenerateSchedule(PlanInput{
		TotalAmount:      decimal.NewFromInt(500),
		Deposit:          decimal.NewFromInt(500),
		TermCount:        4,
		Frequency:        FrequencyMonthly,
		FirstPaymentDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(schedule) != 0 {
		t.Errorf("Expected empty schedule when deposit covers total, got %d installments", len(schedule))
	}
}

func TestGenerateSchedule_BiweeklyDueDates(t *testing.T) {
	first := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	schedule, err := GenerateSchedule(PlanInput{
		TotalAmount:      decimal.NewFromInt(300),
		Deposit:          decimal.Zero,
		TermCount:        5,
		Frequency:        FrequencyBiweekly,
		FirstPaymentDate: first,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(schedule) != 3 {
		t.Fatalf("Expected 3 installments, got %d", len(schedule))
	}
	for i, inst := range schedule {
		expected := first.AddDate(0, 0, 14*i)
		if !inst.DueDate.Equal(expected) {
			t.Errorf("Installment %d: expected due %s, got %s", i+1, expected, inst.DueDate)
		}
	}
}

func TestGenerateSchedule_MonthlyDatesShiftThroughShortMonths(t *testing.T) {
	// Jan 31 + 1 month lands on Mar 3 (or Mar 2 in leap years); the
	// shift is carried forward rather than snapped back to month end.
	first := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	schedule, err := GenerateSchedule(PlanInput{
		TotalAmount:      decimal.NewFromInt(200),
		Deposit:          decimal.Zero,
		TermCount:        2,
		Frequency:        FrequencyMonthly,
		FirstPaymentDate: first,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expected := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	if !schedule[1].DueDate.Equal(expected) {
		t.Errorf("Expected second due date %s, got %s", expected, schedule[1].DueDate)
	}
}

func TestGenerateSchedule_RunningBalanceDecreases(t *testing.T) {
	schedule, err := GenerateSchedule(PlanInput{
		TotalAmount:      decimal.NewFromInt(1000),
		Deposit:          decimal.NewFromInt(100),
		TermCount:        4,
		Frequency:        FrequencyWeekly,
		FirstPaymentDate: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	prev := decimal.NewFromInt(900)
	for i, inst := range schedule {
		expected := prev.Sub(inst.Amount)
		if !inst.RunningBalance.Equal(expected) {
			t.Errorf("Installment %d: expected running balance %s, got %s", i+1, expected.String(), inst.RunningBalance.String())
		}
		prev = inst.RunningBalance
	}
	if !schedule[len(schedule)-1].RunningBalance.IsZero() {
		t.Errorf("Expected final running balance 0, got %s", schedule[len(schedule)-1].RunningBalance.String())
	}
}

func TestGenerateSchedule_RejectsBadInput(t *testing.T) {
	first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := GenerateSchedule(PlanInput{
		TotalAmount: decimal.Zero, TermCount: 3, Frequency: FrequencyMonthly, FirstPaymentDate: first,
	}); err == nil {
		t.Error("Expected error for zero total")
	}

	if _, err := GenerateSchedule(PlanInput{
		TotalAmount: decimal.NewFromInt(100), Deposit: decimal.NewFromInt(150),
		TermCount: 3, Frequency: FrequencyMonthly, FirstPaymentDate: first,
	}); err != ErrDepositInvalid {
		t.Errorf("Expected ErrDepositInvalid, got %v", err)
	}

	if _, err := GenerateSchedule(PlanInput{
		TotalAmount: decimal.NewFromInt(100), TermCount: 0,
		Frequency: FrequencyMonthly, FirstPaymentDate: first,
	}); err != ErrTermCountInvalid {
		t.Errorf("Expected ErrTermCountInvalid, got %v", err)
	}
}
