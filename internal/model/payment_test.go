package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPayment(t *testing.T) {
	tests := []struct {
		name         string
		paid         int64
		expected     int64
		wantStatus   string
		wantOverpaid int64
	}{
		{"nothing paid", 0, 300000, PaymentUnpaid, 0},
		{"below expected", 100000, 300000, PaymentPartial, 0},
		{"exactly expected", 300000, 300000, PaymentPaid, 0},
		{"over expected", 450000, 300000, PaymentPrepaid, 150000},
		{"paid with no accrual", 50000, 0, PaymentPrepaid, 50000},
		{"negative ledger sum", -100, 300000, PaymentUnpaid, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, overpaid := ClassifyPayment(tt.paid, tt.expected)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantOverpaid, overpaid)
		})
	}
}

func TestValidPaymentMethod(t *testing.T) {
	assert.True(t, ValidPaymentMethod(MethodCash))
	assert.True(t, ValidPaymentMethod(MethodInsurance))
	assert.False(t, ValidPaymentMethod("crypto"))
	assert.False(t, ValidPaymentMethod(""))
}
