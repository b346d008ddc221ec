package billing

import "testing"

func TestDeriveInvoiceStatus(t *testing.T) {
	tests := []struct {
		name  string
		paid  float64
		total float64
		prior string
		want  string
	}{
		{"full payment", 1180, 1180, InvoiceSent, InvoicePaid},
		{"overpayment", 1200, 1180, InvoiceSent, InvoicePaid},
		{"partial payment", 700, 1180, InvoiceSent, InvoicePartiallyPaid},
		{"second partial", 1000, 1180, InvoicePartiallyPaid, InvoicePartiallyPaid},
		{"partial then settled", 1180, 1180, InvoicePartiallyPaid, InvoicePaid},
		{"nothing paid keeps prior", 0, 1180, InvoiceSent, InvoiceSent},
		{"overdue stays overdue unpaid", 0, 1180, InvoiceOverdue, InvoiceOverdue},
		{"overdue cleared by payment", 1180, 1180, InvoiceOverdue, InvoicePaid},
		{"tiny payment", 0.01, 1180, InvoiceSent, InvoicePartiallyPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deriveInvoiceStatus(tt.paid, tt.total, tt.prior); got != tt.want {
				t.Errorf("deriveInvoiceStatus(%v, %v, %s) = %s, want %s",
					tt.paid, tt.total, tt.prior, got, tt.want)
			}
		})
	}
}

func TestInvoiceBalance(t *testing.T) {
	inv := &Invoice{Total: 1180, PaidAmount: 700}
	if got := inv.Balance(); got != 480 {
		t.Errorf("expected balance 480, got %v", got)
	}
}
