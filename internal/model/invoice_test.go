package model_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/finvoice-apix/internal/model"
)

func TestInvoice_Decimals(t *testing.T) {
	inv := model.Invoice{}
	assert.Equal(t, int32(2), inv.Decimals())

	inv.CurrencyDecimals = 3
	assert.Equal(t, int32(3), inv.Decimals())
}

func TestInvoice_IsRefund(t *testing.T) {
	inv := model.Invoice{MoveType: model.MoveTypeRefund}
	assert.True(t, inv.IsRefund())

	inv.MoveType = model.MoveTypeStandard
	assert.False(t, inv.IsRefund())
}

func TestCredentials_Configured(t *testing.T) {
	assert.True(t, model.Credentials{TransferID: "id", TransferKey: "key"}.Configured())
	assert.False(t, model.Credentials{TransferID: "id"}.Configured())
	assert.False(t, model.Credentials{TransferKey: "key"}.Configured())
}

func TestNewFileDescriptor(t *testing.T) {
	fd := model.NewFileDescriptor(map[string]string{
		"StorageID":     "1001",
		"StorageKey":    "secret",
		"StorageStatus": "UNRECEIVED",
		"DocumentID":    "D-1",
		"DocumentName":  "invoice.xml",
		"SenderName":    "Acme Oy",
	})

	assert.Equal(t, "1001", fd.StorageID)
	assert.Equal(t, "secret", fd.StorageKey)
	assert.Equal(t, "UNRECEIVED", fd.StorageStatus)
	assert.Equal(t, "D-1", fd.DocumentID)
	assert.Equal(t, "invoice.xml", fd.DocumentName)
	assert.Equal(t, "Acme Oy", fd.Extra["SenderName"])
	assert.Equal(t, "apix_in_invoice_1001.zip", fd.PackageName())
}

func TestFileDescriptor_Ready(t *testing.T) {
	tests := []struct {
		name   string
		status string
		filter string
		want   bool
	}{
		{"new is never ready", model.StorageStatusNew, "", false},
		{"new with matching filter", model.StorageStatusNew, model.StorageStatusNew, false},
		{"unreceived default filter", model.StorageStatusUnreceived, model.StorageStatusUnreceived, true},
		{"received filtered out", model.StorageStatusReceived, model.StorageStatusUnreceived, false},
		{"no filter", model.StorageStatusReceived, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fd := model.FileDescriptor{StorageStatus: tt.status}
			assert.Equal(t, tt.want, fd.Ready(tt.filter))
		})
	}
}

func TestTaxLine_Fields(t *testing.T) {
	line := model.TaxLine{
		Tax:    model.Tax{ID: "vat24", Percent: decimal.NewFromInt(24)},
		Amount: decimal.RequireFromString("24.00"),
		Base:   decimal.NewFromInt(100),
	}
	assert.Equal(t, "vat24", line.Tax.ID)
	assert.True(t, line.Amount.Equal(decimal.NewFromInt(24)))
}

func TestValidationError(t *testing.T) {
	err := model.NewValidationError("sender.company_registry", "Company registry (y-tunnus) missing from sender.")

	require.Contains(t, err.Error(), "sender.company_registry")
	require.Contains(t, err.Error(), "y-tunnus")
}

func TestTransportError(t *testing.T) {
	err := model.NewTransportError("list", 200, "<Response><Status>ERR</Status></Response>", nil)
	require.Contains(t, err.Error(), "list")
	require.Contains(t, err.Error(), "<Status>ERR</Status>")

	cause := assert.AnError
	wrapped := model.NewTransportError("upload", 0, "", cause)
	require.ErrorIs(t, wrapped, cause)
}

func TestParseError_WithCause(t *testing.T) {
	cause := assert.AnError
	err := model.NewParseError("D-1", "xml", "could not parse finvoice xml", cause)

	require.Contains(t, err.Error(), "D-1")
	require.Contains(t, err.Error(), "xml")
	require.ErrorIs(t, err, cause)
}

func TestAuthorizationError(t *testing.T) {
	err := model.NewAuthorizationError("Other Oy", "My Oy")
	require.Contains(t, err.Error(), "My Oy")
	require.Contains(t, err.Error(), "Other Oy")
}
