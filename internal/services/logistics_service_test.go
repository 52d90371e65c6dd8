package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pdfUpload(name, content string) PDFUpload {
	return PDFUpload{Filename: name, Reader: strings.NewReader(content)}
}

func TestCreateDelivery(t *testing.T) {
	ls := NewLogisticsService(newTestDB(t), t.TempDir())

	var vErr *ValidationError
	_, err := ls.CreateDelivery("Carga Registro", "31/08/2026", "",
		pdfUpload("a.pdf", "%PDF-1"), pdfUpload("b.pdf", "%PDF-2"))
	require.ErrorAs(t, err, &vErr)

	_, err = ls.CreateDelivery("Carga Registro", "2026-08-31", "25:99",
		pdfUpload("a.pdf", "%PDF-1"), pdfUpload("b.pdf", "%PDF-2"))
	require.ErrorAs(t, err, &vErr)

	_, err = ls.CreateDelivery("Carga Registro", "2026-08-31", "14:30",
		pdfUpload("a.png", "nope"), pdfUpload("b.pdf", "%PDF-2"))
	require.ErrorAs(t, err, &vErr)

	view, err := ls.CreateDelivery("  Carga Registro  ", "2026-08-31", "14:30",
		pdfUpload("nota fiscal 123.pdf", "%PDF-1"), pdfUpload("canhoto.pdf", "%PDF-2"))
	require.NoError(t, err)
	assert.Equal(t, "Carga Registro", view.Description)
	assert.Equal(t, "2026-08-31", view.DeliveryDate)
	assert.Equal(t, "14:30", view.DeliveryTime)
	assert.True(t, strings.HasPrefix(view.PdfOneURL, "/uploads/deliveries/"))
	assert.Contains(t, view.PdfOnePath, "nota_fiscal_123")

	views, err := ls.ListDeliveries()
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, view.ID, views[0].ID)
}

func TestDeleteDeliveryRemovesFiles(t *testing.T) {
	uploadsDir := t.TempDir()
	ls := NewLogisticsService(newTestDB(t), uploadsDir)

	view, err := ls.CreateDelivery("Entrega", "2026-08-30", "",
		pdfUpload("a.pdf", "%PDF-1"), pdfUpload("b.pdf", "%PDF-2"))
	require.NoError(t, err)

	saved := filepath.Join(uploadsDir, filepath.FromSlash(view.PdfOnePath))
	_, err = os.Stat(saved)
	require.NoError(t, err)

	require.NoError(t, ls.DeleteDelivery(view.ID))
	_, err = os.Stat(saved)
	assert.True(t, os.IsNotExist(err))

	var nfErr *NotFoundError
	require.ErrorAs(t, ls.DeleteDelivery(view.ID), &nfErr)
}

func TestLookupDeliveryClient(t *testing.T) {
	db := newTestDB(t)
	ls := NewLogisticsService(db, t.TempDir())
	catalog := NewCatalogService(db)

	_, err := catalog.Ingest(clientsCSVFixture, "clientes.csv", inventoryCSVFixture, "base.csv")
	require.NoError(t, err)

	lookup, err := ls.LookupDeliveryClient("001001")
	require.NoError(t, err)
	assert.True(t, lookup.Found)
	assert.Equal(t, "1001", lookup.ClientCode)
	assert.Equal(t, "Bar do Zé", lookup.NomeFantasia)

	// Cliente só do inventário não tem nome fantasia
	lookup, err = ls.LookupDeliveryClient("3003")
	require.NoError(t, err)
	assert.False(t, lookup.Found)

	lookup, err = ls.LookupDeliveryClient("9999")
	require.NoError(t, err)
	assert.False(t, lookup.Found)
	assert.Equal(t, "9999", lookup.ClientCode)

	lookup, err = ls.LookupDeliveryClient("--")
	require.NoError(t, err)
	assert.False(t, lookup.Found)
	assert.Empty(t, lookup.ClientCode)
}

func TestPickups(t *testing.T) {
	ls := NewLogisticsService(newTestDB(t), t.TempDir())

	var vErr *ValidationError
	_, err := ls.CreatePickup(PickupInput{Description: "Garrafas", PickupDate: "ontem", Material: "vasilhame"})
	require.ErrorAs(t, err, &vErr)

	created, err := ls.CreatePickup(PickupInput{
		Description: "Garrafas do Bar do Zé",
		PickupDate:  "2026-08-29",
		Material:    "vasilhame 600ml",
		Quantity:    0,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created.Quantity, "quantidade mínima é 1")

	rows, err := ls.ListPickups()
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, ls.DeletePickup(created.ID))
	var nfErr *NotFoundError
	require.ErrorAs(t, ls.DeletePickup(created.ID), &nfErr)
}
