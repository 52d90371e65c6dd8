package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Geração do PDF da ordem de retirada: duas páginas A4, uma por via
// (cliente e logística), no layout do formulário impresso da revenda.

const (
	pdfMarginMM  = 10.0
	pdfLineH     = 5.0
	pdfFieldLblW = 32.0
)

type withdrawalPDF struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
	doc *WithdrawalDocument
}

// BuildWithdrawalPDF monta o PDF completo da ordem e devolve os bytes
func BuildWithdrawalPDF(doc *WithdrawalDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMarginMM, pdfMarginMM, pdfMarginMM)
	pdf.SetAutoPageBreak(true, 15)

	w := &withdrawalPDF{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
		doc: doc,
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "", 7.5)
		pdf.CellFormat(95, 4, w.tr("Número da ordem: "+doc.OrderNumber), "", 0, "L", false, 0, "")
		pdf.CellFormat(95, 4, w.tr("Gerado em: "+doc.GeneratedAt), "", 0, "R", false, 0, "")
	})

	copies := doc.Copies
	if len(copies) == 0 {
		copies = []string{"Via do Cliente", "Via da Logística"}
	}
	for _, copyTag := range copies {
		w.renderCopy(copyTag)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("erro ao gerar PDF da ordem %s: %w", doc.OrderNumber, err)
	}
	return buf.Bytes(), nil
}

func (w *withdrawalPDF) pageWidth() float64 {
	width, _ := w.pdf.GetPageSize()
	return width - 2*pdfMarginMM
}

func (w *withdrawalPDF) renderCopy(copyTag string) {
	w.pdf.AddPage()
	w.renderHeader(copyTag)
	w.renderResellerLine()
	w.renderClientGrid()
	w.renderSectionLines("MOTIVO DA RETIRADA:", w.reasonLines(), 4)
	w.pdf.Ln(2)
	w.pdf.SetFont("Helvetica", "", 8)
	w.pdf.CellFormat(w.pageWidth(), pdfLineH, w.tr("VOLTAGEM DO EQUIPAMENTO: ( ) 110 volts    ( ) 220 volts"), "", 1, "L", false, 0, "")
	w.pdf.Ln(2)
	w.renderSectionLines("OBSERVAÇÃO:", nil, 4)
	w.pdf.Ln(3)
	w.renderResellerBox()
	w.pdf.Ln(4)
	w.renderSignatures(copyTag)
}

func (w *withdrawalPDF) renderHeader(copyTag string) {
	pdf := w.pdf
	width := w.pageWidth()
	sideW := 32.0
	centerW := width - 2*sideW
	top := pdf.GetY()

	pdf.SetFont("Helvetica", "B", 8.5)
	pdf.Rect(pdfMarginMM, top, sideW, 14, "D")
	pdf.SetXY(pdfMarginMM, top+2.5)
	pdf.MultiCell(sideW, 4, w.tr("AMBEV\nSkol / Brahma"), "", "C", false)

	company := w.doc.CompanyName
	if company == "" {
		company = "Ribeira Beer"
	}
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(pdfMarginMM+sideW, top+1.5)
	pdf.MultiCell(centerW, 5.5, w.tr("Solicitação de Retirada\n"+company), "", "C", false)

	pdf.SetFont("Helvetica", "B", 8.5)
	pdf.SetTextColor(68, 68, 68)
	pdf.Rect(pdfMarginMM+sideW+centerW, top, sideW, 14, "D")
	pdf.SetXY(pdfMarginMM+sideW+centerW, top+2.5)
	pdf.MultiCell(sideW, 4, w.tr(copyTag+"\nRibeira Beer"), "", "C", false)
	pdf.SetTextColor(0, 0, 0)

	pdf.SetXY(pdfMarginMM, top+17)
}

func (w *withdrawalPDF) renderResellerLine() {
	reseller := "Ribeira Beer Distribuidora de Bebidas Ltda"
	if len(w.doc.ResellerLines) > 0 && strings.TrimSpace(w.doc.ResellerLines[0]) != "" {
		reseller = w.doc.ResellerLines[0]
	}
	client := w.doc.Client

	w.fieldRow([]pdfField{
		{"Revenda:", reseller, 90},
		{"Código:", client.ClientCode, 0},
		{"Setor:", client.Setor, 0},
	})
	w.pdf.Ln(2)
}

type pdfField struct {
	label string
	value string
	width float64
}

func (w *withdrawalPDF) fieldRow(fields []pdfField) {
	pdf := w.pdf
	total := w.pageWidth()
	used := 0.0
	flexible := 0
	for _, f := range fields {
		if f.width > 0 {
			used += pdfFieldLblW/2 + f.width
		} else {
			flexible++
		}
	}
	flexW := 0.0
	if flexible > 0 {
		flexW = (total - used - float64(len(fields))*pdfFieldLblW/2) / float64(flexible)
		if flexW < 10 {
			flexW = 10
		}
	}

	for _, f := range fields {
		valueW := f.width
		if valueW <= 0 {
			valueW = flexW
		}
		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(pdfFieldLblW/2+8, pdfLineH, w.tr(f.label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 8.5)
		pdf.CellFormat(valueW, pdfLineH, w.tr(f.value), "B", 0, "L", false, 0, "")
		pdf.CellFormat(2, pdfLineH, "", "", 0, "L", false, 0, "")
	}
	pdf.Ln(pdfLineH + 1)
}

func (w *withdrawalPDF) renderClientGrid() {
	client := w.doc.Client
	w.fieldRow([]pdfField{
		{"Razão Social:", client.RazaoSocial, 95},
		{"Inscr. Est.:", client.InscricaoEstadual, 0},
	})
	w.fieldRow([]pdfField{
		{"Nome Fantasia:", client.NomeFantasia, 95},
		{"CEP:", client.Cep, 0},
	})
	w.fieldRow([]pdfField{
		{"CNPJ/CPF:", client.CnpjCpf, 95},
		{"Cidade:", client.Cidade, 0},
	})
	w.fieldRow([]pdfField{
		{"Endereço:", client.Endereco, 95},
		{"Telefone:", client.Telefone, 0},
	})
	w.fieldRow([]pdfField{
		{"Bairro:", client.Bairro, 95},
		{"Horário da retirada:", w.doc.WithdrawalTime, 0},
	})
	w.fieldRow([]pdfField{
		{"Responsável:", client.ResponsavelCliente, 95},
		{"Responsável conferência:", client.ResponsavelConferencia, 0},
	})
	w.fieldRow([]pdfField{
		{"Data para retirada:", w.doc.WithdrawalDate, 95},
	})
	w.pdf.Ln(2)
}

func (w *withdrawalPDF) reasonLines() []string {
	var lines []string
	for _, item := range w.doc.Items {
		quantityText := item.QuantityText
		if quantityText == "" {
			quantityText = fmt.Sprintf("%d", item.Quantity)
		}
		parts := make([]string, 0, 2)
		if quantityText != "" {
			parts = append(parts, quantityText)
		}
		if item.Description != "" {
			parts = append(parts, item.Description)
		}
		base := strings.Join(parts, " - ")
		if item.ItemType == ItemTypeRefrigerador && item.RG != "" {
			base = base + " | RG: " + item.RG
		}
		if base != "" {
			lines = append(lines, base)
		}
	}
	if len(lines) == 0 {
		lines = []string{"Nenhum item selecionado."}
	}
	return lines
}

// renderSectionLines desenha um bloco com título e linhas pautadas;
// minRows garante espaço para preenchimento à mão
func (w *withdrawalPDF) renderSectionLines(title string, lines []string, minRows int) {
	pdf := w.pdf
	width := w.pageWidth()

	for len(lines) < minRows {
		lines = append(lines, "")
	}

	top := pdf.GetY()
	pdf.SetFont("Helvetica", "B", 9.5)
	pdf.CellFormat(width, pdfLineH+1, w.tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	for _, line := range lines {
		pdf.CellFormat(width, pdfLineH, w.tr(line), "B", 1, "L", false, 0, "")
	}
	pdf.Rect(pdfMarginMM, top, width, pdf.GetY()-top, "D")
	pdf.Ln(1)
}

func (w *withdrawalPDF) renderResellerBox() {
	pdf := w.pdf
	width := w.pageWidth()
	lines := w.doc.ResellerLines
	if len(lines) == 0 {
		lines = []string{
			"Ribeira Beer Distribuidora de Bebidas Ltda",
			"Rua Arapongal N 40 - Arapongal",
			"Registro - SP",
			"11900-000",
		}
	}

	top := pdf.GetY()
	boxH := float64(len(lines))*4.5 + 10
	pdf.Rect(pdfMarginMM, top, width, boxH, "D")
	pdf.SetY(top + 3)
	pdf.SetFont("Helvetica", "B", 9.5)
	pdf.CellFormat(width, 4.5, w.tr("DADOS CADASTRAIS DA REVENDA"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	for _, line := range lines {
		pdf.CellFormat(width, 4.5, w.tr(line), "", 1, "C", false, 0, "")
	}
	pdf.SetY(top + boxH)
}

func (w *withdrawalPDF) renderSignatures(copyTag string) {
	pdf := w.pdf
	width := w.pageWidth()
	isLogistics := strings.Contains(strings.ToLower(copyTag), "log")

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 8)
	if isLogistics {
		half := width / 2
		pdf.CellFormat(half, 4.5, w.tr("____________________________________"), "", 0, "C", false, 0, "")
		pdf.CellFormat(half, 4.5, w.tr("____________________________________"), "", 1, "C", false, 0, "")
		pdf.CellFormat(half, 4.5, w.tr("Responsável pela Recolha"), "", 0, "C", false, 0, "")
		pdf.CellFormat(half, 4.5, w.tr("Responsável pela Conferência"), "", 1, "C", false, 0, "")
	} else {
		pdf.CellFormat(width, 4.5, w.tr("____________________________________________"), "", 1, "C", false, 0, "")
		pdf.CellFormat(width, 4.5, w.tr("Responsável pela Recolha"), "", 1, "C", false, 0, "")
	}
}
