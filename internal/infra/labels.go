package infra

// labels.go: Code128 price label sheets using go-pdf/fpdf.
// A4 portrait, 5 columns × 12 rows of 38.4 × 23 mm labels with a 2 mm column
// gap, centred on the page. Each label stacks the barcode, the article code and
// the price; the cutting grid is redrawn on every page.

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/boombuler/barcode/code128"
	"github.com/go-pdf/fpdf"
	pdfbarcode "github.com/go-pdf/fpdf/contrib/barcode"
	"github.com/shopspring/decimal"
)

const (
	EtiquetasColumnas  = 5
	EtiquetasFilas     = 12
	EtiquetasPorPagina = EtiquetasColumnas * EtiquetasFilas
	EtiquetasMaximo    = 4000
	etiquetaAncho      = 38.4
	etiquetaAlto       = 23.0
	etiquetaSeparacion = 2.0
	barcodeAlto        = 6.0
	barcodeModulo      = 0.25
	codigoFuente       = 6.0
	precioFuente       = 16.0
	codigoAlto         = 2.1
	precioAlto         = 5.6
	espacioEntreLineas = 0.5
)

var ErrCantidadEtiquetas = fmt.Errorf("etiquetas: la cantidad debe estar entre 1 y %d", EtiquetasMaximo)

// HojaEtiquetas is a rendered label sheet.
type HojaEtiquetas struct {
	PDF     []byte
	Paginas int
}

// GenerarEtiquetas renders cantidad identical labels for one article code.
func GenerarEtiquetas(codigo string, precio decimal.Decimal, cantidad int) (*HojaEtiquetas, error) {
	if cantidad < 1 || cantidad > EtiquetasMaximo {
		return nil, ErrCantidadEtiquetas
	}
	codigo = strings.TrimSpace(codigo)
	if codigo == "" {
		return nil, errors.New("etiquetas: código vacío")
	}

	bc, err := code128.Encode(codigo)
	if err != nil {
		return nil, fmt.Errorf("etiquetas: code128 %q: %w", codigo, err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetLineWidth(0.1)
	pdf.SetTitle("Etiquetas "+codigo, true)

	pageW, pageH := pdf.GetPageSize()
	bloqueW := EtiquetasColumnas*etiquetaAncho + (EtiquetasColumnas-1)*etiquetaSeparacion
	bloqueH := EtiquetasFilas * etiquetaAlto
	margenIzq := (pageW - bloqueW) / 2
	margenSup := (pageH - bloqueH) / 2

	contenidoH := barcodeAlto + codigoAlto + precioAlto + 2*espacioEntreLineas
	margenVert := (etiquetaAlto - contenidoH) / 2

	barcodeW := float64(bc.Bounds().Dx()) * barcodeModulo
	if barcodeW > etiquetaAncho-2 {
		barcodeW = etiquetaAncho - 2
	}
	key := pdfbarcode.Register(bc)
	textoPrecio := FormatearPrecio(precio)

	for i := 0; i < cantidad; i++ {
		pos := i % EtiquetasPorPagina
		if pos == 0 {
			pdf.AddPage()
			dibujarGrilla(pdf, margenIzq, margenSup)
		}
		col := pos % EtiquetasColumnas
		fila := pos / EtiquetasColumnas
		x := margenIzq + float64(col)*(etiquetaAncho+etiquetaSeparacion)
		y := margenSup + float64(fila)*etiquetaAlto + margenVert

		// ── Barcode ──────────────────────────────────────────────────────────
		pdfbarcode.Barcode(pdf, key, x+(etiquetaAncho-barcodeW)/2, y, barcodeW, barcodeAlto, false)
		y += barcodeAlto + espacioEntreLineas

		// ── Código ───────────────────────────────────────────────────────────
		pdf.SetFont("Helvetica", "", codigoFuente)
		pdf.SetXY(x, y)
		pdf.CellFormat(etiquetaAncho, codigoAlto, codigo, "", 0, "C", false, 0, "")
		y += codigoAlto + espacioEntreLineas

		// ── Precio ───────────────────────────────────────────────────────────
		pdf.SetFont("Helvetica", "B", precioFuente)
		pdf.SetXY(x, y)
		pdf.CellFormat(etiquetaAncho, precioAlto, textoPrecio, "", 0, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("etiquetas: generar pdf: %w", err)
	}
	return &HojaEtiquetas{PDF: buf.Bytes(), Paginas: pdf.PageCount()}, nil
}

func dibujarGrilla(pdf *fpdf.Fpdf, margenIzq, margenSup float64) {
	for fila := 0; fila < EtiquetasFilas; fila++ {
		for col := 0; col < EtiquetasColumnas; col++ {
			x := margenIzq + float64(col)*(etiquetaAncho+etiquetaSeparacion)
			y := margenSup + float64(fila)*etiquetaAlto
			pdf.Rect(x, y, etiquetaAncho, etiquetaAlto, "D")
		}
	}
}

// FormatearPrecio renders the integer part with '.' as thousands separator,
// e.g. 1234.99 → "$1.234".
func FormatearPrecio(p decimal.Decimal) string {
	n := p.IntPart()
	signo := ""
	if n < 0 {
		signo = "-"
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return "$" + signo + b.String()
}
