package infra

// excel.go: remito spreadsheet rendering and article master import (excelize).
// The remito layout mirrors the printed REMITO_Master template:
//   - H2 discount, A5/H5 client and outlet, A6/G6 address and phone
//   - article lines from row 10 (A code, B description, D price, E delivered,
//     F returned and G sold once the remito is closed)
//   - E45/F45/G45 delivery day, month and two-digit year

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"consigna/internal/dto"

	"github.com/xuri/excelize/v2"
)

const (
	remitoFilaItems   = 10
	remitoFilaFecha   = 45
	maestroFilaHeader = 8
)

// ErrPlantillaLlena is returned when a remito has more lines than the
// template reserves above the date row.
var ErrPlantillaLlena = errors.New("excel: el remito excede las filas de la plantilla")

// GenerarRemitoExcel fills the template at templatePath (or an equivalent
// blank layout when the file does not exist) and returns the xlsx bytes.
func GenerarRemitoExcel(templatePath string, r *dto.RemitoCompletoResponse) ([]byte, error) {
	if r == nil {
		return nil, errors.New("excel: remito nil")
	}
	if len(r.Items) > remitoFilaFecha-remitoFilaItems {
		return nil, ErrPlantillaLlena
	}

	f, err := abrirPlantilla(templatePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	cab := r.Cabecera

	set := func(cell string, v interface{}) {
		if err == nil {
			err = f.SetCellValue(sheet, cell, v)
		}
	}

	// ── Cabecera ─────────────────────────────────────────────────────────────
	porc, _ := cab.PorcDto.Float64()
	set("H2", porc)
	set("A5", cab.RazonSocial)
	if cab.Boca != nil {
		set("H5", *cab.Boca)
	} else {
		set("H5", "")
	}
	set("A6", fmt.Sprintf("%s - %s", deref(cab.Direccion), deref(cab.Localidad)))
	set("G6", deref(cab.Telefono))

	// ── Items ────────────────────────────────────────────────────────────────
	cerrado := cab.FechaRetiro != nil
	for i, it := range r.Items {
		row := remitoFilaItems + i
		precio, _ := it.PrecioReal.Float64()
		set(fmt.Sprintf("A%d", row), it.NroArticulo)
		set(fmt.Sprintf("B%d", row), it.Descripcion)
		set(fmt.Sprintf("D%d", row), precio)
		set(fmt.Sprintf("E%d", row), it.Entregados)
		if cerrado && it.Vendidos != nil {
			set(fmt.Sprintf("F%d", row), it.Devueltos)
			set(fmt.Sprintf("G%d", row), *it.Vendidos)
		}
	}

	// ── Fecha de entrega ─────────────────────────────────────────────────────
	fe := cab.FechaEntrega.Time
	set(fmt.Sprintf("E%d", remitoFilaFecha), fe.Day())
	set(fmt.Sprintf("F%d", remitoFilaFecha), int(fe.Month()))
	set(fmt.Sprintf("G%d", remitoFilaFecha), fe.Year()%100)
	if err != nil {
		return nil, fmt.Errorf("excel: escribir celda: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("excel: serializar: %w", err)
	}
	return buf.Bytes(), nil
}

// NombreArchivoRemito is the download name for a rendered remito.
func NombreArchivoRemito(r *dto.RemitoCompletoResponse) string {
	if r.Cabecera.FechaRetiro != nil {
		return fmt.Sprintf("Remito_%d_Ventas.xlsx", r.Cabecera.ID)
	}
	return fmt.Sprintf("Remito_%d.xlsx", r.Cabecera.ID)
}

func abrirPlantilla(path string) (*excelize.File, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			f, err := excelize.OpenFile(path)
			if err != nil {
				return nil, fmt.Errorf("excel: abrir plantilla %s: %w", path, err)
			}
			return f, nil
		}
	}
	return plantillaEnBlanco()
}

// plantillaEnBlanco builds the minimal labels of the printed template.
func plantillaEnBlanco() (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	labels := map[string]string{
		"A1": "REMITO DE CONSIGNACIÓN",
		"G2": "% Dto",
		"A4": "Cliente",
		"H4": "Boca",
		"F6": "Tel.",
		"A9": "Artículo",
		"B9": "Descripción",
		"D9": "Precio",
		"E9": "Entregados",
		"F9": "Devueltos",
		"G9": "Vendidos",
		"D45": "Fecha",
	}
	for cell, v := range labels {
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			f.Close()
			return nil, err
		}
	}
	if err := f.SetColWidth(sheet, "B", "B", 40); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// FilaMaestro is one raw data row of the article master workbook.
type FilaMaestro struct {
	Fila        int // 1-based sheet row
	NroArticulo string
	Descripcion string
	PrecioReal  string
}

// LeerMaestroArticulos reads the first sheet of an article master workbook:
// headers on row 8, data from row 9, columns A–C.
func LeerMaestroArticulos(r io.Reader) ([]FilaMaestro, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("excel: archivo inválido: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel: el libro no tiene hojas")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("excel: leer filas: %w", err)
	}

	var out []FilaMaestro
	for i := maestroFilaHeader; i < len(rows); i++ {
		row := rows[i]
		fila := FilaMaestro{Fila: i + 1}
		if len(row) > 0 {
			fila.NroArticulo = strings.TrimSpace(row[0])
		}
		if len(row) > 1 {
			fila.Descripcion = strings.TrimSpace(row[1])
		}
		if len(row) > 2 {
			fila.PrecioReal = strings.TrimSpace(row[2])
		}
		if fila.NroArticulo == "" && fila.Descripcion == "" && fila.PrecioReal == "" {
			continue
		}
		out = append(out, fila)
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
