package catalog

import (
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTMLTable reads foods from the first table in an HTML document.
// Columns are: id, name, unit, kcal, protein, carb, fat. Rows without
// enough cells or with unreadable numbers are skipped.
func ParseHTMLTable(r io.Reader) ([]Food, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var foods []Food
	doc.Find("table").First().Find("tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) < 7 {
			return
		}

		nums := make([]float64, 4)
		for i := range nums {
			v, err := strconv.ParseFloat(strings.ReplaceAll(cells[3+i], ",", "."), 64)
			if err != nil {
				return
			}
			nums[i] = v
		}

		f := Food{
			ID:      cells[0],
			Name:    cells[1],
			Unit:    cells[2],
			Kcal:    nums[0],
			Protein: nums[1],
			Carb:    nums[2],
			Fat:     nums[3],
		}
		if f.Validate() != nil {
			return
		}
		foods = append(foods, f)
	})
	return foods, nil
}
