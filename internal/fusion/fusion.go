// Package fusion joins the exchange's ETF catalog against the fund-fee
// disclosure. The two sources share no identifier, so the join key is a
// normalized product name; the match is best effort and unmatched
// products are dropped.
package fusion

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

// Headers is the fused artifact column order.
var Headers = []string{
	"ticker", "name", "index_name", "market_class", "asset_class",
	"total_fee", "ter", "real_cost", "tax_type", "isin", "fund_code",
}

// vocab maps disclosure-side naming quirks onto the exchange-side
// convention, first occurrence only. Observed from real listings; the
// table grows as new mismatches show up.
var vocab = [][2]string{
	{"상장지수자투자신탁", "상장지수투자신탁"},
	{"INDXX", ""},
	{"KOSPI", "코스피"},
	{"-재간접]", "-재간접형]"},
	{"[주식-파생형]", "[파생형]"},
	{"[주식]", "[주식형]"},
	{"[채권]", "[채권형]"},
}

// NormalizeName collapses the two sources' naming conventions onto one
// comparable key. The rule order is fixed: whitespace, bracket style,
// vocabulary, hedge-marker position, case.
func NormalizeName(name string) string {
	s := strings.ReplaceAll(name, " ", "")
	s = strings.ReplaceAll(s, "(", "[")
	s = strings.ReplaceAll(s, ")", "]")

	for _, e := range vocab {
		s = strings.Replace(s, e[0], e[1], 1)
	}

	// The hedge marker floats between sources; pin it to the end.
	if strings.Contains(s, "[H]") {
		s = strings.Replace(s, "[H]", "", 1) + "[H]"
	}
	s = strings.Replace(s, "[합성H]", "[합성][H]", 1)

	return strings.ToUpper(s)
}

// Fuse joins catalog products against fee rows on the normalized name.
// Output order follows the product order; the fee table order does not
// matter. Fee ratios render with four decimal places.
func Fuse(products, fees []map[string]string) []map[string]any {
	log := zap.L().With(zap.String("component", "fusion"))

	feeTable := make(map[string]map[string]string, len(fees))
	for _, fee := range fees {
		feeTable[NormalizeName(fee["fund_name"])] = fee
	}

	out := make([]map[string]any, 0, len(products))
	for _, p := range products {
		fee, ok := feeTable[NormalizeName(p["name_full"])]
		if !ok {
			log.Info("fee not found",
				zap.String("ticker", p["ticker"]),
				zap.String("name", p["name_full"]),
			)
			continue
		}

		ter := parseRate(fee["ter"])
		out = append(out, map[string]any{
			"ticker":       p["ticker"],
			"name":         p["name"],
			"index_name":   p["index_name"],
			"market_class": p["market_class"],
			"asset_class":  p["asset_class"],
			"total_fee":    format4(parseRate(p["total_fee"])),
			"ter":          format4(ter),
			"real_cost":    format4(ter + parseRate(fee["trading_fee"])),
			"tax_type":     p["tax_type"],
			"isin":         p["isin"],
			"fund_code":    fee["fund_code"],
		})
	}

	log.Info("fused products", zap.Int("matched", len(out)), zap.Int("total", len(products)))
	return out
}

func parseRate(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func format4(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// WriteXLSX writes the fused rows as a spreadsheet for users who want
// the comparison table without a CSV import step.
func WriteXLSX(path string, rows []map[string]any) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("etf")
	if err != nil {
		return eris.Wrap(err, "fusion: add sheet")
	}

	hr := sheet.AddRow()
	for _, h := range Headers {
		hr.AddCell().SetString(h)
	}
	for _, row := range rows {
		r := sheet.AddRow()
		for _, h := range Headers {
			v, _ := row[h].(string)
			r.AddCell().SetString(v)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "fusion: save %s", path)
	}
	return nil
}
