// Package kofia fetches the fund fee and expense disclosure from the
// financial investment association's XML service.
package kofia

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/openkrx/krxsnap/internal/dates"
)

// Options configures the disclosure client.
type Options struct {
	URL       string
	UserAgent string
	Timeout   time.Duration
}

// Client issues XML service requests against the disclosure endpoint.
type Client struct {
	http *http.Client
	opts Options
}

func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Client{
		http: &http.Client{Timeout: opts.Timeout},
		opts: opts,
	}
}

// FeeRow is one fund's fee breakdown as of a disclosure date. All fee
// fields are annual percentage rates.
type FeeRow struct {
	Manager        string
	FundName       string
	FundType       string
	InceptionDate  dates.Date
	FundCode       string
	MgmtFee        float64
	SalesFee       float64
	TrusteeFee     float64
	AdminFee       float64
	TotalFee       float64
	CategoryAvgFee float64
	OtherExpense   float64
	TER            float64
	FrontLoad      float64
	RearLoad       float64
	TradingFee     float64
}

// Headers is the fee artifact column order. The manager column is
// dropped: it is derivable from the fund name and bloats diffs.
var Headers = []string{
	"fund_name", "fund_type", "inception_date", "fund_code",
	"mgmt_fee", "sales_fee", "trustee_fee", "admin_fee", "total_fee",
	"category_avg_fee", "other_expense", "ter",
	"front_load", "rear_load", "trading_fee",
}

// Record renders the row under the artifact column names.
func (r FeeRow) Record() map[string]any {
	return map[string]any{
		"fund_name":        r.FundName,
		"fund_type":        r.FundType,
		"inception_date":   r.InceptionDate,
		"fund_code":        r.FundCode,
		"mgmt_fee":         r.MgmtFee,
		"sales_fee":        r.SalesFee,
		"trustee_fee":      r.TrusteeFee,
		"admin_fee":        r.AdminFee,
		"total_fee":        r.TotalFee,
		"category_avg_fee": r.CategoryAvgFee,
		"other_expense":    r.OtherExpense,
		"ter":              r.TER,
		"front_load":       r.FrontLoad,
		"rear_load":        r.RearLoad,
		"trading_fee":      r.TradingFee,
	}
}

// The service speaks the proframe envelope convention: app, service and
// function names in the header, filters in a condition DTO. tmpV30 is
// the disclosure date, tmpV12 the fund-name filter.
const payloadTemplate = `<?xml version="1.0" encoding="utf-8"?>
<message>
  <proframeHeader>
    <pfmAppName>FS-DIS2</pfmAppName>
    <pfmSvcName>DISFundFeeCmsSO</pfmSvcName>
    <pfmFnName>select</pfmFnName>
  </proframeHeader>
  <systemHeader></systemHeader>
    <DISCondFuncDTO>
    <tmpV30>%s</tmpV30>
    <tmpV11></tmpV11>
    <tmpV12>%s</tmpV12>
    <tmpV3></tmpV3>
    <tmpV5></tmpV5>
    <tmpV4></tmpV4>
</DISCondFuncDTO>
</message>`

type feeDTO struct {
	V1  string `xml:"tmpV1"`
	V2  string `xml:"tmpV2"`
	V3  string `xml:"tmpV3"`
	V4  string `xml:"tmpV4"`
	V5  string `xml:"tmpV5"`
	V6  string `xml:"tmpV6"`
	V7  string `xml:"tmpV7"`
	V8  string `xml:"tmpV8"`
	V9  string `xml:"tmpV9"`
	V10 string `xml:"tmpV10"`
	V11 string `xml:"tmpV11"`
	V12 string `xml:"tmpV12"`
	V13 string `xml:"tmpV13"`
	V14 string `xml:"tmpV14"`
	V15 string `xml:"tmpV15"`
	V16 string `xml:"tmpV16"`
}

type envelope struct {
	XMLName xml.Name `xml:"root"`
	List    struct {
		TotalCount string   `xml:"dbio_total_count_"`
		Rows       []feeDTO `xml:"selectMeta"`
	} `xml:"message>DISCondFuncListDTO"`
}

// Fetch returns the fee rows disclosed as of date, filtered by fund
// name. The service only has data for month-end dates, and not every
// month end at that; an empty result is normal and the caller is
// expected to walk back through earlier month ends.
func (c *Client) Fetch(ctx context.Context, date dates.Date, nameFilter string) ([]FeeRow, error) {
	payload := fmt.Sprintf(payloadTemplate, date.Marshal(""), nameFilter)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.URL, strings.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "kofia: create request")
	}
	req.Header.Set("Accept", "text/xml")
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "kofia: fetch fee disclosure")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("kofia: fetch fee disclosure: unexpected status %d", resp.StatusCode)
	}

	var env envelope
	dec := xml.NewDecoder(resp.Body)
	dec.CharsetReader = charsetReader
	if err := dec.Decode(&env); err != nil {
		return nil, eris.Wrap(err, "kofia: decode fee disclosure")
	}

	rows := make([]FeeRow, 0, len(env.List.Rows))
	for _, dto := range env.List.Rows {
		row, err := dto.toRow()
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (d feeDTO) toRow() (FeeRow, error) {
	inception, err := dates.Parse(strings.TrimSpace(d.V4))
	if err != nil {
		return FeeRow{}, eris.Wrapf(err, "kofia: fund %q inception date", d.V2)
	}
	return FeeRow{
		Manager:        strings.TrimSpace(d.V1),
		FundName:       strings.TrimSpace(d.V2),
		FundType:       strings.TrimSpace(d.V3),
		InceptionDate:  inception,
		MgmtFee:        parseRate(d.V5),
		SalesFee:       parseRate(d.V6),
		TrusteeFee:     parseRate(d.V7),
		AdminFee:       parseRate(d.V8),
		TotalFee:       parseRate(d.V9),
		CategoryAvgFee: parseRate(d.V10),
		OtherExpense:   parseRate(d.V11),
		TER:            parseRate(d.V12),
		FrontLoad:      parseRate(d.V13),
		RearLoad:       parseRate(d.V14),
		FundCode:       strings.TrimSpace(d.V15),
		TradingFee:     parseRate(d.V16),
	}, nil
}

// parseRate decodes a fee percentage. Absent values come through as
// empty text and decode to NaN, which the CSV layer renders empty.
func parseRate(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "kofia: unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(input), nil
}

// MonthEnd returns the last day of the month n months before now.
// MonthEnd(now, 1) is the end of the previous month.
func MonthEnd(now time.Time, n int) dates.Date {
	last := time.Date(now.Year(), now.Month()-time.Month(n)+1, 0, 0, 0, 0, 0, dates.KST)
	return dates.Date(last.Format("2006-01-02"))
}
