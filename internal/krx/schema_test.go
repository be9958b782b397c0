package krx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkrx/krxsnap/internal/dates"
)

func TestAsDecimal(t *testing.T) {
	row := Row{"a": "1,234", "b": "-", "c": "0.05", "d": "-5", "e": "12,345,678"}

	v, err := AsDecimal(row, "a")
	require.NoError(t, err)
	assert.Equal(t, 1234.0, v)

	v, err = AsDecimal(row, "b")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v), "sentinel should decode to NaN")

	v, err = AsDecimal(row, "c")
	require.NoError(t, err)
	assert.Equal(t, 0.05, v)

	v, err = AsDecimal(row, "d")
	require.NoError(t, err)
	assert.Equal(t, -5.0, v)

	v, err = AsDecimal(row, "e")
	require.NoError(t, err)
	assert.Equal(t, 12345678.0, v)
}

func TestAsDecimal_MissingKey(t *testing.T) {
	_, err := AsDecimal(Row{}, "TDD_CLSPRC")
	require.Error(t, err)
	var mf *MissingFieldError
	require.ErrorAs(t, err, &mf)
	assert.Equal(t, "TDD_CLSPRC", mf.Key)
}

func TestAsSign(t *testing.T) {
	tests := []struct {
		code string
		want float64
	}{
		{"", 0},
		{"0", 0},
		{"1", 1},
		{"2", -1},
		{"3", 0},
		{"4", 1},  // limit-up
		{"5", -1}, // limit-down
	}
	for _, tt := range tests {
		v, err := AsSign(Row{"FLUC_TP_CD": tt.code}, "FLUC_TP_CD")
		require.NoError(t, err, "code %q", tt.code)
		assert.Equal(t, tt.want, v, "code %q", tt.code)
	}
}

func TestAsSign_UnknownCode(t *testing.T) {
	_, err := AsSign(Row{"FLUC_TP_CD": "9"}, "FLUC_TP_CD")
	require.Error(t, err)
	var ue *UnknownSignError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "9", ue.Code)
}

func TestAsDate(t *testing.T) {
	d, err := AsDate(Row{"TRD_DD": "2012/03/04"}, "TRD_DD")
	require.NoError(t, err)
	assert.Equal(t, dates.Date("2012-03-04"), d)

	_, err = AsDate(Row{"TRD_DD": "junk"}, "TRD_DD")
	require.Error(t, err)
}

func TestSchema_Normalize_SignedDecimal(t *testing.T) {
	sch := Schema{
		Name: "test",
		Fields: []Field{
			{Name: "change", Key: "CMPPREVDD_PRC", Kind: KindSignedDecimal, SignKey: "FLUC_TP_CD"},
		},
	}

	// The remote reports the magnitude unsigned; the sign comes from the
	// up/down code.
	rec, err := sch.Normalize(Row{"CMPPREVDD_PRC": "5", "FLUC_TP_CD": "2"})
	require.NoError(t, err)
	assert.Equal(t, -5.0, rec["change"])

	rec, err = sch.Normalize(Row{"CMPPREVDD_PRC": "-5", "FLUC_TP_CD": "2"})
	require.NoError(t, err)
	assert.Equal(t, -5.0, rec["change"], "already-signed magnitude must not flip twice")

	rec, err = sch.Normalize(Row{"CMPPREVDD_PRC": "5", "FLUC_TP_CD": "4"})
	require.NoError(t, err)
	assert.Equal(t, 5.0, rec["change"])

	rec, err = sch.Normalize(Row{"CMPPREVDD_PRC": "0", "FLUC_TP_CD": ""})
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec["change"])

	_, err = sch.Normalize(Row{"CMPPREVDD_PRC": "5", "FLUC_TP_CD": "x"})
	require.Error(t, err)
}

func TestSchema_NormalizeAll(t *testing.T) {
	rows := []Row{
		{"ISU_SRT_CD": "069500", "ISU_CD": "KR7069500007", "ISU_ABBRV": "KODEX 200",
			"TDD_CLSPRC": "33,000", "CMPPREVDD_PRC": "150", "FLUC_RT": "0.45",
			"NAV": "33,010.55", "TDD_OPNPRC": "32,900", "TDD_HGPRC": "33,100",
			"TDD_LWPRC": "32,850", "ACC_TRDVOL": "4,321,000", "ACC_TRDVAL": "142,000,000,000",
			"MKTCAP": "5,500,000,000,000", "INVSTASST_NETASST_TOTAMT": "5,600,000,000,000",
			"LIST_SHRS": "167,000,000", "IDX_IND_NM": "코스피 200",
			"OBJ_STKPRC_IDX": "440.25", "CMPPREVDD_IDX": "2.01", "FLUC_RT1": "0.46"},
	}
	recs, err := ETFQuotes.NormalizeAll(rows)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "069500", recs[0]["ticker"])
	assert.Equal(t, 33000.0, recs[0]["close"])
	assert.Equal(t, "코스피 200", recs[0]["index_name"])

	// A row missing an expected key aborts normalization outright.
	_, err = ETFQuotes.NormalizeAll([]Row{{"ISU_SRT_CD": "069500"}})
	require.Error(t, err)
}

func TestSchema_Headers(t *testing.T) {
	h := IndexHistory.Headers()
	assert.Equal(t, []string{"trade_date", "close", "change", "change_rate", "open", "high", "low", "volume", "value", "market_cap"}, h)
}

func TestIndexFamilyMidClass(t *testing.T) {
	assert.Equal(t, "01", FamilyKRX.MidClass())
	assert.Equal(t, "02", FamilyKospi.MidClass())
	assert.Equal(t, "03", FamilyKosdaq.MidClass())
	assert.Equal(t, "04", FamilyTheme.MidClass())
}
