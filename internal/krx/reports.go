package krx

// Market selects the exchange market filter for stock reports.
type Market string

const (
	MarketAll    Market = "ALL"
	MarketKospi  Market = "STK"
	MarketKosdaq Market = "KSQ"
)

// IndexFamily selects one of the published stock-index families.
type IndexFamily string

const (
	FamilyKRX    IndexFamily = "KRX"
	FamilyKospi  IndexFamily = "KOSPI"
	FamilyKosdaq IndexFamily = "KOSDAQ"
	FamilyTheme  IndexFamily = "theme"
)

// MidClass returns the remote idxIndMidclssCd code for the family.
func (f IndexFamily) MidClass() string {
	switch f {
	case FamilyKRX:
		return "01"
	case FamilyKospi:
		return "02"
	case FamilyKosdaq:
		return "03"
	case FamilyTheme:
		return "04"
	}
	return ""
}

// IndexFamilies lists every crawled family.
var IndexFamilies = []IndexFamily{FamilyKRX, FamilyKospi, FamilyKosdaq, FamilyTheme}

// StockQuotes is the all-instruments daily quote report for one market
// and trade date (params: trdDd, mktId).
var StockQuotes = Schema{
	Name:  "stock_quotes",
	BLD:   "dbms/MDC/STAT/standard/MDCSTAT01501",
	Block: "OutBlock_1",
	Fields: []Field{
		{Name: "ticker", Key: "ISU_SRT_CD", Kind: KindString},
		{Name: "isin", Key: "ISU_CD", Kind: KindString},
		{Name: "name", Key: "ISU_ABBRV", Kind: KindString},
		{Name: "close", Key: "TDD_CLSPRC", Kind: KindDecimal},
		{Name: "change", Key: "CMPPREVDD_PRC", Kind: KindDecimal},
		{Name: "change_rate", Key: "FLUC_RT", Kind: KindDecimal},
		{Name: "open", Key: "TDD_OPNPRC", Kind: KindDecimal},
		{Name: "high", Key: "TDD_HGPRC", Kind: KindDecimal},
		{Name: "low", Key: "TDD_LWPRC", Kind: KindDecimal},
		{Name: "volume", Key: "ACC_TRDVOL", Kind: KindDecimal},
		{Name: "value", Key: "ACC_TRDVAL", Kind: KindDecimal},
		{Name: "market_cap", Key: "MKTCAP", Kind: KindDecimal},
		{Name: "listed_shares", Key: "LIST_SHRS", Kind: KindDecimal},
	},
}

// StockCatalog is the static per-instrument reference report for one
// market (params: mktId, share=1).
var StockCatalog = Schema{
	Name:  "stock_catalog",
	BLD:   "dbms/MDC/STAT/standard/MDCSTAT01901",
	Block: "OutBlock_1",
	Fields: []Field{
		{Name: "isin", Key: "ISU_CD", Kind: KindString},
		{Name: "ticker", Key: "ISU_SRT_CD", Kind: KindString},
		{Name: "name_full", Key: "ISU_NM", Kind: KindString},
		{Name: "name", Key: "ISU_ABBRV", Kind: KindString},
		{Name: "name_eng", Key: "ISU_ENG_NM", Kind: KindString},
		{Name: "listing_date", Key: "LIST_DD", Kind: KindDate},
		{Name: "market", Key: "MKT_TP_NM", Kind: KindString},
		{Name: "security_group", Key: "SECUGRP_NM", Kind: KindString},
		{Name: "section", Key: "SECT_TP_NM", Kind: KindString},
		{Name: "share_kind", Key: "KIND_STKCERT_TP_NM", Kind: KindString},
		{Name: "par_value", Key: "PARVAL", Kind: KindDecimal},
		{Name: "listed_shares", Key: "LIST_SHRS", Kind: KindDecimal},
	},
}

// StockHistory is the ranged per-instrument quote report (params: isuCd,
// adjStkPrc=2, strtDd/endDd set by FetchRange).
var StockHistory = Schema{
	Name:  "stock_history",
	BLD:   "dbms/MDC/STAT/standard/MDCSTAT01701",
	Block: "output",
	Fields: []Field{
		{Name: "trade_date", Key: "TRD_DD", Kind: KindDate},
		{Name: "close", Key: "TDD_CLSPRC", Kind: KindDecimal},
		{Name: "change", Key: "CMPPREVDD_PRC", Kind: KindDecimal},
		{Name: "change_rate", Key: "FLUC_RT", Kind: KindDecimal},
		{Name: "open", Key: "TDD_OPNPRC", Kind: KindDecimal},
		{Name: "high", Key: "TDD_HGPRC", Kind: KindDecimal},
		{Name: "low", Key: "TDD_LWPRC", Kind: KindDecimal},
		{Name: "volume", Key: "ACC_TRDVOL", Kind: KindDecimal},
		{Name: "value", Key: "ACC_TRDVAL", Kind: KindDecimal},
		{Name: "market_cap", Key: "MKTCAP", Kind: KindDecimal},
		{Name: "listed_shares", Key: "LIST_SHRS", Kind: KindDecimal},
	},
}

// ETFQuotes is the all-ETFs daily quote report (params: trdDd). Each row
// embeds a snapshot of the fund's underlying index, which the snapshot
// walker splits out as a secondary series.
var ETFQuotes = Schema{
	Name:  "etf_quotes",
	BLD:   "dbms/MDC/STAT/standard/MDCSTAT04301",
	Block: "output",
	Fields: []Field{
		{Name: "ticker", Key: "ISU_SRT_CD", Kind: KindString},
		{Name: "isin", Key: "ISU_CD", Kind: KindString},
		{Name: "name", Key: "ISU_ABBRV", Kind: KindString},
		{Name: "close", Key: "TDD_CLSPRC", Kind: KindDecimal},
		{Name: "change", Key: "CMPPREVDD_PRC", Kind: KindDecimal},
		{Name: "change_rate", Key: "FLUC_RT", Kind: KindDecimal},
		{Name: "nav", Key: "NAV", Kind: KindDecimal},
		{Name: "open", Key: "TDD_OPNPRC", Kind: KindDecimal},
		{Name: "high", Key: "TDD_HGPRC", Kind: KindDecimal},
		{Name: "low", Key: "TDD_LWPRC", Kind: KindDecimal},
		{Name: "volume", Key: "ACC_TRDVOL", Kind: KindDecimal},
		{Name: "value", Key: "ACC_TRDVAL", Kind: KindDecimal},
		{Name: "market_cap", Key: "MKTCAP", Kind: KindDecimal},
		{Name: "net_assets", Key: "INVSTASST_NETASST_TOTAMT", Kind: KindDecimal},
		{Name: "listed_shares", Key: "LIST_SHRS", Kind: KindDecimal},
		{Name: "index_name", Key: "IDX_IND_NM", Kind: KindString},
		{Name: "index_close", Key: "OBJ_STKPRC_IDX", Kind: KindDecimal},
		{Name: "index_change", Key: "CMPPREVDD_IDX", Kind: KindDecimal},
		{Name: "index_change_rate", Key: "FLUC_RT1", Kind: KindDecimal},
	},
}

// ETFCatalog is the static all-ETFs reference report (no filters). The
// listing date stays a string: the remote occasionally leaves it blank
// for freshly listed funds.
var ETFCatalog = Schema{
	Name:  "etf_catalog",
	BLD:   "dbms/MDC/STAT/standard/MDCSTAT04601",
	Block: "output",
	Fields: []Field{
		{Name: "isin", Key: "ISU_CD", Kind: KindString},
		{Name: "ticker", Key: "ISU_SRT_CD", Kind: KindString},
		{Name: "name_full", Key: "ISU_NM", Kind: KindString},
		{Name: "name", Key: "ISU_ABBRV", Kind: KindString},
		{Name: "name_eng", Key: "ISU_ENG_NM", Kind: KindString},
		{Name: "listing_date", Key: "LIST_DD", Kind: KindString},
		{Name: "index_name", Key: "ETF_OBJ_IDX_NM", Kind: KindString},
		{Name: "index_calculator", Key: "IDX_CALC_INST_NM1", Kind: KindString},
		{Name: "tracking_multiple", Key: "IDX_CALC_INST_NM2", Kind: KindString},
		{Name: "replication_method", Key: "ETF_REPLICA_METHD_TP_CD", Kind: KindString},
		{Name: "market_class", Key: "IDX_MKT_CLSS_NM", Kind: KindString},
		{Name: "asset_class", Key: "IDX_ASST_CLSS_NM", Kind: KindString},
		{Name: "listed_shares", Key: "LIST_SHRS", Kind: KindDecimal},
		{Name: "manager", Key: "COM_ABBRV", Kind: KindString},
		{Name: "cu_quantity", Key: "CU_QTY", Kind: KindDecimal},
		{Name: "total_fee", Key: "ETF_TOT_FEE", Kind: KindDecimal},
		{Name: "tax_type", Key: "TAX_TP_CD", Kind: KindString},
	},
}

// ETFHistory is the ranged per-ETF quote report (params: isuCd). The
// change columns come back as unsigned magnitudes, so they are rebuilt
// from the up/down code fields.
var ETFHistory = Schema{
	Name:  "etf_history",
	BLD:   "dbms/MDC/STAT/standard/MDCSTAT04501",
	Block: "output",
	Fields: []Field{
		{Name: "trade_date", Key: "TRD_DD", Kind: KindDate},
		{Name: "close", Key: "TDD_CLSPRC", Kind: KindDecimal},
		{Name: "change", Key: "CMPPREVDD_PRC", Kind: KindSignedDecimal, SignKey: "FLUC_TP_CD"},
		{Name: "change_rate", Key: "FLUC_RT", Kind: KindDecimal},
		{Name: "nav", Key: "LST_NAV", Kind: KindDecimal},
		{Name: "open", Key: "TDD_OPNPRC", Kind: KindDecimal},
		{Name: "high", Key: "TDD_HGPRC", Kind: KindDecimal},
		{Name: "low", Key: "TDD_LWPRC", Kind: KindDecimal},
		{Name: "volume", Key: "ACC_TRDVOL", Kind: KindDecimal},
		{Name: "value", Key: "ACC_TRDVAL", Kind: KindDecimal},
		{Name: "market_cap", Key: "MKTCAP", Kind: KindDecimal},
		{Name: "net_assets", Key: "INVSTASST_NETASST_TOTAMT", Kind: KindDecimal},
		{Name: "listed_shares", Key: "LIST_SHRS", Kind: KindDecimal},
		{Name: "index_name", Key: "IDX_IND_NM", Kind: KindString},
		{Name: "index_close", Key: "OBJ_STKPRC_IDX", Kind: KindDecimal},
		{Name: "index_change", Key: "CMPPREVDD_IDX", Kind: KindSignedDecimal, SignKey: "FLUC_TP_CD1"},
		{Name: "index_change_rate", Key: "IDX_FLUC_RT", Kind: KindDecimal},
	},
}

// IndexCatalog is the per-family index metadata report (params:
// idxIndMidclssCd).
var IndexCatalog = Schema{
	Name:  "index_catalog",
	BLD:   "dbms/MDC/STAT/standard/MDCSTAT00401",
	Block: "output",
	Fields: []Field{
		{Name: "name", Key: "IDX_NM", Kind: KindString},
		{Name: "name_eng", Key: "IDX_ENG_NM", Kind: KindString},
		{Name: "base_date", Key: "BAS_TM_CONTN", Kind: KindDate},
		{Name: "announce_date", Key: "ANNC_TM_CONTN", Kind: KindDate},
		{Name: "base_index", Key: "BAS_IDX_CONTN", Kind: KindDecimal},
		{Name: "calc_cycle", Key: "CALC_CYCLE_CONTN", Kind: KindString},
		{Name: "calc_time", Key: "CALC_TM_CONTN", Kind: KindString},
		{Name: "constituents", Key: "COMPST_ISU_CNT", Kind: KindDecimal},
		{Name: "group_id", Key: "IND_TP_CD", Kind: KindString},
		{Name: "index_id", Key: "IDX_IND_CD", Kind: KindString},
	},
}

// IndexHistory is the ranged per-index quote report (params: indIdx,
// indIdx2).
var IndexHistory = Schema{
	Name:  "index_history",
	BLD:   "dbms/MDC/STAT/standard/MDCSTAT00301",
	Block: "output",
	Fields: []Field{
		{Name: "trade_date", Key: "TRD_DD", Kind: KindDate},
		{Name: "close", Key: "CLSPRC_IDX", Kind: KindDecimal},
		{Name: "change", Key: "PRV_DD_CMPR", Kind: KindDecimal},
		{Name: "change_rate", Key: "UPDN_RATE", Kind: KindDecimal},
		{Name: "open", Key: "OPNPRC_IDX", Kind: KindDecimal},
		{Name: "high", Key: "HGPRC_IDX", Kind: KindDecimal},
		{Name: "low", Key: "LWPRC_IDX", Kind: KindDecimal},
		{Name: "volume", Key: "ACC_TRDVOL", Kind: KindDecimal},
		{Name: "value", Key: "ACC_TRDVAL", Kind: KindDecimal},
		{Name: "market_cap", Key: "MKTCAP", Kind: KindDecimal},
	},
}
