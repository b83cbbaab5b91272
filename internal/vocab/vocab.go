// Package vocab holds the controlled vocabularies accepted by station and extraction queries.
package vocab

import "strings"

// ukCounties are the county names of the geographic area registry.
var ukCounties = []string{
	"ABERDEENSHIRE", "ALDERNEY", "ANGUS", "ANTRIM", "ARGYLL (IN HIGHLAND REGION)",
	"ARGYLL (IN STRATHCLYDE REGION)", "ARGYLLSHIRE", "ARMAGH", "ASCENSION IS",
	"AUSTRALIA (ADDITIONAL ISLANDS)", "AVON", "AYRSHIRE", "BANFFSHIRE", "BEDFORDSHIRE", "BERKSHIRE",
	"BERWICKSHIRE", "BORDERS", "BOUVET ISLAND", "BRECKNOCKSHIRE", "BRITISH VIRGIN ISLANDS",
	"BUCKINGHAMSHIRE", "BUTESHIRE", "CAERNARFONSHIRE", "CAITHNESS", "CAMBRIDGESHIRE", "CARDIGANSHIRE",
	"CARLOW", "CARMARTHENSHIRE", "CAVAN", "CAYMAN ISLANDS", "CENTRAL", "CHANNEL ISLANDS", "CHESHIRE",
	"CHRISTMAS ISLAND", "CLACKMANNANSHIRE", "CLARE", "CLEVELAND", "CLWYD", "COCOS ISLAND",
	"COOK ISLANDS", "CORK", "CORNWALL", "CUMBERLAND", "CUMBRIA", "CYPRUS", "DENBIGHSHIRE",
	"DERBYSHIRE", "DETACHED ISLANDS", "DEVON", "DONEGAL", "DORSET", "DOWN", "DUBLIN",
	"DUMFRIES & GALLOWAY", "DUMFRIESSHIRE", "DUNBARTONSHIRE", "DURHAM", "DYFED", "EAST LOTHIAN",
	"EAST SUSSEX", "ESSEX", "FALKLAND IS", "FERMANAGH", "FIFE", "FLINTSHIRE", "FORFARSHIRE", "GALWAY",
	"GLAMORGANSHIRE", "GLOUCESTERSHIRE", "GRAMPIAN", "GREATER LONDON", "GREATER MANCHESTER",
	"GUADALOUPE", "GUERNSEY", "GWENT", "GWYNEDD", "HAMPSHIRE", "HAWAII", "HEREFORD",
	"HEREFORD & WORCESTER", "HERTFORDSHIRE", "HIGHLAND", "HUMBERSIDE", "HUNTINGDONSHIRE",
	"INVERNESS-SHIRE", "ISLE OF ANGLESEY", "ISLE OF MAN", "ISLE OF WIGHT", "ISLES OF SCILLY",
	"JERSEY", "KENT", "KERRY", "KILDARE", "KILKENNY", "KINCARDINESHIRE", "KINROSS-SHIRE",
	"KIRKCUDBRIGHTSHIRE", "LANARKSHIRE", "LANCASHIRE", "LAOIS", "LEICESTERSHIRE", "LEITRIM",
	"LIMERICK", "LINCOLNSHIRE", "LONDONDERRY", "LONGFORD", "LOTHIAN", "LOUTH", "MALDIVES", "MALTA",
	"MAYO", "MEATH", "MEDITERRANEAN ISLANDS", "MERIONETHSHIRE", "MERSEYSIDE", "MIDDLESEX",
	"MID GLAMORGAN", "MIDLOTHIAN", "MIDLOTHIAN (IN BORDERS REGION)", "MIDLOTHIAN (IN LOTHIAN REGION)",
	"MONAGHAN", "MONMOUTHSHIRE", "MONTGOMERYSHIRE", "MORAY", "MORAY (IN GRAMPIAN REGION)",
	"MORAY (IN HIGHLAND REGION)", "NAIRNSHIRE", "NORFOLK", "NORTHAMPTONSHIRE", "NORTHUMBERLAND",
	"NORTH YORKSHIRE", "NOTTINGHAMSHIRE", "OCEAN ISLANDS", "OFFALY", "ORKNEY", "OXFORDSHIRE",
	"PACIFIC ISLANDS NORTH OF EQUATOR", "PEEBLESHIRE", "PEMBROKESHIRE", "PERTHSHIRE",
	"PERTHSHIRE (IN CENTRAL REGION)", "PERTHSHIRE (IN TAYSIDE REGION)", "PHOENIX ISLANDS", "POWYS",
	"POWYS (NORTH)", "POWYS (SOUTH)", "RADNORSHIRE", "RENFREWSHIRE", "ROSCOMMON", "ROSS & CROMARTY",
	"ROXBURGHSHIRE", "RUTLAND", "SANTA CRUZ ISLANDS", "SARK", "SELKIRKSHIRE", "SEYCHELLES",
	"SHETLAND", "SHROPSHIRE", "SINGAPORE", "SLIGO", "SOLOMON ISLANDS", "SOMERSET",
	"SOUTHERN LINE ISLANDS", "SOUTH GEORGIA", "SOUTH GLAMORGAN", "SOUTH ORKNEYS", "SOUTH SHETLAND",
	"SOUTH YORKSHIRE", "SPAIN (CANARY ISLANDS)", "STAFFORDSHIRE", "ST HELENA", "STIRLING",
	"STIRLING (IN CENTRAL REGION)", "STIRLING (IN STRATHCLYDE REGION)", "STRATHCLYDE", "SUFFOLK",
	"SURREY", "SUSSEX", "SUTHERLAND", "TAYSIDE", "TIPPERARY", "TURKS & CAICOS ISLANDS", "TYNE & WEAR",
	"TYRONE", "WARWICKSHIRE", "WATERFORD", "WESTERN ISLES", "WEST GLAMORGAN", "WEST LOTHIAN",
	"WEST LOTHIAN (IN CENTRAL REGION)", "WEST LOTHIAN (IN LOTHIAN REGION)", "WESTMEATH",
	"WEST MIDLANDS", "WESTMORLAND", "WEST SUFFOLK", "WEST SUSSEX", "WEST YORKSHIRE", "WEXFORD",
	"WICKLOW", "WIGTOWNSHIRE", "WILTSHIRE", "WORCESTERSHIRE", "YORKSHIRE",
}

var dataTypes = []string{"CLBD", "CLBN", "CLBR", "CLBW", "DCNN", "FIXD", "ICAO", "LPMS", "RAIN", "SHIP", "WIND", "WMO"}

var tableNames = []string{"TD", "WD", "RD", "RH", "RS", "ST", "WH", "WM", "RO"}

var (
	countySet   = toSet(ukCounties)
	dataTypeSet = toSet(dataTypes)
)

// Counties returns the known county names in upper case.
func Counties() []string {
	return append([]string(nil), ukCounties...)
}

// DataTypes returns the known station capability id types.
func DataTypes() []string {
	return append([]string(nil), dataTypes...)
}

// TableNames returns the two letter ids of the partitioned tables usually extracted.
func TableNames() []string {
	return append([]string(nil), tableNames...)
}

// IsCounty reports whether name is a known county. Matching ignores case.
func IsCounty(name string) bool {
	return countySet[strings.ToUpper(strings.TrimSpace(name))]
}

// IsDataType reports whether t is a known data type. Matching ignores case.
func IsDataType(t string) bool {
	return dataTypeSet[strings.ToUpper(strings.TrimSpace(t))]
}

// Unknown returns the values rejected by known, in input order.
func Unknown(values []string, known func(string) bool) []string {
	var out []string
	for _, v := range values {
		if !known(v) {
			out = append(out, v)
		}
	}
	return out
}

func toSet(values []string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}
