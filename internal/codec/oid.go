package codec

import pqoid "github.com/lib/pq/oid"

// OID is a PostgreSQL type identifier. The underlying type comes from
// lib/pq's oid package, which every other component in the pack (teacher
// included) already uses as the canonical Go representation of a
// Postgres OID; the concrete numeric values below are catalog constants
// fixed by PostgreSQL itself (pg_type.oid), not something either library
// computes.
type OID = pqoid.Oid

// Well-known scalar and container OIDs used by the registry. Values match
// PostgreSQL's pg_type catalog.
const (
	OIDBool    OID = 16
	OIDBytea   OID = 17
	OIDInt8    OID = 20
	OIDInt2    OID = 21
	OIDInt4    OID = 23
	OIDText    OID = 25
	OIDJSON    OID = 114
	OIDFloat4  OID = 700
	OIDFloat8  OID = 701
	OIDUnknown OID = 705
	OIDCIDR    OID = 650
	OIDCIDRArr OID = 651
	OIDMACAddr OID = 829
	OIDInet    OID = 869
	OIDBPChar  OID = 1042
	OIDVarchar OID = 1043
	OIDDate    OID = 1082
	OIDTime    OID = 1083
	OIDTimestamp   OID = 1114
	OIDTimestampTz OID = 1184
	OIDInterval    OID = 1186
	OIDTimeTz      OID = 1266
	OIDNumeric     OID = 1700
	OIDUUID        OID = 2950

	OIDBoolArr      OID = 1000
	OIDByteaArr     OID = 1001
	OIDInt8Arr      OID = 1016
	OIDInt2Arr      OID = 1005
	OIDInt4Arr      OID = 1007
	OIDTextArr      OID = 1009
	OIDVarcharArr   OID = 1015
	OIDFloat4Arr    OID = 1021
	OIDFloat8Arr    OID = 1022
	OIDDateArr      OID = 1182
	OIDTimeArr      OID = 1183
	OIDTimestampArr OID = 1115
	OIDTimestampTzArr OID = 1185
	OIDIntervalArr  OID = 1187
	OIDNumericArr   OID = 1231
	OIDUUIDArr      OID = 2951
	OIDInetArr      OID = 1041

	OIDInt4Range OID = 3904
	OIDNumRange  OID = 3906
	OIDTsRange   OID = 3908
	OIDTstzRange OID = 3910
	OIDDateRange OID = 3912
	OIDInt8Range OID = 3926

	OIDInt4MultiRange OID = 4451
	OIDNumMultiRange  OID = 4532
	OIDTsMultiRange   OID = 4533
	OIDTstzMultiRange OID = 4534
	OIDDateMultiRange OID = 4535
	OIDInt8MultiRange OID = 4536
)
