// Package books provides the USFM book-code oracle: canonical book numbers
// for the scripture codes that may appear in an \id marker.
package books

import "strings"

// codes maps the uppercase USFM book code to its canonical number. The
// protestant canon occupies 1-66, the deuterocanon and peripheral books
// follow.
var codes = map[string]int{
	"GEN": 1, "EXO": 2, "LEV": 3, "NUM": 4, "DEU": 5,
	"JOS": 6, "JDG": 7, "RUT": 8, "1SA": 9, "2SA": 10,
	"1KI": 11, "2KI": 12, "1CH": 13, "2CH": 14, "EZR": 15,
	"NEH": 16, "EST": 17, "JOB": 18, "PSA": 19, "PRO": 20,
	"ECC": 21, "SNG": 22, "ISA": 23, "JER": 24, "LAM": 25,
	"EZK": 26, "DAN": 27, "HOS": 28, "JOL": 29, "AMO": 30,
	"OBA": 31, "JON": 32, "MIC": 33, "NAM": 34, "HAB": 35,
	"ZEP": 36, "HAG": 37, "ZEC": 38, "MAL": 39,
	"MAT": 40, "MRK": 41, "LUK": 42, "JHN": 43, "ACT": 44,
	"ROM": 45, "1CO": 46, "2CO": 47, "GAL": 48, "EPH": 49,
	"PHP": 50, "COL": 51, "1TH": 52, "2TH": 53, "1TI": 54,
	"2TI": 55, "TIT": 56, "PHM": 57, "HEB": 58, "JAS": 59,
	"1PE": 60, "2PE": 61, "1JN": 62, "2JN": 63, "3JN": 64,
	"JUD": 65, "REV": 66,
	"TOB": 67, "JDT": 68, "ESG": 69, "WIS": 70, "SIR": 71,
	"BAR": 72, "LJE": 73, "S3Y": 74, "SUS": 75, "BEL": 76,
	"1MA": 77, "2MA": 78, "3MA": 79, "4MA": 80, "1ES": 81,
	"2ES": 82, "MAN": 83, "PS2": 84, "ODA": 85, "PSS": 86,
	"EZA": 87, "5EZ": 88, "6EZ": 89, "DAG": 90, "PS3": 91,
	"2BA": 92, "LBA": 93, "JUB": 94, "ENO": 95, "1MQ": 96,
	"2MQ": 97, "3MQ": 98, "REP": 99,
	"XXA": 100, "XXB": 101, "XXC": 102, "XXD": 103,
	"XXE": 104, "XXF": 105, "XXG": 106,
	"FRT": 107, "BAK": 108, "OTH": 109, "INT": 110,
	"CNC": 111, "GLO": 112, "TDX": 113, "NDX": 114,
}

// Number returns the canonical number for a book code, or 0 when the code is
// unknown. Codes are matched case-insensitively.
func Number(code string) int {
	return codes[strings.ToUpper(strings.TrimSpace(code))]
}

// Valid reports whether code names a known book.
func Valid(code string) bool { return Number(code) > 0 }
