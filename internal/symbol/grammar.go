package symbol

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"trade-reconciler/internal/types"
)

// parsed is what a grammar extracts before alias and contract lookup.
type parsed struct {
	underlying string
	strike     string
	expiry     string
	optionType types.OptionType
}

// grammar is one broker's symbol convention. extract may reject a match
// (impossible date, unknown month) so the next grammar gets a chance.
type grammar struct {
	name    string
	pattern *regexp.Regexp
	extract func(m []string) (parsed, bool)
}

// grammars are tried in order and the first accepted match wins. A symbol
// valid under two grammars resolves to the earlier one; adding a broker
// format means adding an entry here.
var grammars = []grammar{
	{
		// NIFTY2411724500CE: YY, month 1-9/O/N/D, DD, strike
		name:    "weekly",
		pattern: regexp.MustCompile(`^([A-Z&]+)(\d{2})([1-9OND])(\d{2})(\d{2,}(?:\.\d+)?)(CE|PE)$`),
		extract: func(m []string) (parsed, bool) {
			month, ok := weeklyMonths[m[3]]
			if !ok {
				return parsed{}, false
			}
			expiry, ok := isoDate(m[2], month, m[4])
			if !ok {
				return parsed{}, false
			}
			return parsed{underlying: m[1], strike: m[5], expiry: expiry, optionType: optionFromSuffix(m[6])}, true
		},
	},
	{
		// NIFTY 24500 CE, BANK NIFTY 28 NOV 48000 PUT
		name:    "spaced",
		pattern: regexp.MustCompile(`^([A-Z&]+(?: [A-Z&]+)*?) (?:((?:\d{1,2} )?[A-Z]{3}(?: \d{2,4})?) )?(\d+(?:\.\d+)?) (CE|PE|CALL|PUT)$`),
		extract: func(m []string) (parsed, bool) {
			if m[2] != "" && !hasMonthWord(m[2]) {
				return parsed{}, false
			}
			return parsed{underlying: m[1], strike: m[3], expiry: m[2], optionType: optionFromSuffix(m[4])}, true
		},
	},
	{
		// NIFTY24NOV24500CE, NIFTY24NO24500CE
		name:    "monthly",
		pattern: regexp.MustCompile(`^([A-Z&]+)(\d{2})([A-Z]{2,3})(\d+(?:\.\d+)?)(CE|PE)$`),
		extract: func(m []string) (parsed, bool) {
			month, ok := monthCodes[m[3]]
			if !ok || !plausibleStrike(m[4]) {
				return parsed{}, false
			}
			return parsed{
				underlying: m[1],
				strike:     m[4],
				expiry:     fmt.Sprintf("20%s-%02d", m[2], month),
				optionType: optionFromSuffix(m[5]),
			}, true
		},
	},
	{
		// NIFTY28NOV2424500CE: DD, month, YY, strike. Only reached when the
		// monthly reading left an impossible strike.
		name:    "dayMonthYear",
		pattern: regexp.MustCompile(`^([A-Z&]+)(\d{2})([A-Z]{3})(\d{2})(\d+(?:\.\d+)?)(CE|PE)$`),
		extract: func(m []string) (parsed, bool) {
			month, ok := monthCodes[m[3]]
			if !ok || !plausibleStrike(m[5]) {
				return parsed{}, false
			}
			expiry, ok := isoDate(m[4], month, m[2])
			if !ok {
				return parsed{}, false
			}
			return parsed{underlying: m[1], strike: m[5], expiry: expiry, optionType: optionFromSuffix(m[6])}, true
		},
	},
	{
		// NIFTY24500CE
		name:    "compact",
		pattern: regexp.MustCompile(`^([A-Z&]+)(\d+(?:\.\d+)?)(CE|PE)$`),
		extract: func(m []string) (parsed, bool) {
			return parsed{underlying: m[1], strike: m[2], optionType: optionFromSuffix(m[3])}, true
		},
	},
	{
		// NIFTY-24500-CE, BANKNIFTY_28NOV24_48000_PE, NIFTY_20241128_24500_C
		name:    "delimited",
		pattern: regexp.MustCompile(`^([A-Z&]+)[-_](?:([0-9A-Z]+)[-_])?(\d+(?:\.\d+)?)[-_]?(CE|PE|CALL|PUT|C|P)$`),
		extract: func(m []string) (parsed, bool) {
			expiry := m[2]
			if expiry != "" {
				var ok bool
				if expiry, ok = delimitedExpiry(expiry); !ok {
					return parsed{}, false
				}
			}
			return parsed{underlying: m[1], strike: m[3], expiry: expiry, optionType: optionFromSuffix(m[4])}, true
		},
	},
}

var (
	// a call/put token preceded by a digit or separator, or a CALL/PUT word
	suffixRe     = regexp.MustCompile(`(?:[0-9 \-_])(CE|PE)$|(?:^|[0-9 \-_])(CALL|PUT)$`)
	trailingJunk = regexp.MustCompile(`[0-9 \-_.]+$`)
	trailingNum  = regexp.MustCompile(`(\d+(?:\.\d+)?)[ \-_]*$`)
	dayMonthRe   = regexp.MustCompile(`^(\d{1,2})([A-Z]{3})(\d{2,4})?$`)
	yyyymmddRe   = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
)

// heuristic is the permissive fallback when no grammar matched but the
// symbol still ends in a call/put token.
func heuristic(s string) (parsed, bool) {
	loc := suffixRe.FindStringSubmatchIndex(s)
	if loc == nil {
		return parsed{}, false
	}
	token := ""
	tokenStart := 0
	switch {
	case loc[2] >= 0:
		token, tokenStart = s[loc[2]:loc[3]], loc[2]
	case loc[4] >= 0:
		token, tokenStart = s[loc[4]:loc[5]], loc[4]
	}
	head := s[:tokenStart]

	strike := ""
	if m := trailingNum.FindStringSubmatchIndex(head); m != nil {
		strike = head[m[2]:m[3]]
		head = head[:m[0]]
	}

	// NIFTY 28NOV24 24500 CE: a date token between underlying and strike.
	expiry := ""
	if f := strings.Fields(head); len(f) > 1 {
		if e, ok := delimitedExpiry(f[len(f)-1]); ok {
			expiry = e
			head = strings.Join(f[:len(f)-1], " ")
		}
	}

	underlying := strings.TrimSpace(trailingJunk.ReplaceAllString(head, ""))
	if underlying == "" {
		return parsed{}, false
	}
	return parsed{underlying: underlying, strike: strike, expiry: expiry, optionType: optionFromSuffix(token)}, true
}

// maxStrikeDigits bounds the integer part of a strike; no listed contract
// strikes at a million or more.
const maxStrikeDigits = 6

func plausibleStrike(s string) bool {
	whole, _, _ := strings.Cut(s, ".")
	return len(strings.TrimLeft(whole, "0")) <= maxStrikeDigits
}

func optionFromSuffix(s string) types.OptionType {
	switch s {
	case "CE", "CALL", "C":
		return types.OptionCall
	case "PE", "PUT", "P":
		return types.OptionPut
	}
	return types.OptionNone
}

var weeklyMonths = map[string]int{
	"1": 1, "2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8, "9": 9,
	"O": 10, "N": 11, "D": 12,
}

var monthCodes = map[string]int{
	"JAN": 1, "FEB": 2, "MAR": 3, "APR": 4, "MAY": 5, "JUN": 6,
	"JUL": 7, "AUG": 8, "SEP": 9, "OCT": 10, "NOV": 11, "DEC": 12,
	"JA": 1, "FE": 2, "MR": 3, "AP": 4, "MY": 5, "JN": 6,
	"JL": 7, "AU": 8, "SE": 9, "OC": 10, "NO": 11, "DE": 12,
}

func hasMonthWord(s string) bool {
	for _, f := range strings.Fields(s) {
		if len(f) == 3 {
			if _, ok := monthCodes[f]; ok {
				return true
			}
		}
	}
	return false
}

func isoDate(yy string, month int, dd string) (string, bool) {
	year, err := strconv.Atoi(yy)
	if err != nil {
		return "", false
	}
	day, err := strconv.Atoi(dd)
	if err != nil || day < 1 || day > daysIn(2000+year, month) {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", 2000+year, month, day), true
}

func daysIn(year, month int) int {
	switch month {
	case 2:
		if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	}
	return 31
}

func delimitedExpiry(s string) (string, bool) {
	if m := yyyymmddRe.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			return "", false
		}
		return isoDate(m[1][2:], month, m[3])
	}
	if m := dayMonthRe.FindStringSubmatch(s); m != nil {
		month, ok := monthCodes[m[2]]
		if !ok {
			return "", false
		}
		if m[3] == "" {
			return m[1] + " " + m[2], true
		}
		return isoDate(m[3][len(m[3])-2:], month, m[1])
	}
	return "", false
}

// cleanStrike strips leading zeros and a zero fraction: "024500.00" -> "24500".
func cleanStrike(s string) string {
	if s == "" {
		return ""
	}
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	s = strings.TrimLeft(s, "0")
	if s == "" || s[0] == '.' {
		s = "0" + s
	}
	return s
}
