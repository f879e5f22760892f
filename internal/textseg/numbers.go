package textseg

import (
	"regexp"
	"strconv"
)

var basicNumbers = [...]string{
	"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten",
	"eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen", "seventeen", "eighteen", "nineteen",
}

var tensWords = [...]string{
	"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety",
}

var ordinalsUpTo20 = [...]string{
	"zeroth",
	"first", "second", "third", "fourth", "fifth", "sixth", "seventh", "eighth", "ninth", "tenth",
	"eleventh", "twelfth", "thirteenth", "fourteenth", "fifteenth", "sixteenth",
	"seventeenth", "eighteenth", "nineteenth", "twentieth",
}

var tensOrdinals = [...]string{
	"", "", "twentieth", "thirtieth", "fortieth", "fiftieth",
	"sixtieth", "seventieth", "eightieth", "ninetieth",
}

var (
	numberPattern     = regexp.MustCompile(`^\d+$`)
	ordinalPattern    = regexp.MustCompile(`(?i)^\d{1,3}(st|nd|rd|th)$`)
	ordinalSuffixes   = regexp.MustCompile(`(?i)(st|nd|rd|th)`)
	ordinalStripChars = regexp.MustCompile(`(?i)(st|nd|rd|th|\.)`)
)

func isNumber(s string) bool {
	return numberPattern.MatchString(s)
}

func isOrdinalNumber(s string) bool {
	return ordinalPattern.MatchString(s)
}

// cardinalWords spells a numeric or ordinal-suffixed token as a cardinal
// ("23" or "23rd" -> "twenty-three"). Supports 0-999.
func cardinalWords(token string) (string, bool) {
	n, err := strconv.Atoi(ordinalSuffixes.ReplaceAllString(token, ""))
	if err != nil || n < 0 || n > 999 {
		return "", false
	}
	return spellCardinal(n), true
}

func spellCardinal(n int) string {
	if n < 20 {
		return basicNumbers[n]
	}
	if n < 100 {
		if n%10 == 0 {
			return tensWords[n/10]
		}
		return tensWords[n/10] + "-" + basicNumbers[n%10]
	}
	out := basicNumbers[n/100] + " hundred"
	if rem := n % 100; rem > 0 {
		out += " and " + spellCardinal(rem)
	}
	return out
}

// ordinalWords spells an ordinal-suffixed token ("23rd" -> "twenty-third").
// Supports 0-999.
func ordinalWords(token string) (string, bool) {
	if !isOrdinalNumber(token) {
		return "", false
	}
	n, err := strconv.Atoi(ordinalStripChars.ReplaceAllString(token, ""))
	if err != nil || n < 0 || n > 999 {
		return "", false
	}
	return spellOrdinal(n), true
}

func spellOrdinal(n int) string {
	if n <= 20 {
		return ordinalsUpTo20[n]
	}
	if n < 100 {
		if n%10 == 0 {
			return tensOrdinals[n/10]
		}
		return tensWords[n/10] + "-" + ordinalsUpTo20[n%10]
	}
	base := basicNumbers[n/100] + " hundred"
	if rem := n % 100; rem > 0 {
		return base + " and " + spellOrdinal(rem)
	}
	return base + "th"
}
