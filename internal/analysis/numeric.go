package analysis

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

type unitPair struct{ from, to string }

var unitConversions = map[unitPair]func(float64) float64{
	{"g/L", "mg/L"}:  func(x float64) float64 { return x * 1000 },
	{"ug/L", "mg/L"}: func(x float64) float64 { return x / 1000 },
	{"°F", "°C"}:     func(x float64) float64 { return (x - 32) * 5 / 9 },
}

// DefaultUnitTargets maps source units to the units they are normalized to.
func DefaultUnitTargets() map[string]string {
	targets := make(map[string]string, len(unitConversions))
	for p := range unitConversions {
		targets[p.from] = p.to
	}
	return targets
}

// ParseNumber parses s with auto-detected decimal and thousands separators.
func ParseNumber(s string) (float64, bool) {
	return parseNumeric(s, Options{})
}

// parseNumeric reads a locale formatted number. Percent signs and grouping
// separators are dropped; NaN and infinities are not numbers here.
func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.NewReplacer("%", "", "\u00a0", " ").Replace(s)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec, thou := separators(raw, opt)
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r == dec:
			b.WriteByte('.')
		case r == thou, thou == 0 && strings.ContainsRune(", .", r):
			// grouping separator
		default:
			b.WriteRune(r)
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// separators picks the decimal and grouping runes for raw. Without an
// explicit decimal separator the later of ',' and '.' is the decimal one.
func separators(raw string, opt Options) (dec, thou rune) {
	if opt.DecimalSeparator != 0 {
		return opt.DecimalSeparator, opt.ThousandsSeparator
	}
	comma, dot := strings.LastIndexByte(raw, ','), strings.LastIndexByte(raw, '.')
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		return ',', '.'
	case comma >= 0 && dot >= 0:
		return '.', ','
	case comma >= 0:
		return ',', opt.ThousandsSeparator
	default:
		return '.', opt.ThousandsSeparator
	}
}

func normalizeUnit(x float64, unit string, opt Options) (float64, string, bool) {
	target, ok := opt.UnitTargets[unit]
	if !ok {
		return x, unit, false
	}
	conv, ok := unitConversions[unitPair{unit, target}]
	if !ok {
		return x, unit, false
	}
	return conv(x), target, true
}

// Header suffixes that carry a unit: "Alpha (%)", "Mass [mg/L]", "temp_°C".
var unitSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`^(.*)\s*\(([^)]+)\)$`),
	regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]$`),
	regexp.MustCompile(`^(.*?)[_\s-]+(mg/L|g/L|ug/L|°[CF]|Brix|%|ppm|ppb)$`),
}

func splitUnits(name string) (label, unit string) {
	name = strings.TrimSpace(name)
	for _, re := range unitSuffixes {
		m := re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		if base, u := strings.TrimSpace(m[1]), strings.TrimSpace(m[2]); base != "" && u != "" {
			return base, u
		}
	}
	return name, ""
}

// robustOutliers counts values whose modified z-score 0.6745*(v-median)/MAD
// exceeds threshold, 3.5 when unset.
func robustOutliers(vals []float64, threshold float64) (count int, maxAbsZ, thr float64) {
	thr = threshold
	if thr <= 0 {
		thr = 3.5
	}
	median := quantile(sortedCopy(vals), 0.5)
	dev := lo.Map(vals, func(v float64, _ int) float64 { return math.Abs(v - median) })
	mad := quantile(sortedCopy(dev), 0.5)
	if mad == 0 {
		return 0, 0, thr
	}
	for _, v := range vals {
		z := math.Abs(0.6745 * (v - median) / mad)
		if z > thr {
			count++
		}
		maxAbsZ = math.Max(maxAbsZ, z)
	}
	return count, maxAbsZ, thr
}

func sortedCopy(vals []float64) []float64 {
	out := slices.Clone(vals)
	slices.Sort(out)
	return out
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return 0
	case q <= 0:
		return sorted[0]
	case q >= 1:
		return sorted[n-1]
	}
	pos := q * float64(n-1)
	i := int(pos)
	frac := pos - float64(i)
	if frac == 0 || i+1 >= n {
		return sorted[i]
	}
	return sorted[i] + (sorted[i+1]-sorted[i])*frac
}
