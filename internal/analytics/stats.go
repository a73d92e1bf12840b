package analytics

import (
	"database/sql"
	"math"
)

// population holds the population statistics of one group
type population struct {
	n      int
	mean   float64
	stddev float64
}

func describe(values []float64) population {
	p := population{n: len(values)}
	if p.n == 0 {
		return p
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	p.mean = sum / float64(p.n)

	var sq float64
	for _, v := range values {
		d := v - p.mean
		sq += d * d
	}
	p.stddev = math.Sqrt(sq / float64(p.n))
	return p
}

// undefined returns why the group cannot be used as a divisor, or ""
func (p population) undefined(needMean bool) string {
	switch {
	case p.n == 0:
		return "empty population"
	case needMean && p.mean == 0:
		return "mean is zero"
	case p.stddev == 0:
		return "standard deviation is zero"
	}
	return ""
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func nullableFloat(v sql.NullFloat64, places int) any {
	if !v.Valid {
		return nil
	}
	return round(v.Float64, places)
}

func nullableString(v sql.NullString) any {
	if !v.Valid {
		return nil
	}
	return v.String
}

func artistsOrEmpty(v sql.NullString) string {
	if !v.Valid {
		return ""
	}
	return v.String
}
