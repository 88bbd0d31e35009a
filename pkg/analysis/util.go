package analysis

import "strconv"

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	return n, err
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func parseBool(s string) (bool, error) {
	return strconv.ParseBool(s)
}
