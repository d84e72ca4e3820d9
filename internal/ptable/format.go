package ptable

import "strconv"

func formatInt(v int64) string { return strconv.FormatInt(v, 10) }

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func formatBool(v bool) string { return strconv.FormatBool(v) }
