package kvtab

import "strconv"

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func parseID(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
