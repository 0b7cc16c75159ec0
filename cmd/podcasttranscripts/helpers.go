package main

import (
	"strings"
	"time"
)

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
