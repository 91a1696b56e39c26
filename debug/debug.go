package debug

import (
	"os"
	"strconv"
)

type debug struct {
	Diff  bool
	Patch bool
	Index bool
	Sched bool
}

var d *debug

func init() {
	d = &debug{}
	d.Diff = boolEnv("TC_DEBUG_DIFF")
	d.Patch = boolEnv("TC_DEBUG_PATCH")
	d.Index = boolEnv("TC_DEBUG_INDEX")
	d.Sched = boolEnv("TC_DEBUG_SCHED")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Diff() bool {
	return d.Diff
}
func Patch() bool {
	return d.Patch
}
func Index() bool {
	return d.Index
}
func Sched() bool {
	return d.Sched
}
