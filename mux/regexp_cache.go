package mux

import (
	"regexp"
	"sync"
)

// regexpCache maps compiled pattern strings to their *regexp.Regexp.
// Reboots re-register the same templates, so entries are reused rather than
// recompiled on every Reset and Register cycle.
var regexpCache sync.Map

// compileRegexp returns the cached *regexp.Regexp for pattern, compiling it
// on first use.
func compileRegexp(pattern string) (*regexp.Regexp, error) {
	if v, ok := regexpCache.Load(pattern); ok {
		return v.(*regexp.Regexp), nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	actual, _ := regexpCache.LoadOrStore(pattern, re)
	return actual.(*regexp.Regexp), nil
}
