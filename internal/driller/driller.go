// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package driller

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

var indexRegex = regexp.MustCompile(`\[(\d+)\]`)

// Driller walks doc along path and returns what it finds. Segments are
// separated by '.' and may carry one or more [n] indexes. A single element
// array is drilled through transparently, so "items.id" finds the id of the
// only item. A multi element array without an index is returned as is.
func Driller(doc string, path string) gjson.Result {
	cur := gjson.Parse(doc)

	for _, seg := range strings.Split(path, ".") {
		key := seg
		var indexes []int

		if i := strings.Index(seg, "["); i >= 0 {
			key = seg[:i]
			for _, m := range indexRegex.FindAllStringSubmatch(seg[i:], -1) {
				n, _ := strconv.Atoi(m[1])
				indexes = append(indexes, n)
			}
		}

		if key != "" {
			cur = only(cur).Get(escape(key))
		}

		for _, n := range indexes {
			arr := cur.Array()
			if !cur.IsArray() || n >= len(arr) {
				return gjson.Result{}
			}
			cur = arr[n]
		}

		if !cur.Exists() {
			return gjson.Result{}
		}
	}

	return only(cur)
}

// only unwraps a single element array.
func only(r gjson.Result) gjson.Result {
	if r.IsArray() {
		if arr := r.Array(); len(arr) == 1 {
			return arr[0]
		}
	}
	return r
}

// escape quotes the characters gjson treats as path syntax.
func escape(key string) string {
	var b strings.Builder
	for _, c := range key {
		switch c {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
