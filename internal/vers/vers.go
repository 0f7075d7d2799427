// Package vers compares and dissects the dotted version strings used by SDK
// releases. These are not semantic versions: Maya uses year-based versions
// with a ".5" sub-release ("2016.5"), Arnold uses four numeric fields
// ("7.1.2.3"). Plain two- and three-field versions are compared through
// golang.org/x/mod/semver; everything else falls back to a GNU
// strverscmp-style segment comparison.
package vers

import (
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Compare compares two version strings and returns -1, 0 or 1.
func Compare(a, b string) int {
	ca, cb := "v"+a, "v"+b
	if semver.IsValid(ca) && semver.IsValid(cb) {
		return semver.Compare(ca, cb)
	}
	return verrevcmp([]byte(a), []byte(b))
}

// Major returns the leading numeric field of a dotted version, or 0 when it
// has none.
func Major(v string) int {
	head, _, _ := strings.Cut(v, ".")
	n, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return n
}

/* Compare file names containing version numbers.

   Copyright (C) 1995 Ian Jackson <iwj10@cus.cam.ac.uk>
   Copyright (C) 2001 Anthony Towns <aj@azure.humbug.org.au>
   Copyright (C) 2008-2025 Free Software Foundation, Inc.

   This file is free software: you can redistribute it and/or modify
   it under the terms of the GNU Lesser General Public License as
   published by the Free Software Foundation, either version 3 of the
   License, or (at your option) any later version.

   This file is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU Lesser General Public License for more details.

   You should have received a copy of the GNU Lesser General Public License
   along with this program.  If not, see <https://www.gnu.org/licenses/>.  */

// verrevcmp compares character and numeric segments separately, numeric
// segments by value (same ordering as GNU strverscmp).
func verrevcmp(s1, s2 []byte) int {
	p1, p2 := 0, 0
	for p1 < len(s1) || p2 < len(s2) {
		firstDiff := 0

		for (p1 < len(s1) && !isDigit(s1[p1])) || (p2 < len(s2) && !isDigit(s2[p2])) {
			var c1, c2 byte
			if p1 < len(s1) {
				c1 = s1[p1]
			}
			if p2 < len(s2) {
				c2 = s2[p2]
			}
			if o1, o2 := order(c1), order(c2); o1 != o2 {
				return sign(o1 - o2)
			}
			p1++
			p2++
		}

		for p1 < len(s1) && s1[p1] == '0' {
			p1++
		}
		for p2 < len(s2) && s2[p2] == '0' {
			p2++
		}

		for p1 < len(s1) && p2 < len(s2) && isDigit(s1[p1]) && isDigit(s2[p2]) {
			if firstDiff == 0 {
				firstDiff = int(s1[p1]) - int(s2[p2])
			}
			p1++
			p2++
		}

		if p1 < len(s1) && isDigit(s1[p1]) {
			return 1
		}
		if p2 < len(s2) && isDigit(s2[p2]) {
			return -1
		}
		if firstDiff != 0 {
			return sign(firstDiff)
		}
	}
	return 0
}

func order(c byte) int {
	switch {
	case isDigit(c):
		return 0
	case isAlpha(c):
		return int(c)
	case c == '~':
		return -1
	case c == 0:
		return 0
	default:
		return int(c) + 256
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
