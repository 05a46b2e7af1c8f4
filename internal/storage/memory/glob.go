package memory

// Match reports whether s matches the glob pattern, with the store's
// rules: '*' any run, '?' any byte, "[...]" a class with ranges and a
// leading '^' for negation, and '\' escaping the next byte.
func Match(pattern, s string) bool {
	p, i := 0, 0
	starP, starI := -1, 0

	for i < len(s) {
		if p < len(pattern) {
			switch c := pattern[p]; c {
			case '*':
				starP, starI = p, i
				p++
				continue
			case '?':
				p++
				i++
				continue
			case '[':
				if ok, width := matchClass(pattern[p:], s[i]); ok {
					p += width
					i++
					continue
				}
			case '\\':
				if p+1 < len(pattern) {
					if pattern[p+1] == s[i] {
						p += 2
						i++
						continue
					}
				} else if s[i] == '\\' {
					p++
					i++
					continue
				}
			default:
				if c == s[i] {
					p++
					i++
					continue
				}
			}
		}
		if starP < 0 {
			return false
		}
		starI++
		i = starI
		p = starP + 1
	}

	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}

// matchClass matches c against the class at the start of pat and returns
// the class width. An unterminated class runs to the end of pat.
func matchClass(pat string, c byte) (bool, int) {
	j := 1
	negate := false
	if j < len(pat) && pat[j] == '^' {
		negate = true
		j++
	}

	matched := false
	for j < len(pat) && pat[j] != ']' {
		switch {
		case pat[j] == '\\' && j+1 < len(pat):
			if pat[j+1] == c {
				matched = true
			}
			j += 2
		case j+2 < len(pat) && pat[j+1] == '-' && pat[j+2] != ']':
			lo, hi := pat[j], pat[j+2]
			if lo > hi {
				lo, hi = hi, lo
			}
			if c >= lo && c <= hi {
				matched = true
			}
			j += 3
		default:
			if pat[j] == c {
				matched = true
			}
			j++
		}
	}
	if j < len(pat) {
		j++ // closing ']'
	}
	return matched != negate, j
}
