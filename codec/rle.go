package codec

// maxRun is the longest run or literal segment one control byte can describe.
const maxRun = 127

// RunLength is a signed-control run-length codec.
//
// A positive control byte n (2..127) is followed by one value repeated n
// times. A negative control byte -n (1..127) is followed by n literal
// bytes, none of which equals its right neighbour.
type RunLength struct{}

func (RunLength) Tag() Tag { return TagRunLength }

func (RunLength) Append(dst, src []byte) ([]byte, error) {
	if err := checkInput(TagRunLength, src); err != nil {
		return dst, err
	}

	n := len(src)
	for i := 0; i < n; {
		cnt := 1
		for i+cnt < n && src[i+cnt] == src[i] && cnt < maxRun {
			cnt++
		}
		if cnt > 1 {
			dst = append(dst, byte(cnt), src[i])
			i += cnt
			continue
		}

		// literal segment: stop in front of the first byte that starts a run
		cnt = 0
		for i+cnt < n && (i+cnt+1 >= n || src[i+cnt] != src[i+cnt+1]) && cnt < maxRun {
			cnt++
		}
		dst = append(dst, byte(-cnt))
		dst = append(dst, src[i:i+cnt]...)
		i += cnt
	}
	return dst, nil
}

func (RunLength) DecodeInto(dst, src []byte) (int, error) {
	if err := checkDecode(TagRunLength, dst, src); err != nil {
		return 0, err
	}

	o := 0
	for i := 0; i < len(src) && o < len(dst); {
		cnt := int(int8(src[i]))
		i++
		if cnt > 0 {
			if i >= len(src) {
				break
			}
			v := src[i]
			i++
			for end := min(o+cnt, len(dst)); o < end; o++ {
				dst[o] = v
			}
			continue
		}
		lit := min(-cnt, len(src)-i)
		o += copy(dst[o:], src[i:i+lit])
		i += lit
	}
	return o, nil
}
