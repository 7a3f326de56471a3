package hicluster

import (
	"strconv"
	"strings"

	"github.com/kevwan/radix.v2/redis"
)

// Render flattens a reply into a single text buffer, used both for user
// display and for parsing MOVED/ASK redirection messages. An unrecognized
// reply type is a ProtocolError.
func Render(r *redis.Resp) (string, error) {
	switch {
	case r.IsType(redis.Nil):
		return "", nil
	case r.IsType(redis.AppErr), r.IsType(redis.IOErr):
		return r.Err.Error() + "\n", nil
	case r.IsType(redis.SimpleStr), r.IsType(redis.BulkStr):
		s, err := r.Str()
		if err != nil {
			return "", err
		}
		return s, nil
	case r.IsType(redis.Int):
		n, err := r.Int()
		if err != nil {
			return "", err
		}
		return strconv.Itoa(n), nil
	case r.IsType(redis.Array):
		elems, err := r.Array()
		if err != nil {
			return "", err
		}
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i], err = Render(e)
			if err != nil {
				return "", err
			}
		}
		return strings.Join(parts, "\n"), nil
	default:
		return "", &ProtocolError{Type: r.Type}
	}
}

// redirect describes a parsed MOVED/ASK error line.
type redirect struct {
	ask  bool
	slot int
	addr string
}

// parseRedirect two-token-splits the first line of a rendered error on
// ASCII whitespace, looking for "MOVED <slot> <addr>" or
// "ASK <slot> <addr>". Any other error text is not a redirection and ok is
// false.
func parseRedirect(line string) (r redirect, ok bool) {
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return redirect{}, false
	}

	switch fields[0] {
	case "MOVED":
		r.ask = false
	case "ASK":
		r.ask = true
	default:
		return redirect{}, false
	}

	slot, err := strconv.Atoi(fields[1])
	if err != nil {
		return redirect{}, false
	}
	r.slot = slot
	r.addr = fields[2]
	return r, true
}
