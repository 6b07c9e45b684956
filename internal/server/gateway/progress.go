package gateway

import "io"

// progressReader wraps a reader and reports cumulative bytes read to fn.
// The storage client reads the payload through it, so every read translates
// into one progress event for the caller.
type progressReader struct {
	r    io.Reader
	sent int64
	fn   ProgressFunc
}

func newProgressReader(r io.Reader, fn ProgressFunc) *progressReader {
	return &progressReader{r: r, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.fn != nil {
			p.fn(p.sent)
		}
	}
	return n, err
}
