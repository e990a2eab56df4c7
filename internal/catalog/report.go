package catalog

import "github.com/dustin/go-humanize"

// Summary renders a ScanProgress as the one-line status a terminal front
// end prints per tick, e.g. "processing 128/512", or just the phase when
// Total is 0.
func (p ScanProgress) Summary() string {
	if p.Total == 0 {
		return p.Phase
	}
	return p.Phase + " " + humanize.Comma(int64(p.Current)) + "/" + humanize.Comma(int64(p.Total))
}
