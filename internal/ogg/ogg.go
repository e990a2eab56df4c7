// Package ogg implements a hand-rolled Ogg page/packet demuxer (RFC 3533)
// with random-access seeking by granule position. It knows nothing about
// codecs; callers interpret packet bytes themselves.
package ogg

import (
	"encoding/binary"
	"errors"
	"io"
)

const magic = "OggS"

// HeaderType is the page header-type bit field.
type HeaderType uint8

const (
	HeaderNone         HeaderType = 0
	HeaderContinuation HeaderType = 1 << 0
	HeaderStart        HeaderType = 1 << 1
	HeaderEnd          HeaderType = 1 << 2
)

func (h HeaderType) Continuation() bool { return h&HeaderContinuation != 0 }
func (h HeaderType) Start() bool        { return h&HeaderStart != 0 }
func (h HeaderType) End() bool          { return h&HeaderEnd != 0 }

var (
	ErrNotValidOgg       = errors.New("ogg: invalid capture pattern")
	ErrUnsupportedVer    = errors.New("ogg: unsupported version")
	ErrMalformedPage     = errors.New("ogg: malformed page")
	ErrUnexpectedEOF     = errors.New("ogg: unexpected end of stream mid-packet")
	ErrNotFound          = errors.New("ogg: granule target not found")
	ErrMultiplexedStream = errors.New("ogg: interleaved logical bitstreams not supported")
)

// pageHeader is the fixed 27-byte Ogg page header plus its segment table.
type pageHeader struct {
	headerType   HeaderType
	granulePos   int64
	serial       uint32
	sequence     uint32
	segmentTable []uint8
	byteOffset   int64
	bodySize     int
}

func (h *pageHeader) lastSegLen() int {
	if len(h.segmentTable) == 0 {
		return 0
	}
	return int(h.segmentTable[len(h.segmentTable)-1])
}

// readPageHeader reads and validates one page header starting at the
// reader's current position. offset is the header's own byte offset,
// supplied by the caller since io.Reader does not expose position.
func readPageHeader(r io.Reader, offset int64) (*pageHeader, error) {
	var buf [27]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, ErrUnexpectedEOF
	}

	if string(buf[0:4]) != magic {
		return nil, ErrNotValidOgg
	}
	if buf[4] != 0 {
		return nil, ErrUnsupportedVer
	}

	numSegments := buf[26]
	if numSegments == 0 {
		return nil, ErrMalformedPage
	}

	segTable := make([]uint8, numSegments)
	if _, err := io.ReadFull(r, segTable); err != nil {
		return nil, ErrMalformedPage
	}

	body := 0
	for _, s := range segTable {
		body += int(s)
	}

	return &pageHeader{
		//nolint:gosec // granule position is semantically signed (-1 marks "no packet completes here")
		headerType:   HeaderType(buf[5]),
		granulePos:   int64(binary.LittleEndian.Uint64(buf[6:14])),
		serial:       binary.LittleEndian.Uint32(buf[14:18]),
		sequence:     binary.LittleEndian.Uint32(buf[18:22]),
		segmentTable: segTable,
		byteOffset:   offset,
		bodySize:     body,
	}, nil
}

// Demuxer reads packets out of an Ogg-framed logical bitstream, with
// random access to pages by granule position.
type Demuxer struct {
	r      io.ReadSeeker
	serial uint32

	cur        *pageHeader
	segIdx     int  // index into cur.segmentTable of the next unread segment
	pageBytes  int  // bytes of the current page body already consumed
	atPageEnd  bool // true once segIdx has consumed all of cur's segments
	startedPos int64
}

// Open reads the first page header eagerly and returns a Demuxer
// positioned to read packets from it.
func Open(r io.ReadSeeker) (*Demuxer, error) {
	startedPos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}

	hdr, err := readPageHeader(r, startedPos)
	if err != nil {
		return nil, err
	}
	if !hdr.headerType.Start() {
		return nil, ErrMalformedPage
	}

	d := &Demuxer{
		r:          r,
		serial:     hdr.serial,
		cur:        hdr,
		startedPos: startedPos,
	}
	return d, nil
}

// Granule returns the granule position of the current page.
func (d *Demuxer) Granule() int64 {
	if d.cur == nil {
		return -1
	}
	return d.cur.granulePos
}

// nextPage reads the next page of this demuxer's logical bitstream.
// Pages belonging to other serials are treated as a malformed interleave
// (this core supports exactly one logical bitstream per Demuxer).
func (d *Demuxer) nextPage() (*pageHeader, error) {
	for {
		offset, err := d.r.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, err
		}
		hdr, err := readPageHeader(d.r, offset)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, err
		}
		if hdr.serial != d.serial {
			return nil, ErrMultiplexedStream
		}
		return hdr, nil
	}
}

// readSegment returns the bytes of the segment at d.segIdx on the current
// page, advancing to the next page as needed. It reports the segment's
// length (255 means "continues").
func (d *Demuxer) readSegment() (data []byte, length int, err error) {
	for d.segIdx >= len(d.cur.segmentTable) {
		next, err := d.nextPage()
		if err != nil {
			return nil, 0, err
		}
		if !next.headerType.Continuation() {
			// A fresh packet boundary on a new page without Continuation
			// is only valid if the previous page's last segment was <255.
			if d.cur.lastSegLen() == 255 {
				return nil, 0, ErrMalformedPage
			}
		}
		if next.headerType.Start() {
			return nil, 0, ErrMalformedPage
		}
		d.cur = next
		d.segIdx = 0
		d.pageBytes = 0
	}

	segLen := int(d.cur.segmentTable[d.segIdx])
	buf := make([]byte, segLen)
	if segLen > 0 {
		if _, err := io.ReadFull(d.r, buf); err != nil {
			return nil, 0, ErrUnexpectedEOF
		}
	}
	d.pageBytes += segLen
	d.segIdx++
	return buf, segLen, nil
}

// ReadPacket reads and returns the next packet, concatenating segments
// until a segment shorter than 255 bytes terminates it. The bool result
// reports whether the packet completed on an End-flagged page.
func (d *Demuxer) ReadPacket() ([]byte, bool, error) {
	if d.cur == nil {
		return nil, false, ErrMalformedPage
	}

	var packet []byte
	for {
		seg, segLen, err := d.readSegment()
		if err != nil {
			return nil, false, err
		}
		packet = append(packet, seg...)
		if segLen < 255 {
			last := d.cur.headerType.End() && d.segIdx >= len(d.cur.segmentTable)
			return packet, last, nil
		}
		// segLen == 255: packet continues into the next segment/page.
	}
}

// LastGranule returns the granule position of the final End-flagged page
// of the current logical stream, without consuming it. The demuxer's read
// position is restored afterward.
func (d *Demuxer) LastGranule() (int64, error) {
	savedPos, err := d.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	savedCur, savedSegIdx, savedPageBytes := d.cur, d.segIdx, d.pageBytes

	defer func() {
		d.cur, d.segIdx, d.pageBytes = savedCur, savedSegIdx, savedPageBytes
		_, _ = d.r.Seek(savedPos, io.SeekStart)
	}()

	// Resume scanning from right after the current page's header+segments,
	// skipping the remainder of the current page's body first.
	if _, err := d.r.Seek(int64(d.cur.bodySize-d.pageBytes), io.SeekCurrent); err != nil {
		return 0, err
	}

	for {
		hdr, err := d.scanPageHeaderOnly()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, ErrNotFound
			}
			return 0, err
		}
		if hdr.serial != d.serial {
			continue
		}
		if hdr.headerType.Start() {
			return 0, ErrNotFound
		}
		if hdr.headerType.End() {
			return hdr.granulePos, nil
		}
	}
}

// scanPageHeaderOnly reads a page header and seeks past its body without
// reading it, used by granule scans that only need header metadata.
func (d *Demuxer) scanPageHeaderOnly() (*pageHeader, error) {
	offset, err := d.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	hdr, err := readPageHeader(d.r, offset)
	if err != nil {
		return nil, err
	}
	if _, err := d.r.Seek(int64(hdr.bodySize), io.SeekCurrent); err != nil {
		return nil, err
	}
	return hdr, nil
}

// rewindToStreamStart seeks back to the page where this logical stream
// began (the page carrying the Start header flag) and resumes packet
// reading from there.
func (d *Demuxer) rewindToStreamStart() error {
	if _, err := d.r.Seek(d.startedPos, io.SeekStart); err != nil {
		return err
	}
	hdr, err := readPageHeader(d.r, d.startedPos)
	if err != nil {
		return err
	}
	d.cur = hdr
	d.segIdx = 0
	d.pageBytes = 0
	return nil
}

// SeekToGranuleLast positions the demuxer such that the next ReadPacket
// returns data from the page whose granule position is the smallest value
// >= target. If fromCurrent is false, the search first rewinds to this
// stream's start page. Returns the granule of the page landed on.
func (d *Demuxer) SeekToGranuleLast(target int64, fromCurrent bool) (int64, error) {
	if !fromCurrent {
		if err := d.rewindToStreamStart(); err != nil {
			return 0, err
		}
	}
	return d.seekToGranule(target, false)
}

// SeekToGranuleFirst positions the demuxer at the page whose granule is
// the greatest value <= target, so the next packet's first sample index
// is <= target. If fromCurrent is false, the search first rewinds to this
// stream's start page.
func (d *Demuxer) SeekToGranuleFirst(target int64, fromCurrent bool) (int64, error) {
	if !fromCurrent {
		if err := d.rewindToStreamStart(); err != nil {
			return 0, err
		}
	}
	return d.seekToGranule(target, true)
}

// seekToGranule scans page headers forward, starting at the current
// page's own header.
//
//   - wantFirst=false (seek_to_granule_last): lands on the first page whose
//     granule is >= target (the smallest such granule).
//   - wantFirst=true (seek_to_granule_first): lands on the last page whose
//     granule is <= target (the greatest such granule), requiring one page
//     of lookahead past it to know the floor page won't be beaten.
//
// Real tracks are short enough that a linear header-only scan (bodies are
// skipped, never read) costs a single pass with no meaningful latency.
func (d *Demuxer) seekToGranule(target int64, wantFirst bool) (int64, error) {
	var bestOffset int64 = -1
	var bestGranule int64

	// The reader may sit inside the current page's body; restart at its
	// header so every scanned read lands on a page boundary.
	if _, err := d.r.Seek(d.cur.byteOffset, io.SeekStart); err != nil {
		return 0, err
	}

	for {
		hdr, err := d.scanPageHeaderOnly()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, err
		}
		if hdr.serial != d.serial {
			continue
		}
		if hdr.granulePos < 0 {
			continue // page carries no completed packet
		}

		if !wantFirst && hdr.granulePos >= target {
			bestOffset, bestGranule = hdr.byteOffset, hdr.granulePos
			break
		}
		if wantFirst {
			if hdr.granulePos > target {
				break
			}
			bestOffset, bestGranule = hdr.byteOffset, hdr.granulePos
		}
	}

	if bestOffset < 0 {
		return 0, ErrNotFound
	}

	if _, err := d.r.Seek(bestOffset, io.SeekStart); err != nil {
		return 0, err
	}
	hdr, err := readPageHeader(d.r, bestOffset)
	if err != nil {
		return 0, err
	}
	d.cur = hdr
	d.segIdx = 0
	d.pageBytes = 0
	return bestGranule, nil
}
