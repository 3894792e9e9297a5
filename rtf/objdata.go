package rtf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/wudi/rtfkit/filters"
	"github.com/wudi/rtfkit/observability"
)

type objPhase int

const (
	phaseWaitMagic objPhase = iota
	phaseWaitDescLen
	phaseWaitDesc
	phaseWaitZero
	phaseWaitDataSize
	phaseDumpData
	phaseDumpDiscard
)

type flavour int

const (
	flavourUnknown flavour = iota
	flavourOLE10Native
	flavourOLE2
)

func (f flavour) String() string {
	switch f {
	case flavourOLE10Native:
		return "ole10native"
	case flavourOLE2:
		return "ole2"
	default:
		return "unknown"
	}
}

// objdataMagic opens every \objdata payload.
var objdataMagic = []byte{0x01, 0x05, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00}

// maxDescName bounds the retained object description; longer descriptions
// are truncated for logging but fully consumed from the stream.
const maxDescName = 64

// objdataHandler consumes the hex-encoded payload of an \objdata group,
// materialises each embedded object to a temp file and hands it to the
// dispatcher. One handler may extract several consecutive objects.
type objdataHandler struct {
	s   *scan
	hex filters.Stream
	buf []byte

	phase     objPhase
	bytesRead int

	descLen  uint32
	descKeep int
	descSkip int64
	desc     []byte

	dataLen   uint32
	remaining int64

	file *os.File
	path string

	flavour  flavour
	sniff    [2]byte
	sniffLen int

	magicWarned bool
}

func newObjdataHandler(s *scan) *objdataHandler {
	return &objdataHandler{s: s, hex: filters.NewHexStream()}
}

func (h *objdataHandler) Process(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	out := h.hex.Decode(h.buf[:0], data)
	h.buf = out
	if len(out) == 0 {
		return nil
	}
	h.s.decodedBytes += int64(len(out))
	return h.feed(out)
}

// feed runs the object state machine over de-hexed bytes.
func (h *objdataHandler) feed(out []byte) error {
	for len(out) > 0 {
		switch h.phase {
		case phaseWaitMagic:
			n := len(objdataMagic) - h.bytesRead
			if n > len(out) {
				n = len(out)
			}
			for i := 0; i < n; i++ {
				if out[i] == objdataMagic[h.bytesRead+i] {
					continue
				}
				h.s.logger.Debug("objdata magic mismatch",
					observability.Int("pos", h.bytesRead+i),
					observability.Int("expected", int(objdataMagic[h.bytesRead+i])),
					observability.Int("got", int(out[i])))
				if !h.magicWarned {
					h.magicWarned = true
					if err := h.s.anomaly(h.s.pos, "objdata", errObjectMagic); err != nil {
						return err
					}
				}
			}
			h.bytesRead += n
			out = out[n:]
			if h.bytesRead == len(objdataMagic) {
				h.bytesRead = 0
				h.phase = phaseWaitDescLen
			}

		case phaseWaitDescLen:
			for len(out) > 0 && h.bytesRead < 4 {
				h.descLen |= uint32(out[0]) << (8 * h.bytesRead)
				out = out[1:]
				h.bytesRead++
			}
			if h.bytesRead == 4 {
				h.bytesRead = 0
				keep := int64(h.descLen)
				if keep > maxDescName {
					h.s.logger.Debug("object description truncated",
						observability.Uint32("desc_len", h.descLen))
					keep = maxDescName
				}
				h.descKeep = int(keep)
				h.descSkip = int64(h.descLen) - keep
				h.desc = h.desc[:0]
				h.phase = phaseWaitDesc
			}

		case phaseWaitDesc:
			for len(out) > 0 && len(h.desc) < h.descKeep {
				h.desc = append(h.desc, out[0])
				out = out[1:]
			}
			if len(h.desc) < h.descKeep {
				break
			}
			if h.descSkip > 0 {
				// The excess past maxDescName is still part of the
				// description and must be consumed from the stream.
				n := int64(len(out))
				if n > h.descSkip {
					n = h.descSkip
				}
				out = out[n:]
				h.descSkip -= n
			}
			if h.descSkip == 0 {
				h.s.logger.Debug("embedded object description",
					observability.String("description", descString(h.desc)))
				h.bytesRead = 0
				h.phase = phaseWaitZero
			}

		case phaseWaitZero:
			// Reserved field: discard exactly 8 bytes.
			n := 8 - h.bytesRead
			if n > len(out) {
				n = len(out)
			}
			out = out[n:]
			h.bytesRead += n
			if h.bytesRead == 8 {
				h.bytesRead = 0
				h.phase = phaseWaitDataSize
			}

		case phaseWaitDataSize:
			for len(out) > 0 && h.bytesRead < 4 {
				h.dataLen |= uint32(out[0]) << (8 * h.bytesRead)
				out = out[1:]
				h.bytesRead++
			}
			if h.bytesRead == 4 {
				h.bytesRead = 0
				if err := h.beginDump(); err != nil {
					return err
				}
			}

		case phaseDumpData:
			if h.flavour == flavourUnknown {
				if err := h.classify(&out); err != nil {
					return err
				}
				if h.flavour == flavourUnknown {
					break
				}
			}
			want := h.remaining
			if want > int64(len(out)) {
				want = int64(len(out))
			}
			if want > 0 {
				if err := h.write(out[:want]); err != nil {
					return err
				}
				out = out[want:]
				h.remaining -= want
			}
			if h.remaining == 0 {
				if err := h.finishObject(); err != nil {
					return err
				}
			}

		case phaseDumpDiscard:
			out = nil
		}
	}
	return nil
}

// beginDump transitions WAIT_DATA_SIZE into the dump phase: applies limits,
// creates the temp file, and handles zero-length payloads.
func (h *objdataHandler) beginDump() error {
	size := int64(h.dataLen)
	h.s.logger.Debug("dumping embedded object", observability.Int64("size", size))
	limits := h.s.e.opts.Limits
	if limits.MaxObjects > 0 && h.s.objects >= limits.MaxObjects {
		if err := h.s.anomaly(h.s.pos, "objdata", errTooManyObjects); err != nil {
			return err
		}
		h.phase = phaseDumpDiscard
		return nil
	}
	if limits.MaxObjectSize > 0 && size > limits.MaxObjectSize {
		if err := h.s.anomaly(h.s.pos, "objdata", errObjectTooLarge); err != nil {
			return err
		}
		h.phase = phaseDumpDiscard
		return nil
	}
	f, err := os.CreateTemp(h.s.tmpdir, "rtfobj-*")
	if err != nil {
		return fmt.Errorf("rtf: create temporary file: %w", err)
	}
	h.file = f
	h.path = f.Name()
	h.remaining = size
	h.flavour = flavourUnknown
	h.sniffLen = 0
	h.phase = phaseDumpData
	if size == 0 {
		return h.finishObject()
	}
	return nil
}

// classify forks OLE2 vs OLE10Native on the first payload byte pair. The
// pair may straddle a chunk boundary, so the bytes are staged in sniff and
// written only once the flavour is known (the OLE10Native size prefix must
// precede them in the file).
func (h *objdataHandler) classify(out *[]byte) error {
	if h.remaining < 2 {
		// A payload this short cannot carry the OLE2 magic.
		h.flavour = flavourOLE10Native
		return h.writeSizePrefix()
	}
	for len(*out) > 0 && h.sniffLen < 2 {
		h.sniff[h.sniffLen] = (*out)[0]
		h.sniffLen++
		*out = (*out)[1:]
	}
	if h.sniffLen < 2 {
		return nil
	}
	if h.sniff[0] == 0xd0 && h.sniff[1] == 0xcf {
		h.flavour = flavourOLE2
	} else {
		h.flavour = flavourOLE10Native
		if err := h.writeSizePrefix(); err != nil {
			return err
		}
	}
	if err := h.write(h.sniff[:2]); err != nil {
		return err
	}
	h.remaining -= 2
	return nil
}

func (h *objdataHandler) writeSizePrefix() error {
	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], h.dataLen)
	return h.write(prefix[:])
}

func (h *objdataHandler) write(p []byte) error {
	if _, err := h.file.Write(p); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// finishObject scans the completed dump and rearms for a possible next
// object in the same group.
func (h *objdataHandler) finishObject() error {
	if err := h.decodeAndScan(); err != nil {
		return err
	}
	h.rearm()
	return nil
}

func (h *objdataHandler) rearm() {
	h.phase = phaseWaitMagic
	h.bytesRead = 0
	h.descLen = 0
	h.descKeep = 0
	h.descSkip = 0
	h.desc = h.desc[:0]
	h.dataLen = 0
	h.remaining = 0
	h.flavour = flavourUnknown
	h.sniffLen = 0
	h.magicWarned = false
}

// decodeAndScan hands the temp file to the downstream dispatcher, then
// closes and (unless keeping temps) removes it. An unlink failure is
// reported only when the scan verdict was clean.
func (h *objdataHandler) decodeAndScan() error {
	if h.file == nil {
		return nil
	}
	h.s.logger.Debug("scanning embedded object",
		observability.String("path", h.path),
		observability.String("flavour", h.flavour.String()))
	var verdict error
	if _, err := h.file.Seek(0, io.SeekStart); err != nil {
		verdict = fmt.Errorf("rtf: rewind temporary file: %w", err)
	} else if h.flavour == flavourOLE10Native {
		verdict = h.s.e.dispatcher.ScanOLE10Native(h.s.ctx, h.file)
	} else {
		verdict = h.s.e.dispatcher.ScanFile(h.s.ctx, h.file, h.path)
	}
	h.file.Close()
	h.file = nil
	h.s.objects++
	if h.path != "" {
		if !h.s.e.opts.KeepTemp {
			if err := os.Remove(h.path); err != nil && verdict == nil {
				verdict = fmt.Errorf("%w: %v", ErrUnlink, err)
			}
		}
		h.path = ""
	}
	return verdict
}

// End finalises the handler when its group closes or extraction restarts.
// A partially dumped object is still scanned.
func (h *objdataHandler) End() error {
	var rc error
	if h.file != nil {
		// Payload bytes staged for flavour classification have not been
		// written yet; flush them so a truncated dump loses nothing.
		if h.flavour == flavourUnknown && h.sniffLen > 0 {
			rc = h.write(h.sniff[:h.sniffLen])
			h.sniffLen = 0
		}
		if err := h.decodeAndScan(); rc == nil {
			rc = err
		}
	}
	h.desc = nil
	h.buf = nil
	h.hex.Reset()
	return rc
}

func descString(desc []byte) string {
	if i := bytes.IndexByte(desc, 0); i >= 0 {
		desc = desc[:i]
	}
	return string(desc)
}
