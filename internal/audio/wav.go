package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// WAV container support for 8/16-bit integer PCM. The pipeline only ever
// produces and consumes plain RIFF/WAVE files with a single data chunk,
// which is exactly what the synthesis CLI emits.

const wavHeaderSize = 44

var errNotWAV = errors.New("not a RIFF/WAVE file")

// EncodeWAV writes the fragment as a WAV stream.
func EncodeWAV(w io.Writer, fr Fragment) error {
	if err := fr.Validate(); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}

	f := fr.Format
	byteRate := f.SampleRate * f.BytesPerFrame()

	var hdr bytes.Buffer
	hdr.WriteString("RIFF")
	binary.Write(&hdr, binary.LittleEndian, uint32(wavHeaderSize-8+len(fr.Data))) //nolint:errcheck
	hdr.WriteString("WAVE")
	hdr.WriteString("fmt ")
	binary.Write(&hdr, binary.LittleEndian, uint32(16))               //nolint:errcheck
	binary.Write(&hdr, binary.LittleEndian, uint16(1))                //nolint:errcheck // PCM
	binary.Write(&hdr, binary.LittleEndian, uint16(f.Channels))       //nolint:errcheck
	binary.Write(&hdr, binary.LittleEndian, uint32(f.SampleRate))     //nolint:errcheck
	binary.Write(&hdr, binary.LittleEndian, uint32(byteRate))         //nolint:errcheck
	binary.Write(&hdr, binary.LittleEndian, uint16(f.BytesPerFrame())) //nolint:errcheck
	binary.Write(&hdr, binary.LittleEndian, uint16(f.BitDepth))       //nolint:errcheck
	hdr.WriteString("data")
	binary.Write(&hdr, binary.LittleEndian, uint32(len(fr.Data))) //nolint:errcheck

	if _, err := w.Write(hdr.Bytes()); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if _, err := w.Write(fr.Data); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return nil
}

// DecodeWAV reads a WAV stream into a fragment. Chunks other than
// "fmt " and "data" are skipped.
func DecodeWAV(r io.Reader) (Fragment, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return Fragment{}, fmt.Errorf("decode wav: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return Fragment{}, errNotWAV
	}

	var (
		format  Format
		haveFmt bool
	)
	for {
		var chunkHdr [8]byte
		if _, err := io.ReadFull(r, chunkHdr[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return Fragment{}, errors.New("decode wav: missing data chunk")
			}
			return Fragment{}, fmt.Errorf("decode wav: %w", err)
		}
		id := string(chunkHdr[0:4])
		size := binary.LittleEndian.Uint32(chunkHdr[4:8])

		switch id {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return Fragment{}, fmt.Errorf("decode wav: fmt chunk: %w", err)
			}
			if len(body) < 16 {
				return Fragment{}, errors.New("decode wav: short fmt chunk")
			}
			if tag := binary.LittleEndian.Uint16(body[0:2]); tag != 1 {
				return Fragment{}, fmt.Errorf("decode wav: unsupported format tag %d (PCM only)", tag)
			}
			format.Channels = int(binary.LittleEndian.Uint16(body[2:4]))
			format.SampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			format.BitDepth = int(binary.LittleEndian.Uint16(body[14:16]))
			haveFmt = true
		case "data":
			if !haveFmt {
				return Fragment{}, errors.New("decode wav: data chunk before fmt")
			}
			data := make([]byte, size)
			if _, err := io.ReadFull(r, data); err != nil {
				return Fragment{}, fmt.Errorf("decode wav: data chunk: %w", err)
			}
			fr := Fragment{Format: format, Data: data}
			if err := fr.Validate(); err != nil {
				return Fragment{}, fmt.Errorf("decode wav: %w", err)
			}
			return fr, nil
		default:
			// RIFF chunks are word-aligned.
			skip := int64(size)
			if size%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return Fragment{}, fmt.Errorf("decode wav: skipping %q chunk: %w", id, err)
			}
		}
	}
}

// WriteFile writes the fragment to path as a WAV file.
func WriteFile(path string, fr Fragment) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if err := EncodeWAV(f, fr); err != nil {
		return err
	}
	return f.Close()
}

// ReadFile reads a WAV file from path.
func ReadFile(path string) (Fragment, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fragment{}, fmt.Errorf("read wav: %w", err)
	}
	defer f.Close() //nolint:errcheck
	return DecodeWAV(f)
}
