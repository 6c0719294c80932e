package terrain

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image/png"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Encoding: сжатие выгрузки карты высот
type Encoding string

const (
	EncodingGzip Encoding = "gzip"
	EncodingZstd Encoding = "zstd"
)

// ParseEncoding разбирает имя сжатия, пустая строка означает gzip
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case "", EncodingGzip:
		return EncodingGzip, nil
	case EncodingZstd:
		return EncodingZstd, nil
	}
	return "", fmt.Errorf("terrain: unknown heightmap encoding %q", s)
}

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// heightmapMagic: сигнатура выгрузки карты высот
var heightmapMagic = [4]byte{'A', 'W', 'H', 'M'}

// ErrBadHeightmap: поток не является картой высот
var ErrBadHeightmap = errors.New("terrain: bad heightmap stream")

// Heightmap: распакованная карта высот.
// Heights хранятся построчно, Side вершин на строку.
type Heightmap struct {
	Side    int
	Size    float32
	Heights []float32
}

type heightmapHeader struct {
	Magic [4]byte
	Side  uint32
	Size  float32
}

// WriteHeightmap пишет gzip-поток: заголовок (сигнатура, сторона, размер)
// и высоты вершин float32 little-endian.
func WriteHeightmap(w io.Writer, s *Surface) error {
	return WriteHeightmapEncoded(w, s, EncodingGzip)
}

// WriteHeightmapEncoded пишет карту высот с выбранным сжатием
func WriteHeightmapEncoded(w io.Writer, s *Surface, enc Encoding) error {
	var zw io.WriteCloser
	switch enc {
	case EncodingZstd:
		ze, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return err
		}
		zw = ze
	default:
		ge, err := gzip.NewWriterLevel(w, gzip.BestSpeed)
		if err != nil {
			return err
		}
		zw = ge
	}

	bw := bufio.NewWriter(zw)
	hdr := heightmapHeader{
		Magic: heightmapMagic,
		Side:  uint32(s.Mesh.Subdivisions + 1),
		Size:  float32(s.Size()),
	}
	if err := binary.Write(bw, binary.LittleEndian, hdr); err != nil {
		zw.Close()
		return fmt.Errorf("write heightmap header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, s.Heights()); err != nil {
		zw.Close()
		return fmt.Errorf("write heightmap body: %w", err)
	}
	if err := bw.Flush(); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// ReadHeightmap читает поток, записанный WriteHeightmapEncoded.
// Сжатие определяется по первым байтам.
func ReadHeightmap(r io.Reader) (*Heightmap, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(zstdMagic))

	var zr io.Reader
	if bytes.Equal(head, zstdMagic) {
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadHeightmap, err)
		}
		defer dec.Close()
		zr = dec
	} else {
		dec, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadHeightmap, err)
		}
		defer dec.Close()
		zr = dec
	}

	var hdr heightmapHeader
	if err := binary.Read(zr, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadHeightmap, err)
	}
	if hdr.Magic != heightmapMagic || hdr.Side < 2 {
		return nil, ErrBadHeightmap
	}

	heights := make([]float32, int(hdr.Side)*int(hdr.Side))
	if err := binary.Read(zr, binary.LittleEndian, heights); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadHeightmap, err)
	}
	return &Heightmap{Side: int(hdr.Side), Size: hdr.Size, Heights: heights}, nil
}

// WriteTexturePNG кодирует растр текстуры в PNG
func WriteTexturePNG(w io.Writer, t *Texture) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, t.Image)
}
