package alpacahttp

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Image element type tags from spec.md §6.
const (
	elementTypeUint8  = 6
	elementTypeUint16 = 8
)

const imageBytesDataStart = 44

// ImageBytesHeader is the fixed 44-byte prefix of the image-bytes
// envelope (spec.md §6). Pixel samples follow immediately after.
type ImageBytesHeader struct {
	MetadataVersion      uint32
	ErrorNumber          uint32
	ClientTransactionID  uint32
	ServerTransactionID  uint32
	DataStart            uint32
	ImageElementType     uint32
	TransmissionElementType uint32
	Rank                 uint32
	Dimension1           uint32 // width
	Dimension2           uint32 // height
	Dimension3           uint32
}

// writeImageBytes serializes a 2D pixel buffer (row-major by the
// imagearray mapping in spec.md §4.5: image2D[x][y]) into the binary
// envelope and writes it to w. bpp must be 8 or 16.
func writeImageBytes(w io.Writer, s Scaffold, pixels [][]int32, bpp int) error {
	width := len(pixels)
	height := 0
	if width > 0 {
		height = len(pixels[0])
	}

	elemType := uint32(elementTypeUint16)
	if bpp == 8 {
		elemType = elementTypeUint8
	}

	var clientTx, serverTx uint32
	if s.ClientTransactionID != nil {
		clientTx = *s.ClientTransactionID
	}
	serverTx = s.ServerTransactionID

	hdr := ImageBytesHeader{
		MetadataVersion:         1,
		ErrorNumber:             uint32(s.ErrorNumber),
		ClientTransactionID:     clientTx,
		ServerTransactionID:     serverTx,
		DataStart:               imageBytesDataStart,
		ImageElementType:        elemType,
		TransmissionElementType: elemType,
		Rank:                    2,
		Dimension1:              uint32(width),
		Dimension2:              uint32(height),
		Dimension3:              0,
	}

	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return err
	}

	// image2D[x][y] = raw_1d[x + y*width]: serialize row-major over y
	// (rows), then x (columns) within each row, matching that mapping.
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := pixels[x][y]
			switch bpp {
			case 8:
				if err := binary.Write(w, binary.LittleEndian, uint8(v)); err != nil {
					return err
				}
			case 16:
				if err := binary.Write(w, binary.LittleEndian, uint16(v)); err != nil {
					return err
				}
			default:
				return fmt.Errorf("alpacahttp: unsupported bpp %d", bpp)
			}
		}
	}
	return nil
}

// readImageBytes parses a previously-serialized envelope back into its
// header and pixel buffer -- used by the round-trip test (spec.md §8 R2)
// and available to any test client that wants to validate the wire
// format without a real Alpaca client library.
func readImageBytes(r io.Reader) (ImageBytesHeader, [][]int32, error) {
	var hdr ImageBytesHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return hdr, nil, err
	}

	width := int(hdr.Dimension1)
	height := int(hdr.Dimension2)
	pixels := make([][]int32, width)
	for x := range pixels {
		pixels[x] = make([]int32, height)
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			switch hdr.ImageElementType {
			case elementTypeUint8:
				var v uint8
				if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
					return hdr, nil, err
				}
				pixels[x][y] = int32(v)
			case elementTypeUint16:
				var v uint16
				if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
					return hdr, nil, err
				}
				pixels[x][y] = int32(v)
			default:
				return hdr, nil, fmt.Errorf("alpacahttp: unsupported element type %d", hdr.ImageElementType)
			}
		}
	}
	return hdr, pixels, nil
}
