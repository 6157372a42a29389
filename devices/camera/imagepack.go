package camera

// unflatten reshapes a row-major flat pixel buffer (index = x + y*width,
// the layout camerasdk.Frame carries straight from the vendor SDK) into
// the image2D[x][y] array shape the Alpaca ImageArray wire format uses
// (spec.md §4.5).
func unflatten(flat []uint16, width, height int) [][]int32 {
	out := make([][]int32, width)
	for x := range out {
		out[x] = make([]int32, height)
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out[x][y] = int32(flat[x+y*width])
		}
	}
	return out
}
