package hash

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/corona10/goimagehash"
	"github.com/nfnt/resize"
)

// ImageHash represents a computed perceptual image hash.
type ImageHash struct {
	Hash   uint64
	Width  int
	Height int
}

// PerceptualHasher provides DCT-based perceptual hashing for video frames.
// Nearby hashes indicate visually similar frames, which lets the visual
// stage skip re-classifying static scenes.
type PerceptualHasher struct{}

// NewPerceptualHasher creates a new PerceptualHasher.
func NewPerceptualHasher() *PerceptualHasher {
	return &PerceptualHasher{}
}

// ComputePHash computes the DCT-based perceptual hash of an image.
func (ph *PerceptualHasher) ComputePHash(img image.Image) (*ImageHash, error) {
	h, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return nil, fmt.Errorf("failed to compute pHash: %w", err)
	}
	bounds := img.Bounds()
	return &ImageHash{
		Hash:   h.GetHash(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// dedupHashSize is the square edge images are scaled to before hashing,
// so hashes of the same content at different resolutions stay comparable.
const dedupHashSize = 64

// ComputePHashFromBytes decodes an encoded image, normalizes its size,
// and computes its pHash. Width and Height report the decoded size.
func (ph *PerceptualHasher) ComputePHashFromBytes(data []byte) (*ImageHash, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	h, err := goimagehash.PerceptionHash(ResizeImage(img, dedupHashSize, dedupHashSize))
	if err != nil {
		return nil, fmt.Errorf("failed to compute pHash: %w", err)
	}
	return &ImageHash{
		Hash:   h.GetHash(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// ResizeImage scales an image to the given dimensions, preserving nothing
// about aspect ratio. Classifier inputs are fixed-size so distortion is fine.
func ResizeImage(img image.Image, width, height uint) image.Image {
	return resize.Resize(width, height, img, resize.Bilinear)
}

// Distance returns the Hamming distance between two pHashes.
func Distance(a, b uint64) int {
	x := a ^ b
	count := 0
	for x != 0 {
		x &= x - 1
		count++
	}
	return count
}
