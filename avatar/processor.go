package avatar

import (
	"crypto/md5"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Processor resizes uploaded avatars to a fixed square and stores them on
// disk under Dir. File names are derived from the owning user id and the
// original file name, so uploads from different users cannot collide.
type Processor struct {
	Dir  string
	Size int
}

func NewProcessor(dir string, size int) *Processor {
	return &Processor{Dir: dir, Size: size}
}

// Save resizes the image read from r and writes it to
// <Dir>/<userID>_<filename>. It returns the public avatar path.
func (p *Processor) Save(userID, filename string, r io.Reader) (string, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("decoding avatar: %w", err)
	}

	resized := resize(src, p.Size, p.Size)

	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return "", err
	}

	name := userID + "_" + filepath.Base(filename)
	target := filepath.Join(p.Dir, name)

	out, err := os.Create(target)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if strings.EqualFold(filepath.Ext(name), ".png") {
		err = png.Encode(out, resized)
	} else {
		err = jpeg.Encode(out, resized, nil)
	}
	if err != nil {
		return "", err
	}

	return filepath.ToSlash(filepath.Join("avatars", name)), nil
}

// resize scales src to width x height with nearest-neighbor sampling.
func resize(src image.Image, width, height int) image.Image {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		srcY := bounds.Min.Y + y*bounds.Dy()/height
		for x := 0; x < width; x++ {
			srcX := bounds.Min.X + x*bounds.Dx()/width
			dst.Set(x, y, src.At(srcX, srcY))
		}
	}
	return dst
}

// GravatarURL returns the default avatar assigned at registration.
func GravatarURL(email string) string {
	hash := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x", hash)
}
