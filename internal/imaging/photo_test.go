package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodeTestImage(t *testing.T, format string, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{200, 120, 40, 255})
		}
	}
	var buf bytes.Buffer
	var err error
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	case "png":
		err = png.Encode(&buf, img)
	default:
		t.Fatalf("unknown format %s", format)
	}
	if err != nil {
		t.Fatalf("encoding %s: %v", format, err)
	}
	return buf.Bytes()
}

func TestProcessAcceptsJPEGAndPNG(t *testing.T) {
	for _, format := range []string{"jpeg", "png"} {
		photo, err := Process(bytes.NewReader(encodeTestImage(t, format, 120, 80)))
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if photo.MIME != "image/jpeg" {
			t.Errorf("%s: output MIME = %s, want image/jpeg", format, photo.MIME)
		}
		if len(photo.Data) == 0 {
			t.Errorf("%s: empty output", format)
		}
	}
}

func TestProcessDownscalesLargePhotos(t *testing.T) {
	photo, err := Process(bytes.NewReader(encodeTestImage(t, "jpeg", 2000, 1500)))
	if err != nil {
		t.Fatal(err)
	}

	img, _, err := image.Decode(bytes.NewReader(photo.Data))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != MaxDimension {
		t.Errorf("width = %d, want %d", b.Dx(), MaxDimension)
	}
	if b.Dy() > MaxDimension {
		t.Errorf("height = %d, want <= %d", b.Dy(), MaxDimension)
	}
}

func TestProcessKeepsSmallPhotos(t *testing.T) {
	photo, err := Process(bytes.NewReader(encodeTestImage(t, "png", 60, 40)))
	if err != nil {
		t.Fatal(err)
	}

	img, _, err := image.Decode(bytes.NewReader(photo.Data))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 60 || b.Dy() != 40 {
		t.Errorf("got %dx%d, small photos must not be resized", b.Dx(), b.Dy())
	}
}

func TestProcessRejectsOtherFormats(t *testing.T) {
	cases := map[string][]byte{
		"garbage": []byte("definitely not an image"),
		"gif":     []byte("GIF89a\x01\x00\x01\x00"),
	}
	for name, data := range cases {
		if _, err := Process(bytes.NewReader(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
