// Package filters holds per-pixel adjustments applied to a frame after it
// has been cropped and scaled.
package filters

import (
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
)

// Filter transforms an image. Filters never modify their input.
type Filter func(image.Image) image.Image

// Grayscale removes colour.
func Grayscale(img image.Image) image.Image {
	return imaging.Grayscale(img)
}

// ContrastStretch linearly maps the darkest and brightest luminance in img
// onto the full 0-255 range. Images with a single luminance are returned
// unchanged.
func ContrastStretch(img image.Image) image.Image {
	hist := luminanceHistogram(img)
	lo, hi := 0, 255
	for lo < 255 && hist[lo] == 0 {
		lo++
	}
	for hi > 0 && hist[hi] == 0 {
		hi--
	}
	if hi <= lo {
		return imaging.Clone(img)
	}

	var lut [256]uint8
	for i := range lut {
		v := (i - lo) * 255 / (hi - lo)
		lut[i] = uint8(min(max(v, 0), 255))
	}
	return applyLUT(img, &lut)
}

// HistogramEqualize spreads luminance so that its cumulative distribution
// is roughly linear.
func HistogramEqualize(img image.Image) image.Image {
	hist := luminanceHistogram(img)

	total, cdfMin := 0, 0
	for _, n := range hist {
		total += n
	}
	for _, n := range hist {
		if n > 0 {
			cdfMin = n
			break
		}
	}
	if total == cdfMin {
		return imaging.Clone(img)
	}

	var lut [256]uint8
	cdf := 0
	for i, n := range hist {
		cdf += n
		v := (cdf - cdfMin) * 255 / (total - cdfMin)
		lut[i] = uint8(min(max(v, 0), 255))
	}
	return applyLUT(img, &lut)
}

// Chain applies fs in order. An empty chain returns its input.
func Chain(fs ...Filter) Filter {
	return func(img image.Image) image.Image {
		for _, f := range fs {
			img = f(img)
		}
		return img
	}
}

// Names maps configuration names to filters.
var Names = map[string]Filter{
	"grayscale": Grayscale,
	"stretch":   ContrastStretch,
	"equalize":  HistogramEqualize,
}

// Parse builds a chain from a comma separated list of filter names. Unknown
// names are returned in the second value and otherwise ignored.
func Parse(list string) (Filter, []string) {
	var fs []Filter
	var unknown []string
	for _, name := range strings.Split(list, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		f, ok := Names[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		fs = append(fs, f)
	}
	return Chain(fs...), unknown
}

func luma(c color.NRGBA) int {
	return (299*int(c.R) + 587*int(c.G) + 114*int(c.B)) / 1000
}

func luminanceHistogram(img image.Image) [256]int {
	var hist [256]int
	src := imaging.Clone(img)
	for i := 0; i+3 < len(src.Pix); i += 4 {
		hist[luma(color.NRGBA{R: src.Pix[i], G: src.Pix[i+1], B: src.Pix[i+2]})]++
	}
	return hist
}

// applyLUT remaps each pixel so its luminance becomes lut[luminance],
// scaling the channels together to preserve hue.
func applyLUT(img image.Image, lut *[256]uint8) image.Image {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		l := luma(c)
		target := int(lut[l])
		if l == 0 {
			return color.NRGBA{R: uint8(target), G: uint8(target), B: uint8(target), A: c.A}
		}
		scale := func(v uint8) uint8 {
			return uint8(min(int(v)*target/l, 255))
		}
		return color.NRGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: c.A}
	})
}

// Known returns the recognised names in list, normalised, in order.
func Known(list string) []string {
	var names []string
	for _, name := range strings.Split(list, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, ok := Names[name]; ok {
			names = append(names, name)
		}
	}
	return names
}
