package tesseract

import (
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

const engineName = "tesseract"

// errNoTextLines is returned when an hOCR document has no usable ocr_line
var errNoTextLines = stderrors.New("no text lines with a baseline")

// lineAngle is the clockwise rotation of one text line in degrees, derived
// from its hOCR title. textangle is counterclockwise; baseline slope is in
// image coordinates so a positive slope descends to the right.
func lineAngle(title string) (float64, bool) {
	var slope, textAngle float64
	hasBaseline := false

	for _, prop := range strings.Split(title, ";") {
		fields := strings.Fields(prop)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "baseline":
			s, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return 0, false
			}
			slope, hasBaseline = s, true
		case "textangle":
			a, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return 0, false
			}
			textAngle = a
		}
	}
	if !hasBaseline {
		return 0, false
	}

	return normalizeDegrees(-textAngle + math.Atan(slope)*180/math.Pi), true
}

// normalizeDegrees maps a into (-180, 180]
func normalizeDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a > 180 {
		a -= 360
	} else if a <= -180 {
		a += 360
	}
	return a
}

// hocrAngle returns the median line angle of an hOCR document
func hocrAngle(r io.Reader) (float64, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return 0, fmt.Errorf("parse hOCR: %w", err)
	}

	var angles []float64
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "ocr_line") {
			if a, ok := lineAngle(attr(n, "title")); ok {
				angles = append(angles, a)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(angles) == 0 {
		return 0, errNoTextLines
	}

	sort.Float64s(angles)
	mid := len(angles) / 2
	if len(angles)%2 == 1 {
		return angles[mid], nil
	}
	return (angles[mid-1] + angles[mid]) / 2, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
