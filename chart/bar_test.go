package chart

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestRenderSVG(t *testing.T) {
	var buf bytes.Buffer
	bars := []Bar{{Label: "Bandeng", Value: 10}, {Label: "Lele", Value: 10}, {Label: "Nila", Value: 80}}
	if err := Render(&buf, bars, DefaultOptions()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svg := buf.String()
	if !strings.Contains(svg, "<svg") {
		t.Fatalf("expected svg output, got %q", svg[:min(len(svg), 80)])
	}
	for _, label := range []string{"Bandeng", "Lele", "Nila", "Spesies Ikan"} {
		if !strings.Contains(svg, label) {
			t.Fatalf("expected %q in chart", label)
		}
	}
}

func TestRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Format = FormatPNG
	if err := Render(&buf, []Bar{{Label: "Nila", Value: 100}}, opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Fatal("expected png header")
	}
}

func TestRenderNoBars(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, nil, DefaultOptions()); !errors.Is(err, ErrNoBars) {
		t.Fatalf("expected ErrNoBars, got %v", err)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Format = "gif"
	if err := Render(&buf, []Bar{{Label: "Nila", Value: 1}}, opts); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestContentType(t *testing.T) {
	if ContentType(FormatPNG) != "image/png" || ContentType(FormatSVG) != "image/svg+xml" {
		t.Fatal("unexpected content types")
	}
}

func TestRenderSVGEscapesLabels(t *testing.T) {
	var buf bytes.Buffer
	bars := []Bar{{Label: "Kakap&<Merah>", Value: 60}, {Label: "Nila", Value: 40}}
	if err := Render(&buf, bars, DefaultOptions()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svg := buf.String()
	if strings.Contains(svg, "<Merah>") || strings.Contains(svg, "Kakap&<") {
		t.Fatal("label markup must be escaped in svg output")
	}
	if !strings.Contains(svg, "Kakap&amp;&lt;Merah&gt;") {
		t.Fatal("expected escaped label in svg output")
	}
}

func TestClampPercent(t *testing.T) {
	cases := map[float64]float64{
		-5:      0,
		0:       0,
		12.346:  12.35,
		3.125:   3.12,
		100:     100,
		150.5:   100,
		99.9999: 100,
	}
	for in, want := range cases {
		if got := clampPercent(in); got != want {
			t.Fatalf("clampPercent(%v) = %v, want %v", in, got, want)
		}
	}
}
