package main

import (
	"bytes"
	"math"

	"github.com/fogleman/gg"
)

const (
	mapImageMaxDim = 800.0
	mapImagePad    = 12.0
)

// RenderMapPNG draws a top-down overview of a world: walls, doors in their
// lock colors, uncollected keys and items, and player positions. The caller
// must hold the game lock while the world is read.
func RenderMapPNG(w *World) ([]byte, error) {
	scale := mapImageMaxDim / math.Max(w.width, w.height)
	imgW := int(w.width*scale + 2*mapImagePad)
	imgH := int(w.height*scale + 2*mapImagePad)

	px := func(x float64) float64 { return mapImagePad + x*scale }
	py := func(y float64) float64 { return mapImagePad + y*scale }

	dc := gg.NewContext(imgW, imgH)
	dc.SetHexColor("#0c0c1c")
	dc.Clear()

	for _, a := range w.asteroids {
		dc.SetHexColor("#2a2e44")
		dc.DrawCircle(px(a.X), py(a.Y), a.Radius*scale)
		dc.Fill()
	}

	for _, ws := range w.walls {
		if ws.Door {
			hex := lockColorHex[ws.Color]
			if ws.Open {
				// opened doors stay visible but faded
				hex += "44"
			}
			dc.SetHexColor(hex)
			dc.SetLineWidth(3)
		} else {
			dc.SetHexColor("#3a3f58")
			dc.SetLineWidth(2)
		}
		dc.DrawLine(px(ws.X1), py(ws.Y1), px(ws.X2), py(ws.Y2))
		dc.Stroke()
	}

	for _, k := range w.keys {
		if k.Taken {
			continue
		}
		dc.SetHexColor(lockColorHex[k.Color])
		dc.DrawCircle(px(k.X), py(k.Y), 4)
		dc.Fill()
	}

	for _, it := range w.items {
		if it.Taken {
			continue
		}
		dc.SetHexColor("#e8e8f0")
		dc.DrawRectangle(px(it.X)-3, py(it.Y)-3, 6, 6)
		dc.Fill()
	}

	for _, p := range w.players {
		dc.SetHexColor(playerPalette[p.Color%len(playerPalette)])
		dc.DrawCircle(px(p.X), py(p.Y), 5)
		dc.Fill()
		dc.SetHexColor("#ffffff")
		dc.SetLineWidth(1)
		dc.DrawCircle(px(p.X), py(p.Y), 5)
		dc.Stroke()
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
