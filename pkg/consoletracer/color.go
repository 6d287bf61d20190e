// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package consoletracer

import (
	"github.com/fatih/color"

	"github.com/efficios/go-side/pkg/side"
)

type ColorMode string

const (
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
	ColorAuto   ColorMode = "auto"
)

type Colorer struct {
	Colors  []*color.Color
	Red     *color.Color
	Green   *color.Color
	Blue    *color.Color
	Cyan    *color.Color
	Magenta *color.Color
	Yellow  *color.Color
}

func NewColorer(when ColorMode) *Colorer {
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	blue := color.New(color.FgBlue)
	cyan := color.New(color.FgCyan)
	magenta := color.New(color.FgMagenta)
	yellow := color.New(color.FgYellow)

	c := &Colorer{
		Red:     red,
		Green:   green,
		Blue:    blue,
		Cyan:    cyan,
		Magenta: magenta,
		Yellow:  yellow,
	}

	c.Colors = []*color.Color{
		red, green, blue,
		cyan, magenta, yellow,
	}
	switch when {
	case ColorAlways:
		c.enable()
	case ColorNever:
		c.disable()
	case ColorAuto:
		c.auto()
	}
	return c
}

func (c *Colorer) auto() {
	for _, v := range c.Colors {
		if color.NoColor { // NoColor is global and set dynamically
			v.DisableColor()
		} else {
			v.EnableColor()
		}
	}
}

func (c *Colorer) enable() {
	for _, v := range c.Colors {
		v.EnableColor()
	}
}

func (c *Colorer) disable() {
	for _, v := range c.Colors {
		v.DisableColor()
	}
}

// Event picks the header color of one emission from its loglevel.
func (c *Colorer) Event(l side.Loglevel) *color.Color {
	switch l {
	case side.LoglevelEmerg, side.LoglevelAlert, side.LoglevelCrit, side.LoglevelErr:
		return c.Red
	case side.LoglevelWarning:
		return c.Yellow
	case side.LoglevelNotice, side.LoglevelInfo:
		return c.Green
	default:
		return c.Cyan
	}
}
