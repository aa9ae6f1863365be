package progress

import (
	"fmt"
	"math"
	"os"
	"strings"
	"sync/atomic"

	"golang.org/x/term"
)

// Bar tracks a bounded count, such as files read out of files discovered.
type Bar struct {
	message string
	unit    string

	maxValue     int64
	currentValue atomic.Int64
}

// NewBar returns a bar counting from zero to maxValue. unit names what is
// being counted and shows in the suffix, e.g. "files".
func NewBar(message, unit string, maxValue int64) *Bar {
	return &Bar{
		message:  message,
		unit:     unit,
		maxValue: maxValue,
	}
}

func (b *Bar) Set(value int64) {
	if value > b.maxValue {
		value = b.maxValue
	}

	b.currentValue.Store(value)
}

func (b *Bar) Inc() {
	if b.currentValue.Add(1) > b.maxValue {
		b.currentValue.Store(b.maxValue)
	}
}

func (b *Bar) String() string {
	termWidth, _, err := term.GetSize(int(os.Stderr.Fd()))
	if err != nil {
		termWidth = 80
	}

	var pre, mid, suf strings.Builder

	if b.message != "" {
		pre.WriteString(strings.TrimSpace(b.message))
		pre.WriteString(" ")
	}

	fmt.Fprintf(&pre, "%3.0f%% ", math.Floor(b.percent()))
	fmt.Fprintf(&suf, " (%d/%d %s)", b.currentValue.Load(), b.maxValue, b.unit)

	// 2 boundary characters
	f := termWidth - pre.Len() - suf.Len() - 2
	n := int(float64(f) * b.percent() / 100)

	if f > 0 {
		mid.WriteString("▕")
		mid.WriteString(strings.Repeat("█", n))
		if f-n > 0 {
			mid.WriteString(strings.Repeat(" ", f-n))
		}
		mid.WriteString("▏")
	}

	return pre.String() + mid.String() + suf.String()
}

func (b *Bar) percent() float64 {
	if b.maxValue > 0 {
		return float64(b.currentValue.Load()) / float64(b.maxValue) * 100
	}

	return 0
}
