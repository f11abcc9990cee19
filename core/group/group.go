// Package group implements the paragraph grouping rule of the continuous
// argumentation method: a flat ordered sequence of typed blocks is folded
// into logical paragraphs that every exporter renders identically.
//
// Title and quote blocks are standalone: each becomes its own unit and
// interrupts any run in progress. Introduction, argument and conclusion
// blocks accumulate into a run that is emitted as a single space-joined
// paragraph. A run that opens on an introduction is Leading (rendered with
// a first-line indent); any other run is Continuation. A standalone unit
// resets run state entirely, so the style of the run after a quote or title
// is decided by that run's own first block, never inherited from before the
// interruption.
package group

import (
	"strings"

	"github.com/tacwriter/tac/core/model"
)

// Style classifies a grouped unit for rendering.
type Style int

const (
	// Leading is a run that opened on an introduction block.
	Leading Style = iota
	// Continuation is a run that opened on an argument or conclusion block.
	Continuation
	// StandaloneTitle1 is a single main title block.
	StandaloneTitle1
	// StandaloneTitle2 is a single subtitle block.
	StandaloneTitle2
	// StandaloneQuote is a single quote block.
	StandaloneQuote
)

func (s Style) String() string {
	switch s {
	case Leading:
		return "leading"
	case Continuation:
		return "continuation"
	case StandaloneTitle1:
		return "title_1"
	case StandaloneTitle2:
		return "title_2"
	case StandaloneQuote:
		return "quote"
	}
	return "unknown"
}

// Standalone reports whether the unit is a title or quote rather than a run.
func (s Style) Standalone() bool {
	return s == StandaloneTitle1 || s == StandaloneTitle2 || s == StandaloneQuote
}

// Unit is one logical paragraph produced by folding.
type Unit struct {
	Style Style
	Text  string
}

// standalone reports whether a block type interrupts runs. The switch is
// exhaustive over model.BlockType.
func standalone(t model.BlockType) (Style, bool) {
	switch t {
	case model.Title1:
		return StandaloneTitle1, true
	case model.Title2:
		return StandaloneTitle2, true
	case model.Quote:
		return StandaloneQuote, true
	case model.Introduction, model.Argument, model.Conclusion:
		return 0, false
	}
	return 0, false
}

// Fold walks the blocks in order and produces the grouped units. It is pure
// and deterministic: the same input always yields the same output.
func Fold(blocks []*model.Block) []Unit {
	var units []Unit
	var run []string
	runStyle := Continuation

	flush := func() {
		if len(run) == 0 {
			return
		}
		units = append(units, Unit{Style: runStyle, Text: strings.Join(run, " ")})
		run = nil
		runStyle = Continuation
	}

	for _, b := range blocks {
		if st, ok := standalone(b.Type); ok {
			flush()
			units = append(units, Unit{Style: st, Text: b.Content})
			continue
		}

		// An introduction always opens a fresh run, closing the current one.
		if b.Type == model.Introduction {
			flush()
		}
		if len(run) == 0 {
			if b.Type == model.Introduction {
				runStyle = Leading
			} else {
				runStyle = Continuation
			}
		}
		run = append(run, strings.TrimSpace(b.Content))
	}
	flush()

	return units
}
