package normalize

import "unicode"

// Table extraction sometimes interleaves characters from adjacent cells,
// producing text that alternates between ideographs and syllabic kana far
// more often than real Japanese does. Real place names are nearly pure Han
// with at most one kana run; corrupted ones flip back and forth.

type scriptClass int

const (
	classOther scriptClass = iota
	classHan
	classKana
)

const (
	// Han↔kana transitions at or above this count mark interleaving.
	garbleTransitionThreshold = 4
	// A kana run this short, repeated, is the sparse-kana signature.
	garbleShortRunLength = 1
	garbleShortRunCount  = 3
)

func classify(r rune) scriptClass {
	switch {
	case unicode.In(r, unicode.Han):
		return classHan
	case unicode.In(r, unicode.Hiragana, unicode.Katakana):
		return classKana
	default:
		return classOther
	}
}

// LooksGarbled reports whether s matches the interleaving-corruption
// heuristic: either many Han↔kana alternations, or several isolated single
// kana scattered among ideographs.
func LooksGarbled(s string) bool {
	var (
		prev        scriptClass
		transitions int
		runLen      int
		shortRuns   int
		sawHan      bool
	)

	flushRun := func(class scriptClass) {
		if class == classKana && runLen > 0 && runLen <= garbleShortRunLength {
			shortRuns++
		}
		runLen = 0
	}

	for _, r := range s {
		class := classify(r)
		if class == classHan {
			sawHan = true
		}
		if class != prev {
			if (prev == classHan && class == classKana) || (prev == classKana && class == classHan) {
				transitions++
			}
			flushRun(prev)
		}
		if class == classKana {
			runLen++
		}
		prev = class
	}
	flushRun(prev)

	if transitions >= garbleTransitionThreshold {
		return true
	}
	// Sparse kana only signals corruption when ideographs dominate.
	return sawHan && shortRuns >= garbleShortRunCount
}
