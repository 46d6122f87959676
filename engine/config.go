package engine

import (
	"time"

	"keyweaver/scancodes"
)

// Keymap is the static layout: layers, combos, overrides, leader sequences
// and the key to LED mapping used for layer indicators. Sides is the
// handedness of keys whose bindings do not name one.
type Keymap struct {
	Layers    []Layer
	Combos    []Combo
	Overrides []Override
	Leader    []LeaderSequence
	LEDs      map[KeyID]int
	Sides     map[KeyID]Side
}

// CapsWordKeys extends the built-in Caps Word rules.
type CapsWordKeys struct {
	Shift    []scancodes.Code // shifted and continue
	Continue []scancodes.Code // continue unshifted
}

// Config holds everything the engine is tuned by.
type Config struct {
	Keymap Keymap

	TappingTerm   time.Duration
	QuickTapTerm  time.Duration
	FlowTapTerm   time.Duration
	ChordTimeout  time.Duration
	ComboTerm     time.Duration
	ShiftStreak   time.Duration // typing streak for shift-only mod-taps
	StreakTimeout time.Duration // typing streak for other mod-taps
	CapsWordIdle  time.Duration
	IdleTimeout   time.Duration
	LeaderTimeout time.Duration // restarted by every key of a sequence

	HistorySize   int
	Abbreviations []string
	SentenceCase  bool

	CapsWord  CapsWordKeys
	AltRepeat map[scancodes.Code]AltRepeat

	BaseColor      RGB
	IndicatorColor RGB
}

// DefaultAbbreviations are endings that do not close a sentence.
var DefaultAbbreviations = []string{
	"vs.", "etc.", "no.", "eng.", "e.g.", "a.c.", "a.m.", "abr.", "ago.", "art.",
	"av.", "bros.", "cap.", "cf.", "d.", "d.c.", "dez.", "docs.", "dom.", "dr.",
	"dra.", "ex.", "exa.", "exma.", "exmo.", "fax.", "fem.", "fev.", "fig.", "fl.",
	"freg.", "h.", "ibid.", "id.", "ilma.", "ilmo.", "jan.", "jr.", "jul.", "jun.",
	"lda.", "ltda.", "mar.", "masc.", "mons.", "ms.", "mto.", "nov.", "obg.", "op.",
	"out.", "p.ex.", "p.f.", "p.m.", "p.p.", "pe.", "pg.", "pov.", "pp.", "prof.",
	"qa.", "qua.", "qui.", "r.", "ref.", "rev.", "revdo.", "s.f.f.", "sab.", "seg.",
	"set.", "sex.", "sr.", "sra.", "srta.", "sta.", "sto.", "tel.", "ter.", "tim.",
	"tlm.", "v.", "vd.", "misc.",
}

func DefaultConfig() Config {
	return Config{
		TappingTerm:   200 * time.Millisecond,
		ChordTimeout:  time.Second,
		ComboTerm:     50 * time.Millisecond,
		ShiftStreak:   100 * time.Millisecond,
		StreakTimeout: 240 * time.Millisecond,
		CapsWordIdle:  5 * time.Second,
		LeaderTimeout: 300 * time.Millisecond,
		IdleTimeout:   10 * time.Minute,
		HistorySize:   16,
		Abbreviations: DefaultAbbreviations,
		SentenceCase:  true,
		AltRepeat:     DefaultAltRepeat(),
		BaseColor:     RGB{R: 190, G: 84},
	}
}

func pick(local, global time.Duration) time.Duration {
	if local > 0 {
		return local
	}
	return global
}
