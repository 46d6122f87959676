package config

import (
	"fmt"
	"strconv"
	"strings"

	"keyweaver/engine"
	"keyweaver/scancodes"
)

// Modifier groups on top of the key names. Generic names such as "Shift"
// resolve to the left hand key; overrides match either side anyway.
var modNames = map[string]scancodes.Mods{
	"Meh":   scancodes.ModLCtrl | scancodes.ModLShift | scancodes.ModLAlt,
	"Hyper": scancodes.ModLCtrl | scancodes.ModLShift | scancodes.ModLAlt | scancodes.ModLGui,
}

type parser struct {
	layers map[string]int
	count  int
	dances map[string]*engine.Dance
}

// ParseAction reads one action string. layers names the layers by index.
func ParseAction(s string, layers []string) (engine.Action, error) {
	p := &parser{layers: make(map[string]int, len(layers)), count: len(layers)}
	for i, name := range layers {
		p.layers[name] = i
	}
	return p.action(s)
}

func (p *parser) layer(name string) (int, error) {
	if n, ok := p.layers[name]; ok {
		return n, nil
	}
	if n, err := strconv.Atoi(name); err == nil && n >= 0 && n < p.count {
		return n, nil
	}
	return 0, fmt.Errorf("unknown layer \"%s\"", name)
}

func (p *parser) action(s string) (engine.Action, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return nil, nil
	case "clear":
		return engine.LayerAction{Mode: engine.LayerClear}, nil
	case "layerlock":
		return engine.LayerAction{Mode: engine.LayerLock}, nil
	case "leader":
		return engine.LeaderAction{}, nil
	case "capsword":
		return engine.CapsWordAction{}, nil
	case "repeat":
		return engine.RepeatAction{}, nil
	case "altrepeat":
		return engine.RepeatAction{Alternate: true}, nil
	}

	if kind, arg, ok := strings.Cut(s, ":"); ok && kind != "" {
		switch kind {
		case "osm":
			mods, err := parseMods(arg)
			if err != nil {
				return nil, err
			}
			return engine.ModAction{Mods: mods, OneShot: true}, nil
		case "layer", "tg", "osl":
			n, err := p.layer(arg)
			if err != nil {
				return nil, err
			}
			mode := engine.LayerMomentary
			if kind == "tg" {
				mode = engine.LayerToggle
			} else if kind == "osl" {
				mode = engine.LayerOneShot
			}
			return engine.LayerAction{Layer: n, Mode: mode}, nil
		case "text":
			if arg == "" {
				return nil, fmt.Errorf("empty text")
			}
			return engine.MacroAction{Text: arg}, nil
		case "accent":
			return parseAccent(arg)
		case "rgb":
			switch arg {
			case "toggle":
				return engine.LightingAction{Op: engine.LightingToggle}, nil
			case "reset":
				return engine.LightingAction{Op: engine.LightingReset}, nil
			}
			return nil, fmt.Errorf("unknown lighting operation \"%s\"", arg)
		case "exec":
			if strings.TrimSpace(arg) == "" {
				return nil, fmt.Errorf("empty command")
			}
			return engine.ExecAction{Command: arg}, nil
		}
	}

	stroke, err := parseStroke(s)
	if err != nil {
		return nil, err
	}
	if stroke.Code == 0 {
		return engine.ModAction{Mods: stroke.Mods}, nil
	}
	return engine.KeyAction{Stroke: stroke}, nil
}

// parseStroke reads one chord: "A", "LGui+LShift+4", "Hyper+U".
func parseStroke(s string) (scancodes.Stroke, error) {
	var stroke scancodes.Stroke
	var keys []string
	for _, part := range strings.Split(s, "+") {
		if m, ok := modNames[part]; ok {
			stroke.Mods |= m
			continue
		}
		keys = append(keys, part)
	}
	if len(keys) > 0 {
		strokes, err := scancodes.ForSequence(strings.Join(keys, "+"))
		if err != nil {
			return stroke, err
		}
		if len(strokes) != 1 {
			return stroke, fmt.Errorf("\"%s\" is not a single chord", s)
		}
		stroke.Code = strokes[0].Code
		stroke.Mods |= strokes[0].Mods
	}
	if stroke.Code == 0 && stroke.Mods == 0 {
		return stroke, fmt.Errorf("empty chord \"%s\"", s)
	}
	return stroke, nil
}

// parseMods reads a modifier-only chord.
func parseMods(s string) (scancodes.Mods, error) {
	if s == "" {
		return 0, nil
	}
	stroke, err := parseStroke(s)
	if err != nil {
		return 0, err
	}
	if stroke.Code != 0 {
		return 0, fmt.Errorf("\"%s\" is not a modifier", s)
	}
	return stroke.Mods, nil
}

// parseAccent reads "<mark chord> <letter>", e.g. "LShift+` A".
func parseAccent(arg string) (engine.Action, error) {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		return nil, fmt.Errorf("accent wants a mark and a letter, got \"%s\"", arg)
	}
	mark, err := parseStroke(fields[0])
	if err != nil {
		return nil, err
	}
	if mark.Code == 0 {
		return nil, fmt.Errorf("accent mark \"%s\" has no key", fields[0])
	}
	letter, ok := scancodes.ByName(fields[1])
	if !ok || !scancodes.IsLetter(letter) {
		return nil, fmt.Errorf("accent letter \"%s\" is not a letter key", fields[1])
	}
	return engine.AccentAction{Mark: mark, Letter: letter}, nil
}

func parseSide(s string) (engine.Side, error) {
	switch strings.ToLower(s) {
	case "":
		return engine.Neutral, nil
	case "l", "left":
		return engine.Left, nil
	case "r", "right":
		return engine.Right, nil
	case "*", "neutral":
		return engine.Neutral, nil
	}
	return engine.Neutral, fmt.Errorf("unknown side \"%s\"", s)
}

// binding reads a layer entry: an action string, "dance:<name>", "none" or
// a long form table.
func (p *parser) binding(v interface{}) (*engine.Binding, error) {
	switch t := v.(type) {
	case string:
		if t == "none" {
			return &engine.Binding{}, nil
		}
		if name, ok := strings.CutPrefix(t, "dance:"); ok {
			return p.danceBinding(name)
		}
		a, err := p.action(t)
		if err != nil {
			return nil, err
		}
		if a == nil {
			return nil, fmt.Errorf("empty binding")
		}
		return &engine.Binding{Tap: a}, nil
	case map[string]interface{}:
		k := TKey{}
		if err := decode("key", t, &k); err != nil {
			return nil, err
		}
		return p.keyBinding(k)
	}
	return nil, fmt.Errorf("binding must be a string or a table")
}

func (p *parser) danceBinding(name string) (*engine.Binding, error) {
	d, ok := p.dances[name]
	if !ok {
		return nil, fmt.Errorf("unknown dance \"%s\"", name)
	}
	return &engine.Binding{Dance: d}, nil
}

func (p *parser) keyBinding(k TKey) (*engine.Binding, error) {
	b := &engine.Binding{}
	if k.Dance != "" {
		d, err := p.danceBinding(k.Dance)
		if err != nil {
			return nil, err
		}
		b = d
	}
	var err error
	if b.Tap, err = p.action(k.Tap); err != nil {
		return nil, fmt.Errorf("Tap: %s", err.Error())
	}
	if b.Hold, err = p.action(k.Hold); err != nil {
		return nil, fmt.Errorf("Hold: %s", err.Error())
	}
	if b.Side, err = parseSide(k.Side); err != nil {
		return nil, err
	}
	if b.Eager, err = parseMods(k.Eager); err != nil {
		return nil, fmt.Errorf("Eager: %s", err.Error())
	}
	if b.Eager != 0 {
		if h, ok := b.Hold.(engine.ModAction); !ok || b.Eager&^h.Mods != 0 {
			return nil, fmt.Errorf("Eager mods must be part of the Hold modifiers")
		}
	}
	b.TappingTerm = ms(k.TappingTerm)
	b.QuickTapTerm = ms(k.QuickTapTerm)
	b.FlowTapTerm = ms(k.FlowTapTerm)
	b.ChordTimeout = ms(k.ChordTimeout)
	b.AlwaysHold = k.AlwaysHold
	b.Instant = k.Instant
	b.OneShotHold = k.OneShotHold
	if b.OneShotHold {
		if _, ok := b.Hold.(engine.ModAction); !ok {
			return nil, fmt.Errorf("OneShotHold needs a modifier Hold")
		}
	}
	return b, nil
}

func (p *parser) dance(t TDance) (*engine.Dance, error) {
	d := &engine.Dance{Term: ms(t.Term)}
	for i, s := range t.Taps {
		a, err := p.action(s)
		if err != nil {
			return nil, fmt.Errorf("Taps[%d]: %s", i, err.Error())
		}
		d.Taps = append(d.Taps, a)
	}
	for i, s := range t.Holds {
		a, err := p.action(s)
		if err != nil {
			return nil, fmt.Errorf("Holds[%d]: %s", i, err.Error())
		}
		d.Holds = append(d.Holds, a)
	}
	if len(d.Taps) == 0 && len(d.Holds) == 0 {
		return nil, fmt.Errorf("dance has no actions")
	}
	return d, nil
}

func (p *parser) combo(t TCombo) (engine.Combo, error) {
	c := engine.Combo{}
	if len(t.Keys) < 2 {
		return c, fmt.Errorf("a combo needs at least two keys")
	}
	seen := map[engine.KeyID]bool{}
	for _, name := range t.Keys {
		key, err := keyID(name)
		if err != nil {
			return c, err
		}
		if seen[key] {
			return c, fmt.Errorf("key \"%s\" listed twice", name)
		}
		seen[key] = true
		c.Keys = append(c.Keys, key)
	}
	var err error
	if c.Action, err = p.action(t.Action); err != nil {
		return c, err
	}
	if c.Action == nil {
		return c, fmt.Errorf("combo has no action")
	}
	if t.Layer != "" {
		if c.Layer, err = p.layer(t.Layer); err != nil {
			return c, err
		}
	}
	return c, nil
}

// leader reads one "[Leader.Sequences]" entry: key names separated by
// spaces, then the action.
func (p *parser) leader(seq string, v interface{}) (engine.LeaderSequence, error) {
	ls := engine.LeaderSequence{}
	names := strings.Fields(seq)
	if len(names) == 0 {
		return ls, fmt.Errorf("empty sequence")
	}
	for _, name := range names {
		key, err := keyID(name)
		if err != nil {
			return ls, err
		}
		ls.Keys = append(ls.Keys, key)
	}
	s, ok := v.(string)
	if !ok {
		return ls, fmt.Errorf("action must be a string")
	}
	var err error
	if ls.Action, err = p.action(s); err != nil {
		return ls, err
	}
	if ls.Action == nil {
		return ls, fmt.Errorf("sequence has no action")
	}
	return ls, nil
}

func (p *parser) override(t TOverride) (engine.Override, error) {
	o := engine.Override{}
	var err error
	if o.Trigger, err = parseMods(t.Trigger); err != nil {
		return o, err
	}
	if o.Trigger == 0 {
		return o, fmt.Errorf("override needs a Trigger")
	}
	if o.Negative, err = parseMods(t.Negative); err != nil {
		return o, err
	}
	code, ok := scancodes.ByName(t.Key)
	if !ok {
		return o, fmt.Errorf("unknown key \"%s\"", t.Key)
	}
	o.Key = code
	if o.Replacement, err = parseStroke(t.Replacement); err != nil {
		return o, err
	}
	return o, nil
}

// altRepeat reads a string (unshifted only, "" removes the built-in entry)
// or a table.
func (p *parser) altRepeat(v interface{}) (engine.AltRepeat, bool, error) {
	alt := engine.AltRepeat{}
	var err error
	switch t := v.(type) {
	case string:
		if t == "" {
			return alt, true, nil
		}
		alt.Unshifted, err = p.action(t)
		return alt, false, err
	case map[string]interface{}:
		ta := TAltRepeat{}
		if err = decode("[AltRepeat]", t, &ta); err != nil {
			return alt, false, err
		}
		if alt.Unshifted, err = p.action(ta.Unshifted); err != nil {
			return alt, false, err
		}
		if alt.Shifted, err = p.action(ta.Shifted); err != nil {
			return alt, false, err
		}
		alt.FollowLast = ta.FollowLast
		return alt, false, nil
	}
	return alt, false, fmt.Errorf("alternate must be a string or a table")
}
