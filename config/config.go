// Package config reads the keyweaver TOML file into an engine.Config plus
// the daemon settings around it.
package config

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml"

	"keyweaver/embeddedConfig"
	"keyweaver/engine"
	"keyweaver/scancodes"
)

type TScanDevices struct {
	Search   string         `default:"/dev/input/event*"`
	Bypass   string         `default:"(?i)Video|Camera|Mouse|Consumer Control|System Control|Power Button|keybd_event"`
	Respawn  int            `default:"30"`
	Grab     bool           `default:"true"`
	BypassRE *regexp.Regexp `toml:"-"`
}

// TTiming values are milliseconds.
type TTiming struct {
	TappingTerm   int `default:"200"`
	QuickTapTerm  int
	FlowTapTerm   int
	ChordTimeout  int `default:"1000"`
	ComboTerm     int `default:"50"`
	ShiftStreak   int `default:"100"`
	StreakTimeout int `default:"240"`
	IdleTimeout   int `default:"600000"`
	Tick          int `default:"5"`
}

// TLighting drives sysfs LEDs. Leds[i] is lit for the key named Keys[i].
type TLighting struct {
	Path      string `default:"/sys/class/leds"`
	Leds      []string
	Keys      []string
	Base      string `default:"#be5400"`
	Indicator string `default:"#000000"`
}

type TSides struct {
	Left  []string
	Right []string
}

// TKey is the long form of a layer binding.
type TKey struct {
	Tap          string
	Hold         string
	Dance        string
	Side         string
	TappingTerm  int
	QuickTapTerm int
	FlowTapTerm  int
	ChordTimeout int
	AlwaysHold   bool
	Instant      bool
	Eager        string
	OneShotHold  bool
}

type TDance struct {
	Taps  []string
	Holds []string
	Term  int
}

type TCombo struct {
	Keys   []string
	Action string
	Layer  string
}

type TOverride struct {
	Trigger     string
	Key         string
	Replacement string
	Negative    string
}

type TAltRepeat struct {
	Unshifted  string
	Shifted    string
	FollowLast bool
}

type TSentenceCase struct {
	Enabled       bool `default:"true"`
	History       int  `default:"16"`
	Abbreviations []string
}

type TCapsWord struct {
	Idle     int `default:"5000"`
	Shift    []string
	Continue []string
}

// TLeader: Timeout restarts with every key of a sequence.
type TLeader struct {
	Timeout int `default:"300"`
}

type TExec struct {
	Timeout  int `default:"5000"`
	MaxReply int `default:"4096"`
}

// Config is a parsed configuration file.
type Config struct {
	ScanDevices TScanDevices
	Timing      TTiming
	Lighting    TLighting
	Exec        TExec
	Engine      engine.Config
	LEDs        []string // sysfs LED names, index is the engine LED index
}

type rawLayer struct {
	name        string
	keys        map[string]interface{}
	passthrough *bool
}

// raw holds the decoded sections until layer names are all known.
type raw struct {
	layers    []rawLayer
	dances    map[string]TDance
	combos    []TCombo
	overrides []TOverride
	altRepeat map[string]interface{}
	sides     TSides
	sentence  TSentenceCase
	capsWord  TCapsWord
	leader    TLeader
	sequences map[string]interface{}
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Config error: unable to read config file:\n%s", err.Error())
	}
	return Parse(data)
}

// Default parses the built-in configuration.
func Default() *Config {
	c, err := Parse([]byte(embeddedConfig.Toml))
	if err != nil {
		panic(err)
	}
	return c
}

// decode runs the Marshal/Unmarshal round trip that turns a generic TOML
// value into a typed section. Unknown keys are errors.
func decode(name string, value interface{}, v interface{}) error {
	b, err := toml.Marshal(value)
	if err == nil {
		err = toml.NewDecoder(bytes.NewReader(b)).Strict(true).Decode(v)
	}
	if err != nil {
		return fmt.Errorf("Config error: unable to parse %s:\n%s", name, err.Error())
	}
	return nil
}

// Parse reads a configuration file body.
func Parse(data []byte) (*Config, error) {
	var conf map[string]interface{}
	if err := toml.Unmarshal(data, &conf); err != nil {
		return nil, fmt.Errorf("Config error: unable to parse config file:\n%s", err.Error())
	}
	if conf == nil {
		conf = map[string]interface{}{}
	}
	// Sections with defaults are decoded even when absent.
	for _, name := range []string{"ScanDevices", "Timing", "Lighting", "Exec", "SentenceCase", "CapsWord", "Leader"} {
		if _, ok := conf[name]; !ok {
			conf[name] = map[string]interface{}{}
		}
	}

	c := &Config{}
	r := raw{dances: map[string]TDance{}}
	for key, value := range conf {
		var err error
		switch key {
		case "ScanDevices":
			if err = decode("[ScanDevices]", value, &c.ScanDevices); err != nil {
				return nil, err
			}
			if c.ScanDevices.BypassRE, err = regexp.Compile(c.ScanDevices.Bypass); err != nil {
				return nil, fmt.Errorf("Config error: unable to parse [ScanDevices]. Invalid regexp for \"Bypass\".\n%s", err.Error())
			}
		case "Timing":
			err = decode("[Timing]", value, &c.Timing)
		case "Lighting":
			err = decode("[Lighting]", value, &c.Lighting)
		case "Exec":
			err = decode("[Exec]", value, &c.Exec)
		case "Sides":
			err = decode("[Sides]", value, &r.sides)
		case "SentenceCase":
			err = decode("[SentenceCase]", value, &r.sentence)
		case "CapsWord":
			err = decode("[CapsWord]", value, &r.capsWord)

		case "Layers":
			t, ok := value.([]map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("Config error: [[Layers]] must be an array of tables")
			}
			for _, v := range t {
				l, err := rawLayerOf(v)
				if err != nil {
					return nil, err
				}
				r.layers = append(r.layers, l)
			}

		case "Dances":
			t, ok := value.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("Config error: [Dances] must consist of \"name = { Taps = [...] }\" peers")
			}
			for name, v := range t {
				d := TDance{}
				if err = decode("[Dances."+name+"]", v, &d); err != nil {
					return nil, err
				}
				r.dances[name] = d
			}

		case "Combos":
			t, ok := value.([]map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("Config error: [[Combos]] must be an array of tables")
			}
			for _, v := range t {
				combo := TCombo{}
				if err = decode("[[Combos]]", v, &combo); err != nil {
					return nil, err
				}
				r.combos = append(r.combos, combo)
			}

		case "Overrides":
			t, ok := value.([]map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("Config error: [[Overrides]] must be an array of tables")
			}
			for _, v := range t {
				o := TOverride{}
				if err = decode("[[Overrides]]", v, &o); err != nil {
					return nil, err
				}
				r.overrides = append(r.overrides, o)
			}

		case "Leader":
			t, ok := value.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("Config error: [Leader] must be a table")
			}
			rest := map[string]interface{}{}
			for k, v := range t {
				if k != "Sequences" {
					rest[k] = v
					continue
				}
				if r.sequences, ok = v.(map[string]interface{}); !ok {
					return nil, fmt.Errorf("Config error: [Leader.Sequences] must consist of \"keys = action\" peers")
				}
			}
			err = decode("[Leader]", rest, &r.leader)

		case "AltRepeat":
			t, ok := value.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("Config error: [AltRepeat] must consist of \"key = action\" peers")
			}
			r.altRepeat = t

		default:
			return nil, fmt.Errorf("Config error: unknown section name [%s]", key)
		}
		if err != nil {
			return nil, err
		}
	}

	if len(r.layers) == 0 {
		return nil, fmt.Errorf("Config error: at least one [[Layers]] table is required")
	}
	if err := c.build(&r); err != nil {
		return nil, err
	}
	return c, nil
}

func rawLayerOf(v map[string]interface{}) (rawLayer, error) {
	l := rawLayer{keys: map[string]interface{}{}}
	for k, val := range v {
		switch k {
		case "Name":
			name, ok := val.(string)
			if !ok {
				return l, fmt.Errorf("Config error: [[Layers]] \"Name\" must be a string")
			}
			l.name = name
		case "Keys":
			keys, ok := val.(map[string]interface{})
			if !ok {
				return l, fmt.Errorf("Config error: [[Layers]] \"Keys\" must be a table")
			}
			l.keys = keys
		case "Passthrough":
			on, ok := val.(bool)
			if !ok {
				return l, fmt.Errorf("Config error: [[Layers]] \"Passthrough\" must be a boolean")
			}
			l.passthrough = &on
		default:
			return l, fmt.Errorf("Config error: unknown key \"%s\" in [[Layers]]", k)
		}
	}
	return l, nil
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// build turns the decoded sections into the engine configuration.
func (c *Config) build(r *raw) error {
	cfg := engine.DefaultConfig()
	t := c.Timing
	cfg.TappingTerm = ms(t.TappingTerm)
	cfg.QuickTapTerm = ms(t.QuickTapTerm)
	cfg.FlowTapTerm = ms(t.FlowTapTerm)
	cfg.ChordTimeout = ms(t.ChordTimeout)
	cfg.ComboTerm = ms(t.ComboTerm)
	cfg.ShiftStreak = ms(t.ShiftStreak)
	cfg.StreakTimeout = ms(t.StreakTimeout)
	cfg.IdleTimeout = ms(t.IdleTimeout)
	cfg.CapsWordIdle = ms(r.capsWord.Idle)
	cfg.LeaderTimeout = ms(r.leader.Timeout)

	cfg.SentenceCase = r.sentence.Enabled
	cfg.HistorySize = r.sentence.History
	if len(r.sentence.Abbreviations) > 0 {
		cfg.Abbreviations = make([]string, len(r.sentence.Abbreviations))
		for i, a := range r.sentence.Abbreviations {
			cfg.Abbreviations[i] = strings.ToLower(a)
		}
	}

	var err error
	if cfg.CapsWord.Shift, err = codes("[CapsWord] Shift", r.capsWord.Shift); err != nil {
		return err
	}
	if cfg.CapsWord.Continue, err = codes("[CapsWord] Continue", r.capsWord.Continue); err != nil {
		return err
	}
	if cfg.BaseColor, err = parseColor(c.Lighting.Base); err != nil {
		return fmt.Errorf("Config error: unable to parse [Lighting] Base:\n%s", err.Error())
	}
	if cfg.IndicatorColor, err = parseColor(c.Lighting.Indicator); err != nil {
		return fmt.Errorf("Config error: unable to parse [Lighting] Indicator:\n%s", err.Error())
	}

	p := &parser{layers: make(map[string]int, len(r.layers)), dances: map[string]*engine.Dance{}}
	for i, l := range r.layers {
		if l.name == "" {
			continue
		}
		if _, dup := p.layers[l.name]; dup {
			return fmt.Errorf("Config error: duplicate layer name \"%s\"", l.name)
		}
		p.layers[l.name] = i
	}
	p.count = len(r.layers)

	for _, name := range sortedKeys(r.dances) {
		d, err := p.dance(r.dances[name])
		if err != nil {
			return fmt.Errorf("Config error: unable to parse [Dances.%s]:\n%s", name, err.Error())
		}
		p.dances[name] = d
	}

	km := &cfg.Keymap
	for i, l := range r.layers {
		layer := engine.Layer{Name: l.name, Keys: make(map[engine.KeyID]*engine.Binding, len(l.keys))}
		if layer.Name == "" {
			layer.Name = strconv.Itoa(i)
		}
		for name, v := range l.keys {
			key, err := keyID(name)
			if err != nil {
				return fmt.Errorf("Config error: layer \"%s\": %s", layer.Name, err.Error())
			}
			b, err := p.binding(v)
			if err != nil {
				return fmt.Errorf("Config error: layer \"%s\" key \"%s\":\n%s", layer.Name, name, err.Error())
			}
			layer.Keys[key] = b
		}
		// The first layer sends unbound keys as themselves unless told not to.
		if l.passthrough == nil && i == 0 || l.passthrough != nil && *l.passthrough {
			for _, code := range scancodes.Known() {
				if _, ok := layer.Keys[engine.KeyID(code)]; !ok {
					layer.Keys[engine.KeyID(code)] = &engine.Binding{Tap: engine.Key(code)}
				}
			}
		}
		km.Layers = append(km.Layers, layer)
	}

	for _, tc := range r.combos {
		combo, err := p.combo(tc)
		if err != nil {
			return fmt.Errorf("Config error: unable to parse [[Combos]] %v:\n%s", tc.Keys, err.Error())
		}
		km.Combos = append(km.Combos, combo)
	}

	for _, seq := range sortedKeys(r.sequences) {
		ls, err := p.leader(seq, r.sequences[seq])
		if err != nil {
			return fmt.Errorf("Config error: unable to parse [Leader.Sequences] \"%s\":\n%s", seq, err.Error())
		}
		km.Leader = append(km.Leader, ls)
	}

	for _, to := range r.overrides {
		o, err := p.override(to)
		if err != nil {
			return fmt.Errorf("Config error: unable to parse [[Overrides]] \"%s\":\n%s", to.Key, err.Error())
		}
		km.Overrides = append(km.Overrides, o)
	}

	for side, names := range map[engine.Side][]string{engine.Left: r.sides.Left, engine.Right: r.sides.Right} {
		for _, name := range names {
			key, err := keyID(name)
			if err != nil {
				return fmt.Errorf("Config error: unable to parse [Sides]: %s", err.Error())
			}
			if km.Sides == nil {
				km.Sides = map[engine.KeyID]engine.Side{}
			}
			km.Sides[key] = side
		}
	}

	if n := len(c.Lighting.Keys); n > 0 {
		if n > len(c.Lighting.Leds) {
			return fmt.Errorf("Config error: [Lighting] has %d Keys but only %d Leds", n, len(c.Lighting.Leds))
		}
		km.LEDs = make(map[engine.KeyID]int, n)
		for i, name := range c.Lighting.Keys {
			key, err := keyID(name)
			if err != nil {
				return fmt.Errorf("Config error: unable to parse [Lighting] Keys: %s", err.Error())
			}
			km.LEDs[key] = i
		}
	}
	c.LEDs = c.Lighting.Leds

	for name, v := range r.altRepeat {
		code, ok := scancodes.ByName(name)
		if !ok {
			return fmt.Errorf("Config error: [AltRepeat] unknown key \"%s\"", name)
		}
		alt, remove, err := p.altRepeat(v)
		if err != nil {
			return fmt.Errorf("Config error: unable to parse [AltRepeat] \"%s\":\n%s", name, err.Error())
		}
		if remove {
			delete(cfg.AltRepeat, code)
			continue
		}
		cfg.AltRepeat[code] = alt
	}

	c.Engine = cfg
	return nil
}

func keyID(name string) (engine.KeyID, error) {
	code, ok := scancodes.ByName(name)
	if !ok {
		return 0, fmt.Errorf("unknown key \"%s\"", name)
	}
	return engine.KeyID(code), nil
}

func codes(what string, names []string) ([]scancodes.Code, error) {
	var out []scancodes.Code
	for _, name := range names {
		code, ok := scancodes.ByName(name)
		if !ok {
			return nil, fmt.Errorf("Config error: %s: unknown key \"%s\"", what, name)
		}
		out = append(out, code)
	}
	return out, nil
}

// parseColor reads "#rrggbb".
func parseColor(s string) (engine.RGB, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return engine.RGB{}, fmt.Errorf("color \"%s\" is not #rrggbb", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return engine.RGB{}, err
	}
	return engine.RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
