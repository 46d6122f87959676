package main
/*
 keyweaver v1.0
 Keyboard behavior daemon for linux: tap/hold keys, tap dances, combos,
 layers, Caps Word, Sentence Case and friends on any evdev keyboard.
/////////////////////////////////////////////////////////////////////////////
 Copyright (C) 2020-2021 Dmitry Svyatogorov ds@vo-ix.ru
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU Affero General Public License as
    published by the Free Software Foundation, either version 3 of the
    License, or (at your option) any later version.
    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU Affero General Public License for more details.
    You should have received a copy of the GNU Affero General Public License
    along with this program.  If not, see <http://www.gnu.org/licenses/>.
/////////////////////////////////////////////////////////////////////////////

  The physical keyboards are grabbed, so nothing reaches the desktop but what
the engine types on the virtual keyboard.

!!! This is in fact the low-level keylogger together with the virtual keyboard. !!!
  So, it must have the root privileges (or the "input" group plus /dev/uinput).

  Look "keyweaver.conf" config file for details.

Referrers:
 https://www.kernel.org/doc/html/latest/input/event-codes.html
 https://www.kernel.org/doc/html/latest/input/uinput.html
 https://www.kernel.org/doc/html/latest/leds/leds-class.html
*/

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	flag "github.com/spf13/pflag" // CLI keys like python's "argparse"

	"keyweaver/config"
	"keyweaver/embeddedConfig"
	"keyweaver/engine"
	"keyweaver/exec"
	"keyweaver/scancodes"
)

const (
	DAEMON_NAME = "keyweaver"
)

// Scan-codes, stamped on arrival with the daemon's monotonic clock.
type t_key struct {
	code  uint16
	value int32 // 1=press 2=repeat 0=release
	at    time.Duration
}

var (
	CONFIG_PATH string = "/etc/keyweaver/keyweaver.conf"

	debug bool
	DEBUG *bool = &debug

	verbose bool
	VERBOSE *bool = &verbose

	test_mode bool
	TEST_MODE *bool = &test_mode

	// Config
	CONF *config.Config

	// Monotonic origin of engine time
	START = time.Now()

	// Shared t_key queue (it's ok to share *buffered* channels *writes*)
	keyboardEvents = make(chan t_key, 64)
	// Reload requests from the file watcher and SIGHUP
	reloads = make(chan struct{}, 1)

	EXEC_ID uint64
)

func since() time.Duration {
	return time.Since(START)
}

func logNotice(format string, args ...interface{}) {
	if *VERBOSE || *DEBUG {
		log.Printf(format, args...)
	}
}

func logDebug(format string, args ...interface{}) {
	if *DEBUG {
		log.Printf(format, args...)
	}
}

// flags reads the CLI keys, with environment fallbacks.
func flags(args []string) {
	config_path := &CONFIG_PATH

	if env_config, ok := os.LookupEnv("CONFIG"); ok {
		*config_path = env_config
	}
	_, *DEBUG = os.LookupEnv("DEBUG")
	_, *VERBOSE = os.LookupEnv("VERBOSE")
	_, *TEST_MODE = os.LookupEnv("TEST")

	F := flag.NewFlagSet("", flag.ContinueOnError)
	config_path = F.StringP("conf", "c", *config_path, "Non-default config location")
	DEBUG = F.BoolP("debug", "d", *DEBUG, "Debug log level")
	VERBOSE = F.BoolP("verbose", "v", *VERBOSE, "Increase log level to NOTICE")
	TEST_MODE = F.BoolP("test", "t", *TEST_MODE, "Only output all key events to STDERR. No grabbing, no actions.")
	F.Init(DAEMON_NAME, flag.ExitOnError)
	F.Parse(args)
	CONFIG_PATH = *config_path
}

// loadConfig reads path, falling back to the built-in config when the file
// can't be read. A file that can be read but not parsed is an error.
func loadConfig(path string) (*config.Config, error) {
	conf_, err := os.ReadFile(path)
	if err != nil {
		fmt.Println(fmt.Errorf("Config error: unable to read config file:\n%s", err.Error()))
		fmt.Println("* Using defaults!")
		conf_ = []byte(embeddedConfig.Toml)
	}
	if *DEBUG {
		fmt.Println(string(conf_))
	}
	return config.Parse(conf_)
}

// runExec is the engine's Exec hook. It must not block the serve loop.
func runExec(ctx context.Context) func(string) {
	return func(line string) {
		c := exec.Command{
			ID:       strconv.FormatUint(atomic.AddUint64(&EXEC_ID, 1), 10),
			Line:     line,
			Timeout:  time.Duration(CONF.Exec.Timeout) * time.Millisecond,
			MaxReply: int64(CONF.Exec.MaxReply),
		}
		go func() {
			r := exec.Run(ctx, c)
			if r.Status != 0 {
				log.Printf("%s\n%s", r, r.StdErr)
				return
			}
			logNotice("%s", r)
			logDebug("%s", r.StdOut)
		}()
	}
}

func onResolve(key engine.KeyID, res engine.Resolution) {
	logDebug("%s: %s", scancodes.Name(scancodes.Code(key)), res)
}

func serve(ctx context.Context, e *engine.Engine, devs *devices) {
	period := time.Duration(CONF.Timing.Tick) * time.Millisecond
	if period <= 0 {
		period = 5 * time.Millisecond
	}
	tick := time.NewTicker(period)
	defer tick.Stop()
	var rescan <-chan time.Time // nil: never
	if CONF.ScanDevices.Respawn > 0 {
		t := time.NewTicker(time.Duration(CONF.ScanDevices.Respawn) * time.Second)
		defer t.Stop()
		rescan = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-keyboardEvents:
			if *TEST_MODE {
				fmt.Fprintf(os.Stderr, ",%s:%d", scancodes.Name(scancodes.Code(event.code)), event.value)
				continue
			}
			if event.value == 2 { // autorepeat is the host's business
				continue
			}
			e.Handle(engine.KeyEvent{Key: engine.KeyID(event.code), Pressed: event.value == 1, Time: event.at})
		case <-tick.C:
			if e != nil {
				e.Tick(since())
			}
		case <-rescan:
			devs.scan()
		case <-reloads:
			if e == nil {
				continue
			}
			if err := reloadConfig(e, devs); err != nil {
				log.Printf("%s\n* Keeping the running config.", err)
			}
		}
	}
}

// reloadConfig swaps in CONFIG_PATH: keymap and timing, the LED set, and the
// device rules. The rescan period keeps its startup value.
func reloadConfig(e *engine.Engine, devs *devices) error {
	conf, err := config.Load(CONFIG_PATH)
	if err != nil {
		return err
	}
	CONF = conf
	devs.configure(conf.ScanDevices)
	e.Reconfigure(conf.Engine)
	e.SetLights(newSysfsLights(conf.Lighting.Path, conf.LEDs))
	log.Printf("Config reloaded from %s", CONFIG_PATH)
	return nil
}

func main() {
	var err error
	defer func() { // Report panic, if one occured
		if *DEBUG {
			return
		} // StackTrace is only interesting along debug
		if r := recover(); r != nil {
			fmt.Printf("%v\n", r)
			os.Exit(1)
		}
	}()

	flags(os.Args[1:])
	if CONF, err = loadConfig(CONFIG_PATH); err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	devs := newDevices(CONF.ScanDevices, !*TEST_MODE)
	devs.scan() // Start keyloggers
	defer devs.close()

	if *TEST_MODE {
		serve(ctx, nil, devs)
		return
	}

	// Attach virtual keyboard
	out, err := newVirtualKeyboard()
	if err != nil {
		panic(err)
	}
	lights := newSysfsLights(CONF.Lighting.Path, CONF.LEDs)

	e := engine.New(CONF.Engine, out, lights, engine.Hooks{
		Exec:      runExec(ctx),
		OnResolve: onResolve,
		Logf:      logDebug,
	})
	defer e.Reset() // never leave a key down on the way out

	go watchConfig(ctx, CONFIG_PATH, reloads)
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			select {
			case reloads <- struct{}{}:
			default:
			}
		}
	}()

	serve(ctx, e, devs) // Main loop
}
